package kafkax

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer is a buffered async writer: Publish never blocks the request
// path beyond the channel buffer, and Close flushes whatever is queued.
type Producer struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
	log     *zap.SugaredLogger
}

func NewProducer(brokers []string, topic string, buf int, log *zap.SugaredLogger) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		log:     log,
	}
}

func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.drain()
				return
			case m, ok := <-p.inbox:
				if !ok {
					_ = p.w.Close()
					return
				}
				p.write(m)
			}
		}
	}()
}

func (p *Producer) drain() {
	for {
		select {
		case m, ok := <-p.inbox:
			if !ok {
				_ = p.w.Close()
				return
			}
			p.write(m)
		default:
			_ = p.w.Close()
			return
		}
	}
}

func (p *Producer) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		p.log.Warnw("kafka publish failed", "topic", p.w.Topic, "err", err)
	}
}

func (p *Producer) Publish(key, value []byte) {
	select {
	case p.inbox <- kafka.Message{Key: key, Value: value, Time: time.Now()}:
	default:
		p.log.Warnw("kafka inbox full, dropping message", "topic", p.w.Topic)
	}
}

// Close stops accepting messages; the loop flushes the remainder and exits.
func (p *Producer) Close() { close(p.inbox) }

// WaitClosed blocks until the loop has exited.
func (p *Producer) WaitClosed() { <-p.closeCh }
