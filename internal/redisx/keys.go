package redisx

import "time"

const (
	// Session cart hash: cart:{session_id} -> field item_id, value quantity
	KeyCart = "cart:%s"

	// Cached catalog item: item:{item_id} -> JSON
	KeyItem = "item:%d"
)

var (
	TTLCart = 30 * time.Minute
	TTLItem = 10 * time.Second
)
