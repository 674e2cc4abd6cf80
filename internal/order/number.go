package order

import (
	"fmt"
	"strconv"
	"strings"
)

// NextNumber computes the order number that follows last, formatted as
// ORD-<year>-<seq> with the sequence zero-padded to three digits (wider
// sequences are not clamped). The sequence resets to 1 when last is empty,
// has more or fewer than three '-'-separated parts, or carries a
// non-numeric tail.
func NextNumber(last string, year int) string {
	seq := 1
	if last != "" {
		parts := strings.Split(last, "-")
		if len(parts) == 3 {
			if n, err := strconv.Atoi(parts[2]); err == nil {
				seq = n + 1
			}
		}
	}
	return fmt.Sprintf("ORD-%d-%03d", year, seq)
}
