package cart

import (
	"context"
	"errors"
	"testing"
)

func TestParseCounts_FiltersZeroAndGarbage(t *testing.T) {
	t.Parallel()

	raw := map[string]string{
		"1":   "2",
		"2":   "0",  // logically absent
		"3":   "-1", // floored entries never surface
		"4":   "x",
		"abc": "5",
		"7":   "1",
	}
	got := parseCounts(raw)

	if len(got) != 2 {
		t.Fatalf("len=%d, want 2: %v", len(got), got)
	}
	if got[1] != 2 || got[7] != 1 {
		t.Fatalf("unexpected lines: %v", got)
	}
}

func TestParseCounts_Empty(t *testing.T) {
	t.Parallel()

	if got := parseCounts(nil); len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
}

func TestUpdateCount_UnknownAction(t *testing.T) {
	t.Parallel()

	s := NewStore(nil)
	err := s.UpdateCount(context.Background(), "sess", 1, "EXPLODE")
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("err=%v, want ErrUnknownAction", err)
	}
}
