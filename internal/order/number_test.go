package order

import "testing"

func TestNextNumber(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		last string
		year int
		want string
	}{
		{"no prior order", "", 2025, "ORD-2025-001"},
		{"increments sequence", "ORD-2024-005", 2024, "ORD-2024-006"},
		{"year rolls over with sequence intact", "ORD-2024-042", 2025, "ORD-2025-043"},
		{"malformed two parts resets", "ORD-17", 2025, "ORD-2025-001"},
		{"malformed four parts resets", "ORD-2024-01-02", 2025, "ORD-2025-001"},
		{"non-numeric tail resets", "ORD-2024-abc", 2025, "ORD-2025-001"},
		{"sequence widens past 999", "ORD-2025-999", 2025, "ORD-2025-1000"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NextNumber(tc.last, tc.year); got != tc.want {
				t.Fatalf("NextNumber(%q, %d)=%q, want %q", tc.last, tc.year, got, tc.want)
			}
		})
	}
}
