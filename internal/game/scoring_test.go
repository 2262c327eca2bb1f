package game

import "testing"

func TestPointsGained(t *testing.T) {
	cases := []struct {
		base, limit int
		used        float64
		want        int
	}{
		{1000, 30, 0, 1500},
		{1000, 30, 30, 1000},
		{1000, 30, 15, 1250},
		{1000, 30, 45, 1000},  // overtime still earns full base points
		{1000, 30, -10, 1500}, // negative time used clamps to zero
		{100, 20, 5, 138},
	}
	for _, tc := range cases {
		if got := PointsGained(tc.base, tc.limit, tc.used); got != tc.want {
			t.Fatalf("PointsGained(%d,%d,%v) = %d, want %d", tc.base, tc.limit, tc.used, got, tc.want)
		}
	}
}

func TestPointsGainedDegenerateLimit(t *testing.T) {
	if got := PointsGained(500, 0, 3); got != 500 {
		t.Fatalf("expected base points for zero limit, got %d", got)
	}
}
