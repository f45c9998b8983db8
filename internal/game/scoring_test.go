package game

import "testing"

func TestScorePoints(t *testing.T) {
	tests := []struct {
		name         string
		correct      bool
		elapsedMS    int64
		timeLimitSec int
		want         int
	}{
		{"incorrect scores zero regardless of timing", false, 0, 30, 0},
		{"incorrect past the limit still zero", false, 99999, 30, 0},
		{"correct at activation gets full bonus", true, 0, 30, 150},
		{"correct at 3s of a 30s limit, spec S1", true, 3000, 30, 145},
		{"correct exactly at the limit gets no bonus", true, 30000, 30, 100},
		{"correct past the limit gets no bonus and no penalty", true, 12000, 10, 100},
		{"correct with no time limit set", true, 5000, 0, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorePoints(tt.correct, tt.elapsedMS, tt.timeLimitSec)
			if got != tt.want {
				t.Errorf("scorePoints(%v, %d, %d) = %d, want %d", tt.correct, tt.elapsedMS, tt.timeLimitSec, got, tt.want)
			}
		})
	}
}
