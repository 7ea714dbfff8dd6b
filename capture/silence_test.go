package capture

import (
	"math/rand"
	"testing"
)

func TestSilenceDetector_Observe(t *testing.T) {
	t.Run("first sample always continues", func(t *testing.T) {
		for _, level := range []float64{0, 0.1, 0.5, 1} {
			d := NewSilenceDetector()
			if got := d.Observe(level); got != Continue {
				t.Errorf("level %v: expected continue, got %v", level, got)
			}
		}
	})

	cases := []struct {
		name     string
		previous float64
		current  float64
		want     Decision
	}{
		{"two quiet samples stop", 0.1, 0.1, Stop},
		{"just under both thresholds stops", 0.2499, 0.1749, Stop},
		{"previous at threshold continues", 0.25, 0.1, Continue},
		{"current at threshold continues", 0.1, 0.175, Continue},
		{"brief dip after speech continues", 0.6, 0.05, Continue},
		{"speech after a pause continues", 0.1, 0.8, Continue},
		{"loud throughout continues", 0.9, 0.9, Continue},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := NewSilenceDetector()
			d.Observe(c.previous)

			if got := d.Observe(c.current); got != c.want {
				t.Errorf("expected %v, got %v", c.want, got)
			}
		})
	}

	t.Run("a dip followed by silence stops on the second quiet sample", func(t *testing.T) {
		d := NewSilenceDetector()

		decisions := []Decision{
			d.Observe(0.7),
			d.Observe(0.2),
			d.Observe(0.1),
		}

		want := []Decision{Continue, Continue, Stop}
		for i := range want {
			if decisions[i] != want[i] {
				t.Errorf("sample %d: expected %v, got %v", i, want[i], decisions[i])
			}
		}
	})

	t.Run("random sequences follow the hysteresis rule", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))

		for run := 0; run < 200; run++ {
			d := NewSilenceDetector()
			previous := -1.0

			for i := 0; i < 30; i++ {
				level := rng.Float64() * 0.5

				got := d.Observe(level)

				want := Continue
				if previous >= 0 && previous < PreviousThreshold && level < CurrentThreshold {
					want = Stop
				}

				if got != want {
					t.Fatalf("run %d sample %d (prev %v, cur %v): expected %v, got %v",
						run, i, previous, level, want, got)
				}

				if got == Stop {
					break
				}

				previous = level
			}
		}
	})
}

func TestSilenceDetector_Reset(t *testing.T) {
	t.Run("reset forgets the previous sample", func(t *testing.T) {
		d := NewSilenceDetector()
		d.Observe(0.1)
		d.Reset()

		if got := d.Observe(0.1); got != Continue {
			t.Errorf("expected continue after reset, got %v", got)
		}
	})
}
