package meter

import (
	"math"
	"testing"
)

type constSource float64

func (c constSource) AveragePower() float64 {
	return float64(c)
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name    string
		power   float64
		divisor float64
		want    float64
	}{
		{"full scale is loudest", 0, CaptureDivisor, 1},
		{"half of capture range", -25, CaptureDivisor, 0.5},
		{"below capture floor clamps to zero", -80, CaptureDivisor, 0},
		{"playback divisor keeps quiet output visible", -80, PlaybackDivisor, 0.5},
		{"positive readings are treated by magnitude", 10, CaptureDivisor, 0.8},
		{"nan reads as silence", math.NaN(), CaptureDivisor, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Normalize(c.power, c.divisor)
			if math.Abs(got-c.want) > 1e-9 {
				t.Errorf("expected %v, got %v", c.want, got)
			}
		})
	}
}

func TestMeter_Level(t *testing.T) {
	t.Run("meter reads its source through the divisor", func(t *testing.T) {
		m, err := New(constSource(-45), CaptureDivisor)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := m.Level(); math.Abs(got-0.1) > 1e-9 {
			t.Errorf("expected 0.1, got %v", got)
		}
	})

	t.Run("nil source is rejected", func(t *testing.T) {
		if _, err := New(nil, CaptureDivisor); err == nil {
			t.Errorf("expected error for nil source")
		}
	})

	t.Run("non-positive divisor is rejected", func(t *testing.T) {
		if _, err := New(constSource(0), 0); err == nil {
			t.Errorf("expected error for zero divisor")
		}
	})
}

func TestAveragePower(t *testing.T) {
	t.Run("silence reports the floor", func(t *testing.T) {
		if got := AveragePower(make([]int16, 64)); got != MinPower {
			t.Errorf("expected %v, got %v", MinPower, got)
		}
	})

	t.Run("empty frame reports the floor", func(t *testing.T) {
		if got := AveragePower(nil); got != MinPower {
			t.Errorf("expected %v, got %v", MinPower, got)
		}
	})

	t.Run("full scale is 0 dBFS", func(t *testing.T) {
		samples := make([]int16, 64)
		for i := range samples {
			samples[i] = -32768
		}

		if got := AveragePower(samples); math.Abs(got) > 1e-9 {
			t.Errorf("expected 0, got %v", got)
		}
	})

	t.Run("halving amplitude drops about 6 dB", func(t *testing.T) {
		loud := []int16{16384, -16384, 16384, -16384}
		quiet := []int16{8192, -8192, 8192, -8192}

		diff := AveragePower(loud) - AveragePower(quiet)
		if math.Abs(diff-6.0206) > 0.01 {
			t.Errorf("expected ~6.02 dB difference, got %v", diff)
		}
	})
}
