package meter

import (
	"fmt"
	"math"
)

const (
	// CaptureDivisor maps microphone power onto [0,1]; -50 dBFS and below reads as silence.
	CaptureDivisor = 50.0
	// PlaybackDivisor is wider because output levels sit much lower on the dBFS scale.
	PlaybackDivisor = 160.0

	// MinPower is the floor reported for digital silence.
	MinPower = -160.0
)

// Source is anything that can report its current average power in dBFS (<= 0).
type Source interface {
	AveragePower() float64
}

type Meter struct {
	source  Source
	divisor float64
}

func New(source Source, divisor float64) (*Meter, error) {
	if source == nil {
		return nil, fmt.Errorf("source is nil")
	}

	if divisor <= 0 {
		return nil, fmt.Errorf("divisor must be positive, got %v", divisor)
	}

	return &Meter{
		source:  source,
		divisor: divisor,
	}, nil
}

// Level samples the source and returns a normalized signal level.
func (m *Meter) Level() float64 {
	return Normalize(m.source.AveragePower(), m.divisor)
}

// Normalize converts a dBFS power reading into a level in [0,1].
func Normalize(power, divisor float64) float64 {
	if math.IsNaN(power) {
		return 0
	}

	return math.Min(1, math.Max(0, 1-math.Abs(power)/divisor))
}

// AveragePower returns the RMS power of the samples in dBFS, clamped at MinPower.
func AveragePower(samples []int16) float64 {
	if len(samples) == 0 {
		return MinPower
	}

	var sum float64

	for _, s := range samples {
		v := float64(s) / 32768
		sum += v * v
	}

	rms := math.Sqrt(sum / float64(len(samples)))
	if rms == 0 {
		return MinPower
	}

	return math.Max(MinPower, 20*math.Log10(rms))
}
