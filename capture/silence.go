package capture

const (
	// PreviousThreshold and CurrentThreshold form the end-of-speech
	// hysteresis: the previous decision sample must be below the wider
	// threshold and the current one below the tighter one.
	PreviousThreshold = 0.25
	CurrentThreshold  = 0.175
)

type Decision int

const (
	Continue Decision = iota
	Stop
)

func (d Decision) String() string {
	if d == Stop {
		return "stop"
	}

	return "continue"
}

// SilenceDetector decides when the speaker has stopped talking from
// consecutive signal-level samples taken at the decision cadence.
type SilenceDetector struct {
	previous float64
	primed   bool
}

func NewSilenceDetector() *SilenceDetector {
	return &SilenceDetector{}
}

func (d *SilenceDetector) Observe(level float64) Decision {
	if !d.primed {
		d.previous = level
		d.primed = true

		return Continue
	}

	if d.previous < PreviousThreshold && level < CurrentThreshold {
		return Stop
	}

	d.previous = level

	return Continue
}

func (d *SilenceDetector) Reset() {
	d.previous = 0
	d.primed = false
}
