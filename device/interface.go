package device

// Format describes the PCM layout a Recorder captures into.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// CaptureFormat is the single capture target: mono 12 kHz 16-bit.
var CaptureFormat = Format{
	SampleRate:    12000,
	Channels:      1,
	BitsPerSample: 16,
}

// Recorder owns the microphone. Finished reports false when capture stops
// on its own because of a device failure; it is only valid after Start.
type Recorder interface {
	Start(format Format) error
	AveragePower() float64
	Stop() ([]byte, error)
	Finished() <-chan bool
}

// Player owns the speaker. Finished reports true once the buffer has been
// played to the end and is never signalled for a stopped playback.
type Player interface {
	Start(audio []byte) error
	AveragePower() float64
	Stop()
	Finished() <-chan bool
}
