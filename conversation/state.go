package conversation

import "audible-assistant/text_to_speech"

type Mode int

const (
	ModeIdle Mode = iota
	ModeRecording
	ModeProcessing
	ModePlaying
	ModeError
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeRecording:
		return "recording"
	case ModeProcessing:
		return "processing"
	case ModePlaying:
		return "playing"
	case ModeError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the machine for renderers.
type Snapshot struct {
	Mode Mode
	// Error holds the failure message while Mode is ModeError.
	Error      string
	Level      float64
	Transcript []Exchange
	Voice      text_to_speech.Voice
	Voices     []text_to_speech.Voice
	// Pending names the in-flight cancellable operation, if any.
	Pending string
}

func (s Snapshot) Idle() bool {
	return s.Mode == ModeIdle
}

// CanStart reports whether a new recording may begin.
func (s Snapshot) CanStart() bool {
	return s.Mode == ModeIdle || s.Mode == ModeError
}
