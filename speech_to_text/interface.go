package speech_to_text

import (
	"context"
	"errors"
)

// ErrNoSpeech is returned when a recording transcribes to nothing.
var ErrNoSpeech = errors.New("no speech detected")

type Interface interface {
	// Transcribe turns a WAV capture into text.
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
