package text_to_speech

import "context"

type Interface interface {
	// Synthesize renders text as a playable WAV buffer.
	Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error)
}
