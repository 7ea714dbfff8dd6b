//go:build !whispercpp

package speech_to_text

import (
	"errors"
	"io"
)

// ErrWhisperUnavailable is returned when the binary was built without the
// whispercpp tag.
var ErrWhisperUnavailable = errors.New("whisper backend not compiled in (build with -tags whispercpp)")

func WhisperAvailable() bool { return false }

type WhisperConfig struct {
	ModelPath string
	Language  string
}

func NewWhisper(cfg *WhisperConfig) (Interface, io.Closer, error) {
	return nil, nil, ErrWhisperUnavailable
}
