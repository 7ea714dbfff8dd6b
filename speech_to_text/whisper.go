//go:build whispercpp

package speech_to_text

import (
	"context"
	"errors"
	"fmt"
	"io"

	"audible-assistant/device"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// WhisperAvailable reports whether the local whisper.cpp backend is compiled in.
func WhisperAvailable() bool { return true }

type whisperImpl struct {
	model    whisper.Model
	language string
}

type WhisperConfig struct {
	ModelPath string
	Language  string
}

// NewWhisper loads a whisper.cpp model. The returned Closer releases it.
func NewWhisper(cfg *WhisperConfig) (Interface, io.Closer, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("config is nil")
	}

	if cfg.ModelPath == "" {
		return nil, nil, fmt.Errorf("model path is empty")
	}

	model, err := whisper.New(cfg.ModelPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading whisper model: %w", err)
	}

	return &whisperImpl{
		model:    model,
		language: cfg.Language,
	}, model, nil
}

func (stt *whisperImpl) Transcribe(ctx context.Context, audio []byte) (string, error) {
	buf, err := device.DecodeWAV(audio)
	if err != nil {
		return "", err
	}

	samples := resample(toMonoFloat(buf), buf.Format.SampleRate, whisperSampleRate)

	// Create processing context
	context, err := stt.model.NewContext()
	if err != nil {
		return "", err
	}

	if stt.language != "" {
		if err = context.SetLanguage(stt.language); err != nil {
			return "", err
		}
	}

	if err = ctx.Err(); err != nil {
		return "", err
	}

	var cb whisper.SegmentCallback

	err = context.Process(toFloat32(samples), cb)
	if err != nil {
		return "", err
	}

	texts := make([]string, 0)

	for {
		segment, err := context.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return "", err
		}

		texts = append(texts, segment.Text)
	}

	text := joinSegments(texts)
	if text == "" {
		return "", ErrNoSpeech
	}

	return text, nil
}
