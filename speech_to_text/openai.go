package speech_to_text

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// captureFileName tells the API which container the upload is in.
const captureFileName = "recording.wav"

type openAIImpl struct {
	client   *openai.Client
	model    string
	language string
}

type OpenAIConfig struct {
	Client *openai.Client
	// Model defaults to whisper-1.
	Model    string
	Language string
}

func NewOpenAI(cfg *OpenAIConfig) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("client is nil")
	}

	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}

	return &openAIImpl{
		client:   cfg.Client,
		model:    model,
		language: cfg.Language,
	}, nil
}

func (stt *openAIImpl) Transcribe(ctx context.Context, audio []byte) (string, error) {
	resp, err := stt.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    stt.model,
		FilePath: captureFileName,
		Reader:   bytes.NewReader(audio),
		Language: stt.language,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrNoSpeech
	}

	return text, nil
}
