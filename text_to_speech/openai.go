package text_to_speech

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
)

type openAIImpl struct {
	client *openai.Client
	model  openai.SpeechModel
}

type OpenAIConfig struct {
	Client *openai.Client
	// Model defaults to tts-1.
	Model string
}

func NewOpenAI(cfg *OpenAIConfig) (Interface, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	if cfg.Client == nil {
		return nil, errors.New("client is nil")
	}

	model := openai.SpeechModel(cfg.Model)
	if model == "" {
		model = openai.TTSModel1
	}

	return &openAIImpl{
		client: cfg.Client,
		model:  model,
	}, nil
}

func (o *openAIImpl) Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error) {
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          o.model,
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatWav,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("reading speech: %w", err)
	}

	if len(audio) == 0 {
		return nil, errors.New("OpenAI API returned empty audio")
	}

	return audio, nil
}
