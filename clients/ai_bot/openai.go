package ai_bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultModel        = openai.GPT4oMini
	DefaultSystemPrompt = "You are a helpful voice assistant. Your replies are read aloud, so keep them short and conversational."
)

type openAIImpl struct {
	client       *openai.Client
	model        string
	systemPrompt string
	maxTokens    int
}

type OpenAIConfig struct {
	Client       *openai.Client
	Model        string
	SystemPrompt string
	MaxTokens    int
}

func NewOpenAI(cfg *OpenAIConfig) (AIBotAPI, error) {
	if cfg == nil {
		return nil, errors.New("missing parameter: cfg")
	}

	if cfg.Client == nil {
		return nil, errors.New("missing parameter: cfg.Client")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	return &openAIImpl{
		client:       cfg.Client,
		model:        model,
		systemPrompt: systemPrompt,
		maxTokens:    cfg.MaxTokens,
	}, nil
}

func (o *openAIImpl) SendPrompt(ctx context.Context, history []Turn, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.model,
		MaxTokens: o.maxTokens,
		Messages:  o.messages(history, prompt),
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("OpenAI API returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func (o *openAIImpl) messages(history []Turn, prompt string) []openai.ChatCompletionMessage {
	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: o.systemPrompt,
		},
	}

	for _, turn := range history {
		messages = append(messages,
			openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: turn.Prompt,
			},
			openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: turn.Reply,
			},
		)
	}

	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})
}
