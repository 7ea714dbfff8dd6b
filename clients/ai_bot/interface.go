package ai_bot

import "context"

// Turn is one completed exchange, sent as conversation context.
type Turn struct {
	Prompt string
	Reply  string
}

type AIBotAPI interface {
	SendPrompt(ctx context.Context, history []Turn, prompt string) (string, error)
}
