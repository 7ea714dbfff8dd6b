// Package pipelinetest provides scriptable stage backends.
package pipelinetest

import (
	"context"
	"sync"

	"audible-assistant/clients/ai_bot"
	"audible-assistant/text_to_speech"
)

// Transcriber returns Text, or Err, optionally blocking on Gate first.
type Transcriber struct {
	Text string
	Err  error
	Gate chan struct{}

	mu     sync.Mutex
	calls  int
	audios [][]byte
}

func (f *Transcriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	f.mu.Lock()
	f.calls++
	f.audios = append(f.audios, audio)
	f.mu.Unlock()

	if err := wait(ctx, f.Gate); err != nil {
		return "", err
	}

	return f.Text, f.Err
}

func (f *Transcriber) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

// Audio returns the buffers handed to each call.
func (f *Transcriber) Audio() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([][]byte(nil), f.audios...)
}

// Bot returns Reply, or Err. Entered is signalled when a call begins; the
// call then blocks on Gate if set.
type Bot struct {
	Reply   string
	Err     error
	Gate    chan struct{}
	Entered chan struct{}

	mu      sync.Mutex
	calls   int
	history [][]ai_bot.Turn
}

func (f *Bot) SendPrompt(ctx context.Context, history []ai_bot.Turn, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.history = append(f.history, history)
	f.mu.Unlock()

	if f.Entered != nil {
		f.Entered <- struct{}{}
	}

	if err := wait(ctx, f.Gate); err != nil {
		return "", err
	}

	return f.Reply, f.Err
}

func (f *Bot) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

// History returns the context passed on each call.
func (f *Bot) History() [][]ai_bot.Turn {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([][]ai_bot.Turn(nil), f.history...)
}

type Synthesizer struct {
	Audio []byte
	Err   error

	mu     sync.Mutex
	calls  int
	voices []text_to_speech.Voice
}

func (f *Synthesizer) Synthesize(ctx context.Context, text string, voice text_to_speech.Voice) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.voices = append(f.voices, voice)
	f.mu.Unlock()

	return f.Audio, f.Err
}

func (f *Synthesizer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

func (f *Synthesizer) Voices() []text_to_speech.Voice {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]text_to_speech.Voice(nil), f.voices...)
}

func wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}

	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
