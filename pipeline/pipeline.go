package pipeline

import (
	"context"
	"errors"
	"fmt"

	"audible-assistant/clients/ai_bot"
	"audible-assistant/speech_to_text"
	"audible-assistant/text_to_speech"

	"github.com/charmbracelet/log"
)

var (
	ErrTranscription = errors.New("transcription failed")
	ErrGeneration    = errors.New("reply generation failed")
	ErrSynthesis     = errors.New("speech synthesis failed")
	// ErrCancelled is reported instead of any stage error once the run's
	// context is done.
	ErrCancelled = errors.New("pipeline cancelled")
)

// Observer is told about transcript-visible progress. Calls happen on the
// pipeline goroutine, strictly before the following stage starts.
type Observer interface {
	PromptTranscribed(prompt string)
	ReplyGenerated(reply string)
}

type Request struct {
	Audio   []byte
	Voice   text_to_speech.Voice
	History []ai_bot.Turn
}

type Config struct {
	Transcriber speech_to_text.Interface
	Bot         ai_bot.AIBotAPI
	Synthesizer text_to_speech.Interface
	Logger      *log.Logger
}

// Pipeline turns a captured utterance into a spoken reply.
type Pipeline struct {
	transcriber speech_to_text.Interface
	bot         ai_bot.AIBotAPI
	synthesizer text_to_speech.Interface
	logger      *log.Logger
}

func New(cfg *Config) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Transcriber == nil {
		return nil, fmt.Errorf("transcriber is nil")
	}

	if cfg.Bot == nil {
		return nil, fmt.Errorf("bot is nil")
	}

	if cfg.Synthesizer == nil {
		return nil, fmt.Errorf("synthesizer is nil")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Pipeline{
		transcriber: cfg.Transcriber,
		bot:         cfg.Bot,
		synthesizer: cfg.Synthesizer,
		logger:      logger.WithPrefix("pipeline"),
	}, nil
}

// Run transcribes, asks the bot and synthesizes the reply. Cancellation is
// checked before every stage and before every observer call.
func (p *Pipeline) Run(ctx context.Context, req Request, obs Observer) ([]byte, error) {
	if err := checkpoint(ctx); err != nil {
		return nil, err
	}

	prompt, err := p.transcriber.Transcribe(ctx, req.Audio)
	if err != nil {
		return nil, p.fail(ctx, ErrTranscription, err)
	}

	if err = checkpoint(ctx); err != nil {
		return nil, err
	}

	p.logger.Info("transcribed", "prompt", prompt)
	obs.PromptTranscribed(prompt)

	reply, err := p.bot.SendPrompt(ctx, req.History, prompt)
	if err != nil {
		return nil, p.fail(ctx, ErrGeneration, err)
	}

	if err = checkpoint(ctx); err != nil {
		return nil, err
	}

	p.logger.Info("bot replied", "reply", reply)
	obs.ReplyGenerated(reply)

	audio, err := p.synthesizer.Synthesize(ctx, reply, req.Voice)
	if err != nil {
		return nil, p.fail(ctx, ErrSynthesis, err)
	}

	if err = checkpoint(ctx); err != nil {
		return nil, err
	}

	p.logger.Debug("synthesized", "bytes", len(audio), "voice", req.Voice)

	return audio, nil
}

func (p *Pipeline) fail(ctx context.Context, stage, err error) error {
	if cerr := checkpoint(ctx); cerr != nil {
		return cerr
	}

	p.logger.Error("stage failed", "stage", stage, "err", err)

	return fmt.Errorf("%w: %w", stage, err)
}

func checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	return nil
}
