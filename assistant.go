package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"audible-assistant/clients/ai_bot"
	"audible-assistant/config"
	"audible-assistant/conversation"
	"audible-assistant/device"
	"audible-assistant/pipeline"
	"audible-assistant/speech_to_text"
	"audible-assistant/text_to_speech"
	"audible-assistant/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/sashabaranov/go-openai"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func runAssistant(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	// The terminal belongs to the UI, so logs go to a file.
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	logger := log.NewWithOptions(logFile, log.Options{
		ReportTimestamp: true,
		Level:           cfg.Level(),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, closeBackends, err := buildPipeline(cfg, logger)
	defer closeBackends()
	if err != nil {
		return err
	}

	recorder, err := device.NewRecorder(&device.RecorderConfig{
		FileSys: afero.NewOsFs(),
		Path:    cfg.Capture.Path,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	player, err := device.NewPlayer(&device.PlayerConfig{Logger: logger})
	if err != nil {
		return err
	}

	defer func() {
		if err := device.Terminate(); err != nil {
			logger.Warn("terminating audio", "err", err)
		}
	}()

	machine, err := conversation.New(&conversation.Config{
		Recorder:         recorder,
		Player:           player,
		Pipeline:         p,
		Voice:            cfg.SelectedVoice(),
		Format:           cfg.CaptureFormat(),
		MeterInterval:    cfg.MeterInterval,
		DecisionInterval: cfg.DecisionInterval,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		errc <- machine.Run(ctx)
	}()

	_, uiErr := tea.NewProgram(ui.New(machine), tea.WithAltScreen(), tea.WithContext(ctx)).Run()

	cancel()
	runErr := <-errc

	if uiErr != nil && !errors.Is(uiErr, tea.ErrProgramKilled) {
		return uiErr
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	logger.Info("bye")

	return nil
}

// buildPipeline wires the configured stage backends. The returned func
// releases whatever they hold.
func buildPipeline(cfg *config.Config, logger *log.Logger) (*pipeline.Pipeline, func(), error) {
	closeBackends := func() {}
	client := openai.NewClient(cfg.OpenAIAPIKey)

	var (
		transcriber speech_to_text.Interface
		err         error
	)

	switch cfg.Transcription.Backend {
	case config.BackendWhisper:
		var closer io.Closer

		transcriber, closer, err = speech_to_text.NewWhisper(&speech_to_text.WhisperConfig{
			ModelPath: cfg.Transcription.ModelPath,
			Language:  cfg.Transcription.Language,
		})
		if err != nil {
			return nil, closeBackends, fmt.Errorf("error loading model: %w", err)
		}

		closeBackends = func() {
			if err := closer.Close(); err != nil {
				logger.Warn("closing whisper model", "err", err)
			}
		}
	default:
		transcriber, err = speech_to_text.NewOpenAI(&speech_to_text.OpenAIConfig{
			Client:   client,
			Model:    cfg.Transcription.Model,
			Language: cfg.Transcription.Language,
		})
		if err != nil {
			return nil, closeBackends, err
		}
	}

	var bot ai_bot.AIBotAPI

	switch cfg.Chat.Backend {
	case config.BackendHTTP:
		bot, err = ai_bot.NewClient(&ai_bot.Config{ApiHost: cfg.Chat.BotHost})
	default:
		bot, err = ai_bot.NewOpenAI(&ai_bot.OpenAIConfig{
			Client:       client,
			Model:        cfg.Chat.Model,
			SystemPrompt: cfg.Chat.SystemPrompt,
			MaxTokens:    cfg.Chat.MaxTokens,
		})
	}
	if err != nil {
		return nil, closeBackends, err
	}

	synthesizer, err := text_to_speech.NewOpenAI(&text_to_speech.OpenAIConfig{
		Client: client,
		Model:  cfg.Speech.Model,
	})
	if err != nil {
		return nil, closeBackends, err
	}

	p, err := pipeline.New(&pipeline.Config{
		Transcriber: transcriber,
		Bot:         bot,
		Synthesizer: synthesizer,
		Logger:      logger,
	})
	if err != nil {
		return nil, closeBackends, err
	}

	logger.Info("backends ready",
		"transcription", cfg.Transcription.Backend,
		"chat", cfg.Chat.Backend,
		"voice", cfg.Voice,
	)

	return p, closeBackends, nil
}
