package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"audible-assistant/clients/ai_bot"
	"audible-assistant/device"
	"audible-assistant/text_to_speech"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

const (
	BackendOpenAI  = "openai"
	BackendWhisper = "whisper"
	BackendHTTP    = "http"

	appName = "audible-assistant"
)

type Transcription struct {
	Backend   string `mapstructure:"backend"`
	Model     string `mapstructure:"model"`
	ModelPath string `mapstructure:"model_path"`
	Language  string `mapstructure:"language"`
}

type Chat struct {
	Backend      string `mapstructure:"backend"`
	Model        string `mapstructure:"model"`
	SystemPrompt string `mapstructure:"system_prompt"`
	MaxTokens    int    `mapstructure:"max_tokens"`
	BotHost      string `mapstructure:"bot_host"`
}

type Speech struct {
	Model string `mapstructure:"model"`
}

type Capture struct {
	Path       string `mapstructure:"path"`
	SampleRate int    `mapstructure:"sample_rate"`
}

type Config struct {
	OpenAIAPIKey     string        `mapstructure:"openai_api_key"`
	Voice            string        `mapstructure:"voice"`
	Transcription    Transcription `mapstructure:"transcription"`
	Chat             Chat          `mapstructure:"chat"`
	Speech           Speech        `mapstructure:"speech"`
	Capture          Capture       `mapstructure:"capture"`
	MeterInterval    time.Duration `mapstructure:"meter_interval"`
	DecisionInterval time.Duration `mapstructure:"decision_interval"`
	LogLevel         string        `mapstructure:"log_level"`
	LogFile          string        `mapstructure:"log_file"`
}

// SetDefaults registers every key so AutomaticEnv can find them on Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("openai_api_key", "")
	v.SetDefault("voice", string(text_to_speech.DefaultVoice))
	v.SetDefault("transcription.backend", BackendOpenAI)
	v.SetDefault("transcription.model", "whisper-1")
	v.SetDefault("transcription.model_path", "")
	v.SetDefault("transcription.language", "")
	v.SetDefault("chat.backend", BackendOpenAI)
	v.SetDefault("chat.model", ai_bot.DefaultModel)
	v.SetDefault("chat.system_prompt", ai_bot.DefaultSystemPrompt)
	v.SetDefault("chat.max_tokens", 0)
	v.SetDefault("chat.bot_host", "")
	v.SetDefault("speech.model", "tts-1")
	v.SetDefault("capture.path", DefaultCapturePath())
	v.SetDefault("capture.sample_rate", device.CaptureFormat.SampleRate)
	v.SetDefault("meter_interval", 200*time.Millisecond)
	v.SetDefault("decision_interval", 1600*time.Millisecond)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "assistant.log")
}

// Load unmarshals v and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate fills unset fields with defaults and rejects inconsistent ones.
func (c *Config) Validate() error {
	if c.Voice == "" {
		c.Voice = string(text_to_speech.DefaultVoice)
	}

	if _, err := text_to_speech.ParseVoice(c.Voice); err != nil {
		return err
	}

	if c.Transcription.Backend == "" {
		c.Transcription.Backend = BackendOpenAI
	}

	switch c.Transcription.Backend {
	case BackendOpenAI:
	case BackendWhisper:
		if c.Transcription.ModelPath == "" {
			return errors.New("transcription.model_path is required for the whisper backend")
		}
	default:
		return fmt.Errorf("unknown transcription backend %q", c.Transcription.Backend)
	}

	if c.Chat.Backend == "" {
		c.Chat.Backend = BackendOpenAI
	}

	switch c.Chat.Backend {
	case BackendOpenAI:
	case BackendHTTP:
		if c.Chat.BotHost == "" {
			return errors.New("chat.bot_host is required for the http backend")
		}
	default:
		return fmt.Errorf("unknown chat backend %q", c.Chat.Backend)
	}

	if c.Chat.MaxTokens < 0 {
		return fmt.Errorf("chat.max_tokens must not be negative, got %d", c.Chat.MaxTokens)
	}

	// Synthesis has no local backend.
	if c.OpenAIAPIKey == "" {
		return errors.New("openai_api_key is required")
	}

	if c.Capture.Path == "" {
		c.Capture.Path = DefaultCapturePath()
	}

	if c.Capture.SampleRate == 0 {
		c.Capture.SampleRate = device.CaptureFormat.SampleRate
	}

	if c.Capture.SampleRate < 8000 {
		return fmt.Errorf("capture.sample_rate too low: %d", c.Capture.SampleRate)
	}

	if c.MeterInterval <= 0 {
		c.MeterInterval = 200 * time.Millisecond
	}

	if c.DecisionInterval <= 0 {
		c.DecisionInterval = 1600 * time.Millisecond
	}

	if c.DecisionInterval < c.MeterInterval {
		return fmt.Errorf("decision_interval %s is shorter than meter_interval %s", c.DecisionInterval, c.MeterInterval)
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	return nil
}

func (c *Config) SelectedVoice() text_to_speech.Voice {
	v, err := text_to_speech.ParseVoice(c.Voice)
	if err != nil {
		return text_to_speech.DefaultVoice
	}

	return v
}

func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}

	return level
}

// CaptureFormat is the recorder target built from the capture settings.
func (c *Config) CaptureFormat() device.Format {
	f := device.CaptureFormat
	if c.Capture.SampleRate > 0 {
		f.SampleRate = c.Capture.SampleRate
	}

	return f
}

// DefaultCapturePath puts the capture file in the user cache directory.
func DefaultCapturePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}

	return filepath.Join(dir, appName, "recording.wav")
}
