package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"audible-assistant/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "audible-assistant",
	Short:        "Talk to an assistant from the terminal",
	Long:         `Records what you say, transcribes it, asks a chat model for a reply and speaks the reply back.`,
	SilenceUsage: true,
	RunE:         runAssistant,
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input and output devices",
	RunE:  runDevices,
}

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the synthesis voices",
	Run:   runVoices,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(voicesCmd)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./config.yaml)")
	flags.String("openai-api-key", "", "OpenAI API key")
	flags.String("voice", "", "synthesis voice")
	flags.String("transcription-backend", "", "transcription backend: openai or whisper")
	flags.StringP("model", "m", "", "whisper.cpp model file")
	flags.String("chat-backend", "", "chat backend: openai or http")
	flags.String("bot-host", "", "base URL of the http chat backend")
	flags.String("log-level", "", "log level")
	flags.String("log-file", "", "log file")

	viper.BindPFlag("openai_api_key", flags.Lookup("openai-api-key"))
	viper.BindPFlag("voice", flags.Lookup("voice"))
	viper.BindPFlag(
		"transcription.backend",
		flags.Lookup("transcription-backend"),
	)
	viper.BindPFlag("transcription.model_path", flags.Lookup("model"))
	viper.BindPFlag("chat.backend", flags.Lookup("chat-backend"))
	viper.BindPFlag("chat.bot_host", flags.Lookup("bot-host"))
	viper.BindPFlag("log_level", flags.Lookup("log-level"))
	viper.BindPFlag("log_file", flags.Lookup("log-file"))
}

func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "audible-assistant"))
		}
	}

	viper.SetEnvPrefix("audible")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
