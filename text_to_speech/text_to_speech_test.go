package text_to_speech

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func TestOpenAI_Synthesize(t *testing.T) {
	t.Run("requests wav in the selected voice", func(t *testing.T) {
		var got map[string]any

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/audio/speech" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}

			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decode: %v", err)
			}

			w.Header().Set("Content-Type", "audio/wav")
			io.WriteString(w, "RIFF....WAVE")
		}))
		defer server.Close()

		cfg := openai.DefaultConfig("test-key")
		cfg.BaseURL = server.URL + "/v1"

		tts, err := NewOpenAI(&OpenAIConfig{Client: openai.NewClientWithConfig(cfg)})
		if err != nil {
			t.Fatalf("NewOpenAI: %v", err)
		}

		audio, err := tts.Synthesize(context.Background(), "hi there", VoiceFable)
		if err != nil {
			t.Fatalf("Synthesize: %v", err)
		}

		if string(audio) != "RIFF....WAVE" {
			t.Errorf("unexpected audio %q", audio)
		}

		if got["voice"] != "fable" || got["input"] != "hi there" || got["response_format"] != "wav" || got["model"] != "tts-1" {
			t.Errorf("unexpected request %v", got)
		}
	})

	t.Run("service errors are reported", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			io.WriteString(w, `{"error":{"message":"slow down","type":"rate_limit"}}`)
		}))
		defer server.Close()

		cfg := openai.DefaultConfig("test-key")
		cfg.BaseURL = server.URL + "/v1"

		tts, _ := NewOpenAI(&OpenAIConfig{Client: openai.NewClientWithConfig(cfg)})

		if _, err := tts.Synthesize(context.Background(), "hi", VoiceAlloy); err == nil {
			t.Errorf("expected error")
		}
	})
}

func TestVoice(t *testing.T) {
	t.Run("every listed voice parses", func(t *testing.T) {
		for _, v := range Voices() {
			got, err := ParseVoice(string(v))
			if err != nil || got != v {
				t.Errorf("expected %q, got %q (%v)", v, got, err)
			}
		}
	})

	t.Run("unknown voices are rejected", func(t *testing.T) {
		if _, err := ParseVoice("nova-ultra"); err == nil {
			t.Errorf("expected error")
		}
	})

	t.Run("next cycles through the list", func(t *testing.T) {
		if got := VoiceAlloy.Next(); got != VoiceEcho {
			t.Errorf("expected echo, got %q", got)
		}

		if got := VoiceShimmer.Next(); got != VoiceAlloy {
			t.Errorf("expected alloy, got %q", got)
		}
	})
}
