package ai_bot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func TestHTTPClient_SendPrompt(t *testing.T) {
	t.Run("prompt is sent as a query parameter", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/get_prompt_response" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}

			io.WriteString(w, "echo: "+r.URL.Query().Get("prompt")+"\n")
		}))
		defer server.Close()

		client, err := NewClient(&Config{ApiHost: server.URL + "/"})
		if err != nil {
			t.Fatalf("NewClient: %v", err)
		}

		resp, err := client.SendPrompt(context.Background(), nil, "what time is it")
		if err != nil {
			t.Fatalf("SendPrompt: %v", err)
		}

		if resp != "echo: what time is it" {
			t.Errorf("unexpected response %q", resp)
		}
	})

	t.Run("non-200 responses are errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client, _ := NewClient(&Config{ApiHost: server.URL})

		if _, err := client.SendPrompt(context.Background(), nil, "hi"); err == nil {
			t.Errorf("expected error")
		}
	})

	t.Run("a cancelled context aborts the request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "late")
		}))
		defer server.Close()

		client, _ := NewClient(&Config{ApiHost: server.URL})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := client.SendPrompt(ctx, nil, "hi"); err == nil {
			t.Errorf("expected error")
		}
	})

	t.Run("host is required", func(t *testing.T) {
		if _, err := NewClient(&Config{}); err == nil {
			t.Errorf("expected error")
		}
	})
}

func TestOpenAIClient_SendPrompt(t *testing.T) {
	t.Run("history is replayed before the new prompt", func(t *testing.T) {
		var got openai.ChatCompletionRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/chat/completions" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}

			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decode: %v", err)
			}

			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"hi there"}}]}`)
		}))
		defer server.Close()

		cfg := openai.DefaultConfig("test-key")
		cfg.BaseURL = server.URL + "/v1"

		bot, err := NewOpenAI(&OpenAIConfig{
			Client:       openai.NewClientWithConfig(cfg),
			SystemPrompt: "be brief",
		})
		if err != nil {
			t.Fatalf("NewOpenAI: %v", err)
		}

		reply, err := bot.SendPrompt(context.Background(), []Turn{{Prompt: "hello", Reply: "hey"}}, "how are you")
		if err != nil {
			t.Fatalf("SendPrompt: %v", err)
		}

		if reply != "hi there" {
			t.Errorf("expected %q, got %q", "hi there", reply)
		}

		if got.Model != DefaultModel {
			t.Errorf("expected model %q, got %q", DefaultModel, got.Model)
		}

		wantRoles := []string{
			openai.ChatMessageRoleSystem,
			openai.ChatMessageRoleUser,
			openai.ChatMessageRoleAssistant,
			openai.ChatMessageRoleUser,
		}
		wantContent := []string{"be brief", "hello", "hey", "how are you"}

		if len(got.Messages) != len(wantRoles) {
			t.Fatalf("expected %d messages, got %d", len(wantRoles), len(got.Messages))
		}

		for i, m := range got.Messages {
			if m.Role != wantRoles[i] || m.Content != wantContent[i] {
				t.Errorf("message %d: expected %s %q, got %s %q", i, wantRoles[i], wantContent[i], m.Role, m.Content)
			}
		}
	})

	t.Run("empty choices are an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"choices":[]}`)
		}))
		defer server.Close()

		cfg := openai.DefaultConfig("test-key")
		cfg.BaseURL = server.URL + "/v1"

		bot, _ := NewOpenAI(&OpenAIConfig{Client: openai.NewClientWithConfig(cfg)})

		if _, err := bot.SendPrompt(context.Background(), nil, "hi"); err == nil {
			t.Errorf("expected error")
		}
	})
}
