package ai_bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// clientImpl talks to a self-hosted bot exposing GET /get_prompt_response.
// The bot keeps its own conversation state, so history is not forwarded.
type clientImpl struct {
	apiHost    string
	httpClient *http.Client
}

type Config struct {
	ApiHost    string
	HTTPClient *http.Client
}

func NewClient(cfg *Config) (AIBotAPI, error) {
	if cfg == nil {
		return nil, errors.New("missing parameter: cfg")
	}

	if cfg.ApiHost == "" {
		return nil, errors.New("missing parameter: cfg.ApiHost")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &clientImpl{
		apiHost:    strings.TrimSuffix(cfg.ApiHost, "/"),
		httpClient: httpClient,
	}, nil
}

func (client *clientImpl) SendPrompt(ctx context.Context, _ []Turn, prompt string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, client.apiHost+"/get_prompt_response", nil)
	if err != nil {
		return "", err
	}

	q := req.URL.Query()
	q.Add("prompt", prompt)
	req.URL.RawQuery = q.Encode()

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return "", err
	}

	defer resp.Body.Close()

	// get the response body
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bot returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	return strings.TrimSpace(string(body)), nil
}
