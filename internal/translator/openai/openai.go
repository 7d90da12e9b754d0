// Package openai implements the translator Engine using the OpenAI Chat
// Completions API, or any server that speaks it (vLLM, llama.cpp, Ollama's
// /v1 endpoint) when a base URL is configured.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/nadzzz/bhashavaani/internal/config"
	"github.com/nadzzz/bhashavaani/internal/translator"
)

// Engine translates with chat completions.
type Engine struct {
	client *openai.Client
	model  string
}

// New creates an OpenAI translator from config.
func New(cfg config.OpenAIConfig) (*Engine, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, errors.New("openai translator: api_key is required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Engine{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

// Name returns the backend identifier.
func (e *Engine) Name() string { return "openai" }

// Translate sends text with the shared translation prompt.
func (e *Engine) Translate(ctx context.Context, text, target string) (string, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: translator.SystemPrompt(target)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned from chat API")
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	slog.Debug("translation complete", "target", target, "text_length", len(out))
	return out, nil
}

// Close is a no-op for the OpenAI translator.
func (e *Engine) Close() error { return nil }
