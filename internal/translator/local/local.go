// Package local implements the translator Engine against a self-hosted LLM.
//
// It supports Ollama's /api/generate and any OpenAI-compatible
// /v1/chat/completions endpoint (Ollama, vLLM, llama.cpp server).
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nadzzz/bhashavaani/internal/config"
	"github.com/nadzzz/bhashavaani/internal/translator"
)

// Engine uses a self-hosted model for translation.
type Engine struct {
	endpoint string
	model    string
	client   *http.Client
}

// New creates a local translator from config.
func New(cfg config.LocalTranslatorCfg) *Engine {
	model := cfg.Model
	if model == "" {
		model = "llama3.1"
	}
	return &Engine{
		endpoint: cfg.Endpoint,
		model:    model,
		client:   &http.Client{},
	}
}

// Name returns the backend identifier.
func (e *Engine) Name() string { return "local" }

// Translate sends text to the LLM endpoint. Endpoints ending in
// /api/generate get the Ollama body, everything else the chat body.
func (e *Engine) Translate(ctx context.Context, text, target string) (string, error) {
	systemPrompt := translator.SystemPrompt(target)

	var reqBody map[string]any
	if strings.HasSuffix(e.endpoint, "/api/generate") {
		reqBody = map[string]any{
			"model":  e.model,
			"system": systemPrompt,
			"prompt": text,
			"stream": false,
		}
	} else {
		reqBody = map[string]any{
			"model": e.model,
			"messages": []map[string]string{
				{"role": "system", "content": systemPrompt},
				{"role": "user", "content": text},
			},
			"temperature": 0.2,
			"stream":      false,
		}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("local LLM request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("local LLM failed (status %d): %s", resp.StatusCode, respBody)
	}

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading LLM response: %w", err)
	}

	content := strings.TrimSpace(extractContent(respData))
	if content == "" {
		return "", errors.New("empty response from local LLM")
	}

	slog.Debug("local translation complete", "target", target, "text_length", len(content))
	return content, nil
}

// Close is a no-op for the local translator.
func (e *Engine) Close() error { return nil }

func extractContent(data []byte) string {
	// OpenAI-compatible: {"choices": [{"message": {"content": "..."}}]}
	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &chatResp); err == nil && len(chatResp.Choices) > 0 {
		return chatResp.Choices[0].Message.Content
	}

	// Ollama: {"response": "..."}
	var ollamaResp struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(data, &ollamaResp); err == nil {
		return ollamaResp.Response
	}

	return ""
}
