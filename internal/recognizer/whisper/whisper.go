// Package whisper implements the recognizer Engine against a self-hosted
// Whisper-compatible endpoint (whisper.cpp server, faster-whisper, or
// ahmetoner/whisper-asr-webservice).
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/nadzzz/bhashavaani/internal/config"
	"github.com/nadzzz/bhashavaani/internal/language"
	"github.com/nadzzz/bhashavaani/internal/recognizer"
)

// blankMarkers are placeholder transcripts whisper emits for silence.
var blankMarkers = []string{"[BLANK_AUDIO]", "[ Silence ]", "(silence)"}

// Engine transcribes audio over HTTP.
type Engine struct {
	endpoint string
	flavor   string // "openai" or "asr"
	client   *http.Client
}

// New creates a whisper engine from config.
func New(cfg config.WhisperConfig) *Engine {
	flavor := cfg.Type
	if flavor == "" {
		flavor = "openai"
	}
	return &Engine{
		endpoint: cfg.Endpoint,
		flavor:   flavor,
		client:   &http.Client{},
	}
}

// Name returns the backend identifier.
func (e *Engine) Name() string { return "whisper" }

// Transcribe sends the WAV to the configured endpoint. Whisper servers take
// ISO-639-1 codes, so the region suffix of the tag is dropped.
func (e *Engine) Transcribe(ctx context.Context, wav []byte, languageTag string) (string, error) {
	lang := language.BaseCode(languageTag)

	var (
		text string
		err  error
	)
	switch e.flavor {
	case "asr":
		text, err = e.transcribeASR(ctx, wav, lang)
	default:
		text, err = e.transcribeOpenAI(ctx, wav, lang)
	}
	if err != nil {
		return "", err
	}

	for _, marker := range blankMarkers {
		text = strings.ReplaceAll(text, marker, "")
	}
	if strings.TrimSpace(text) == "" {
		return "", recognizer.ErrNoSpeech
	}
	return strings.TrimSpace(text), nil
}

// Close is a no-op for the whisper engine.
func (e *Engine) Close() error { return nil }

// transcribeASR handles the ahmetoner/whisper-asr-webservice format.
// API: POST /asr?task=transcribe&language=en&output=json
// Body: multipart/form-data with field "audio_file"
func (e *Engine) transcribeASR(ctx context.Context, wav []byte, lang string) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("audio_file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(wav)); err != nil {
		return "", fmt.Errorf("writing audio: %w", err)
	}
	writer.Close()

	q := make(url.Values)
	q.Set("task", "transcribe")
	q.Set("output", "json")
	q.Set("encode", "true")
	if lang != "" {
		q.Set("language", lang)
	}

	reqURL := e.endpoint + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	slog.Debug("whisper-asr request", "url", reqURL)
	return e.do(req)
}

// transcribeOpenAI handles OpenAI-compatible whisper endpoints.
func (e *Engine) transcribeOpenAI(ctx context.Context, wav []byte, lang string) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(wav)); err != nil {
		return "", fmt.Errorf("writing audio: %w", err)
	}
	if lang != "" {
		_ = writer.WriteField("language", lang)
	}
	_ = writer.WriteField("response_format", "json")
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return e.do(req)
}

func (e *Engine) do(req *http.Request) (string, error) {
	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("whisper transcription failed (status %d): %s", resp.StatusCode, respBody)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding transcription: %w", err)
	}

	slog.Debug("whisper transcription complete", "text_length", len(result.Text))
	return result.Text, nil
}
