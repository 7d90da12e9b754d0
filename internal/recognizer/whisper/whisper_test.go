package whisper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nadzzz/bhashavaani/internal/config"
	"github.com/nadzzz/bhashavaani/internal/recognizer"
)

func TestTranscribeOpenAIFlavor(t *testing.T) {
	var gotLang, gotFormat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		gotLang = r.FormValue("language")
		gotFormat = r.FormValue("response_format")
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		_, _ = w.Write([]byte(`{"text":" namaste "}`))
	}))
	defer srv.Close()

	e := New(config.WhisperConfig{Endpoint: srv.URL})
	text, err := e.Transcribe(context.Background(), []byte("RIFF"), "hi-IN")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "namaste" {
		t.Fatalf("text = %q", text)
	}
	if gotLang != "hi" {
		t.Fatalf("language = %q, want hi", gotLang)
	}
	if gotFormat != "json" {
		t.Fatalf("response_format = %q", gotFormat)
	}
}

func TestTranscribeASRFlavor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("language") != "mr" {
			t.Errorf("language query = %q", r.URL.Query().Get("language"))
		}
		if _, _, err := r.FormFile("audio_file"); err != nil {
			t.Errorf("missing audio_file part: %v", err)
		}
		_, _ = w.Write([]byte(`{"text":"namaskar"}`))
	}))
	defer srv.Close()

	e := New(config.WhisperConfig{Endpoint: srv.URL + "/asr", Type: "asr"})
	text, err := e.Transcribe(context.Background(), []byte("RIFF"), "mr-IN")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "namaskar" {
		t.Fatalf("text = %q", text)
	}
}

func TestTranscribeBlankAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"text":" [BLANK_AUDIO] "}`))
	}))
	defer srv.Close()

	_, err := New(config.WhisperConfig{Endpoint: srv.URL}).Transcribe(context.Background(), nil, "en-US")
	if !errors.Is(err, recognizer.ErrNoSpeech) {
		t.Fatalf("error = %v, want ErrNoSpeech", err)
	}
}

func TestTranscribeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(config.WhisperConfig{Endpoint: srv.URL}).Transcribe(context.Background(), nil, "en-US")
	if err == nil || errors.Is(err, recognizer.ErrNoSpeech) {
		t.Fatalf("error = %v, want request failure", err)
	}
}
