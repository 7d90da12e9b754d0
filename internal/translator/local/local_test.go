package local

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nadzzz/bhashavaani/internal/config"
)

func TestTranslateOllamaGenerate(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		_, _ = w.Write([]byte(`{"response":"ನಮಸ್ಕಾರ","done":true}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	e := New(config.LocalTranslatorCfg{Endpoint: srv.URL + "/api/generate", Model: "llama3.1:8b"})
	out, err := e.Translate(context.Background(), "Hello.", "kn")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if out != "ನಮಸ್ಕಾರ" {
		t.Fatalf("Translate() = %q", out)
	}
	if body["prompt"] != "Hello." || body["model"] != "llama3.1:8b" {
		t.Fatalf("body = %v", body)
	}
	if sys, _ := body["system"].(string); !strings.Contains(sys, "Kannada") {
		t.Fatalf("system prompt = %q", sys)
	}
}

func TestTranslateChatCompletions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []map[string]string `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Messages) != 2 {
			t.Errorf("unexpected body: %v %+v", err, body)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"नमस्कार"}}]}`))
	}))
	defer srv.Close()

	out, err := New(config.LocalTranslatorCfg{Endpoint: srv.URL + "/v1/chat/completions"}).Translate(context.Background(), "Hello.", "mr")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if out != "नमस्कार" {
		t.Fatalf("Translate() = %q", out)
	}
}

func TestTranslateEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"response":""}`))
	}))
	defer srv.Close()

	if _, err := New(config.LocalTranslatorCfg{Endpoint: srv.URL + "/api/generate"}).Translate(context.Background(), "Hello.", "hi"); err == nil {
		t.Fatal("expected error for empty response")
	}
}
