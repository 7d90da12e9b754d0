package translator

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeEngine struct {
	out   string
	err   error
	calls int
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Translate(context.Context, string, string) (string, error) {
	f.calls++
	return f.out, f.err
}

func (f *fakeEngine) Close() error { return nil }

func TestTranslate(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		engine    *fakeEngine
		want      Result
		wantCalls int
	}{
		{name: "translated", text: "Hello.", engine: &fakeEngine{out: "नमस्ते।"}, want: Result{Text: "नमस्ते।"}, wantCalls: 1},
		{name: "empty input skips engine", text: "  ", engine: &fakeEngine{out: "x"}, want: Result{}, wantCalls: 0},
		{name: "engine error", text: "Hello.", engine: &fakeEngine{err: errors.New("quota exceeded")}, want: Result{Failed: true, Detail: "quota exceeded"}, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.engine).Translate(context.Background(), tt.text, "hi")
			if got != tt.want {
				t.Fatalf("Translate() = %+v, want %+v", got, tt.want)
			}
			if tt.engine.calls != tt.wantCalls {
				t.Fatalf("engine calls = %d, want %d", tt.engine.calls, tt.wantCalls)
			}
		})
	}
}

func TestTranslateEmptyEngineOutputFails(t *testing.T) {
	got := New(&fakeEngine{out: "\n"}).Translate(context.Background(), "Hello.", "kn")
	if !got.Failed || got.Detail == "" {
		t.Fatalf("Translate() = %+v, want failure", got)
	}
}

func TestSystemPromptNamesLanguage(t *testing.T) {
	p := SystemPrompt("mr")
	if !strings.Contains(p, "Marathi") {
		t.Fatalf("prompt %q does not name Marathi", p)
	}
	if !strings.Contains(p, "•") {
		t.Fatalf("prompt %q does not mention bullet markers", p)
	}
}
