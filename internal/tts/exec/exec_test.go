package exec

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/nadzzz/bhashavaani/internal/config"
	"github.com/nadzzz/bhashavaani/internal/tts"
)

func TestNewParsesTemplate(t *testing.T) {
	s, err := New(config.ExecConfig{Command: `gtts-cli --lang {lang} --output "{out}" {text}`, Format: ".mp3"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	want := []string{"gtts-cli", "--lang", "{lang}", "--output", "{out}", "{text}"}
	if !reflect.DeepEqual(s.argv, want) {
		t.Fatalf("argv = %q, want %q", s.argv, want)
	}
	if s.ext != "mp3" {
		t.Fatalf("ext = %q", s.ext)
	}
}

func TestNewRejectsBadTemplates(t *testing.T) {
	for _, cmd := range []string{"", "espeak-ng {text}", `say "unterminated {out}`} {
		if _, err := New(config.ExecConfig{Command: cmd}); err == nil {
			t.Errorf("New(%q) expected error", cmd)
		}
	}
}

func TestExpandKeepsTextAsOneArgument(t *testing.T) {
	got := expand([]string{"tts", "{text}", "--out={out}"}, map[string]string{
		"{text}": `it's "quoted" text`,
		"{out}":  "/tmp/x.mp3",
	})
	want := []string{"tts", `it's "quoted" text`, "--out=/tmp/x.mp3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expand() = %q, want %q", got, want)
	}
}

func TestSynthesizeRunsCommand(t *testing.T) {
	s, err := New(config.ExecConfig{Command: `sh -c 'printf "%s|%s" "$1" "$2" > "$0"' {out} {lang} {text}`, Format: "wav"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := s.Synthesize(context.Background(), "नमस्ते दुनिया", tts.SynthesizeOpts{Language: "hi"})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if string(res.Audio) != "hi|नमस्ते दुनिया" {
		t.Fatalf("audio = %q", res.Audio)
	}
	if res.Ext != "wav" || res.ContentType != "audio/wav" {
		t.Fatalf("result = %q %q", res.Ext, res.ContentType)
	}
}

func TestSynthesizeCommandFailure(t *testing.T) {
	s, err := New(config.ExecConfig{Command: `sh -c 'echo boom >&2; exit 3' {out}`})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := s.Synthesize(context.Background(), "hello", tts.SynthesizeOpts{Language: "en"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestSynthesizeNoOutput(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "ran")
	s, err := New(config.ExecConfig{Command: "sh -c 'touch \"$1\"' {out} " + marker})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := s.Synthesize(context.Background(), "hello", tts.SynthesizeOpts{Language: "en"}); err == nil {
		t.Fatal("expected error when command writes nothing to {out}")
	}
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("command did not run: %v", err)
	}
}
