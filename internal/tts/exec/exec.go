// Package exec implements the TTS Synthesizer by running a command-line
// synthesizer such as gtts-cli, espeak-ng or piper's CLI.
//
// The command template is split with shell quoting rules and may use the
// placeholders {text}, {lang} and {out}. The command must write its audio to
// {out}; stdout is ignored.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	osexec "os/exec"
	"path/filepath"
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/nadzzz/bhashavaani/internal/config"
	"github.com/nadzzz/bhashavaani/internal/tts"
)

// Synthesizer runs one command per synthesis.
type Synthesizer struct {
	argv []string
	ext  string
}

// New parses the command template.
func New(cfg config.ExecConfig) (*Synthesizer, error) {
	argv, err := shellwords.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parsing tts command: %w", err)
	}
	if len(argv) == 0 {
		return nil, errors.New("tts command is empty")
	}
	if !strings.Contains(cfg.Command, "{out}") {
		return nil, errors.New("tts command must write to {out}")
	}
	ext := strings.TrimPrefix(cfg.Format, ".")
	if ext == "" {
		ext = "mp3"
	}
	return &Synthesizer{argv: argv, ext: ext}, nil
}

// Name returns the backend identifier.
func (s *Synthesizer) Name() string { return "exec" }

// Synthesize runs the command and reads back the file it produced.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	if text == "" {
		return nil, errors.New("empty text for synthesis")
	}

	dir, err := os.MkdirTemp("", "bhasha-tts-*")
	if err != nil {
		return nil, fmt.Errorf("creating tts workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	out := filepath.Join(dir, "speech."+s.ext)
	lang := opts.Language
	if opts.Voice != "" {
		lang = opts.Voice
	}
	args := expand(s.argv, map[string]string{"{text}": text, "{lang}": lang, "{out}": out})

	var stderr bytes.Buffer
	cmd := osexec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stderr = &stderr
	slog.Debug("exec tts", "command", args[0], "language", lang, "text_length", len(text))
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("reading synthesized audio: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s produced no audio", args[0])
	}

	return &tts.SynthesizeResult{
		Audio:       data,
		ContentType: tts.ContentTypeForExt(s.ext),
		Ext:         s.ext,
	}, nil
}

// Close is a no-op.
func (s *Synthesizer) Close() error { return nil }

// expand substitutes placeholders inside each argument in a single pass.
// Arguments are never re-split, so text containing spaces or quotes stays a
// single argument.
func expand(argv []string, vars map[string]string) []string {
	pairs := make([]string, 0, 2*len(vars))
	for k, v := range vars {
		pairs = append(pairs, k, v)
	}
	r := strings.NewReplacer(pairs...)

	out := make([]string, len(argv))
	for i, arg := range argv {
		out[i] = r.Replace(arg)
	}
	return out
}
