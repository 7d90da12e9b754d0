// Package backends builds the engines selected in the configuration.
package backends

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nadzzz/bhashavaani/internal/config"
	"github.com/nadzzz/bhashavaani/internal/recognizer"
	googlerec "github.com/nadzzz/bhashavaani/internal/recognizer/google"
	whisperrec "github.com/nadzzz/bhashavaani/internal/recognizer/whisper"
	"github.com/nadzzz/bhashavaani/internal/translator"
	localtrans "github.com/nadzzz/bhashavaani/internal/translator/local"
	openaitrans "github.com/nadzzz/bhashavaani/internal/translator/openai"
	"github.com/nadzzz/bhashavaani/internal/tts"
	exectts "github.com/nadzzz/bhashavaani/internal/tts/exec"
	pipertts "github.com/nadzzz/bhashavaani/internal/tts/piper"
)

// Set holds one engine per stage.
type Set struct {
	Recognizer  recognizer.Engine
	Translator  translator.Engine
	Synthesizer tts.Synthesizer // nil when tts.backend is "none"
}

// New builds the engines named in cfg.
func New(ctx context.Context, cfg *config.Config) (*Set, error) {
	set := &Set{}

	switch cfg.Recognizer.Backend {
	case "google":
		e, err := googlerec.New(ctx, cfg.Recognizer.Google)
		if err != nil {
			return nil, err
		}
		set.Recognizer = e
	case "whisper":
		set.Recognizer = whisperrec.New(cfg.Recognizer.Whisper)
		slog.Info("using whisper recognizer", "endpoint", cfg.Recognizer.Whisper.Endpoint, "type", cfg.Recognizer.Whisper.Type)
	default:
		return nil, fmt.Errorf("unknown recognizer backend %q", cfg.Recognizer.Backend)
	}

	switch cfg.Translator.Backend {
	case "openai":
		e, err := openaitrans.New(cfg.Translator.OpenAI)
		if err != nil {
			set.Close()
			return nil, err
		}
		set.Translator = e
		slog.Info("using OpenAI translator", "model", cfg.Translator.OpenAI.Model)
	case "local":
		set.Translator = localtrans.New(cfg.Translator.Local)
		slog.Info("using local translator", "endpoint", cfg.Translator.Local.Endpoint, "model", cfg.Translator.Local.Model)
	default:
		set.Close()
		return nil, fmt.Errorf("unknown translator backend %q", cfg.Translator.Backend)
	}

	switch cfg.TTS.Backend {
	case "piper":
		set.Synthesizer = pipertts.New(cfg.TTS.Piper)
		slog.Info("using piper tts", "endpoint", cfg.TTS.Piper.Endpoint)
	case "exec":
		s, err := exectts.New(cfg.TTS.Exec)
		if err != nil {
			set.Close()
			return nil, err
		}
		set.Synthesizer = s
		slog.Info("using exec tts", "command", cfg.TTS.Exec.Command)
	case "none", "":
		slog.Warn("tts disabled, outcomes will carry text only")
	default:
		set.Close()
		return nil, fmt.Errorf("unknown tts backend %q", cfg.TTS.Backend)
	}

	return set, nil
}

// Close releases every engine.
func (s *Set) Close() error {
	var errs []error
	if s.Recognizer != nil {
		errs = append(errs, s.Recognizer.Close())
	}
	if s.Translator != nil {
		errs = append(errs, s.Translator.Close())
	}
	if s.Synthesizer != nil {
		errs = append(errs, s.Synthesizer.Close())
	}
	return errors.Join(errs...)
}
