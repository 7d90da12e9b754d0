// Package recognizer converts canonical audio into raw recognized text.
//
// Engines implement the speech-to-text contract. The Recognizer classifies
// their answers into a Result that separates "nothing was understood" from
// "the service failed".
package recognizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nadzzz/bhashavaani/internal/ingest"
)

// ErrNoSpeech is returned by engines when the audio contained no
// understandable speech.
var ErrNoSpeech = errors.New("no speech recognized")

// Engine is the speech-to-text backend contract.
type Engine interface {
	// Name returns the backend identifier (e.g., "google", "whisper").
	Name() string

	// Transcribe converts a canonical WAV file to text in the given language tag.
	Transcribe(ctx context.Context, wav []byte, languageTag string) (string, error)

	// Close releases any resources held by the engine.
	Close() error
}

// Status is the variant of a recognition Result.
type Status int

const (
	Recognized Status = iota
	Unrecognized
	RequestFailed
)

func (s Status) String() string {
	switch s {
	case Recognized:
		return "recognized"
	case Unrecognized:
		return "unrecognized"
	case RequestFailed:
		return "request_failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the outcome of one recognition.
type Result struct {
	Status Status
	Text   string // set when Status == Recognized
	Detail string // set when Status == RequestFailed
}

// OK reports whether text was recognized.
func (r Result) OK() bool { return r.Status == Recognized }

// Recognizer runs an engine and classifies its answer.
type Recognizer struct {
	engine Engine
}

// New wraps an engine.
func New(engine Engine) *Recognizer {
	return &Recognizer{engine: engine}
}

// Recognize transcribes audio. The text of a Recognized result is returned
// exactly as the engine produced it.
func (r *Recognizer) Recognize(ctx context.Context, audio *ingest.Canonical, languageTag string) Result {
	data, err := audio.Bytes()
	if err != nil {
		return Result{Status: RequestFailed, Detail: fmt.Sprintf("reading canonical audio: %v", err)}
	}

	text, err := r.engine.Transcribe(ctx, data, languageTag)
	switch {
	case errors.Is(err, ErrNoSpeech):
		return Result{Status: Unrecognized}
	case err != nil:
		return Result{Status: RequestFailed, Detail: err.Error()}
	case strings.TrimSpace(text) == "":
		return Result{Status: Unrecognized}
	default:
		return Result{Status: Recognized, Text: text}
	}
}
