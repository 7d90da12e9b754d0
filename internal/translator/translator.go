// Package translator converts normalized text into the target language.
package translator

import (
	"context"
	"fmt"
	"strings"

	"github.com/nadzzz/bhashavaani/internal/language"
)

// Engine is the translation backend contract.
type Engine interface {
	// Name returns the backend identifier (e.g., "openai", "local").
	Name() string

	// Translate renders text in the target language (ISO-639-1 code).
	Translate(ctx context.Context, text, target string) (string, error)

	// Close releases any resources held by the engine.
	Close() error
}

// Result is the outcome of one translation.
type Result struct {
	Text   string
	Failed bool
	Detail string // set when Failed
}

// Translator runs an engine and classifies its answer.
type Translator struct {
	engine Engine
}

// New wraps an engine.
func New(engine Engine) *Translator {
	return &Translator{engine: engine}
}

// Translate translates text into target. Empty text translates to empty text
// without contacting the engine.
func (t *Translator) Translate(ctx context.Context, text, target string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{}
	}

	out, err := t.engine.Translate(ctx, text, target)
	if err != nil {
		return Result{Failed: true, Detail: err.Error()}
	}
	if strings.TrimSpace(out) == "" {
		return Result{Failed: true, Detail: fmt.Sprintf("%s returned an empty translation", t.engine.Name())}
	}
	return Result{Text: out}
}

// SystemPrompt is the instruction shared by the LLM-backed engines.
func SystemPrompt(target string) string {
	var sb strings.Builder
	sb.WriteString("You are a translator. Translate the user's text into ")
	sb.WriteString(language.DisplayName(target))
	sb.WriteString(".\n")
	sb.WriteString("Keep every line break and every \"•\" bullet marker exactly where it is.\n")
	sb.WriteString("Reply with the translation only, without quotes, notes or explanations.\n")
	return sb.String()
}
