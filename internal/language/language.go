// Package language holds the fixed language allow-lists and validates the
// input/output pair of a request before any pipeline stage runs.
package language

import (
	"fmt"
	"strings"
)

// Input lists the recognition language tags accepted from callers.
var Input = []string{"en-US", "hi-IN", "kn-IN", "mr-IN"}

// Output lists the translation/synthesis language codes accepted from callers.
var Output = []string{"en", "hi", "kn", "mr"}

var displayNames = map[string]string{
	"en": "English",
	"hi": "Hindi",
	"kn": "Kannada",
	"mr": "Marathi",
}

// Pair is a validated input/output language combination.
type Pair struct {
	Input  string `json:"input_lang"`
	Output string `json:"output_lang"`
}

// ValidationError reports a language code outside the allow-lists.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("unsupported %s %q", e.Field, e.Value)
}

// Validate checks both codes against the allow-lists. Matching is exact.
func Validate(input, output string) (Pair, error) {
	if !contains(Input, input) {
		return Pair{}, &ValidationError{Field: "input_lang", Value: input}
	}
	if !contains(Output, output) {
		return Pair{}, &ValidationError{Field: "output_lang", Value: output}
	}
	return Pair{Input: input, Output: output}, nil
}

// DisplayName returns the English name of an output code, or the code itself.
func DisplayName(code string) string {
	if name, ok := displayNames[code]; ok {
		return name
	}
	return code
}

// BaseCode strips a region suffix ("hi-IN" -> "hi").
func BaseCode(tag string) string {
	base, _, _ := strings.Cut(tag, "-")
	return strings.ToLower(base)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
