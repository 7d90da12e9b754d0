package language

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		output    string
		wantField string
	}{
		{name: "english to hindi", input: "en-US", output: "hi"},
		{name: "marathi to kannada", input: "mr-IN", output: "kn"},
		{name: "unknown input", input: "fr-FR", output: "en", wantField: "input_lang"},
		{name: "input case matters", input: "en-us", output: "en", wantField: "input_lang"},
		{name: "output given as tag", input: "hi-IN", output: "hi-IN", wantField: "output_lang"},
		{name: "empty output", input: "kn-IN", output: "", wantField: "output_lang"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair, err := Validate(tt.input, tt.output)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				if pair.Input != tt.input || pair.Output != tt.output {
					t.Fatalf("pair = %+v", pair)
				}
				return
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if vErr.Field != tt.wantField {
				t.Fatalf("field = %q, want %q", vErr.Field, tt.wantField)
			}
		})
	}
}

func TestDisplayNameAndBaseCode(t *testing.T) {
	if got := DisplayName("mr"); got != "Marathi" {
		t.Fatalf("DisplayName(mr) = %q", got)
	}
	if got := DisplayName("xx"); got != "xx" {
		t.Fatalf("DisplayName(xx) = %q", got)
	}
	if got := BaseCode("kn-IN"); got != "kn" {
		t.Fatalf("BaseCode(kn-IN) = %q", got)
	}
	if got := BaseCode("en"); got != "en" {
		t.Fatalf("BaseCode(en) = %q", got)
	}
}
