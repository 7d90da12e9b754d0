// Package tts defines the interface for text-to-speech synthesis.
//
// BhashaVaani speaks the translated text in the output language. Backends
// return a complete audio file; the pipeline stores it as an artifact for a
// single fetch.
package tts

import "context"

// SynthesizeOpts controls synthesis behavior.
type SynthesizeOpts struct {
	// Language is the ISO-639-1 output code (e.g., "hi", "kn") that selects the voice.
	Language string

	// Voice overrides automatic language-based voice selection.
	Voice string
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Name returns the backend identifier (e.g., "piper", "exec").
	Name() string

	// Synthesize generates a complete audio file from the given text.
	Synthesize(ctx context.Context, text string, opts SynthesizeOpts) (*SynthesizeResult, error)

	// Close releases any resources held by the synthesizer.
	Close() error
}

// SynthesizeResult holds the output of TTS synthesis.
type SynthesizeResult struct {
	// Audio is the encoded audio file.
	Audio []byte

	// ContentType is the MIME type of the audio (e.g., "audio/wav", "audio/mpeg").
	ContentType string

	// Ext is the file extension without the dot (e.g., "wav", "mp3").
	Ext string
}

// ContentTypeForExt maps an artifact extension to its MIME type.
func ContentTypeForExt(ext string) string {
	switch ext {
	case "wav":
		return "audio/wav"
	case "mp3":
		return "audio/mpeg"
	case "ogg", "opus":
		return "audio/ogg"
	case "flac":
		return "audio/flac"
	default:
		return "application/octet-stream"
	}
}
