// Package message defines the data types flowing through the bhashavaani pipeline.
package message

import (
	"time"

	"github.com/go-audio/audio"
)

// NotRecognized is reported as the recognized text when recognition yields
// nothing usable; it is also the text the fallback pipeline translates.
const NotRecognized = "Not recognized"

// Request is one inbound pipeline run from any transport.
type Request struct {
	// ID is a unique identifier for this request (UUID).
	ID string `json:"id"`

	// SessionID scopes history. Empty means the result is not recorded.
	SessionID string `json:"session_id,omitempty"`

	// Audio is the raw uploaded blob.
	Audio []byte `json:"audio,omitempty"`

	// Format is the declared container (MIME type or extension, e.g. "audio/webm").
	Format string `json:"format,omitempty"`

	// Waveform is an already-decoded source (e.g. a local WAV capture). When
	// set it takes precedence over Audio.
	Waveform *audio.IntBuffer `json:"-"`

	// InputLang is the recognition language tag (e.g. "hi-IN").
	InputLang string `json:"input_lang"`

	// OutputLang is the translation and synthesis language code (e.g. "hi").
	OutputLang string `json:"output_lang"`

	// ReceivedAt is when the transport accepted the request.
	ReceivedAt time.Time `json:"received_at"`
}

// HasWaveform returns true if the request carries decoded samples.
func (r *Request) HasWaveform() bool {
	return r.Waveform != nil && len(r.Waveform.Data) > 0
}

// Outcome is the structured result of one pipeline run. Partial results are
// kept: a translation failure still reports the recognized text.
type Outcome struct {
	// Recognized is the normalized recognized text, or NotRecognized.
	Recognized string `json:"recognized"`

	// Translated is the translation of Recognized into the output language.
	Translated string `json:"translated"`

	// AudioFile references the synthesized artifact; nil when no audio exists.
	AudioFile *string `json:"audio_file"`

	// Error describes a terminal failure. Empty on success and on degraded
	// outcomes that lost only the audio.
	Error string `json:"error,omitempty"`
}

// SetAudioFile records the artifact reference.
func (o *Outcome) SetAudioFile(id string) {
	if id == "" {
		o.AudioFile = nil
		return
	}
	o.AudioFile = &id
}

// AudioRef returns the artifact reference or "".
func (o *Outcome) AudioRef() string {
	if o.AudioFile == nil {
		return ""
	}
	return *o.AudioFile
}
