// Package pipeline runs one request through ingest, recognition,
// normalization, translation and synthesis.
//
// Every stage failure is turned into a field of the returned Outcome. The
// only error Run returns is a *language.ValidationError, which callers
// report as a bad request.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-audio/audio"

	"github.com/nadzzz/bhashavaani/internal/history"
	"github.com/nadzzz/bhashavaani/internal/ingest"
	"github.com/nadzzz/bhashavaani/internal/language"
	"github.com/nadzzz/bhashavaani/internal/message"
	"github.com/nadzzz/bhashavaani/internal/metrics"
	"github.com/nadzzz/bhashavaani/internal/normalize"
	"github.com/nadzzz/bhashavaani/internal/recognizer"
	"github.com/nadzzz/bhashavaani/internal/translator"
	"github.com/nadzzz/bhashavaani/internal/tts"
)

// CancelledMessage is the outcome error of a run whose context ended.
const CancelledMessage = "request cancelled"

// Ingester produces canonical audio.
type Ingester interface {
	Ingest(ctx context.Context, blob ingest.Blob) (*ingest.Canonical, error)
	IngestPCM(ctx context.Context, buf *audio.IntBuffer) (*ingest.Canonical, error)
}

// ArtifactStore persists synthesized audio.
type ArtifactStore interface {
	Save(data []byte, ext string) (string, error)
}

// HistoryRecorder records successful runs per session.
type HistoryRecorder interface {
	Append(sessionID string, e history.Entry) history.Entry
}

// SynthesisError wraps a failed synthesize stage. It never reaches the
// caller; the outcome just lacks audio.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string { return "synthesis failed: " + e.Err.Error() }

func (e *SynthesisError) Unwrap() error { return e.Err }

// Deps are the collaborators of a Pipeline. Synthesizer may be nil, in
// which case outcomes never carry audio. Metrics and OnStage are optional.
type Deps struct {
	Ingester    Ingester
	Recognizer  *recognizer.Recognizer
	Translator  *translator.Translator
	Synthesizer tts.Synthesizer
	Artifacts   ArtifactStore
	History     HistoryRecorder
	Metrics     *metrics.Metrics
	OnStage     func(requestID string, stage Stage)
}

// Pipeline is safe for concurrent use; each Run is independent.
type Pipeline struct {
	deps Deps
}

// New creates a pipeline.
func New(deps Deps) *Pipeline {
	return &Pipeline{deps: deps}
}

// Run executes one request.
func (p *Pipeline) Run(ctx context.Context, req *message.Request) (*message.Outcome, error) {
	start := time.Now()
	r := &run{
		p:      p,
		req:    req,
		logger: slog.With("request_id", req.ID, "session_id", req.SessionID),
	}

	out, err := r.exec(ctx)
	p.deps.Metrics.RunFinished(r.result, time.Since(start))
	r.logger.Info("pipeline finished",
		"result", r.result,
		"stage", r.stage,
		"has_audio", out.AudioFile != nil,
		"duration", time.Since(start),
	)
	return out, err
}

// run is the per-request state of the machine.
type run struct {
	p      *Pipeline
	req    *message.Request
	logger *slog.Logger
	stage  Stage
	result string
}

func (r *run) enter(s Stage) {
	if !CanTransition(r.stage, s) {
		r.logger.Error("invalid stage transition", "from", r.stage, "to", s)
	}
	r.stage = s
	r.logger.Debug("stage entered", "stage", s)
	r.p.deps.Metrics.StageEntered(string(s))
	if r.p.deps.OnStage != nil {
		r.p.deps.OnStage(r.req.ID, s)
	}
}

// cancelled marks out as cancelled when ctx has ended.
func (r *run) cancelled(ctx context.Context, out *message.Outcome) bool {
	if ctx.Err() == nil {
		return false
	}
	r.logger.Warn("request cancelled", "stage", r.stage, "error", ctx.Err())
	out.Error = CancelledMessage
	out.AudioFile = nil
	r.result = resultCancelled
	return true
}

func (r *run) exec(ctx context.Context) (*message.Outcome, error) {
	out := &message.Outcome{}

	r.enter(StageValidating)
	pair, err := language.Validate(r.req.InputLang, r.req.OutputLang)
	if err != nil {
		r.logger.Warn("request rejected", "error", err)
		out.Error = err.Error()
		r.result = resultRejected
		return out, err
	}
	if r.cancelled(ctx, out) {
		return out, nil
	}

	r.enter(StageIngesting)
	canonical, err := r.ingest(ctx)
	if err != nil {
		if r.cancelled(ctx, out) {
			return out, nil
		}
		r.enter(StageConversionFailed)
		r.logger.Error("audio conversion failed", "error", err)
		out.Error = "error converting audio: " + conversionDetail(err)
		r.result = resultConversionFailed
		return out, nil
	}
	defer func() {
		if err := canonical.Release(); err != nil {
			r.logger.Warn("failed to remove canonical audio", "path", canonical.Path, "error", err)
		}
	}()
	r.logger.Debug("audio ingested", "sample_rate", canonical.SampleRate, "channels", canonical.Channels, "duration", canonical.Duration)
	if r.cancelled(ctx, out) {
		return out, nil
	}

	r.enter(StageRecognizing)
	rec := r.p.deps.Recognizer.Recognize(ctx, canonical, pair.Input)
	if r.cancelled(ctx, out) {
		return out, nil
	}
	if !rec.OK() {
		r.logger.Warn("recognition failed, using fallback", "status", rec.Status, "detail", rec.Detail)
		r.fallback(ctx, out, pair)
		return out, nil
	}

	r.enter(StageNormalizing)
	out.Recognized = normalize.Normalize(rec.Text)
	r.logger.Info("speech recognized", "text_length", len(out.Recognized))
	if r.cancelled(ctx, out) {
		return out, nil
	}

	r.enter(StageTranslating)
	tr := r.p.deps.Translator.Translate(ctx, out.Recognized, pair.Output)
	if r.cancelled(ctx, out) {
		return out, nil
	}
	if tr.Failed {
		r.logger.Error("translation failed", "detail", tr.Detail)
		out.Error = "error translating: " + tr.Detail
		r.result = resultTranslationFailed
		return out, nil
	}
	out.Translated = tr.Text

	r.enter(StageSynthesizing)
	ref, err := r.synthesize(ctx, out.Translated, pair.Output)
	if r.cancelled(ctx, out) {
		return out, nil
	}
	if err != nil {
		r.logger.Warn("synthesis failed, returning text only", "error", err)
		r.result = resultSynthesisFailed
		return out, nil
	}
	out.SetAudioFile(ref)

	r.enter(StageDone)
	r.result = resultDone
	if r.req.SessionID != "" && r.p.deps.History != nil {
		r.p.deps.History.Append(r.req.SessionID, history.Entry{
			Recognized: out.Recognized,
			Translated: out.Translated,
			AudioFile:  ref,
		})
	}
	return out, nil
}

// fallback translates and speaks the NotRecognized literal. Failures only
// drop the corresponding field.
func (r *run) fallback(ctx context.Context, out *message.Outcome, pair language.Pair) {
	r.result = resultFallback
	out.Recognized = message.NotRecognized

	r.enter(StageFallbackTranslating)
	tr := r.p.deps.Translator.Translate(ctx, message.NotRecognized, pair.Output)
	if r.cancelled(ctx, out) {
		return
	}
	if tr.Failed {
		r.logger.Warn("fallback translation failed", "detail", tr.Detail)
		return
	}
	out.Translated = tr.Text

	r.enter(StageFallbackSynthesizing)
	ref, err := r.synthesize(ctx, out.Translated, pair.Output)
	if r.cancelled(ctx, out) {
		return
	}
	if err != nil {
		r.logger.Warn("fallback synthesis failed", "error", err)
		return
	}
	out.SetAudioFile(ref)
}

func (r *run) ingest(ctx context.Context) (*ingest.Canonical, error) {
	if r.req.HasWaveform() {
		return r.p.deps.Ingester.IngestPCM(ctx, r.req.Waveform)
	}
	return r.p.deps.Ingester.Ingest(ctx, ingest.Blob{Data: r.req.Audio, Format: r.req.Format})
}

func (r *run) synthesize(ctx context.Context, text, lang string) (string, error) {
	if r.p.deps.Synthesizer == nil {
		return "", &SynthesisError{Err: errors.New("no synthesizer configured")}
	}
	res, err := r.p.deps.Synthesizer.Synthesize(ctx, text, tts.SynthesizeOpts{Language: lang})
	if err != nil {
		return "", &SynthesisError{Err: err}
	}
	ref, err := r.p.deps.Artifacts.Save(res.Audio, res.Ext)
	if err != nil {
		return "", &SynthesisError{Err: fmt.Errorf("storing audio: %w", err)}
	}
	r.logger.Debug("speech synthesized", "artifact", ref, "bytes", len(res.Audio))
	return ref, nil
}

func conversionDetail(err error) string {
	var ie *ingest.Error
	if errors.As(err, &ie) {
		return ie.Detail
	}
	return err.Error()
}
