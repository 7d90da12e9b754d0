package pipeline

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-audio/audio"

	"github.com/nadzzz/bhashavaani/internal/artifact"
	"github.com/nadzzz/bhashavaani/internal/history"
	"github.com/nadzzz/bhashavaani/internal/ingest"
	"github.com/nadzzz/bhashavaani/internal/language"
	"github.com/nadzzz/bhashavaani/internal/message"
	"github.com/nadzzz/bhashavaani/internal/metrics"
	"github.com/nadzzz/bhashavaani/internal/recognizer"
	"github.com/nadzzz/bhashavaani/internal/translator"
	"github.com/nadzzz/bhashavaani/internal/tts"
)

// fakeIngester decodes every blob into a short silent waveform through the
// real IngestPCM path, unless err is set.
type fakeIngester struct {
	real  *ingest.Ingester
	err   error
	calls atomic.Int32
}

func (f *fakeIngester) Ingest(ctx context.Context, blob ingest.Blob) (*ingest.Canonical, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.real.IngestPCM(ctx, silence())
}

func (f *fakeIngester) IngestPCM(ctx context.Context, buf *audio.IntBuffer) (*ingest.Canonical, error) {
	f.calls.Add(1)
	return f.real.IngestPCM(ctx, buf)
}

type fakeRecognizer struct {
	text string
	err  error
	hook func()
}

func (f *fakeRecognizer) Name() string { return "fake" }

func (f *fakeRecognizer) Transcribe(context.Context, []byte, string) (string, error) {
	if f.hook != nil {
		f.hook()
	}
	return f.text, f.err
}

func (f *fakeRecognizer) Close() error { return nil }

type fakeTranslator struct {
	mu    sync.Mutex
	out   map[string]string
	err   error
	calls []string
}

func (f *fakeTranslator) Name() string { return "fake" }

func (f *fakeTranslator) Translate(_ context.Context, text, target string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text+"|"+target)
	if f.err != nil {
		return "", f.err
	}
	return f.out[text], nil
}

func (f *fakeTranslator) Close() error { return nil }

type fakeSynth struct {
	err   error
	texts []string
}

func (f *fakeSynth) Name() string { return "fake" }

func (f *fakeSynth) Synthesize(_ context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	f.texts = append(f.texts, text+"|"+opts.Language)
	if f.err != nil {
		return nil, f.err
	}
	return &tts.SynthesizeResult{Audio: []byte("ID3" + text), ContentType: "audio/mpeg", Ext: "mp3"}, nil
}

func (f *fakeSynth) Close() error { return nil }

func silence() *audio.IntBuffer {
	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 16000},
		Data:           make([]int, 3200),
		SourceBitDepth: 16,
	}
}

type harness struct {
	pipeline  *Pipeline
	ingester  *fakeIngester
	rec       *fakeRecognizer
	trans     *fakeTranslator
	synth     *fakeSynth
	artifacts *artifact.Store
	history   *history.Registry
	tempDir   string
	stages    []Stage
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	tempDir := t.TempDir()
	store, err := artifact.Open(t.TempDir())
	if err != nil {
		t.Fatalf("artifact.Open() error = %v", err)
	}
	h := &harness{
		ingester:  &fakeIngester{real: ingest.NewForTests("ffmpeg", tempDir, nil, os.MkdirTemp, os.RemoveAll)},
		rec:       &fakeRecognizer{},
		trans:     &fakeTranslator{out: map[string]string{}},
		synth:     &fakeSynth{},
		artifacts: store,
		history:   history.NewRegistry(),
		tempDir:   tempDir,
	}
	h.pipeline = New(Deps{
		Ingester:    h.ingester,
		Recognizer:  recognizer.New(h.rec),
		Translator:  translator.New(h.trans),
		Synthesizer: h.synth,
		Artifacts:   h.artifacts,
		History:     h.history,
		Metrics:     metrics.New(),
		OnStage: func(_ string, s Stage) {
			h.stages = append(h.stages, s)
		},
	})
	return h
}

func (h *harness) request(in, out string) *message.Request {
	return &message.Request{
		ID:         "req-1",
		SessionID:  "sess-1",
		Audio:      []byte("webm-bytes"),
		Format:     "audio/webm;codecs=opus",
		InputLang:  in,
		OutputLang: out,
	}
}

func (h *harness) assertWorkspaceClean(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(h.tempDir)
	if err != nil {
		t.Fatalf("reading temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("temp dir not cleaned: %d entries left", len(entries))
	}
}

func (h *harness) assertStages(t *testing.T, want ...Stage) {
	t.Helper()
	if len(h.stages) != len(want) {
		t.Fatalf("stages = %v, want %v", h.stages, want)
	}
	var prev Stage
	for i, s := range h.stages {
		if s != want[i] {
			t.Fatalf("stages = %v, want %v", h.stages, want)
		}
		if !CanTransition(prev, s) {
			t.Fatalf("invalid transition %q -> %q", prev, s)
		}
		prev = s
	}
}

func TestRunFullSuccess(t *testing.T) {
	h := newHarness(t)
	h.rec.text = "what is your name"
	h.trans.out["what is your name?"] = "आपका नाम क्या है?"

	out, err := h.pipeline.Run(context.Background(), h.request("en-US", "hi"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Recognized != "what is your name?" {
		t.Fatalf("recognized = %q", out.Recognized)
	}
	if out.Translated != "आपका नाम क्या है?" {
		t.Fatalf("translated = %q", out.Translated)
	}
	if out.AudioFile == nil || out.Error != "" {
		t.Fatalf("outcome = %+v", out)
	}

	a, err := h.artifacts.Take(*out.AudioFile)
	if err != nil {
		t.Fatalf("artifact not stored: %v", err)
	}
	if string(a.Data) != "ID3आपका नाम क्या है?" {
		t.Fatalf("artifact data = %q", a.Data)
	}
	if h.synth.texts[0] != "आपका नाम क्या है?|hi" {
		t.Fatalf("synthesized %v", h.synth.texts)
	}

	entries := h.history.List("sess-1")
	if len(entries) != 1 || entries[0].AudioFile != *out.AudioFile || entries[0].Timestamp == "" {
		t.Fatalf("history = %+v", entries)
	}
	h.assertStages(t, StageValidating, StageIngesting, StageRecognizing, StageNormalizing, StageTranslating, StageSynthesizing, StageDone)
	h.assertWorkspaceClean(t)
}

func TestRunBulletsBeforeTranslating(t *testing.T) {
	h := newHarness(t)
	h.rec.text = "milk, bread, eggs"
	h.trans.out["• milk\n• bread\n• eggs"] = "• दूध\n• ब्रेड\n• अंडे"

	out, err := h.pipeline.Run(context.Background(), h.request("en-US", "hi"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Recognized != "• milk\n• bread\n• eggs" {
		t.Fatalf("recognized = %q", out.Recognized)
	}
	if out.Translated != "• दूध\n• ब्रेड\n• अंडे" {
		t.Fatalf("translated = %q", out.Translated)
	}
}

func TestRunUnrecognizedFallback(t *testing.T) {
	for _, recErr := range []error{recognizer.ErrNoSpeech, errors.New("speech api Unavailable: down")} {
		t.Run(recErr.Error(), func(t *testing.T) {
			h := newHarness(t)
			h.rec.err = recErr
			h.trans.out[message.NotRecognized] = "पहचाना नहीं गया"

			out, err := h.pipeline.Run(context.Background(), h.request("hi-IN", "hi"))
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if out.Recognized != message.NotRecognized || out.Translated != "पहचाना नहीं गया" {
				t.Fatalf("outcome = %+v", out)
			}
			if out.AudioFile == nil || out.Error != "" {
				t.Fatalf("outcome = %+v", out)
			}
			if h.trans.calls[0] != "Not recognized|hi" {
				t.Fatalf("translator calls = %v", h.trans.calls)
			}
			if len(h.history.List("sess-1")) != 0 {
				t.Fatal("fallback run recorded in history")
			}
			h.assertStages(t, StageValidating, StageIngesting, StageRecognizing, StageFallbackTranslating, StageFallbackSynthesizing)
			h.assertWorkspaceClean(t)
		})
	}
}

func TestRunFallbackDegrades(t *testing.T) {
	t.Run("translation fails", func(t *testing.T) {
		h := newHarness(t)
		h.rec.err = recognizer.ErrNoSpeech
		h.trans.err = errors.New("quota")

		out, err := h.pipeline.Run(context.Background(), h.request("en-US", "kn"))
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if out.Recognized != message.NotRecognized || out.Translated != "" || out.AudioFile != nil || out.Error != "" {
			t.Fatalf("outcome = %+v", out)
		}
		if len(h.synth.texts) != 0 {
			t.Fatal("synthesis attempted without a translation")
		}
	})

	t.Run("synthesis fails", func(t *testing.T) {
		h := newHarness(t)
		h.rec.err = recognizer.ErrNoSpeech
		h.trans.out[message.NotRecognized] = "ಗುರುತಿಸಲಾಗಿಲ್ಲ"
		h.synth.err = errors.New("no voice")

		out, err := h.pipeline.Run(context.Background(), h.request("en-US", "kn"))
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if out.Translated != "ಗುರುತಿಸಲಾಗಿಲ್ಲ" || out.AudioFile != nil || out.Error != "" {
			t.Fatalf("outcome = %+v", out)
		}
	})
}

func TestRunConversionFailed(t *testing.T) {
	h := newHarness(t)
	h.ingester.err = &ingest.Error{Kind: ingest.DecodeFailed, Detail: "ffmpeg failed: Invalid data found when processing input"}

	out, err := h.pipeline.Run(context.Background(), h.request("en-US", "hi"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Recognized != "" || out.Translated != "" || out.AudioFile != nil {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Error != "error converting audio: ffmpeg failed: Invalid data found when processing input" {
		t.Fatalf("error = %q", out.Error)
	}
	if len(h.trans.calls) != 0 || len(h.synth.texts) != 0 {
		t.Fatal("later stages ran after conversion failure")
	}
	h.assertStages(t, StageValidating, StageIngesting, StageConversionFailed)
}

func TestRunTranslationFailed(t *testing.T) {
	h := newHarness(t)
	h.rec.text = "good morning"
	h.trans.err = errors.New("unsupported language pair")

	out, err := h.pipeline.Run(context.Background(), h.request("en-US", "mr"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Recognized != "good morning." || out.Translated != "" || out.AudioFile != nil {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Error != "error translating: unsupported language pair" {
		t.Fatalf("error = %q", out.Error)
	}
	if len(h.synth.texts) != 0 {
		t.Fatal("synthesis attempted after translation failure")
	}
	if len(h.history.List("sess-1")) != 0 {
		t.Fatal("failed run recorded in history")
	}
	h.assertWorkspaceClean(t)
}

func TestRunSynthesisFailed(t *testing.T) {
	h := newHarness(t)
	h.rec.text = "thank you"
	h.trans.out["thank you."] = "धन्यवाद।"
	h.synth.err = errors.New("piper: connection refused")

	out, err := h.pipeline.Run(context.Background(), h.request("en-US", "hi"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Recognized != "thank you." || out.Translated != "धन्यवाद।" {
		t.Fatalf("outcome = %+v", out)
	}
	if out.AudioFile != nil || out.Error != "" {
		t.Fatalf("outcome = %+v", out)
	}
	h.assertStages(t, StageValidating, StageIngesting, StageRecognizing, StageNormalizing, StageTranslating, StageSynthesizing)
}

func TestRunWithoutSynthesizer(t *testing.T) {
	h := newHarness(t)
	h.pipeline.deps.Synthesizer = nil
	h.rec.text = "hello"
	h.trans.out["hello."] = "नमस्ते।"

	out, err := h.pipeline.Run(context.Background(), h.request("en-US", "hi"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Translated != "नमस्ते।" || out.AudioFile != nil || out.Error != "" {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestRunValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		out   string
		field string
	}{
		{name: "bad input", in: "fr-FR", out: "hi", field: "input_lang"},
		{name: "bad output", in: "en-US", out: "fr", field: "output_lang"},
		{name: "output tag instead of code", in: "en-US", out: "hi-IN", field: "output_lang"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			out, err := h.pipeline.Run(context.Background(), h.request(tt.in, tt.out))

			var verr *language.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Fatalf("field = %q, want %q", verr.Field, tt.field)
			}
			if out == nil || !strings.Contains(out.Error, tt.field) {
				t.Fatalf("outcome = %+v", out)
			}
			if h.ingester.calls.Load() != 0 {
				t.Fatal("ingest ran for an invalid request")
			}
			h.assertStages(t, StageValidating)
		})
	}
}

func TestRunWaveformSkipsBlob(t *testing.T) {
	h := newHarness(t)
	h.ingester.err = errors.New("blob path must not be used")
	h.rec.text = "hello"
	h.trans.out["hello."] = "हॅलो."

	req := h.request("en-US", "mr")
	req.Waveform = silence()
	out, err := h.pipeline.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Error != "" || out.Translated != "हॅलो." {
		t.Fatalf("outcome = %+v", out)
	}
}

func TestRunCancelledDuringRecognition(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.rec.text = "hello"
	h.rec.hook = cancel

	out, err := h.pipeline.Run(ctx, h.request("en-US", "hi"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Error != CancelledMessage || out.AudioFile != nil {
		t.Fatalf("outcome = %+v", out)
	}
	if len(h.trans.calls) != 0 {
		t.Fatal("translation ran after cancellation")
	}
	h.assertWorkspaceClean(t)
}

func TestRunWithoutSessionSkipsHistory(t *testing.T) {
	h := newHarness(t)
	h.rec.text = "hello"
	h.trans.out["hello."] = "नमस्ते।"

	req := h.request("en-US", "hi")
	req.SessionID = ""
	if _, err := h.pipeline.Run(context.Background(), req); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if h.history.Sessions() != 0 {
		t.Fatal("history recorded without a session")
	}
}

func TestRunConcurrentRequestsShareTempDir(t *testing.T) {
	h := newHarness(t)
	h.pipeline.deps.OnStage = nil
	h.pipeline.deps.Synthesizer = nil
	h.rec.text = "hello"
	h.trans.out["hello."] = "नमस्ते।"

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := h.request("en-US", "hi")
			req.Waveform = silence()
			out, err := h.pipeline.Run(context.Background(), req)
			if err != nil || out.Error != "" {
				t.Errorf("Run() = %+v, %v", out, err)
			}
		}()
	}
	wg.Wait()
	h.assertWorkspaceClean(t)
}

func TestTransitionTable(t *testing.T) {
	if !CanTransition("", StageValidating) {
		t.Fatal("entry must go to validating")
	}
	if CanTransition(StageValidating, StageRecognizing) {
		t.Fatal("validating must not skip ingest")
	}
	if CanTransition(StageIngesting, StageFallbackTranslating) {
		t.Fatal("ingest failure must not enter the fallback pipeline")
	}
	for _, terminal := range []Stage{StageDone, StageConversionFailed, StageFallbackSynthesizing} {
		if len(transitions[terminal]) != 0 {
			t.Fatalf("%s must be terminal", terminal)
		}
	}
}
