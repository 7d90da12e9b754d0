// Package ingest turns uploaded or captured audio into canonical audio: a
// linear PCM WAV file that every recognizer backend can consume.
//
// Each run gets its own temporary workspace so concurrent requests sharing a
// temp directory never clobber each other. The caller owns the returned
// Canonical and must Release it on every exit path.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mattn/go-shellwords"

	"github.com/nadzzz/bhashavaani/internal/config"
)

// Kind classifies ingest failures.
type Kind string

const (
	// UnsupportedFormat means the declared container is not on the list.
	UnsupportedFormat Kind = "unsupported_format"
	// DecodeFailed covers empty payloads, transcoder failures and bad output.
	DecodeFailed Kind = "decode_failed"
)

// Error is a classified ingest failure.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

// Error formats the failure for logs and outcomes.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Blob is a raw audio upload with its declared container format.
type Blob struct {
	Data   []byte
	Format string
}

// Canonical is decoded audio ready for recognition.
type Canonical struct {
	Path       string
	SampleRate int
	Channels   int
	Duration   time.Duration

	dir       string
	removeAll func(path string) error
}

// Bytes reads the canonical WAV file.
func (c *Canonical) Bytes() ([]byte, error) {
	return os.ReadFile(c.Path)
}

// Release removes the workspace holding the raw blob and the canonical file.
// It is safe to call more than once.
func (c *Canonical) Release() error {
	if c == nil || c.dir == "" {
		return nil
	}
	if err := c.removeAll(c.dir); err != nil {
		return err
	}
	c.dir = ""
	return nil
}

// Ingester transcodes blobs with ffmpeg.
type Ingester struct {
	ffmpegPath string
	extraArgs  []string
	tempDir    string
	sampleRate int
	runner     commandRunner
	mkdirTemp  func(dir, pattern string) (string, error)
	removeAll  func(path string) error
}

// New creates an Ingester from config.
func New(cfg config.IngestConfig) (*Ingester, error) {
	var extra []string
	if strings.TrimSpace(cfg.FFmpegArgs) != "" {
		args, err := shellwords.Parse(cfg.FFmpegArgs)
		if err != nil {
			return nil, fmt.Errorf("parse ffmpeg args: %w", err)
		}
		extra = args
	}

	ffmpeg := cfg.FFmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 16000
	}

	return &Ingester{
		ffmpegPath: ffmpeg,
		extraArgs:  extra,
		tempDir:    cfg.TempDir,
		sampleRate: rate,
		runner:     &execRunner{},
		mkdirTemp:  os.MkdirTemp,
		removeAll:  os.RemoveAll,
	}, nil
}

// Ingest writes the blob to a fresh workspace and transcodes it to mono PCM WAV.
func (i *Ingester) Ingest(ctx context.Context, blob Blob) (*Canonical, error) {
	format, ok := ParseFormat(blob.Format)
	if !ok {
		return nil, &Error{Kind: UnsupportedFormat, Detail: fmt.Sprintf("unsupported audio format %q", blob.Format)}
	}
	if len(blob.Data) == 0 {
		return nil, &Error{Kind: DecodeFailed, Detail: "audio payload is empty"}
	}

	dir, err := i.mkdirTemp(i.tempDir, "bhasha-ingest-*")
	if err != nil {
		return nil, &Error{Kind: DecodeFailed, Detail: "failed to create temporary workspace", Err: err}
	}

	rawPath := filepath.Join(dir, "input."+format)
	if err := os.WriteFile(rawPath, blob.Data, 0o600); err != nil {
		_ = i.removeAll(dir)
		return nil, &Error{Kind: DecodeFailed, Detail: "failed to store audio payload", Err: err}
	}

	outPath := filepath.Join(dir, "canonical.wav")
	args := buildFFmpegArgs(rawPath, outPath, i.sampleRate, i.extraArgs)
	res, runErr := i.runner.Run(ctx, i.ffmpegPath, args...)
	slog.Debug("ffmpeg finished", "exit_code", res.ExitCode, "format", format, "bytes", len(blob.Data))
	if runErr != nil {
		_ = i.removeAll(dir)
		return nil, &Error{Kind: DecodeFailed, Detail: "ffmpeg audio conversion failed: " + lastLine(res.Stderr), Err: runErr}
	}

	c, err := inspect(outPath)
	if err != nil {
		_ = i.removeAll(dir)
		return nil, err
	}
	c.dir = dir
	c.removeAll = i.removeAll
	return c, nil
}

// IngestPCM encodes an already-decoded waveform as canonical WAV.
func (i *Ingester) IngestPCM(ctx context.Context, buf *audio.IntBuffer) (*Canonical, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Kind: DecodeFailed, Detail: "ingest cancelled", Err: err}
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, &Error{Kind: DecodeFailed, Detail: "waveform is empty"}
	}
	if buf.Format.NumChannels <= 0 || buf.Format.SampleRate <= 0 {
		return nil, &Error{Kind: DecodeFailed, Detail: "waveform format is incomplete"}
	}

	dir, err := i.mkdirTemp(i.tempDir, "bhasha-ingest-*")
	if err != nil {
		return nil, &Error{Kind: DecodeFailed, Detail: "failed to create temporary workspace", Err: err}
	}

	outPath := filepath.Join(dir, "canonical.wav")
	if err := writeWAV(outPath, buf); err != nil {
		_ = i.removeAll(dir)
		return nil, &Error{Kind: DecodeFailed, Detail: "failed to encode waveform", Err: err}
	}

	c, err := inspect(outPath)
	if err != nil {
		_ = i.removeAll(dir)
		return nil, err
	}
	c.dir = dir
	c.removeAll = i.removeAll
	return c, nil
}

// ParseFormat maps a declared format (MIME type, extension or bare name) to
// one of the supported container names.
func ParseFormat(declared string) (string, bool) {
	f := strings.ToLower(strings.TrimSpace(declared))
	f, _, _ = strings.Cut(f, ";")
	f = strings.TrimSpace(f)
	f = strings.TrimPrefix(f, "audio/")
	f = strings.TrimPrefix(f, "video/")
	f = strings.TrimPrefix(f, ".")

	switch f {
	case "webm":
		return "webm", true
	case "ogg", "opus":
		return "ogg", true
	case "wav", "wave", "x-wav", "vnd.wave":
		return "wav", true
	case "mp3", "mpeg":
		return "mp3", true
	case "m4a", "mp4", "x-m4a":
		return "m4a", true
	case "flac", "x-flac":
		return "flac", true
	default:
		return "", false
	}
}

// inspect validates a canonical WAV file and reads its format.
func inspect(path string) (*Canonical, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Kind: DecodeFailed, Detail: "converted audio is missing", Err: err}
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, &Error{Kind: DecodeFailed, Detail: "converted audio is not a valid WAV file"}
	}
	if dec.WavAudioFormat != 1 {
		return nil, &Error{Kind: DecodeFailed, Detail: fmt.Sprintf("converted audio is not linear PCM (format %d)", dec.WavAudioFormat)}
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, &Error{Kind: DecodeFailed, Detail: "cannot locate PCM data in converted audio", Err: err}
	}
	frameSize := int64(dec.NumChans) * int64(dec.BitDepth) / 8
	if dec.PCMLen() == 0 || frameSize == 0 || dec.SampleRate == 0 {
		return nil, &Error{Kind: DecodeFailed, Detail: "converted audio contains no samples"}
	}
	frames := dec.PCMLen() / frameSize
	dur := time.Duration(frames) * time.Second / time.Duration(dec.SampleRate)

	return &Canonical{
		Path:       path,
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		Duration:   dur,
	}, nil
}

func writeWAV(path string, buf *audio.IntBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = 16
	}
	enc := wav.NewEncoder(f, buf.Format.SampleRate, depth, buf.Format.NumChannels, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

// buildFFmpegArgs builds args for mono 16-bit PCM WAV output.
func buildFFmpegArgs(inputPath, outPath string, sampleRate int, extra []string) []string {
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", fmt.Sprint(sampleRate),
		"-c:a", "pcm_s16le",
	}
	args = append(args, extra...)
	return append(args, outPath)
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[idx+1:])
	}
	return s
}

// NewForTests constructs an Ingester with injectable process and filesystem hooks.
func NewForTests(
	ffmpegPath string,
	tempDir string,
	runner commandRunner,
	mkdirTemp func(dir, pattern string) (string, error),
	removeAll func(path string) error,
) *Ingester {
	return &Ingester{
		ffmpegPath: ffmpegPath,
		tempDir:    tempDir,
		sampleRate: 16000,
		runner:     runner,
		mkdirTemp:  mkdirTemp,
		removeAll:  removeAll,
	}
}
