// Bhasha translates a recorded file from the command line, either in-process
// or against a running bhashavaani daemon over gRPC.
//
// Usage:
//
//	bhasha -out hi recording.webm
//	bhasha -in hi-IN -out en -save reply.mp3 recording.wav
//	bhasha -remote localhost:50051 -out ta recording.ogg
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-audio/wav"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/nadzzz/bhashavaani/internal/artifact"
	"github.com/nadzzz/bhashavaani/internal/backends"
	"github.com/nadzzz/bhashavaani/internal/config"
	"github.com/nadzzz/bhashavaani/internal/ingest"
	"github.com/nadzzz/bhashavaani/internal/message"
	"github.com/nadzzz/bhashavaani/internal/pipeline"
	"github.com/nadzzz/bhashavaani/internal/recognizer"
	grpctransport "github.com/nadzzz/bhashavaani/internal/transport/grpc"
	"github.com/nadzzz/bhashavaani/internal/translator"
)

var version = "dev"

type options struct {
	configFile string
	inputLang  string
	outputLang string
	savePath   string
	remote     string
	file       string
}

func main() {
	var opts options
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.StringVar(&opts.configFile, "config", "", "path to config file")
	flag.StringVar(&opts.inputLang, "in", "en-US", "language tag spoken in the recording")
	flag.StringVar(&opts.outputLang, "out", "", "language code to translate into (required)")
	flag.StringVar(&opts.savePath, "save", "", "write the synthesized audio to this path")
	flag.StringVar(&opts.remote, "remote", "", "gRPC address of a running daemon (e.g. localhost:50051)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: bhasha [flags] <audio file>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("bhasha %s\n", version)
		os.Exit(0)
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	opts.file = flag.Arg(0)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		out   *message.Outcome
		audio *artifact.Artifact
		err   error
	)
	if opts.remote != "" {
		out, audio, err = runRemote(ctx, opts)
	} else {
		out, audio, err = runLocal(ctx, opts)
	}
	if out != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "bhasha: %v\n", err)
		os.Exit(1)
	}

	if opts.savePath != "" {
		if audio == nil {
			fmt.Fprintln(os.Stderr, "bhasha: no audio was synthesized")
			os.Exit(1)
		}
		if err := os.WriteFile(opts.savePath, audio.Data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "bhasha: %v\n", err)
			os.Exit(1)
		}
	}
	if out != nil && out.Error != "" {
		os.Exit(1)
	}
}

// runLocal builds the pipeline in-process from the configuration.
func runLocal(ctx context.Context, opts options) (*message.Outcome, *artifact.Artifact, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, nil, err
	}
	// stdout carries only the outcome.
	cfg.Logging.Format = "text"
	config.SetupLoggingTo(os.Stderr, cfg.Logging)

	engines, err := backends.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	defer engines.Close()

	ingester, err := ingest.New(cfg.Ingest)
	if err != nil {
		return nil, nil, err
	}
	store, err := artifact.Open(cfg.Artifacts.Dir)
	if err != nil {
		return nil, nil, err
	}

	req, err := buildRequest(opts)
	if err != nil {
		return nil, nil, err
	}

	p := pipeline.New(pipeline.Deps{
		Ingester:    ingester,
		Recognizer:  recognizer.New(engines.Recognizer),
		Translator:  translator.New(engines.Translator),
		Synthesizer: engines.Synthesizer,
		Artifacts:   store,
	})
	out, err := p.Run(ctx, req)
	if err != nil || out.AudioFile == nil {
		return out, nil, err
	}

	a, err := store.Take(out.AudioRef())
	if err != nil {
		return out, nil, fmt.Errorf("fetching synthesized audio: %w", err)
	}
	return out, a, nil
}

// runRemote sends the recording to a daemon's gRPC transport.
func runRemote(ctx context.Context, opts options) (*message.Outcome, *artifact.Artifact, error) {
	data, err := os.ReadFile(opts.file)
	if err != nil {
		return nil, nil, err
	}

	conn, err := grpc.NewClient(opts.remote, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to %s: %w", opts.remote, err)
	}
	defer conn.Close()
	client := grpctransport.NewClient(conn)

	callCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	out, err := client.Process(callCtx, &grpctransport.ProcessRequest{
		Audio:      data,
		Format:     formatOf(opts.file),
		InputLang:  opts.inputLang,
		OutputLang: opts.outputLang,
	})
	if err != nil || out.AudioFile == nil || opts.savePath == "" {
		return out, nil, err
	}

	resp, err := client.FetchAudio(callCtx, &grpctransport.FetchAudioRequest{ID: out.AudioRef()})
	if err != nil {
		return out, nil, fmt.Errorf("fetching synthesized audio: %w", err)
	}
	return out, &artifact.Artifact{ID: resp.ID, Data: resp.Audio}, nil
}

// buildRequest reads the input file. WAV files are decoded directly and skip
// the transcoder.
func buildRequest(opts options) (*message.Request, error) {
	req := &message.Request{
		ID:         uuid.NewString(),
		InputLang:  opts.inputLang,
		OutputLang: opts.outputLang,
		ReceivedAt: time.Now(),
	}

	if formatOf(opts.file) == "wav" {
		f, err := os.Open(opts.file)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := wav.NewDecoder(f)
		if dec.IsValidFile() {
			buf, err := dec.FullPCMBuffer()
			if err != nil {
				return nil, fmt.Errorf("decoding %s: %w", opts.file, err)
			}
			req.Waveform = buf
			return req, nil
		}
		slog.Debug("not a PCM wav, sending through the transcoder", "file", opts.file)
	}

	data, err := os.ReadFile(opts.file)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("input file is empty")
	}
	req.Audio = data
	req.Format = formatOf(opts.file)
	return req, nil
}

func formatOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
