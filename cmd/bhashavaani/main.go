// BhashaVaani is a speech translation daemon: it recognizes uploaded
// recordings, translates the text and speaks the translation back.
//
// Usage:
//
//	bhashavaani [flags]
//	bhashavaani --config /path/to/bhashavaani.yaml
//
//	@title			BhashaVaani API
//	@version		1.0
//	@description	Speech-to-speech translation for Indian languages.
//	@BasePath		/
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nadzzz/bhashavaani/internal/artifact"
	"github.com/nadzzz/bhashavaani/internal/backends"
	"github.com/nadzzz/bhashavaani/internal/config"
	"github.com/nadzzz/bhashavaani/internal/health"
	"github.com/nadzzz/bhashavaani/internal/history"
	"github.com/nadzzz/bhashavaani/internal/ingest"
	"github.com/nadzzz/bhashavaani/internal/metrics"
	"github.com/nadzzz/bhashavaani/internal/pipeline"
	"github.com/nadzzz/bhashavaani/internal/recognizer"
	"github.com/nadzzz/bhashavaani/internal/transport"
	grpctransport "github.com/nadzzz/bhashavaani/internal/transport/grpc"
	httptransport "github.com/nadzzz/bhashavaani/internal/transport/http"
	"github.com/nadzzz/bhashavaani/internal/translator"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/bhashavaani.yaml)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("bhashavaani %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	config.SetupLogging(cfg.Logging)
	slog.Info("bhashavaani starting", "version", version)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		slog.Error("bhashavaani failed", "error", err)
		os.Exit(1)
	}
	slog.Info("bhashavaani stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	engines, err := backends.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer engines.Close()

	ingester, err := ingest.New(cfg.Ingest)
	if err != nil {
		return err
	}

	artifacts, err := artifact.Open(cfg.Artifacts.Dir)
	if err != nil {
		return err
	}
	slog.Info("artifact store ready", "dir", artifacts.Dir(), "ttl", cfg.Artifacts.TTL)

	sessions := history.NewRegistry()
	m := metrics.New()

	p := pipeline.New(pipeline.Deps{
		Ingester:    ingester,
		Recognizer:  recognizer.New(engines.Recognizer),
		Translator:  translator.New(engines.Translator),
		Synthesizer: engines.Synthesizer,
		Artifacts:   artifacts,
		History:     sessions,
		Metrics:     m,
	})

	var transports []transport.Transport
	if cfg.Transports.HTTP.Enabled {
		transports = append(transports, httptransport.New(cfg.Transports.HTTP.Port, cfg.Transports.HTTP.MaxUploadMB))
	}
	if cfg.Transports.GRPC.Enabled {
		transports = append(transports, grpctransport.New(cfg.Transports.GRPC.Port))
	}
	if len(transports) == 0 {
		return fmt.Errorf("no transports enabled, enable at least one in config")
	}

	backend := transport.Backend{Processor: p, History: sessions, Artifacts: artifacts}

	healthServer := health.New(cfg.Server.HealthPort, m.Handler())
	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweep(ctx, cfg, artifacts, sessions, m)
	}()

	for _, t := range transports {
		wg.Add(1)
		go func(t transport.Transport) {
			defer wg.Done()
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(ctx, backend); err != nil {
				slog.Error("transport failed", "name", t.Name(), "error", err)
			}
		}(t)
	}

	healthServer.SetReady(true)
	slog.Info("bhashavaani ready",
		"transports", len(transports),
		"health_port", cfg.Server.HealthPort)

	<-ctx.Done()
	slog.Info("shutdown signal received, draining...")
	healthServer.SetReady(false)

	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}

	wg.Wait()
	return nil
}

// sweep expires artifacts nobody fetched and sessions that went idle.
func sweep(ctx context.Context, cfg *config.Config, artifacts *artifact.Store, sessions *history.Registry, m *metrics.Metrics) {
	interval := time.Minute
	if ttl := cfg.Artifacts.TTL; ttl > 0 && ttl/2 < interval {
		interval = max(ttl/2, time.Second)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if cfg.Artifacts.TTL > 0 {
				n, err := artifacts.Sweep(cfg.Artifacts.TTL)
				if err != nil {
					slog.Warn("artifact sweep failed", "error", err)
				}
				m.ArtifactsSwept(n)
			}
			if cfg.History.IdleTimeout > 0 {
				m.SessionsExpired(sessions.Sweep(cfg.History.IdleTimeout))
			}
		}
	}
}
