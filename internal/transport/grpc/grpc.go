// Package grpc implements the gRPC transport for bhashavaani.
//
// The Translator service mirrors the HTTP surface for programmatic clients.
// Messages are JSON-encoded (content subtype "json"); the standard gRPC
// health service is registered alongside it.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/nadzzz/bhashavaani/internal/artifact"
	"github.com/nadzzz/bhashavaani/internal/language"
	"github.com/nadzzz/bhashavaani/internal/message"
	"github.com/nadzzz/bhashavaani/internal/transport"
	"github.com/nadzzz/bhashavaani/internal/tts"
)

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port   int
	server *grpc.Server
	health *health.Server
}

// New creates a new gRPC transport on the given port.
func New(port int) *Transport {
	return &Transport{port: port}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// Listen starts the gRPC server and serves the backend.
func (t *Transport) Listen(ctx context.Context, b transport.Backend) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	t.server = grpc.NewServer()
	t.health = Register(t.server, b)

	slog.Info("grpc transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		t.health.Shutdown()
		t.server.GracefulStop()
	}()

	return t.server.Serve(lis)
}

// Register adds the Translator and health services to s.
func Register(s *grpc.Server, b transport.Backend) *health.Server {
	s.RegisterService(&serviceDesc, &service{backend: b})

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return hs
}

// Close gracefully stops the gRPC server.
func (t *Transport) Close() error {
	if t.server != nil {
		t.server.GracefulStop()
	}
	return nil
}

// service implements TranslatorServer on a backend.
type service struct {
	backend transport.Backend
}

func (s *service) Process(ctx context.Context, in *ProcessRequest) (*message.Outcome, error) {
	inputLang := strings.TrimSpace(in.InputLang)
	if inputLang == "" {
		inputLang = "en-US"
	}
	req := &message.Request{
		ID:         uuid.NewString(),
		SessionID:  in.SessionID,
		Audio:      in.Audio,
		Format:     in.Format,
		InputLang:  inputLang,
		OutputLang: strings.TrimSpace(in.OutputLang),
		ReceivedAt: time.Now(),
	}

	out, err := s.backend.Processor.Run(ctx, req)
	var verr *language.ValidationError
	if errors.As(err, &verr) {
		return nil, status.Error(codes.InvalidArgument, verr.Error())
	}
	if err != nil {
		slog.Error("process failed", "request_id", req.ID, "error", err)
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *service) FetchAudio(_ context.Context, in *FetchAudioRequest) (*FetchAudioResponse, error) {
	a, err := s.backend.Artifacts.Take(in.ID)
	if errors.Is(err, artifact.ErrNotFound) {
		return nil, status.Errorf(codes.NotFound, "artifact %q not found", in.ID)
	}
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &FetchAudioResponse{ID: a.ID, ContentType: tts.ContentTypeForExt(a.Ext), Audio: a.Data}, nil
}

func (s *service) ListHistory(_ context.Context, in *HistoryRequest) (*HistoryResponse, error) {
	if in.SessionID == "" {
		return nil, status.Error(codes.InvalidArgument, "session_id is required")
	}
	return &HistoryResponse{Entries: s.backend.History.List(in.SessionID)}, nil
}

func (s *service) ClearHistory(_ context.Context, in *HistoryRequest) (*HistoryResponse, error) {
	if in.SessionID == "" {
		return nil, status.Error(codes.InvalidArgument, "session_id is required")
	}
	s.backend.History.Clear(in.SessionID)
	return &HistoryResponse{}, nil
}

func (s *service) DeleteHistory(_ context.Context, in *HistoryRequest) (*HistoryResponse, error) {
	if in.SessionID == "" {
		return nil, status.Error(codes.InvalidArgument, "session_id is required")
	}
	if strings.TrimSpace(in.Timestamp) == "" {
		return nil, status.Error(codes.InvalidArgument, "timestamp is required")
	}
	return &HistoryResponse{Removed: s.backend.History.Delete(in.SessionID, in.Timestamp)}, nil
}
