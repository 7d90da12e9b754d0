// Package transport defines the interface for the network surfaces of the
// daemon.
//
// Each transport (HTTP, gRPC) exposes the same operations: run the pipeline,
// fetch a synthesized artifact once, and manage session history. Transports
// never hold pipeline logic; they translate their protocol into calls on a
// Backend.
package transport

import (
	"context"

	"github.com/nadzzz/bhashavaani/internal/artifact"
	"github.com/nadzzz/bhashavaani/internal/history"
	"github.com/nadzzz/bhashavaani/internal/message"
)

// Processor runs one pipeline request.
type Processor interface {
	Run(ctx context.Context, req *message.Request) (*message.Outcome, error)
}

// History is the session-scoped history surface.
type History interface {
	List(sessionID string) []history.Entry
	Clear(sessionID string)
	Delete(sessionID, timestamp string) int
}

// Artifacts hands out synthesized audio, each at most once.
type Artifacts interface {
	Take(id string) (*artifact.Artifact, error)
}

// Backend bundles what a transport serves.
type Backend struct {
	Processor Processor
	History   History
	Artifacts Artifacts
}

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "http", "grpc").
	Name() string

	// Listen starts accepting requests and serves them from the backend.
	// It blocks until the context is cancelled.
	Listen(ctx context.Context, backend Backend) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
