// Package http implements the web transport for bhashavaani.
//
// It serves the browser-facing API: multipart audio upload for a pipeline
// run, single-use download of the synthesized speech, and session-scoped
// history. Sessions are identified by an HTTP-only cookie.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/nadzzz/bhashavaani/docs"
	"github.com/nadzzz/bhashavaani/internal/artifact"
	"github.com/nadzzz/bhashavaani/internal/language"
	"github.com/nadzzz/bhashavaani/internal/message"
	"github.com/nadzzz/bhashavaani/internal/transport"
	"github.com/nadzzz/bhashavaani/internal/tts"
)

// SessionCookie names the cookie carrying the session ID.
const SessionCookie = "bhasha_session"

// DefaultInputLang is used when the form omits input_lang.
const DefaultInputLang = "en-US"

// Transport implements transport.Transport over HTTP.
type Transport struct {
	port       int
	maxUpload  int64
	server     *http.Server
	sessionTTL time.Duration
}

// New creates a new HTTP transport on the given port. maxUploadMB bounds the
// request body of POST /process.
func New(port, maxUploadMB int) *Transport {
	if maxUploadMB <= 0 {
		maxUploadMB = 25
	}
	return &Transport{
		port:       port,
		maxUpload:  int64(maxUploadMB) << 20,
		sessionTTL: 24 * time.Hour,
	}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Handler builds the route table for a backend.
func (t *Transport) Handler(b transport.Backend) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /process", func(w http.ResponseWriter, r *http.Request) {
		t.handleProcess(w, r, b)
	})
	mux.HandleFunc("GET /audio/{id}", func(w http.ResponseWriter, r *http.Request) {
		t.handleAudio(w, r, b)
	})
	mux.HandleFunc("GET /history", func(w http.ResponseWriter, r *http.Request) {
		t.handleHistory(w, r, b)
	})
	mux.HandleFunc("POST /history/clear", func(w http.ResponseWriter, r *http.Request) {
		t.handleHistoryClear(w, r, b)
	})
	mux.HandleFunc("POST /history/delete", func(w http.ResponseWriter, r *http.Request) {
		t.handleHistoryDelete(w, r, b)
	})

	// Swagger UI serves the registered OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return mux
}

// Listen starts the HTTP server and serves the backend.
func (t *Transport) Listen(ctx context.Context, b transport.Backend) error {
	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           t.Handler(b),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("http transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.server.Shutdown(shutdownCtx)
	}()

	if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// handleProcess runs the pipeline on an uploaded recording.
//
// @Summary     Recognize, translate and speak a recording
// @Description Uploads one recording as multipart form data. The audio is recognized in input_lang,
// @Description normalized, translated into output_lang and synthesized. Partial results are returned
// @Description with 200; only an unsupported language is rejected with 400.
// @Tags        pipeline
// @Accept      multipart/form-data
// @Produce     json
// @Param       audio        formData  file    true   "Recording (webm, ogg, wav, mp3, m4a, flac)"
// @Param       input_lang   formData  string  false  "Recognition language tag"  Enums(en-US, hi-IN, kn-IN, mr-IN)  default(en-US)
// @Param       output_lang  formData  string  true   "Target language code"      Enums(en, hi, kn, mr)
// @Success     200  {object}  message.Outcome  "Pipeline outcome"
// @Failure     400  {object}  message.Outcome  "Unsupported language or malformed upload"
// @Router      /process [post]
func (t *Transport) handleProcess(w http.ResponseWriter, r *http.Request, b transport.Backend) {
	sessionID := t.session(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, t.maxUpload)
	if err := r.ParseMultipartForm(t.maxUpload); err != nil {
		writeOutcome(w, http.StatusBadRequest, &message.Outcome{Error: "invalid upload: " + err.Error()})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeOutcome(w, http.StatusBadRequest, &message.Outcome{Error: "missing audio file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeOutcome(w, http.StatusBadRequest, &message.Outcome{Error: "reading audio: " + err.Error()})
		return
	}

	inputLang := strings.TrimSpace(r.FormValue("input_lang"))
	if inputLang == "" {
		inputLang = DefaultInputLang
	}

	req := &message.Request{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Audio:      data,
		Format:     declaredFormat(header.Header.Get("Content-Type"), header.Filename),
		InputLang:  inputLang,
		OutputLang: strings.TrimSpace(r.FormValue("output_lang")),
		ReceivedAt: time.Now(),
	}

	out, err := b.Processor.Run(r.Context(), req)
	var verr *language.ValidationError
	if errors.As(err, &verr) {
		writeOutcome(w, http.StatusBadRequest, out)
		return
	}
	if err != nil {
		slog.Error("process failed", "request_id", req.ID, "error", err)
		writeOutcome(w, http.StatusInternalServerError, &message.Outcome{Error: err.Error()})
		return
	}
	writeOutcome(w, http.StatusOK, out)
}

// handleAudio serves a synthesized artifact once.
//
// @Summary     Download synthesized speech
// @Description Returns the audio produced by POST /process. Each artifact can be fetched once;
// @Description later requests return 404.
// @Tags        pipeline
// @Produce     audio/mpeg
// @Produce     audio/wav
// @Param       id   path      string  true  "Artifact reference from audio_file"
// @Success     200  {file}    binary
// @Failure     404  {string}  string  "Unknown or already served"
// @Router      /audio/{id} [get]
func (t *Transport) handleAudio(w http.ResponseWriter, r *http.Request, b transport.Backend) {
	a, err := b.Artifacts.Take(r.PathValue("id"))
	if errors.Is(err, artifact.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("serving artifact failed", "id", r.PathValue("id"), "error", err)
		http.Error(w, "artifact unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", tts.ContentTypeForExt(a.Ext))
	w.Header().Set("Content-Length", fmt.Sprint(len(a.Data)))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(a.Data)
}

// handleHistory lists the caller's session history.
//
// @Summary     List session history
// @Tags        history
// @Produce     json
// @Success     200  {array}  history.Entry
// @Router      /history [get]
func (t *Transport) handleHistory(w http.ResponseWriter, r *http.Request, b transport.Backend) {
	writeJSON(w, http.StatusOK, b.History.List(t.session(w, r)))
}

// handleHistoryClear empties the caller's session history.
//
// @Summary     Clear session history
// @Tags        history
// @Produce     json
// @Success     200  {object}  map[string]string
// @Router      /history/clear [post]
func (t *Transport) handleHistoryClear(w http.ResponseWriter, r *http.Request, b transport.Backend) {
	b.History.Clear(t.session(w, r))
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

type deleteRequest struct {
	Timestamp string `json:"timestamp"`
}

// handleHistoryDelete removes history entries by timestamp.
//
// @Summary     Delete a history entry
// @Description Removes every entry of the session whose timestamp matches exactly. Unknown timestamps are ignored.
// @Tags        history
// @Accept      json
// @Produce     json
// @Param       body  body      deleteRequest  true  "Entry timestamp"
// @Success     200   {object}  map[string]any
// @Failure     400   {object}  map[string]string  "Missing timestamp"
// @Router      /history/delete [post]
func (t *Transport) handleHistoryDelete(w http.ResponseWriter, r *http.Request, b transport.Backend) {
	sessionID := t.session(w, r)

	var req deleteRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil || strings.TrimSpace(req.Timestamp) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "timestamp is required"})
		return
	}

	removed := b.History.Delete(sessionID, req.Timestamp)
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted", "removed": removed})
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}

// session returns the caller's session ID, issuing a new cookie when the
// request has none or carries a malformed one.
func (t *Transport) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(t.sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// declaredFormat prefers the part's Content-Type and falls back to the
// filename extension.
func declaredFormat(contentType, filename string) string {
	ct := strings.TrimSpace(contentType)
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}
	return strings.TrimPrefix(filepath.Ext(filename), ".")
}

func writeOutcome(w http.ResponseWriter, status int, out *message.Outcome) {
	writeJSON(w, status, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
