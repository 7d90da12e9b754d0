// Package google implements the recognizer Engine with Cloud Speech-to-Text v2.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nadzzz/bhashavaani/internal/config"
	"github.com/nadzzz/bhashavaani/internal/recognizer"
)

const speechAPIEndpointPort = 443

type recognizeFunc func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

// Engine performs one synchronous Recognize call per utterance.
type Engine struct {
	recognizerName string
	model          string
	recognize      recognizeFunc
	closeFn        func() error
}

// New dials the Speech API. Credentials come from CredentialsJSON when set,
// otherwise from Application Default Credentials.
func New(ctx context.Context, cfg config.GoogleConfig) (*Engine, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("google recognizer: project_id is required")
	}
	location := strings.TrimSpace(cfg.Location)
	if location == "" {
		location = "global"
	}

	detect := &credentials.DetectOptions{
		Scopes: []string{"https://www.googleapis.com/auth/cloud-platform"},
	}
	if cfg.CredentialsJSON != "" {
		detect.CredentialsJSON = []byte(cfg.CredentialsJSON)
	}
	creds, err := credentials.DetectDefault(detect)
	if err != nil {
		return nil, fmt.Errorf("detect credentials: %w", err)
	}

	opts := []option.ClientOption{option.WithAuthCredentials(creds)}
	if location != "global" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:%d", location, speechAPIEndpointPort)))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating speech client: %w", err)
	}

	slog.Info("google recognizer ready", "project", cfg.ProjectID, "location", location, "model", cfg.Model)
	return &Engine{
		recognizerName: fmt.Sprintf("projects/%s/locations/%s/recognizers/_", cfg.ProjectID, location),
		model:          strings.TrimSpace(cfg.Model),
		recognize: func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
			return client.Recognize(ctx, req)
		},
		closeFn: client.Close,
	}, nil
}

// Name returns the backend identifier.
func (e *Engine) Name() string { return "google" }

// Transcribe submits the WAV with automatic decoding, so the RIFF header
// carries the sample rate and channel count.
func (e *Engine) Transcribe(ctx context.Context, wav []byte, languageTag string) (string, error) {
	req := &speechpb.RecognizeRequest{
		Recognizer: e.recognizerName,
		Config: &speechpb.RecognitionConfig{
			Model:         e.model,
			LanguageCodes: []string{languageTag},
			DecodingConfig: &speechpb.RecognitionConfig_AutoDecodingConfig{
				AutoDecodingConfig: &speechpb.AutoDetectDecodingConfig{},
			},
			Features: &speechpb.RecognitionFeatures{},
		},
		AudioSource: &speechpb.RecognizeRequest_Content{Content: wav},
	}

	resp, err := e.recognize(ctx, req)
	if err != nil {
		if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
			return "", fmt.Errorf("speech api %s: %s", st.Code(), st.Message())
		}
		return "", fmt.Errorf("speech api: %w", err)
	}

	text := transcript(resp)
	if text == "" {
		return "", recognizer.ErrNoSpeech
	}
	return text, nil
}

// Close releases the underlying gRPC connection.
func (e *Engine) Close() error {
	if e.closeFn == nil {
		return nil
	}
	return e.closeFn()
}

// transcript joins the top alternative of every result segment.
func transcript(resp *speechpb.RecognizeResponse) string {
	var parts []string
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if t := strings.TrimSpace(alts[0].GetTranscript()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
