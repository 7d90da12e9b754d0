package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/nadzzz/bhashavaani/internal/history"
	"github.com/nadzzz/bhashavaani/internal/message"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "bhashavaani.v1.Translator"

// ProcessRequest carries one recording.
type ProcessRequest struct {
	SessionID  string `json:"session_id,omitempty"`
	Audio      []byte `json:"audio"`
	Format     string `json:"format"`
	InputLang  string `json:"input_lang,omitempty"`
	OutputLang string `json:"output_lang"`
}

// FetchAudioRequest names an artifact.
type FetchAudioRequest struct {
	ID string `json:"id"`
}

// FetchAudioResponse is a served artifact.
type FetchAudioResponse struct {
	ID          string `json:"id"`
	ContentType string `json:"content_type"`
	Audio       []byte `json:"audio"`
}

// HistoryRequest addresses a session's history. Timestamp is used by
// DeleteHistory only.
type HistoryRequest struct {
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp,omitempty"`
}

// HistoryResponse lists entries, or reports how many were removed.
type HistoryResponse struct {
	Entries []history.Entry `json:"entries,omitempty"`
	Removed int             `json:"removed,omitempty"`
}

// TranslatorServer is the server API of the Translator service.
type TranslatorServer interface {
	Process(context.Context, *ProcessRequest) (*message.Outcome, error)
	FetchAudio(context.Context, *FetchAudioRequest) (*FetchAudioResponse, error)
	ListHistory(context.Context, *HistoryRequest) (*HistoryResponse, error)
	ClearHistory(context.Context, *HistoryRequest) (*HistoryResponse, error)
	DeleteHistory(context.Context, *HistoryRequest) (*HistoryResponse, error)
}

// unaryMethod adapts a typed server method to a grpc.MethodDesc.
func unaryMethod[Req, Resp any](name string, call func(TranslatorServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TranslatorServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(TranslatorServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// serviceDesc describes the Translator service.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TranslatorServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Process", TranslatorServer.Process),
		unaryMethod("FetchAudio", TranslatorServer.FetchAudio),
		unaryMethod("ListHistory", TranslatorServer.ListHistory),
		unaryMethod("ClearHistory", TranslatorServer.ClearHistory),
		unaryMethod("DeleteHistory", TranslatorServer.DeleteHistory),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bhashavaani/v1/translator",
}

// Client calls the Translator service over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, grpc.CallContentSubtype(codecName))
}

// Process runs the pipeline remotely.
func (c *Client) Process(ctx context.Context, in *ProcessRequest) (*message.Outcome, error) {
	out := new(message.Outcome)
	if err := c.invoke(ctx, "Process", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchAudio downloads an artifact once.
func (c *Client) FetchAudio(ctx context.Context, in *FetchAudioRequest) (*FetchAudioResponse, error) {
	out := new(FetchAudioResponse)
	if err := c.invoke(ctx, "FetchAudio", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListHistory lists a session's entries.
func (c *Client) ListHistory(ctx context.Context, in *HistoryRequest) (*HistoryResponse, error) {
	out := new(HistoryResponse)
	if err := c.invoke(ctx, "ListHistory", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClearHistory empties a session's history.
func (c *Client) ClearHistory(ctx context.Context, in *HistoryRequest) (*HistoryResponse, error) {
	out := new(HistoryResponse)
	if err := c.invoke(ctx, "ClearHistory", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteHistory removes entries by timestamp.
func (c *Client) DeleteHistory(ctx context.Context, in *HistoryRequest) (*HistoryResponse, error) {
	out := new(HistoryResponse)
	if err := c.invoke(ctx, "DeleteHistory", in, out); err != nil {
		return nil, err
	}
	return out, nil
}
