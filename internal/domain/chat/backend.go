package chat

import (
	"context"
	"errors"

	"github.com/deepgram/pdfchat/internal/domain/chat/models"
)

var (
	// ErrTransport marks failures where the backend could not be reached or the call aborted
	ErrTransport = errors.New("backend transport failure")

	// ErrProtocol marks responses that arrived but could not be used
	ErrProtocol = errors.New("backend protocol failure")
)

// Backend answers a single question about the ingested documents
type Backend interface {
	// Ask returns the normalized answer for a non-empty question. Failures
	// should wrap ErrTransport or ErrProtocol.
	Ask(ctx context.Context, question string) (*models.Answer, error)
}

// BackendFunc adapts a plain function to the Backend interface
type BackendFunc func(ctx context.Context, question string) (*models.Answer, error)

func (f BackendFunc) Ask(ctx context.Context, question string) (*models.Answer, error) {
	return f(ctx, question)
}

// FailureKind classifies a backend error for diagnostics
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrProtocol):
		return "protocol"
	case errors.Is(err, ErrTransport),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return "transport"
	default:
		return "unknown"
	}
}
