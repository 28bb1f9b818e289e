package analyzer

import (
	"context"
	"errors"
	"fmt"

	"github.com/careerarchitect/backend/internal/models"
)

// SubmitRequest is one document forwarded to the AI service.
type SubmitRequest struct {
	FileBytes      []byte
	Filename       string
	JobDescription string
	Kind           models.AnalysisType
}

// RawResult is the upstream payload: Raw is kept verbatim for persistence,
// Fields is the decoded tree used for extraction and the response envelope.
type RawResult struct {
	Fields map[string]any
	Raw    []byte
}

type Client interface {
	Analyze(ctx context.Context, req SubmitRequest) (*RawResult, error)
}

var (
	// ErrUnreachable: the connection to the AI service could not be
	// established (includes timeouts). Never retried here.
	ErrUnreachable = errors.New("ai service unreachable")

	// ErrEmptyResponse: 2xx with an empty or unparseable body. A contract
	// violation, distinct from an operational failure.
	ErrEmptyResponse = errors.New("AI returned empty response")
)

// UpstreamError is a non-2xx answer from the AI service. 4xx bodies are
// surfaced verbatim to the caller; 5xx bodies are not leaked.
type UpstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ai service returned %d", e.StatusCode)
}

func (e *UpstreamError) ClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}
