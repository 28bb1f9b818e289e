package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/careerarchitect/backend/internal/models"
)

const DefaultTimeout = 30 * time.Second

// HTTPClient talks to the AI service over multipart HTTP. It is stateless and
// safe for concurrent use; construct once per process and share.
type HTTPClient struct {
	baseURL string
	httpc   *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
	}
}

func routeFor(kind models.AnalysisType) string {
	if kind == models.AnalysisTypeLinkedIn {
		return "/analyze-linkedin"
	}
	return "/analyze"
}

func (c *HTTPClient) Analyze(ctx context.Context, req SubmitRequest) (*RawResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", req.Filename)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(req.FileBytes); err != nil {
		return nil, err
	}

	// The LinkedIn route takes no job description.
	if jd := strings.TrimSpace(req.JobDescription); jd != "" && req.Kind != models.AnalysisTypeLinkedIn {
		if err := mw.WriteField("jd", jd); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+routeFor(req.Kind), &buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: body}
	}

	var fields map[string]any
	if len(bytes.TrimSpace(body)) == 0 || json.Unmarshal(body, &fields) != nil {
		return nil, ErrEmptyResponse
	}

	return &RawResult{Fields: fields, Raw: body}, nil
}

// Health probes the AI service's health endpoint.
func (c *HTTPClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &UpstreamError{StatusCode: resp.StatusCode}
	}
	return nil
}
