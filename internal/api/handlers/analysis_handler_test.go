package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerarchitect/backend/internal/api/handlers"
	"github.com/careerarchitect/backend/internal/api/routes"
	"github.com/careerarchitect/backend/internal/models"
	"github.com/careerarchitect/backend/internal/services"
	"github.com/careerarchitect/backend/internal/utils"
)

type mockAnalysisService struct {
	lastSubmit  *services.SubmitInput
	submitOut   map[string]any
	submitErr   error
	historyOut  *services.HistoryResult
	historyErr  error
	eventsOut   []models.SubmissionEvent
	eventsErr   error
	deleteErr   error
	lastDelete  string
	lastHistory string
	lastEvents  string
}

func (m *mockAnalysisService) Submit(_ context.Context, in services.SubmitInput) (map[string]any, error) {
	m.lastSubmit = &in
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	return m.submitOut, nil
}

func (m *mockAnalysisService) History(_ context.Context, uid string) (*services.HistoryResult, error) {
	m.lastHistory = uid
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return m.historyOut, nil
}

func (m *mockAnalysisService) Events(_ context.Context, uid string) ([]models.SubmissionEvent, error) {
	m.lastEvents = uid
	if m.eventsErr != nil {
		return nil, m.eventsErr
	}
	return m.eventsOut, nil
}

func (m *mockAnalysisService) Delete(_ context.Context, id, uid string) error {
	m.lastDelete = id + "/" + uid
	return m.deleteErr
}

func newTestRouter(t *testing.T, svc services.AnalysisService, strict bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	routes.RegisterRoutes(r, routes.Deps{
		Analysis: handlers.NewAnalysisHandler(svc, nil, strict),
	})
	return r
}

func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestAnalyzeResume(t *testing.T) {
	svc := &mockAnalysisService{
		submitOut: map[string]any{"analysis_id": "abc", "saved_to_database": true},
	}
	r := newTestRouter(t, svc, false)

	body, ct := multipartBody(t, "resume.pdf", []byte("%PDF-1.4"), map[string]string{"jd": "Go role"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-Firebase-UID", "uid-1")
	req.Header.Set("X-User-Email", "jane@x.com")
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	require.NotNil(t, svc.lastSubmit)
	assert.Equal(t, "resume.pdf", svc.lastSubmit.Filename)
	assert.Equal(t, "Go role", svc.lastSubmit.JobDescription)
	assert.Equal(t, "RESUME", string(svc.lastSubmit.Kind))
	assert.Equal(t, "uid-1", svc.lastSubmit.FirebaseUID)
	assert.Equal(t, "jane@x.com", svc.lastSubmit.Email)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, "abc", out["analysis_id"])
	assert.Equal(t, true, out["saved_to_database"])
}

func TestAnalyzeResume_BearerFallback(t *testing.T) {
	svc := &mockAnalysisService{submitOut: map[string]any{}}
	r := newTestRouter(t, svc, false)

	// unsigned token with sub + email claims; the gateway trusts it as-is
	token := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0." +
		"eyJzdWIiOiJ1aWQtOTkiLCJlbWFpbCI6ImJvYkB4LmNvbSJ9."

	body, ct := multipartBody(t, "resume.pdf", []byte("x"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, svc.lastSubmit)
	assert.Equal(t, "uid-99", svc.lastSubmit.FirebaseUID)
	assert.Equal(t, "bob@x.com", svc.lastSubmit.Email)
}

func TestAnalyzeLinkedIn(t *testing.T) {
	svc := &mockAnalysisService{submitOut: map[string]any{}}
	r := newTestRouter(t, svc, false)

	body, ct := multipartBody(t, "profile.pdf", []byte("x"), map[string]string{"jd": "sneaky"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze-linkedin", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, svc.lastSubmit)
	assert.Equal(t, "LINKEDIN", string(svc.lastSubmit.Kind))
	assert.Empty(t, svc.lastSubmit.JobDescription, "linkedin submissions accept no job description")
}

func TestAnalyze_MissingFile(t *testing.T) {
	svc := &mockAnalysisService{}
	r := newTestRouter(t, svc, false)

	body, ct := multipartBody(t, "", nil, map[string]string{"jd": "x"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Nil(t, svc.lastSubmit)
}

func TestAnalyze_StrictPolicy(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		wantCode int
	}{
		{"wrong extension", "resume.docx", []byte("%PDF-1.4"), http.StatusBadRequest},
		{"wrong content type", "resume.pdf", []byte("plain text"), http.StatusBadRequest},
		{"valid pdf", "resume.pdf", []byte("%PDF-1.4 body"), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAnalysisService{submitOut: map[string]any{}}
			r := newTestRouter(t, svc, true)

			body, ct := multipartBody(t, tt.filename, tt.content, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
			req.Header.Set("Content-Type", ct)
			rr := httptest.NewRecorder()

			r.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
			if tt.wantCode != http.StatusOK {
				assert.Nil(t, svc.lastSubmit, "rejected uploads must not reach the service")
			}
		})
	}
}

func TestAnalyze_RelaxedModeForwardsFullFile(t *testing.T) {
	svc := &mockAnalysisService{submitOut: map[string]any{}}
	r := newTestRouter(t, svc, false)

	big := bytes.Repeat([]byte("a"), 11<<20)
	body, ct := multipartBody(t, "resume.pdf", big, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, svc.lastSubmit)
	assert.Len(t, svc.lastSubmit.FileBytes, 11<<20, "relaxed mode must never truncate an upload")
}

func TestAnalyze_ServiceErrorMapping(t *testing.T) {
	svc := &mockAnalysisService{
		submitErr: utils.E(utils.CodeUnavailable, "AnalysisService.Submit", "AI analysis service is unavailable, please try again later", nil),
	}
	r := newTestRouter(t, svc, false)

	body, ct := multipartBody(t, "resume.pdf", []byte("x"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	var apiErr struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiErr))
	assert.Equal(t, "UNAVAILABLE", apiErr.Code)
}

func TestHistory_RequiresIdentity(t *testing.T) {
	svc := &mockAnalysisService{historyOut: &services.HistoryResult{}}
	r := newTestRouter(t, svc, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Empty(t, svc.lastHistory)
}

func TestHistory_OK(t *testing.T) {
	svc := &mockAnalysisService{historyOut: &services.HistoryResult{Total: 2}}
	r := newTestRouter(t, svc, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	req.Header.Set("X-Firebase-UID", "uid-1")
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "uid-1", svc.lastHistory)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, float64(2), out["total"])
}

func TestEvents_OK(t *testing.T) {
	svc := &mockAnalysisService{
		eventsOut: []models.SubmissionEvent{{Filename: "resume.pdf", Outcome: "saved", Score: 72}},
	}
	r := newTestRouter(t, svc, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history/events", nil)
	req.Header.Set("X-Firebase-UID", "uid-1")
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "uid-1", svc.lastEvents)

	var out struct {
		Total  int                      `json:"total"`
		Events []models.SubmissionEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, 1, out.Total)
	require.Len(t, out.Events, 1)
	assert.Equal(t, "saved", out.Events[0].Outcome)
}

func TestEvents_RequiresIdentity(t *testing.T) {
	svc := &mockAnalysisService{}
	r := newTestRouter(t, svc, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history/events", nil)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Empty(t, svc.lastEvents)
}

func TestDelete_OK(t *testing.T) {
	svc := &mockAnalysisService{}
	r := newTestRouter(t, svc, false)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/analysis/abc-123", nil)
	req.Header.Set("X-Firebase-UID", "uid-1")
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "abc-123/uid-1", svc.lastDelete)
	assert.JSONEq(t, `{"success": true}`, rr.Body.String())
}

func TestDelete_AccessDenied(t *testing.T) {
	svc := &mockAnalysisService{
		deleteErr: utils.E(utils.CodeForbidden, "AnalysisService.Delete", "Access denied", nil),
	}
	r := newTestRouter(t, svc, false)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/analysis/abc-123", nil)
	req.Header.Set("X-Firebase-UID", "uid-2")
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestHealth_NoChecker(t *testing.T) {
	r := newTestRouter(t, &mockAnalysisService{}, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
