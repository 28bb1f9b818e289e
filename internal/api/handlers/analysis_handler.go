package handlers

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/careerarchitect/backend/internal/models"
	"github.com/careerarchitect/backend/internal/services"
	"github.com/careerarchitect/backend/internal/utils"
)

const maxUploadBytes = 10 << 20

// HealthChecker reports whether the AI service answers at all.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type AnalysisHandler struct {
	svc    services.AnalysisService
	health HealthChecker
	strict bool
}

// NewAnalysisHandler wires the submission pipeline to HTTP. strict enables
// the PDF-only upload policy; later deployments leave validation to the AI
// service and run with strict=false.
func NewAnalysisHandler(svc services.AnalysisService, health HealthChecker, strict bool) *AnalysisHandler {
	return &AnalysisHandler{svc: svc, health: health, strict: strict}
}

func (h *AnalysisHandler) AnalyzeResume(c *gin.Context) {
	h.analyze(c, models.AnalysisTypeResume, c.PostForm("jd"))
}

func (h *AnalysisHandler) AnalyzeLinkedIn(c *gin.Context) {
	h.analyze(c, models.AnalysisTypeLinkedIn, "")
}

func (h *AnalysisHandler) analyze(c *gin.Context, kind models.AnalysisType, jd string) {
	const op = "AnalysisHandler.Analyze"

	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing multipart field 'file'", err))
		return
	}

	if h.strict {
		if err := checkStrictPolicy(fh); err != nil {
			writeError(c, err)
			return
		}
	}

	file, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to open upload", err))
		return
	}
	defer file.Close()

	// The size ceiling belongs to the strict policy. Relaxed mode forwards
	// the upload whole and leaves limits to the AI service.
	reader := io.Reader(file)
	if h.strict {
		reader = io.LimitReader(file, maxUploadBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to read upload", err))
		return
	}
	if h.strict && len(data) > maxUploadBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "file too large (max 10MB)", nil))
		return
	}

	out, err := h.svc.Submit(c.Request.Context(), services.SubmitInput{
		FileBytes:      data,
		Filename:       fh.Filename,
		JobDescription: jd,
		Kind:           kind,
		FirebaseUID:    identityUID(c),
		Email:          identityEmail(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

func checkStrictPolicy(fh *multipart.FileHeader) error {
	const op = "AnalysisHandler.Analyze"

	if ext := strings.ToLower(filepath.Ext(fh.Filename)); ext != ".pdf" {
		return utils.E(utils.CodeInvalidArgument, op, "only .pdf is allowed", nil)
	}
	if fh.Size <= 0 || fh.Size > maxUploadBytes {
		return utils.E(utils.CodeInvalidArgument, op, "file too large (max 10MB)", nil)
	}

	file, err := fh.Open()
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to open upload", err)
	}
	defer file.Close()

	head := make([]byte, 512)
	n, _ := file.Read(head)
	if http.DetectContentType(head[:n]) != "application/pdf" {
		return utils.E(utils.CodeInvalidArgument, op, "invalid content type (must be pdf)", nil)
	}
	return nil
}

func (h *AnalysisHandler) History(c *gin.Context) {
	uid, ok := requireUID(c)
	if !ok {
		return
	}

	res, err := h.svc.History(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AnalysisHandler) Events(c *gin.Context) {
	uid, ok := requireUID(c)
	if !ok {
		return
	}

	evs, err := h.svc.Events(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"total": len(evs), "events": evs})
}

func (h *AnalysisHandler) Delete(c *gin.Context) {
	uid, ok := requireUID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), uid); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AnalysisHandler) Health(c *gin.Context) {
	if h.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	aiStatus := "reachable"
	if err := h.health.Health(ctx); err != nil {
		aiStatus = "unreachable"
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "ai_service": aiStatus})
}
