package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careerarchitect/backend/internal/providers/analyzer"
	"github.com/careerarchitect/backend/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func writeError(c *gin.Context, err error) {
	// Upstream 4xx answers pass through verbatim: the AI service rejected the
	// caller's input and its body says why.
	var ue *analyzer.UpstreamError
	if errors.As(err, &ue) && ue.ClientError() {
		c.Data(ue.StatusCode, "application/json", ue.Body)
		return
	}

	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
		})
		return
	}

	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

func identityUID(c *gin.Context) string {
	if v, ok := c.Get("firebase_uid"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func identityEmail(c *gin.Context) string {
	if v, ok := c.Get("user_email"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func requireUID(c *gin.Context) (string, bool) {
	if uid := identityUID(c); uid != "" {
		return uid, true
	}
	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "identity header is required", nil))
	return "", false
}
