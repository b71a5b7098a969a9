package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"niplan/internal/services"
)

type errorResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	Flow       string `json:"flow,omitempty"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

// writeError renders err as {error, code, flow?, redirect_to?} with the status of its kind.
func writeError(c *gin.Context, log *zap.Logger, op string, err error) {
	ae := services.AsAuthError(err)
	status := ae.Kind.HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.Error("[http]["+op+"] internal error", zap.Error(err))
	} else {
		log.Debug("[http]["+op+"] rejected", zap.String("code", ae.Code))
	}
	c.JSON(status, errorResponse{
		Error:      ae.Message,
		Code:       ae.Code,
		Flow:       ae.Flow,
		RedirectTo: ae.RedirectTo,
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg, Code: "bad_request"})
}
