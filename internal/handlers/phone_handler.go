package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"niplan/internal/models"
	"niplan/internal/services"
)

// PhoneHandler serves the deprecated /api/phone/* bootstrap endpoints kept for old
// mobile clients. New clients go through /api/auth.
type PhoneHandler struct {
	svc *services.AuthService
	log *zap.Logger
}

func NewPhoneHandler(svc *services.AuthService, log *zap.Logger) *PhoneHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PhoneHandler{svc: svc, log: log}
}

// @Summary      Request a code (deprecated)
// @Tags         Phone
// @Accept       json
// @Produce      json
// @Param        body  body      models.DeprecatedOTPRequest  true  "Phone"
// @Success      200   {object}  models.OTPRequestResponse
// @Deprecated
// @Router       /api/phone/request-otp [post]
func (h *PhoneHandler) RequestOTP(c *gin.Context) {
	var req models.DeprecatedOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	c.Header("Deprecation", "true")
	resp, err := h.svc.RequestBootstrapOTP(c.Request.Context(), req.PhoneWhatsapp)
	if err != nil {
		writeError(c, h.log, "phone-request-otp", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Verify a code (deprecated)
// @Tags         Phone
// @Accept       json
// @Produce      json
// @Param        body  body      models.DeprecatedOTPRequest  true  "Phone and code"
// @Success      200   {object}  models.FlowResponse
// @Deprecated
// @Router       /api/phone/verify-otp [post]
func (h *PhoneHandler) VerifyOTP(c *gin.Context) {
	var req models.DeprecatedOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	c.Header("Deprecation", "true")
	resp, err := h.svc.VerifyBootstrapOTP(c.Request.Context(), req.PhoneWhatsapp, req.Code)
	if err != nil {
		writeError(c, h.log, "phone-verify-otp", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
