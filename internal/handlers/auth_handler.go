package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"niplan/internal/middleware"
	"niplan/internal/models"
	"niplan/internal/services"
)

type AuthHandler struct {
	svc *services.AuthService
	log *zap.Logger
}

func NewAuthHandler(svc *services.AuthService, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{svc: svc, log: log}
}

// @Summary      Determine the authentication flow for a phone
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.PhoneRequest  true  "Phone"
// @Success      200   {object}  models.FlowResponse
// @Failure      400   {object}  errorResponse
// @Router       /api/auth/detect-flow [post]
func (h *AuthHandler) DetectFlow(c *gin.Context) {
	var req models.PhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	resp, err := h.svc.DetectFlow(c.Request.Context(), req.Phone)
	if err != nil {
		writeError(c, h.log, "detect-flow", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Send a registration code
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.PhoneRequest  true  "Phone"
// @Success      200   {object}  models.OTPRequestResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /api/auth/register/request-otp [post]
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req models.PhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	resp, err := h.svc.RequestRegistrationOTP(c.Request.Context(), req.Phone)
	if err != nil {
		writeError(c, h.log, "request-otp", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Verify the registration code and create the account
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.RegisterVerifyRequest  true  "Phone, code and password"
// @Success      201   {object}  models.AuthResponse
// @Failure      400   {object}  errorResponse
// @Router       /api/auth/register/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req models.RegisterVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	resp, err := h.svc.VerifyRegistration(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.log, "verify-otp", err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// @Summary      Set the first password of a legacy account
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.LegacySetPasswordRequest  true  "Phone and password"
// @Success      200   {object}  models.AuthResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/auth/legacy/set-password [post]
func (h *AuthHandler) LegacySetPassword(c *gin.Context) {
	var req models.LegacySetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	resp, err := h.svc.LegacySetPassword(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.log, "legacy-set-password", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Log in with phone and password
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.LoginRequest  true  "Credentials"
// @Success      200   {object}  models.AuthResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.log, "login", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Rotate a refresh token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.RefreshRequest  true  "Refresh token"
// @Success      200   {object}  models.TokenPair
// @Failure      401   {object}  errorResponse
// @Router       /api/auth/token/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Refresh == "" {
		badRequest(c, "refresh token is required")
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		writeError(c, h.log, "refresh", err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// @Summary      Current account
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.MeResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := middleware.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "unauthorized", Code: services.CodeInvalidToken})
		return
	}
	resp, err := h.svc.Me(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, "me", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
