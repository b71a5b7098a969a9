package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"niplan/internal/services"
)

type AdminHandler struct {
	svc *services.AuthService
	log *zap.Logger
}

func NewAdminHandler(svc *services.AuthService, log *zap.Logger) *AdminHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminHandler{svc: svc, log: log}
}

type blockRequest struct {
	Reason string `json:"reason"`
}

// @Summary      Blocklist status of a phone
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        phone  path      string  true  "Phone"
// @Success      200    {object}  services.BlockStatus
// @Failure      403    {object}  errorResponse
// @Router       /api/auth/admin/blocked/{phone} [get]
func (h *AdminHandler) GetBlocked(c *gin.Context) {
	st, err := h.svc.BlockStatus(c.Request.Context(), c.Param("phone"))
	if err != nil {
		writeError(c, h.log, "admin-blocked", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Block a phone
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        phone  path  string        true   "Phone"
// @Param        body   body  blockRequest  false  "Reason"
// @Success      204
// @Router       /api/auth/admin/blocked/{phone} [put]
func (h *AdminHandler) Block(c *gin.Context) {
	var req blockRequest
	_ = c.ShouldBindJSON(&req)
	if req.Reason == "" {
		req.Reason = "admin block"
	}
	if err := h.svc.BlockPhone(c.Request.Context(), c.Param("phone"), req.Reason); err != nil {
		writeError(c, h.log, "admin-block", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary      Unblock a phone
// @Tags         Admin
// @Security     BearerAuth
// @Param        phone  path  string  true  "Phone"
// @Success      204
// @Router       /api/auth/admin/blocked/{phone} [delete]
func (h *AdminHandler) Unblock(c *gin.Context) {
	if err := h.svc.UnblockPhone(c.Request.Context(), c.Param("phone")); err != nil {
		writeError(c, h.log, "admin-unblock", err)
		return
	}
	c.Status(http.StatusNoContent)
}
