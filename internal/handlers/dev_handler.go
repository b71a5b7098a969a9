package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"niplan/internal/services"
)

// DevHandler exposes live codes to local tooling. Routes are only mounted when
// dev.expose_otp is set; the store refuses to peek otherwise.
type DevHandler struct {
	svc *services.AuthService
	log *zap.Logger
}

func NewDevHandler(svc *services.AuthService, log *zap.Logger) *DevHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &DevHandler{svc: svc, log: log}
}

// @Summary      Peek the live code of a phone (development only)
// @Tags         Dev
// @Produce      json
// @Param        phone  query     string  true  "Phone"
// @Success      200    {object}  map[string]string
// @Failure      404    {object}  errorResponse
// @Router       /api/auth/dev/otp [get]
func (h *DevHandler) PeekOTP(c *gin.Context) {
	key, code, err := h.svc.PeekDebugOTP(c.Request.Context(), c.Query("phone"))
	if err != nil {
		writeError(c, h.log, "dev-otp", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"phone": key, "code": code})
}
