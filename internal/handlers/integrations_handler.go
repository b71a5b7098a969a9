package handlers

import (
	"crypto/subtle"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"niplan/internal/services"
)

const telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// IntegrationsHandler receives Telegram webhook updates for the operator relay chat.
type IntegrationsHandler struct {
	operator *services.OperatorService
	secret   string
	log      *zap.Logger
}

func NewIntegrationsHandler(operator *services.OperatorService, secret string, log *zap.Logger) *IntegrationsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &IntegrationsHandler{operator: operator, secret: secret, log: log}
}

// Webhook always answers 200 to a well-formed update so Telegram does not redeliver it.
func (h *IntegrationsHandler) Webhook(c *gin.Context) {
	if h.secret != "" {
		got := c.GetHeader(telegramSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
	}

	var upd tgbotapi.Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false})
		return
	}
	cb := upd.CallbackQuery
	if cb == nil {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	ctx := c.Request.Context()
	toast, err := h.operator.HandleCallback(ctx, cb)
	if err != nil {
		h.log.Warn("[telegram][webhook] callback failed", zap.String("data", cb.Data), zap.Error(err))
	}
	if toast != "" {
		h.operator.Acknowledge(ctx, cb.ID, toast)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
