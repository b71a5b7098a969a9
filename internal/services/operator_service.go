package services

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"niplan/internal/notify"
	"niplan/internal/otp"
	"niplan/internal/phone"
)

// ErrForeignChat rejects button presses that do not come from the operator chat.
var ErrForeignChat = errors.New("callback from a chat other than the operator chat")

// RelayDesk edits the operator chat after a button press.
type RelayDesk interface {
	EditStatus(ctx context.Context, chatID int64, messageID int, text string) error
	Delete(ctx context.Context, chatID int64, messageID int) error
	Answer(ctx context.Context, callbackID, text string) error
}

// OperatorService executes the relay buttons: resend a parked code by SMS or WhatsApp,
// mark it delivered by hand, block the number, or drop the message.
type OperatorService struct {
	relays    *otp.RelayStore
	blocklist *otp.Blocklist
	sms       notify.Channel
	whatsapp  notify.Channel
	desk      RelayDesk
	chatID    int64
	log       *zap.Logger
}

// NewOperatorService only honours callbacks sent from adminChatID.
func NewOperatorService(relays *otp.RelayStore, blocklist *otp.Blocklist, sms, whatsapp notify.Channel, desk RelayDesk, adminChatID int64, log *zap.Logger) *OperatorService {
	if log == nil {
		log = zap.NewNop()
	}
	return &OperatorService{relays: relays, blocklist: blocklist, sms: sms, whatsapp: whatsapp, desk: desk, chatID: adminChatID, log: log}
}

// HandleCallback runs one button press and returns the toast shown to the operator.
func (s *OperatorService) HandleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) (string, error) {
	if cb == nil || cb.Message == nil || cb.Message.Chat == nil {
		return "", errors.New("callback without message")
	}
	if cb.Message.Chat.ID != s.chatID {
		s.log.Warn("[operator] callback from foreign chat", zap.Int64("chat_id", cb.Message.Chat.ID))
		return "", ErrForeignChat
	}
	action, arg, err := notify.ParseCallbackData(cb.Data)
	if err != nil {
		return "Erreur: données invalides", err
	}
	chatID, messageID := cb.Message.Chat.ID, cb.Message.MessageID

	var toast, status string
	switch action {
	case notify.ActionSendSMS, notify.ActionSendWA:
		ch := s.sms
		if action == notify.ActionSendWA {
			ch = s.whatsapp
		}
		if ch == nil {
			return "Canal non configuré", notify.ErrNotConfigured
		}
		req, err := s.relays.Get(ctx, arg)
		if err != nil {
			if errors.Is(err, otp.ErrRelayNotFound) {
				return "Code expiré", err
			}
			return "Erreur", err
		}
		if err := ch.Send(ctx, notify.Message{PhoneKey: req.PhoneKey, Text: notify.OTPText(req.Code), Code: req.Code}); err != nil {
			s.log.Warn("[operator][resend] failed", zap.String("channel", ch.Name()), zap.Error(err))
			return "Échec de l'envoi", err
		}
		toast = "✅ Envoyé"
		status = fmt.Sprintf("✅ Envoyé (%s) → %s", ch.Name(), phone.E164(req.PhoneKey))

	case notify.ActionMarkSent:
		toast = "✅ Marqué comme envoyé"
		status = "✅ Transmis manuellement"

	case notify.ActionBlock:
		key, err := phone.Normalize(arg)
		if err != nil {
			return "Numéro invalide", err
		}
		if err := s.blocklist.Block(ctx, key, "operator block"); err != nil {
			return "Erreur", err
		}
		s.log.Info("[operator][block] phone blocked", zap.String("phone", phone.Mask(key)))
		toast = "🚫 " + phone.E164(key) + " bloqué"
		status = "🚫 Numéro bloqué: " + phone.E164(key)

	case notify.ActionDelete:
		if err := s.relays.Delete(ctx, arg); err != nil {
			s.log.Warn("[operator][delete] relay cleanup failed", zap.Error(err))
		}
		if err := s.desk.Delete(ctx, chatID, messageID); err != nil {
			return "Erreur", err
		}
		return "Message supprimé", nil
	}

	if err := s.desk.EditStatus(ctx, chatID, messageID, status); err != nil {
		s.log.Warn("[operator] edit status failed", zap.Error(err))
	}
	return toast, nil
}

// Acknowledge answers the callback query so the operator's button stops spinning.
func (s *OperatorService) Acknowledge(ctx context.Context, callbackID, text string) {
	if err := s.desk.Answer(ctx, callbackID, text); err != nil {
		s.log.Warn("[operator] answer callback failed", zap.Error(err))
	}
}
