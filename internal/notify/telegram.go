package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"niplan/internal/otp"
	"niplan/internal/phone"
)

// Operator actions carried in inline button callback data as "action:arg".
const (
	ActionSendSMS  = "send_sms"
	ActionSendWA   = "send_wa"
	ActionMarkSent = "mark_sent"
	ActionBlock    = "block"
	ActionDelete   = "delete"
)

type TelegramConfig struct {
	BotToken      string `yaml:"bot_token"`
	AdminChatID   int64  `yaml:"admin_chat_id"`
	WebhookSecret string `yaml:"webhook_secret"`
}

func (c TelegramConfig) Enabled() bool { return c.BotToken != "" && c.AdminChatID != 0 }

// BotAPI is the subset of *tgbotapi.BotAPI used here.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// TelegramRelay posts codes to the operator chat with buttons for manual forwarding.
type TelegramRelay struct {
	bot    BotAPI
	chatID int64
	relays *otp.RelayStore
	ttl    time.Duration
}

func NewTelegramRelay(bot BotAPI, chatID int64, relays *otp.RelayStore, ttl time.Duration) *TelegramRelay {
	return &TelegramRelay{bot: bot, chatID: chatID, relays: relays, ttl: ttl}
}

func (t *TelegramRelay) Name() string { return ChannelRelay }

func RelayKeyboard(requestID, phoneKey string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Envoyer SMS", ActionSendSMS+":"+requestID),
			tgbotapi.NewInlineKeyboardButtonData("Envoyer WhatsApp", ActionSendWA+":"+requestID),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Marquer envoyé", ActionMarkSent+":"+requestID),
			tgbotapi.NewInlineKeyboardButtonData("Bloquer", ActionBlock+":"+phoneKey),
			tgbotapi.NewInlineKeyboardButtonData("Supprimer", ActionDelete+":"+requestID),
		),
	)
}

func (t *TelegramRelay) Send(ctx context.Context, msg Message) error {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return ErrNotConfigured
	}
	if msg.Code == "" {
		return errors.New("telegram relay: only codes are relayed")
	}
	req, err := t.relays.Put(ctx, msg.PhoneKey, msg.Code, t.ttl)
	if err != nil {
		return fmt.Errorf("telegram relay: %w", err)
	}
	m := tgbotapi.NewMessage(t.chatID, fmt.Sprintf("🔐 Code OTP pour %s : %s", phone.E164(msg.PhoneKey), msg.Code))
	m.ReplyMarkup = RelayKeyboard(req.ID, msg.PhoneKey)
	return runWithContext(ctx, func() error {
		if _, err := t.bot.Send(m); err != nil {
			return fmt.Errorf("telegram relay: %w", err)
		}
		return nil
	})
}

// Alert posts a plain message to the operator chat.
func (t *TelegramRelay) Alert(ctx context.Context, subject, body string) error {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return ErrNotConfigured
	}
	m := tgbotapi.NewMessage(t.chatID, "⚠️ "+subject+"\n"+body)
	return runWithContext(ctx, func() error {
		_, err := t.bot.Send(m)
		return err
	})
}

// EditStatus replaces the relay message text once an operator acted on it.
func (t *TelegramRelay) EditStatus(ctx context.Context, chatID int64, messageID int, text string) error {
	return runWithContext(ctx, func() error {
		_, err := t.bot.Request(tgbotapi.NewEditMessageText(chatID, messageID, text))
		return err
	})
}

func (t *TelegramRelay) Delete(ctx context.Context, chatID int64, messageID int) error {
	return runWithContext(ctx, func() error {
		_, err := t.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
		return err
	})
}

// Answer acknowledges a button press so the operator's client stops spinning.
func (t *TelegramRelay) Answer(ctx context.Context, callbackID, text string) error {
	return runWithContext(ctx, func() error {
		_, err := t.bot.Request(tgbotapi.NewCallback(callbackID, text))
		return err
	})
}

// ParseCallbackData splits "action:arg". Unknown actions are rejected.
func ParseCallbackData(data string) (action, arg string, err error) {
	action, arg, ok := strings.Cut(data, ":")
	if !ok || arg == "" {
		return "", "", fmt.Errorf("telegram callback: malformed data %q", data)
	}
	switch action {
	case ActionSendSMS, ActionSendWA, ActionMarkSent, ActionBlock, ActionDelete:
		return action, arg, nil
	}
	return "", "", fmt.Errorf("telegram callback: unknown action %q", action)
}
