package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"

	"niplan/internal/notify"
	"niplan/internal/otp"
)

type recordingChannel struct {
	name string
	sent []notify.Message
}

func (r *recordingChannel) Name() string { return r.name }

func (r *recordingChannel) Send(_ context.Context, msg notify.Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

type fakeDesk struct {
	edits   []string
	deleted []int
	answers []string
}

func (f *fakeDesk) EditStatus(_ context.Context, _ int64, _ int, text string) error {
	f.edits = append(f.edits, text)
	return nil
}

func (f *fakeDesk) Delete(_ context.Context, _ int64, messageID int) error {
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeDesk) Answer(_ context.Context, _ string, text string) error {
	f.answers = append(f.answers, text)
	return nil
}

type operatorEnv struct {
	svc       *OperatorService
	relays    *otp.RelayStore
	blocklist *otp.Blocklist
	sms       *recordingChannel
	wa        *recordingChannel
	desk      *fakeDesk
}

func newOperatorEnv(t *testing.T) *operatorEnv {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	env := &operatorEnv{
		relays:    otp.NewRelayStore(rdb, ""),
		blocklist: otp.NewBlocklist(rdb, ""),
		sms:       &recordingChannel{name: notify.ChannelSMS},
		wa:        &recordingChannel{name: notify.ChannelWhatsApp},
		desk:      &fakeDesk{},
	}
	env.svc = NewOperatorService(env.relays, env.blocklist, env.sms, env.wa, env.desk, -100, nil)
	return env
}

func callback(data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		Data:    data,
		Message: &tgbotapi.Message{MessageID: 77, Chat: &tgbotapi.Chat{ID: -100}},
	}
}

func TestOperator_ResendBySMSAndWhatsApp(t *testing.T) {
	env := newOperatorEnv(t)
	ctx := context.Background()
	req, err := env.relays.Put(ctx, "243900000001", "123456", time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := env.svc.HandleCallback(ctx, callback(notify.ActionSendSMS+":"+req.ID)); err != nil {
		t.Fatalf("send_sms: %v", err)
	}
	if len(env.sms.sent) != 1 || env.sms.sent[0].Code != "123456" || env.sms.sent[0].PhoneKey != "243900000001" {
		t.Fatalf("sms sent = %+v", env.sms.sent)
	}

	if _, err := env.svc.HandleCallback(ctx, callback(notify.ActionSendWA+":"+req.ID)); err != nil {
		t.Fatalf("send_wa: %v", err)
	}
	if len(env.wa.sent) != 1 {
		t.Fatalf("whatsapp sent = %d", len(env.wa.sent))
	}
	if len(env.desk.edits) != 2 || !strings.Contains(env.desk.edits[1], notify.ChannelWhatsApp) {
		t.Errorf("edits = %v", env.desk.edits)
	}
}

func TestOperator_ExpiredRelay(t *testing.T) {
	env := newOperatorEnv(t)
	_, err := env.svc.HandleCallback(context.Background(), callback(notify.ActionSendSMS+":missing"))
	if !errors.Is(err, otp.ErrRelayNotFound) {
		t.Fatalf("err = %v", err)
	}
	if len(env.sms.sent) != 0 {
		t.Error("sent without a relay request")
	}
}

func TestOperator_Block(t *testing.T) {
	env := newOperatorEnv(t)
	ctx := context.Background()

	toast, err := env.svc.HandleCallback(ctx, callback(notify.ActionBlock+":243900000001"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(toast, "+243900000001") {
		t.Errorf("toast = %q", toast)
	}
	blocked, err := env.blocklist.IsBlocked(ctx, "243900000001")
	if err != nil || !blocked {
		t.Fatalf("blocked = %v, err = %v", blocked, err)
	}
}

func TestOperator_MarkSentAndDelete(t *testing.T) {
	env := newOperatorEnv(t)
	ctx := context.Background()
	req, _ := env.relays.Put(ctx, "243900000001", "123456", time.Minute)

	if _, err := env.svc.HandleCallback(ctx, callback(notify.ActionMarkSent+":"+req.ID)); err != nil {
		t.Fatal(err)
	}
	if len(env.desk.edits) != 1 {
		t.Fatalf("edits = %v", env.desk.edits)
	}

	if _, err := env.svc.HandleCallback(ctx, callback(notify.ActionDelete+":"+req.ID)); err != nil {
		t.Fatal(err)
	}
	if len(env.desk.deleted) != 1 || env.desk.deleted[0] != 77 {
		t.Fatalf("deleted = %v", env.desk.deleted)
	}
	if _, err := env.relays.Get(ctx, req.ID); !errors.Is(err, otp.ErrRelayNotFound) {
		t.Errorf("relay still present: %v", err)
	}
}

func TestOperator_BadData(t *testing.T) {
	env := newOperatorEnv(t)
	if _, err := env.svc.HandleCallback(context.Background(), callback("launch:1")); err == nil {
		t.Fatal("expected error")
	}
	if _, err := env.svc.HandleCallback(context.Background(), &tgbotapi.CallbackQuery{Data: "block:1"}); err == nil {
		t.Fatal("expected error for callback without message")
	}
}

func TestOperator_RejectsForeignChat(t *testing.T) {
	env := newOperatorEnv(t)
	ctx := context.Background()
	cb := callback(notify.ActionBlock + ":243900000001")
	cb.Message.Chat.ID = 12345

	if _, err := env.svc.HandleCallback(ctx, cb); !errors.Is(err, ErrForeignChat) {
		t.Fatalf("err = %v, want ErrForeignChat", err)
	}
	blocked, err := env.blocklist.IsBlocked(ctx, "243900000001")
	if err != nil || blocked {
		t.Fatalf("blocked = %v, err = %v", blocked, err)
	}
	if len(env.desk.edits) != 0 {
		t.Errorf("edits = %v", env.desk.edits)
	}
}
