package handlers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"niplan/internal/handlers"
	"niplan/internal/otp"
	"niplan/internal/services"
)

type answerDesk struct {
	answers []string
	edits   []string
}

func (d *answerDesk) EditStatus(_ context.Context, _ int64, _ int, text string) error {
	d.edits = append(d.edits, text)
	return nil
}

func (d *answerDesk) Delete(context.Context, int64, int) error { return nil }

func (d *answerDesk) Answer(_ context.Context, _ string, text string) error {
	d.answers = append(d.answers, text)
	return nil
}

func newWebhookRouter(t *testing.T, secret string) (*gin.Engine, *otp.Blocklist, *answerDesk) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	blocklist := otp.NewBlocklist(rdb, "")
	desk := &answerDesk{}
	op := services.NewOperatorService(otp.NewRelayStore(rdb, ""), blocklist, nil, nil, desk, -100, nil)
	h := handlers.NewIntegrationsHandler(op, secret, nil)

	r := gin.New()
	r.POST("/webhook", h.Webhook)
	return r, blocklist, desk
}

const blockUpdate = `{"update_id":1,"callback_query":{"id":"cb-9","data":"block:243900000007",
"message":{"message_id":5,"date":0,"chat":{"id":-100,"type":"group"}}}}`

func TestWebhook_RejectsWrongSecret(t *testing.T) {
	r, _, _ := newWebhookRouter(t, "s3cret")
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(blockUpdate))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "nope")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestWebhook_BlockCallback(t *testing.T) {
	r, blocklist, desk := newWebhookRouter(t, "s3cret")
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(blockUpdate))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "s3cret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	blocked, err := blocklist.IsBlocked(context.Background(), "243900000007")
	if err != nil || !blocked {
		t.Fatalf("blocked = %v, err = %v", blocked, err)
	}
	if len(desk.answers) != 1 || len(desk.edits) != 1 {
		t.Fatalf("answers = %v, edits = %v", desk.answers, desk.edits)
	}
}

func TestWebhook_IgnoresPlainMessages(t *testing.T) {
	r, _, desk := newWebhookRouter(t, "")
	body := `{"update_id":2,"message":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"},"text":"hi"}}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || len(desk.answers) != 0 {
		t.Fatalf("status = %d, answers = %v", w.Code, desk.answers)
	}
}

func TestWebhook_ForeignChatCannotBlock(t *testing.T) {
	r, blocklist, desk := newWebhookRouter(t, "")
	body := `{"update_id":3,"callback_query":{"id":"cb-10","data":"block:243900000001",
"message":{"message_id":5,"date":0,"chat":{"id":12345,"type":"private"}}}}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	blocked, err := blocklist.IsBlocked(context.Background(), "243900000001")
	if err != nil || blocked {
		t.Fatalf("blocked = %v, err = %v", blocked, err)
	}
	if len(desk.answers) != 0 || len(desk.edits) != 0 {
		t.Fatalf("answers = %v, edits = %v", desk.answers, desk.edits)
	}
}
