package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"niplan/internal/handlers"
	"niplan/internal/models"
	"niplan/internal/notify"
	"niplan/internal/otp"
	"niplan/internal/repositories"
	"niplan/internal/routes"
	"niplan/internal/services"
	"niplan/internal/utils"
)

const fixedCode = "123456"

type captureChannel struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (c *captureChannel) Name() string { return notify.ChannelWhatsApp }

func (c *captureChannel) Send(_ context.Context, msg notify.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
	return nil
}

type server struct {
	router   *gin.Engine
	accounts *repositories.MemoryAccountRepository
	svc      *services.AuthService
	tokens   *utils.TokenIssuer
}

func newServer(t *testing.T, withDev, withLegacy bool) *server {
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

	s := &server{
		accounts: repositories.NewMemoryAccountRepository(),
		tokens:   utils.NewTokenIssuer("handler-secret", "niplan", time.Hour, 2*time.Hour),
	}
	s.svc = services.NewAuthService(services.AuthDeps{
		Accounts:  s.accounts,
		OTPs:      otp.NewStore(rdb, "", otp.StoreConfig{FixedCode: fixedCode, ExposeDebug: withDev, MaxVerifyAttempts: 5}),
		Limiter:   otp.NewLimiter(rdb, ""),
		Blocklist: otp.NewBlocklist(rdb, ""),
		Notifier:  notify.NewGateway(nil, time.Second, &captureChannel{}),
		Tokens:    s.tokens,
		Rotation:  utils.NewRefreshRotation(rdb, ""),
		Hasher:    services.NewPasswordHasher(bcrypt.MinCost),
	}, services.AuthConfig{}, nil)

	var dev *handlers.DevHandler
	if withDev {
		dev = handlers.NewDevHandler(s.svc, nil)
	}
	var phone *handlers.PhoneHandler
	if withLegacy {
		phone = handlers.NewPhoneHandler(s.svc, nil)
	}
	s.router = routes.SetupRoutes(gin.New(), s.tokens,
		handlers.NewAuthHandler(s.svc, nil),
		handlers.NewAdminHandler(s.svc, nil),
		handlers.NewHealthHandler(nil),
		dev, phone, nil,
	)
	return s
}

func (s *server) do(t *testing.T, method, path string, body any, bearer string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func TestRegistrationAndLoginOverHTTP(t *testing.T) {
	s := newServer(t, false, false)
	phone := "243900000001"

	w, body := s.do(t, http.MethodPost, "/api/auth/detect-flow", gin.H{"phone": phone}, "")
	if w.Code != http.StatusOK || body["flow"] != models.FlowNewRegistration {
		t.Fatalf("detect-flow: %d %v", w.Code, body)
	}

	w, body = s.do(t, http.MethodPost, "/api/auth/register/request-otp", gin.H{"phone": phone}, "")
	if w.Code != http.StatusOK || body["status"] != "success" {
		t.Fatalf("request-otp: %d %v", w.Code, body)
	}

	w, body = s.do(t, http.MethodPost, "/api/auth/register/verify-otp", gin.H{"phone": phone, "code": fixedCode, "password": "secret123"}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("verify-otp: %d %v", w.Code, body)
	}
	if body["access"] == "" || body["refresh"] == "" || body["role"] != "vendor" {
		t.Fatalf("verify-otp body = %v", body)
	}

	w, body = s.do(t, http.MethodPost, "/api/auth/login", gin.H{"phone": "+" + phone, "password": "secret123"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %v", w.Code, body)
	}
	access, _ := body["access"].(string)

	w, _ = s.do(t, http.MethodPost, "/api/auth/login", gin.H{"phone": phone, "password": "wrong-pass"}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: %d", w.Code)
	}

	w, body = s.do(t, http.MethodGet, "/api/auth/me", nil, access)
	if w.Code != http.StatusOK || body["phone"] != phone {
		t.Fatalf("me: %d %v", w.Code, body)
	}
}

func TestConflictCarriesRedirect(t *testing.T) {
	s := newServer(t, false, false)
	s.accounts.Seed(models.Account{PhoneKey: "243900000002", CredentialState: models.CredentialNoPassword, PhoneVerified: true})

	w, body := s.do(t, http.MethodPost, "/api/auth/register/request-otp", gin.H{"phone": "243900000002"}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if body["flow"] != models.FlowLegacySetup || body["redirect_to"] != services.EndpointLegacySetPassword {
		t.Fatalf("body = %v", body)
	}
}

func TestLegacySetPasswordOverHTTP(t *testing.T) {
	s := newServer(t, false, false)
	s.accounts.Seed(models.Account{PhoneKey: "243900000002", CredentialState: models.CredentialNoPassword, PhoneVerified: true})
	req := gin.H{"phone": "243900000002", "password": "secret123", "password_confirm": "secret123"}

	w, body := s.do(t, http.MethodPost, "/api/auth/legacy/set-password", req, "")
	if w.Code != http.StatusOK || body["is_phone_verified"] != true {
		t.Fatalf("first: %d %v", w.Code, body)
	}
	w, _ = s.do(t, http.MethodPost, "/api/auth/legacy/set-password", req, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("second: %d", w.Code)
	}
}

func TestBadBodyAndMissingToken(t *testing.T) {
	s := newServer(t, false, false)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad json: %d", w.Code)
	}

	w, _ = s.do(t, http.MethodGet, "/api/auth/me", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("me without token: %d", w.Code)
	}
	w, _ = s.do(t, http.MethodGet, "/api/auth/me", nil, "garbage")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("me with bad token: %d", w.Code)
	}
}

func TestRefreshOverHTTP(t *testing.T) {
	s := newServer(t, false, false)
	hash, err := services.NewPasswordHasher(bcrypt.MinCost).Hash("secret123")
	if err != nil {
		t.Fatal(err)
	}
	acc := s.accounts.Seed(models.Account{PhoneKey: "243900000001", PasswordHash: hash, CredentialState: models.CredentialPasswordSet, Active: true})
	pair, err := s.tokens.Issue(acc.ID, acc.PhoneKey, "vendor")
	if err != nil {
		t.Fatal(err)
	}
	w, body := s.do(t, http.MethodPost, "/api/auth/token/refresh", gin.H{"refresh": pair.Refresh}, "")
	if w.Code != http.StatusOK || body["access"] == "" {
		t.Fatalf("refresh: %d %v", w.Code, body)
	}
	w, _ = s.do(t, http.MethodPost, "/api/auth/token/refresh", gin.H{"refresh": pair.Refresh}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("replay: %d", w.Code)
	}
}

func TestDevOTPRoute(t *testing.T) {
	off := newServer(t, false, false)
	w, _ := off.do(t, http.MethodGet, "/api/auth/dev/otp?phone=243900000001", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("disabled: %d", w.Code)
	}

	on := newServer(t, true, false)
	on.do(t, http.MethodPost, "/api/auth/register/request-otp", gin.H{"phone": "243900000001"}, "")
	w, body := on.do(t, http.MethodGet, "/api/auth/dev/otp?phone=%2B243900000001", nil, "")
	if w.Code != http.StatusOK || body["code"] != fixedCode {
		t.Fatalf("enabled: %d %v", w.Code, body)
	}
}

func TestDeprecatedPhoneEndpoints(t *testing.T) {
	off := newServer(t, false, false)
	w, _ := off.do(t, http.MethodPost, "/api/phone/request-otp", gin.H{"phone_whatsapp": "243900000005"}, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("disabled: %d", w.Code)
	}

	on := newServer(t, false, true)
	w, _ = on.do(t, http.MethodPost, "/api/phone/request-otp", gin.H{"phone_whatsapp": "243900000005"}, "")
	if w.Code != http.StatusOK || w.Header().Get("Deprecation") != "true" {
		t.Fatalf("request: %d", w.Code)
	}
	w, body := on.do(t, http.MethodPost, "/api/phone/verify-otp", gin.H{"phone_whatsapp": "243900000005", "code": fixedCode}, "")
	if w.Code != http.StatusOK || body["flow"] != models.FlowLegacySetup {
		t.Fatalf("verify: %d %v", w.Code, body)
	}
	if _, ok := body["access"]; ok {
		t.Fatal("bootstrap must not issue tokens")
	}
}

func TestAdminBlocklistRoutes(t *testing.T) {
	s := newServer(t, false, false)
	vendor, _ := s.tokens.Issue(1, "243900000001", "vendor")
	admin, _ := s.tokens.Issue(2, "243900000009", "superadmin")

	w, _ := s.do(t, http.MethodGet, "/api/auth/admin/blocked/243900000007", nil, vendor.Access)
	if w.Code != http.StatusForbidden {
		t.Fatalf("vendor: %d", w.Code)
	}

	w, _ = s.do(t, http.MethodPut, "/api/auth/admin/blocked/243900000007", gin.H{"reason": "spam"}, admin.Access)
	if w.Code != http.StatusNoContent {
		t.Fatalf("block: %d", w.Code)
	}
	w, body := s.do(t, http.MethodGet, "/api/auth/admin/blocked/243900000007", nil, admin.Access)
	if w.Code != http.StatusOK || body["blocked"] != true || body["reason"] != "spam" {
		t.Fatalf("status: %d %v", w.Code, body)
	}

	w, body = s.do(t, http.MethodPost, "/api/auth/register/request-otp", gin.H{"phone": "243900000007"}, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("blocked request-otp: %d %v", w.Code, body)
	}

	w, _ = s.do(t, http.MethodDelete, "/api/auth/admin/blocked/243900000007", nil, admin.Access)
	if w.Code != http.StatusNoContent {
		t.Fatalf("unblock: %d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	s := newServer(t, false, false)
	w, body := s.do(t, http.MethodGet, "/healthz", nil, "")
	if w.Code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("healthz: %d %v", w.Code, body)
	}
}
