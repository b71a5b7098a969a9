package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"niplan/internal/authz"
	"niplan/internal/utils"
)

func newRouter(tokens *utils.TokenIssuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"https://app.niplan.test"}))
	g := r.Group("/", AuthMiddleware(tokens))
	g.GET("/whoami", func(c *gin.Context) {
		id, _ := AccountID(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "role": c.GetString(CtxRole), "phone": c.GetString(CtxPhone)})
	})
	g.GET("/admin", RequireRoles(authz.RoleSuperadmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func get(r *gin.Engine, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := utils.NewTokenIssuer("mw-secret", "niplan", time.Hour, time.Hour)
	r := newRouter(tokens)
	pair, err := tokens.Issue(42, "243900000001", authz.RoleVendor)
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
		{"refresh used as access", "Bearer " + pair.Refresh, http.StatusUnauthorized},
		{"valid", "Bearer " + pair.Access, http.StatusOK},
		{"lowercase scheme", "bearer " + pair.Access, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := get(r, "/whoami", tc.header); w.Code != tc.want {
				t.Fatalf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}

	other := utils.NewTokenIssuer("other-secret", "niplan", time.Hour, time.Hour)
	foreign, _ := other.Issue(42, "243900000001", authz.RoleVendor)
	if w := get(r, "/whoami", "Bearer "+foreign.Access); w.Code != http.StatusUnauthorized {
		t.Fatalf("foreign signature accepted: %d", w.Code)
	}
}

func TestRequireRoles(t *testing.T) {
	tokens := utils.NewTokenIssuer("mw-secret", "niplan", time.Hour, time.Hour)
	r := newRouter(tokens)
	vendor, _ := tokens.Issue(1, "243900000001", authz.RoleVendor)
	admin, _ := tokens.Issue(2, "243900000002", authz.RoleSuperadmin)

	if w := get(r, "/admin", "Bearer "+vendor.Access); w.Code != http.StatusForbidden {
		t.Fatalf("vendor: %d", w.Code)
	}
	if w := get(r, "/admin", "Bearer "+admin.Access); w.Code != http.StatusOK {
		t.Fatalf("admin: %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	r := newRouter(utils.NewTokenIssuer("mw-secret", "", 0, 0))
	req := httptest.NewRequest(http.MethodOptions, "/whoami", nil)
	req.Header.Set("Origin", "https://app.niplan.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.niplan.test" {
		t.Fatalf("allow origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/whoami", nil)
	req.Header.Set("Origin", "https://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("foreign origin allowed: %q", got)
	}
}
