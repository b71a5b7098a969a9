package utils

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	ti := NewTokenIssuer("s3cret", "niplan", 0, 0)
	pair, err := ti.Issue(7, "243900000001", "vendor")
	if err != nil {
		t.Fatal(err)
	}

	access, err := ti.ParseAccess(pair.Access)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	id, _ := access.AccountID()
	if id != 7 || access.Phone != "243900000001" || access.Role != "vendor" || access.Type != TokenAccess {
		t.Errorf("claims = %+v", access)
	}
	if got := access.ExpiresAt.Sub(access.IssuedAt.Time); got != DefaultAccessTTL {
		t.Errorf("access ttl = %s", got)
	}

	refresh, err := ti.ParseRefresh(pair.Refresh)
	if err != nil {
		t.Fatalf("ParseRefresh: %v", err)
	}
	if refresh.ID == access.ID {
		t.Error("access and refresh share a jti")
	}
	if got := refresh.ExpiresAt.Sub(refresh.IssuedAt.Time); got != DefaultRefreshTTL {
		t.Errorf("refresh ttl = %s", got)
	}
}

func TestTokenIssuer_TypeConfusion(t *testing.T) {
	ti := NewTokenIssuer("s3cret", "niplan", time.Hour, time.Hour)
	pair, _ := ti.Issue(1, "243900000001", "vendor")

	if _, err := ti.ParseAccess(pair.Refresh); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("refresh accepted as access: %v", err)
	}
	if _, err := ti.ParseRefresh(pair.Access); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access accepted as refresh: %v", err)
	}
}

func TestTokenIssuer_RejectsForeignAndExpired(t *testing.T) {
	ti := NewTokenIssuer("s3cret", "niplan", time.Hour, time.Hour)
	other := NewTokenIssuer("other", "niplan", time.Hour, time.Hour)
	pair, _ := other.Issue(1, "243900000001", "vendor")
	if _, err := ti.ParseAccess(pair.Access); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign signature accepted: %v", err)
	}

	ti.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
	old, _ := ti.Issue(1, "243900000001", "vendor")
	ti.now = time.Now
	if _, err := ti.ParseAccess(old.Access); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token accepted: %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Type: TokenAccess})
	s, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := ti.ParseAccess(s); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("alg none accepted: %v", err)
	}
	if _, err := ti.ParseAccess(strings.Repeat("x", 20)); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage accepted: %v", err)
	}
}

func TestRefreshRotation_Spend(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	r := NewRefreshRotation(rdb, "")
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	ok, err := r.Spend(ctx, "jti-1", exp)
	if err != nil || !ok {
		t.Fatalf("first spend: ok=%v err=%v", ok, err)
	}
	ok, err = r.Spend(ctx, "jti-1", exp)
	if err != nil || ok {
		t.Fatalf("replay: ok=%v err=%v", ok, err)
	}
	if ok, _ := r.Spend(ctx, "jti-2", time.Now().Add(-time.Hour)); ok {
		t.Error("expired token spent")
	}
}
