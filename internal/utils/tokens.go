package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"niplan/internal/models"
)

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"

	DefaultAccessTTL  = 30 * 24 * time.Hour
	DefaultRefreshTTL = 60 * 24 * time.Hour

	leeway = 2 * time.Minute
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the JWT body for both token types; Type tells them apart.
type Claims struct {
	Phone string `json:"phone"`
	Role  string `json:"role"`
	Type  string `json:"typ"`
	jwt.RegisteredClaims
}

// AccountID returns the numeric subject.
func (c *Claims) AccountID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// TokenIssuer signs and verifies HS256 access/refresh pairs.
type TokenIssuer struct {
	key        []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &TokenIssuer{
		key:        []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (t *TokenIssuer) sign(accountID int64, phoneKey, role, typ string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := Claims{
		Phone: phoneKey,
		Role:  role,
		Type:  typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(accountID, 10),
			Issuer:    t.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
}

// Issue mints a fresh pair. Role is taken as given; callers compute it from the account.
func (t *TokenIssuer) Issue(accountID int64, phoneKey, role string) (models.TokenPair, error) {
	access, err := t.sign(accountID, phoneKey, role, TokenAccess, t.accessTTL)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := t.sign(accountID, phoneKey, role, TokenRefresh, t.refreshTTL)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

func (t *TokenIssuer) parse(tokenStr, typ string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		// only HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return t.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(leeway),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != typ || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	if _, err := claims.AccountID(); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (t *TokenIssuer) ParseAccess(tokenStr string) (*Claims, error) {
	return t.parse(tokenStr, TokenAccess)
}

func (t *TokenIssuer) ParseRefresh(tokenStr string) (*Claims, error) {
	return t.parse(tokenStr, TokenRefresh)
}
