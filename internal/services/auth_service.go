package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"niplan/internal/authz"
	"niplan/internal/models"
	"niplan/internal/notify"
	"niplan/internal/otp"
	"niplan/internal/phone"
	"niplan/internal/repositories"
	"niplan/internal/utils"
)

// Endpoints named in flow hints.
const (
	EndpointRequestOTP        = "/api/auth/register/request-otp"
	EndpointVerifyOTP         = "/api/auth/register/verify-otp"
	EndpointLegacySetPassword = "/api/auth/legacy/set-password"
	EndpointLogin             = "/api/auth/login"
	EndpointBootstrapVerify   = "/api/phone/verify-otp"
)

const (
	DefaultOTPTTL            = 5 * time.Minute
	DefaultOTPMaxAttempts    = 5
	DefaultOTPWindow         = time.Hour
	DefaultMinPasswordLength = 8
	// MaxPasswordBytes is the bcrypt input limit.
	MaxPasswordBytes = 72
	DefaultLoginMaxAttempts  = 10
	DefaultLoginWindow       = 15 * time.Minute
	DefaultWelcomeTimeout    = 10 * time.Second
)

type Notifier interface {
	SendOTP(ctx context.Context, phoneKey, code string) notify.Result
	SendWelcome(ctx context.Context, phoneKey string) error
}

// DeliveryRecorder stamps the channel outcome on the durable OTP ledger.
type DeliveryRecorder interface {
	RecordDelivery(ctx context.Context, phoneKey, codeHash, channel string, delivered bool) error
}

type AuthConfig struct {
	OTPTTL               time.Duration
	OTPMaxAttempts       int
	OTPWindow            time.Duration
	MinPasswordLength    int
	LoginMaxAttempts     int
	LoginWindow          time.Duration
	AllowEmptyCodeBypass bool
	WelcomeTimeout       time.Duration
}

func (c *AuthConfig) applyDefaults() {
	if c.OTPTTL <= 0 {
		c.OTPTTL = DefaultOTPTTL
	}
	if c.OTPMaxAttempts == 0 {
		c.OTPMaxAttempts = DefaultOTPMaxAttempts
	}
	if c.OTPWindow <= 0 {
		c.OTPWindow = DefaultOTPWindow
	}
	if c.MinPasswordLength <= 0 {
		c.MinPasswordLength = DefaultMinPasswordLength
	}
	if c.LoginMaxAttempts == 0 {
		c.LoginMaxAttempts = DefaultLoginMaxAttempts
	}
	if c.LoginWindow <= 0 {
		c.LoginWindow = DefaultLoginWindow
	}
	if c.WelcomeTimeout <= 0 {
		c.WelcomeTimeout = DefaultWelcomeTimeout
	}
}

// AuthDeps are the collaborators of AuthService. Deliveries and Rotation may be nil.
type AuthDeps struct {
	Accounts   repositories.AccountRepository
	Businesses repositories.BusinessRepository
	OTPs       *otp.Store
	Limiter    *otp.Limiter
	Blocklist  *otp.Blocklist
	Notifier   Notifier
	Deliveries DeliveryRecorder
	Tokens     *utils.TokenIssuer
	Rotation   *utils.RefreshRotation
	Hasher     *PasswordHasher
}

// AuthService moves a phone number through registration, legacy password setup and login.
// Account state is derived on every call:
//
//	no account               -> new_registration
//	credential NO_PASSWORD   -> legacy_setup
//	credential PASSWORD_SET  -> standard_login
type AuthService struct {
	AuthDeps
	cfg   AuthConfig
	log   *zap.Logger
	async func(func())
}

func NewAuthService(deps AuthDeps, cfg AuthConfig, log *zap.Logger) *AuthService {
	cfg.applyDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	if deps.Businesses == nil {
		deps.Businesses = repositories.NoBusinessRepository{}
	}
	if deps.Hasher == nil {
		deps.Hasher = NewPasswordHasher(0)
	}
	return &AuthService{
		AuthDeps: deps,
		cfg:      cfg,
		log:      log,
		async:    func(f func()) { go f() },
	}
}

type accountState int

const (
	stateUnregistered accountState = iota
	stateLegacyPending
	stateRegistered
)

func stateOf(acc *models.Account) accountState {
	switch {
	case acc == nil:
		return stateUnregistered
	case acc.CredentialState == models.CredentialNoPassword:
		return stateLegacyPending
	default:
		return stateRegistered
	}
}

func flowFor(st accountState) *models.FlowResponse {
	switch st {
	case stateLegacyPending:
		return &models.FlowResponse{Flow: models.FlowLegacySetup, NextEndpoint: EndpointLegacySetPassword}
	case stateRegistered:
		return &models.FlowResponse{Flow: models.FlowStandardLogin, NextEndpoint: EndpointLogin}
	default:
		return &models.FlowResponse{Flow: models.FlowNewRegistration, RequiresOTP: true, NextEndpoint: EndpointRequestOTP}
	}
}

func normalize(raw string) (string, error) {
	key, err := phone.Normalize(raw)
	if err != nil {
		return "", newError(KindValidation, CodeInvalidPhone, "a valid phone number is required").wrap(err)
	}
	return key, nil
}

// lookup returns nil without error for an unknown phone.
func (s *AuthService) lookup(ctx context.Context, phoneKey string) (*models.Account, error) {
	acc, err := s.Accounts.FindByPhone(ctx, phoneKey)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, nil
		}
		return nil, internalError(err)
	}
	return acc, nil
}

func (s *AuthService) checkPassword(password string) error {
	if len([]rune(password)) < s.cfg.MinPasswordLength {
		return newError(KindValidation, CodeInvalidPassword, "password is too short")
	}
	if len(password) > MaxPasswordBytes {
		return newError(KindValidation, CodeInvalidPassword, "password is too long")
	}
	return nil
}

func errAlreadyRegistered() *AuthError {
	return newError(KindConflict, CodeAlreadyRegistered, "this phone is already registered, log in instead").
		redirect(models.FlowStandardLogin, EndpointLogin)
}

func errLegacyPending() *AuthError {
	return newError(KindConflict, CodeNotLegacy, "this account needs a password, set it first").
		redirect(models.FlowLegacySetup, EndpointLegacySetPassword)
}

// conflictFor tells the caller where an account in st should go instead.
func conflictFor(st accountState) *AuthError {
	if st == stateLegacyPending {
		return errLegacyPending()
	}
	return errAlreadyRegistered()
}

func (s *AuthService) DetectFlow(ctx context.Context, rawPhone string) (*models.FlowResponse, error) {
	key, err := normalize(rawPhone)
	if err != nil {
		return nil, err
	}
	acc, err := s.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	resp := flowFor(stateOf(acc))
	resp.Phone = key
	return resp, nil
}

func (s *AuthService) checkBlocked(ctx context.Context, phoneKey string) error {
	if s.Blocklist == nil {
		return nil
	}
	blocked, err := s.Blocklist.IsBlocked(ctx, phoneKey)
	if err != nil {
		return internalError(err)
	}
	if blocked {
		s.log.Warn("[auth][otp] blocked phone", zap.String("phone", phone.Mask(phoneKey)))
		return newError(KindForbidden, CodeBlocked, "this phone number is blocked, contact support")
	}
	return nil
}

// issueAndSend rate limits, issues a code and dispatches it. Delivery failure does not
// undo the issued code.
func (s *AuthService) issueAndSend(ctx context.Context, phoneKey string) (*otp.Challenge, notify.Result, error) {
	if err := s.Limiter.CheckAndIncrement(ctx, otp.ScopeOTPRequest, phoneKey, s.cfg.OTPMaxAttempts, s.cfg.OTPWindow); err != nil {
		if errors.Is(err, otp.ErrRateLimited) {
			s.log.Info("[auth][otp] rate limited", zap.String("phone", phone.Mask(phoneKey)))
			return nil, notify.Result{}, newError(KindRateLimited, CodeRateLimited, "too many code requests, try again later").wrap(err)
		}
		return nil, notify.Result{}, internalError(err)
	}

	ch, err := s.OTPs.Issue(ctx, phoneKey, s.cfg.OTPTTL)
	if err != nil {
		return nil, notify.Result{}, internalError(err)
	}

	res := notify.Result{Delivery: notify.DeliveryFailed}
	if s.Notifier != nil {
		res = s.Notifier.SendOTP(ctx, phoneKey, ch.Code)
	}
	if s.Deliveries != nil {
		if err := s.Deliveries.RecordDelivery(ctx, phoneKey, ch.CodeHash, res.Channel, res.Delivered()); err != nil {
			s.log.Warn("[auth][otp] record delivery failed", zap.Error(err))
		}
	}
	s.log.Info("[auth][otp] issued",
		zap.String("phone", phone.Mask(phoneKey)),
		zap.String("channel", res.Channel),
		zap.String("delivery", res.Delivery),
	)
	return ch, res, nil
}

func otpResponse(phoneKey, next string, res notify.Result) *models.OTPRequestResponse {
	out := &models.OTPRequestResponse{
		Status:       "success",
		NextEndpoint: next,
		Phone:        phoneKey,
		Channel:      res.Channel,
		Delivery:     res.Delivery,
	}
	switch res.Delivery {
	case notify.DeliverySent:
		out.Message = "Code envoyé"
	case notify.DeliveryManual:
		out.Message = "Code généré, il vous sera transmis par notre équipe"
	default:
		out.Status = "pending"
		out.Message = "Code généré mais non délivré, réessayez dans un instant ou contactez le support"
	}
	return out
}

func (s *AuthService) RequestRegistrationOTP(ctx context.Context, rawPhone string) (*models.OTPRequestResponse, error) {
	key, err := normalize(rawPhone)
	if err != nil {
		return nil, err
	}
	acc, err := s.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if st := stateOf(acc); st != stateUnregistered {
		return nil, conflictFor(st)
	}
	if err := s.checkBlocked(ctx, key); err != nil {
		return nil, err
	}
	_, res, err := s.issueAndSend(ctx, key)
	if err != nil {
		return nil, err
	}
	return otpResponse(key, EndpointVerifyOTP, res), nil
}

func mapOTPError(err error) error {
	switch {
	case errors.Is(err, otp.ErrInvalidCode), errors.Is(err, otp.ErrNoChallenge):
		return newError(KindValidation, CodeInvalidCode, "invalid code").wrap(err)
	case errors.Is(err, otp.ErrExpired):
		return newError(KindValidation, CodeCodeExpired, "code expired, request a new one").
			redirect(models.FlowNewRegistration, EndpointRequestOTP).wrap(err)
	case errors.Is(err, otp.ErrTooManyAttempts):
		return newError(KindValidation, CodeTooManyAttempts, "too many wrong codes, request a new one").
			redirect(models.FlowNewRegistration, EndpointRequestOTP).wrap(err)
	}
	return internalError(err)
}

// VerifyRegistration checks the code and sets the first password. An empty code is a
// bypass honoured only when AllowEmptyCodeBypass is on; the phone then stays unverified.
func (s *AuthService) VerifyRegistration(ctx context.Context, req models.RegisterVerifyRequest) (*models.AuthResponse, error) {
	key, err := normalize(req.Phone)
	if err != nil {
		return nil, err
	}
	if err := s.checkPassword(req.Password); err != nil {
		return nil, err
	}
	acc, err := s.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if stateOf(acc) == stateRegistered {
		return nil, errAlreadyRegistered()
	}

	code := strings.TrimSpace(req.Code)
	bypass := false
	if code == "" {
		// The bypass only provisions new accounts; a pending account may carry a
		// verified flag from an earlier code check.
		if !s.cfg.AllowEmptyCodeBypass || acc != nil {
			return nil, newError(KindValidation, CodeCodeRequired, "verification code is required")
		}
		bypass = true
		s.log.Warn("[auth][verify] empty code bypass used", zap.String("phone", phone.Mask(key)))
	} else if err := s.OTPs.Verify(ctx, key, code); err != nil {
		s.log.Info("[auth][verify] otp rejected", zap.String("phone", phone.Mask(key)), zap.Error(err))
		return nil, mapOTPError(err)
	}

	hash, err := s.Hasher.Hash(req.Password)
	if err != nil {
		return nil, internalError(err)
	}

	if acc != nil {
		if err := s.Accounts.SetPassword(ctx, acc, hash); err != nil {
			if errors.Is(err, repositories.ErrAlreadySet) {
				return nil, newError(KindConflict, CodeAlreadySet, "password already set, log in instead").
					redirect(models.FlowStandardLogin, EndpointLogin).wrap(err)
			}
			return nil, internalError(err)
		}
	} else {
		acc, err = s.Accounts.CreateWithPassword(ctx, key, hash)
		if err != nil {
			if errors.Is(err, repositories.ErrAccountExists) {
				return nil, errAlreadyRegistered().wrap(err)
			}
			return nil, internalError(err)
		}
	}

	if !bypass {
		if err := s.Accounts.MarkPhoneVerified(ctx, acc); err != nil {
			return nil, internalError(err)
		}
	}

	s.log.Info("[auth][verify] account activated", zap.Int64("account_id", acc.ID), zap.Bool("phone_verified", acc.PhoneVerified))
	s.sendWelcome(acc.PhoneKey)
	return s.authResponse(ctx, acc)
}

// LegacySetPassword gives an OTP-era account its first password. State is checked
// before the password so a PASSWORD_SET account always answers Conflict.
func (s *AuthService) LegacySetPassword(ctx context.Context, req models.LegacySetPasswordRequest) (*models.AuthResponse, error) {
	key, err := normalize(req.Phone)
	if err != nil {
		return nil, err
	}
	acc, err := s.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	switch stateOf(acc) {
	case stateUnregistered:
		return nil, newError(KindNotFound, CodeAccountNotFound, "no account for this phone, register first").
			redirect(models.FlowNewRegistration, EndpointRequestOTP)
	case stateRegistered:
		return nil, newError(KindConflict, CodeNotLegacy, "password already set, log in instead").
			redirect(models.FlowStandardLogin, EndpointLogin)
	}

	if req.Password != req.PasswordConfirm {
		return nil, newError(KindValidation, CodePasswordMismatch, "passwords do not match")
	}
	if err := s.checkPassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := s.Hasher.Hash(req.Password)
	if err != nil {
		return nil, internalError(err)
	}
	if err := s.Accounts.SetPassword(ctx, acc, hash); err != nil {
		if errors.Is(err, repositories.ErrAlreadySet) {
			return nil, newError(KindConflict, CodeNotLegacy, "password already set, log in instead").
				redirect(models.FlowStandardLogin, EndpointLogin).wrap(err)
		}
		return nil, internalError(err)
	}

	s.log.Info("[auth][legacy] password set", zap.Int64("account_id", acc.ID))
	s.sendWelcome(acc.PhoneKey)
	return s.authResponse(ctx, acc)
}

func errInvalidCredentials() *AuthError {
	return newError(KindUnauthorized, CodeInvalidCredentials, "invalid phone or password")
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	key, err := normalize(req.Phone)
	if err != nil {
		return nil, err
	}
	if err := s.Limiter.CheckAndIncrement(ctx, otp.ScopeLogin, key, s.cfg.LoginMaxAttempts, s.cfg.LoginWindow); err != nil {
		if errors.Is(err, otp.ErrRateLimited) {
			s.log.Warn("[auth][login] throttled", zap.String("phone", phone.Mask(key)))
			return nil, newError(KindRateLimited, CodeRateLimited, "too many login attempts, try again later").wrap(err)
		}
		return nil, internalError(err)
	}

	acc, err := s.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	switch stateOf(acc) {
	case stateUnregistered:
		s.Hasher.CompareDummy(req.Password)
		s.log.Info("[auth][login] rejected", zap.String("phone", phone.Mask(key)))
		return nil, errInvalidCredentials()
	case stateLegacyPending:
		return nil, newError(KindForbidden, CodeCredentialSetupRequired, "set a password for this account first").
			redirect(models.FlowLegacySetup, EndpointLegacySetPassword)
	}

	if err := s.Hasher.Compare(acc.PasswordHash, req.Password); err != nil {
		s.log.Info("[auth][login] rejected", zap.String("phone", phone.Mask(key)))
		return nil, errInvalidCredentials()
	}
	if !acc.Active {
		return nil, newError(KindForbidden, CodeDisabled, "this account is disabled")
	}

	if err := s.Limiter.Reset(ctx, otp.ScopeLogin, key); err != nil {
		s.log.Warn("[auth][login] reset throttle failed", zap.Error(err))
	}
	s.log.Info("[auth][login] ok", zap.Int64("account_id", acc.ID))
	return s.authResponse(ctx, acc)
}

func errInvalidToken() *AuthError {
	return newError(KindUnauthorized, CodeInvalidToken, "invalid or expired token")
}

// Refresh rotates the pair. A refresh token is accepted once when rotation tracking is on.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	claims, err := s.Tokens.ParseRefresh(strings.TrimSpace(refreshToken))
	if err != nil {
		return nil, errInvalidToken().wrap(err)
	}
	id, err := claims.AccountID()
	if err != nil {
		return nil, errInvalidToken().wrap(err)
	}

	acc, err := s.Accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, errInvalidToken().wrap(err)
		}
		return nil, internalError(err)
	}
	if !acc.Active || !acc.HasPassword() {
		return nil, errInvalidToken()
	}

	if s.Rotation != nil {
		fresh, err := s.Rotation.Spend(ctx, claims.ID, claims.ExpiresAt.Time)
		if err != nil {
			return nil, internalError(err)
		}
		if !fresh {
			s.log.Warn("[auth][refresh] replayed refresh token", zap.Int64("account_id", acc.ID))
			return nil, errInvalidToken()
		}
	}

	pair, err := s.Tokens.Issue(acc.ID, acc.PhoneKey, authz.RoleFor(acc.IsAdmin))
	if err != nil {
		return nil, internalError(err)
	}
	return &pair, nil
}

func (s *AuthService) Me(ctx context.Context, accountID int64) (*models.MeResponse, error) {
	acc, err := s.Accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return nil, errInvalidToken().wrap(err)
		}
		return nil, internalError(err)
	}
	return &models.MeResponse{
		ID:              acc.ID,
		Phone:           acc.PhoneKey,
		Role:            authz.RoleFor(acc.IsAdmin),
		IsPhoneVerified: acc.PhoneVerified,
		BusinessSlug:    s.businessSlug(ctx, acc.ID),
	}, nil
}

func (s *AuthService) businessSlug(ctx context.Context, accountID int64) *string {
	slug, err := s.Businesses.SlugByOwner(ctx, accountID)
	if err != nil {
		s.log.Warn("[auth] business slug lookup failed", zap.Int64("account_id", accountID), zap.Error(err))
		return nil
	}
	return slug
}

func (s *AuthService) authResponse(ctx context.Context, acc *models.Account) (*models.AuthResponse, error) {
	role := authz.RoleFor(acc.IsAdmin)
	pair, err := s.Tokens.Issue(acc.ID, acc.PhoneKey, role)
	if err != nil {
		return nil, internalError(err)
	}
	if authz.IsElevated(role) {
		s.log.Info("[auth][session] elevated session issued", zap.Int64("account_id", acc.ID), zap.String("role", role))
	}
	return &models.AuthResponse{
		Access:          pair.Access,
		Refresh:         pair.Refresh,
		BusinessSlug:    s.businessSlug(ctx, acc.ID),
		IsPhoneVerified: acc.PhoneVerified,
		Role:            role,
	}, nil
}

// sendWelcome is fire-and-forget with its own deadline, detached from the request.
func (s *AuthService) sendWelcome(phoneKey string) {
	if s.Notifier == nil {
		return
	}
	s.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WelcomeTimeout)
		defer cancel()
		if err := s.Notifier.SendWelcome(ctx, phoneKey); err != nil {
			s.log.Warn("[auth][welcome] not delivered", zap.String("phone", phone.Mask(phoneKey)), zap.Error(err))
		}
	})
}

// RequestBootstrapOTP serves the deprecated /api/phone/request-otp endpoint: a code is
// issued whatever the account state.
func (s *AuthService) RequestBootstrapOTP(ctx context.Context, rawPhone string) (*models.OTPRequestResponse, error) {
	key, err := normalize(rawPhone)
	if err != nil {
		return nil, err
	}
	if err := s.checkBlocked(ctx, key); err != nil {
		return nil, err
	}
	_, res, err := s.issueAndSend(ctx, key)
	if err != nil {
		return nil, err
	}
	return otpResponse(key, EndpointBootstrapVerify, res), nil
}

// VerifyBootstrapOTP serves the deprecated /api/phone/verify-otp endpoint. It provisions a
// NO_PASSWORD account for an unknown phone and answers with the flow to follow; it never
// issues tokens.
func (s *AuthService) VerifyBootstrapOTP(ctx context.Context, rawPhone, code string) (*models.FlowResponse, error) {
	key, err := normalize(rawPhone)
	if err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, newError(KindValidation, CodeCodeRequired, "verification code is required")
	}
	if err := s.OTPs.Verify(ctx, key, code); err != nil {
		return nil, mapOTPError(err)
	}

	acc, err := s.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		acc, err = s.Accounts.CreatePendingPassword(ctx, key)
		if errors.Is(err, repositories.ErrAccountExists) {
			acc, err = s.Accounts.FindByPhone(ctx, key)
		}
		if err != nil {
			return nil, internalError(err)
		}
		s.log.Info("[auth][bootstrap] pending account created", zap.Int64("account_id", acc.ID))
	}
	if err := s.Accounts.MarkPhoneVerified(ctx, acc); err != nil {
		return nil, internalError(err)
	}

	resp := flowFor(stateOf(acc))
	resp.Phone = key
	return resp, nil
}

// PeekDebugOTP returns the live code when debug exposure is enabled; NotFound otherwise.
func (s *AuthService) PeekDebugOTP(ctx context.Context, rawPhone string) (string, string, error) {
	key, err := normalize(rawPhone)
	if err != nil {
		return "", "", err
	}
	code, err := s.OTPs.PeekDebug(ctx, key)
	if err != nil {
		if errors.Is(err, otp.ErrDebugDisabled) || errors.Is(err, otp.ErrNoChallenge) {
			return "", "", newError(KindNotFound, CodeNotFound, "not found").wrap(err)
		}
		return "", "", internalError(err)
	}
	return key, code, nil
}

// BlockStatus is the operator view of a phone: blocklist entry and current throttle windows.
type BlockStatus struct {
	Phone         string `json:"phone"`
	Blocked       bool   `json:"blocked"`
	Reason        string `json:"reason,omitempty"`
	OTPRequests   int    `json:"otp_requests"`
	LoginAttempts int    `json:"login_attempts"`
}

func (s *AuthService) BlockStatus(ctx context.Context, rawPhone string) (*BlockStatus, error) {
	key, err := normalize(rawPhone)
	if err != nil {
		return nil, err
	}
	reason, blocked, err := s.Blocklist.Reason(ctx, key)
	if err != nil {
		return nil, internalError(err)
	}
	st := &BlockStatus{Phone: key, Blocked: blocked, Reason: reason}
	if st.OTPRequests, err = s.Limiter.Attempts(ctx, otp.ScopeOTPRequest, key); err != nil {
		return nil, internalError(err)
	}
	if st.LoginAttempts, err = s.Limiter.Attempts(ctx, otp.ScopeLogin, key); err != nil {
		return nil, internalError(err)
	}
	return st, nil
}

func (s *AuthService) BlockPhone(ctx context.Context, rawPhone, reason string) error {
	key, err := normalize(rawPhone)
	if err != nil {
		return err
	}
	if err := s.Blocklist.Block(ctx, key, reason); err != nil {
		return internalError(err)
	}
	s.log.Info("[auth][admin] phone blocked", zap.String("phone", phone.Mask(key)))
	return nil
}

func (s *AuthService) UnblockPhone(ctx context.Context, rawPhone string) error {
	key, err := normalize(rawPhone)
	if err != nil {
		return err
	}
	if err := s.Blocklist.Unblock(ctx, key); err != nil {
		return internalError(err)
	}
	s.log.Info("[auth][admin] phone unblocked", zap.String("phone", phone.Mask(key)))
	return nil
}
