package models

// Flow names returned by detect-flow and used as redirect hints on errors.
const (
	FlowNewRegistration = "new_registration"
	FlowLegacySetup     = "legacy_setup"
	FlowStandardLogin   = "standard_login"
)

type PhoneRequest struct {
	Phone string `json:"phone"`
}

type RegisterVerifyRequest struct {
	Phone    string `json:"phone"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

type LegacySetPasswordRequest struct {
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// DeprecatedOTPRequest is the body of the old /api/phone/* endpoints.
type DeprecatedOTPRequest struct {
	PhoneWhatsapp string `json:"phone_whatsapp"`
	Code          string `json:"code"`
}

type FlowResponse struct {
	Flow         string `json:"flow"`
	RequiresOTP  bool   `json:"requires_otp"`
	NextEndpoint string `json:"next_endpoint"`
	Phone        string `json:"phone"`
}

type OTPRequestResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	NextEndpoint string `json:"next_endpoint"`
	Phone        string `json:"phone"`
	Channel      string `json:"channel,omitempty"`
	Delivery     string `json:"delivery"`
}

// AuthResponse is returned by every operation that ends in an authenticated session.
type AuthResponse struct {
	Access          string  `json:"access"`
	Refresh         string  `json:"refresh"`
	BusinessSlug    *string `json:"business_slug"`
	IsPhoneVerified bool    `json:"is_phone_verified"`
	Role            string  `json:"role"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type MeResponse struct {
	ID              int64   `json:"id"`
	Phone           string  `json:"phone"`
	Role            string  `json:"role"`
	IsPhoneVerified bool    `json:"is_phone_verified"`
	BusinessSlug    *string `json:"business_slug"`
}
