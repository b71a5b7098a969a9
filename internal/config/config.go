package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"niplan/internal/notify"
	"niplan/internal/otp"
)

const DefaultPath = "config/config.yaml"

type AppConfig struct {
	Env  string `yaml:"env"`
	Name string `yaml:"name"`
}

type ServerConfig struct {
	Port         int      `yaml:"port"`
	AllowOrigins []string `yaml:"allow_origins"`
}

type DatabaseConfig struct {
	DSN         string `yaml:"url"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret            string `yaml:"secret"`
	Issuer            string `yaml:"issuer"`
	AccessTTLMinutes  int    `yaml:"access_ttl_minutes"`
	RefreshTTLMinutes int    `yaml:"refresh_ttl_minutes"`
}

type OTPConfig struct {
	TTLSeconds          int    `yaml:"otp_ttl_seconds"`
	MaxAttempts         int    `yaml:"otp_max_attempts"`
	WindowSeconds       int    `yaml:"otp_window_seconds"`
	MaxVerifyAttempts   int    `yaml:"otp_max_verify_attempts"`
	CodeLength          int    `yaml:"code_length"`
	FixedCodeForTesting string `yaml:"fixed_code_for_testing"`
	RelayTTLSeconds     int    `yaml:"relay_ttl_seconds"`
	RetentionSeconds    int    `yaml:"retention_seconds"`
}

type AuthConfig struct {
	MinPasswordLength    int  `yaml:"min_password_length"`
	LoginMaxAttempts     int  `yaml:"login_max_attempts"`
	LoginWindowSeconds   int  `yaml:"login_window_seconds"`
	AllowEmptyCodeBypass bool `yaml:"allow_empty_code_bypass"`
	LegacyOTPEndpoints   bool `yaml:"legacy_otp_endpoints"`
	BcryptCost           int  `yaml:"bcrypt_cost"`
}

type DevConfig struct {
	ExposeOTP bool `yaml:"expose_otp"`
}

type NotifyConfig struct {
	ChannelTimeoutSeconds int                   `yaml:"channel_timeout"`
	SMSProvider           string                `yaml:"sms_provider"`
	Twilio                notify.TwilioConfig   `yaml:"twilio"`
	Mobizon               notify.MobizonConfig  `yaml:"mobizon"`
	Telegram              notify.TelegramConfig `yaml:"telegram"`
	Email                 notify.EmailConfig    `yaml:"email"`
}

type Config struct {
	App      AppConfig      `yaml:"app"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	OTP      OTPConfig      `yaml:"otp"`
	Auth     AuthConfig     `yaml:"auth"`
	Dev      DevConfig      `yaml:"dev"`
	Notify   NotifyConfig   `yaml:"notify"`
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production") || strings.EqualFold(c.App.Env, "prod")
}

// LoadConfig reads .env (if any), the YAML file, then NIPLAN_* environment overrides.
// A missing YAML file is not an error; the environment may carry everything.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = getEnv("NIPLAN_CONFIG", DefaultPath)
	}

	var cfg Config
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad panics on any configuration error.
func MustLoad(path string) *Config {
	cfg, err := LoadConfig(path)
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"NIPLAN_APP_ENV":                 &c.App.Env,
		"NIPLAN_DATABASE_URL":            &c.Database.DSN,
		"NIPLAN_REDIS_ADDR":              &c.Redis.Addr,
		"NIPLAN_REDIS_PASSWORD":          &c.Redis.Password,
		"NIPLAN_JWT_SECRET":              &c.JWT.Secret,
		"NIPLAN_OTP_FIXED_CODE":          &c.OTP.FixedCodeForTesting,
		"NIPLAN_SMS_PROVIDER":            &c.Notify.SMSProvider,
		"NIPLAN_TWILIO_ACCOUNT_SID":      &c.Notify.Twilio.AccountSID,
		"NIPLAN_TWILIO_AUTH_TOKEN":       &c.Notify.Twilio.AuthToken,
		"NIPLAN_TWILIO_WHATSAPP_FROM":    &c.Notify.Twilio.WhatsAppFrom,
		"NIPLAN_TWILIO_SMS_FROM":         &c.Notify.Twilio.SMSFrom,
		"NIPLAN_TWILIO_OTP_TEMPLATE_SID": &c.Notify.Twilio.OTPTemplateSID,
		"NIPLAN_MOBIZON_API_KEY":         &c.Notify.Mobizon.APIKey,
		"NIPLAN_TELEGRAM_BOT_TOKEN":      &c.Notify.Telegram.BotToken,
		"NIPLAN_TELEGRAM_WEBHOOK_SECRET": &c.Notify.Telegram.WebhookSecret,
		"NIPLAN_SMTP_PASSWORD":           &c.Notify.Email.SMTPPassword,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"NIPLAN_SERVER_PORT":            &c.Server.Port,
		"NIPLAN_OTP_TTL_SECONDS":        &c.OTP.TTLSeconds,
		"NIPLAN_OTP_MAX_ATTEMPTS":       &c.OTP.MaxAttempts,
		"NIPLAN_OTP_WINDOW_SECONDS":     &c.OTP.WindowSeconds,
		"NIPLAN_MIN_PASSWORD_LENGTH":    &c.Auth.MinPasswordLength,
		"NIPLAN_NOTIFY_CHANNEL_TIMEOUT": &c.Notify.ChannelTimeoutSeconds,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}

	if v, ok := os.LookupEnv("NIPLAN_TELEGRAM_ADMIN_CHAT_ID"); ok {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("NIPLAN_TELEGRAM_ADMIN_CHAT_ID: %w", err)
		}
		c.Notify.Telegram.AdminChatID = id
	}

	bools := map[string]*bool{
		"NIPLAN_DEV_EXPOSE_OTP":               &c.Dev.ExposeOTP,
		"NIPLAN_AUTH_ALLOW_EMPTY_CODE_BYPASS": &c.Auth.AllowEmptyCodeBypass,
		"NIPLAN_AUTH_LEGACY_OTP_ENDPOINTS":    &c.Auth.LegacyOTPEndpoints,
		"NIPLAN_DATABASE_AUTO_MIGRATE":        &c.Database.AutoMigrate,
	}
	for key, dst := range bools {
		v, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "development"
	}
	if c.App.Name == "" {
		c.App.Name = "niplan"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = c.App.Name
	}
	if c.JWT.AccessTTLMinutes == 0 {
		c.JWT.AccessTTLMinutes = 30 * 24 * 60
	}
	if c.JWT.RefreshTTLMinutes == 0 {
		c.JWT.RefreshTTLMinutes = 60 * 24 * 60
	}
	if c.OTP.TTLSeconds == 0 {
		c.OTP.TTLSeconds = 300
	}
	if c.OTP.MaxAttempts == 0 {
		c.OTP.MaxAttempts = 5
	}
	if c.OTP.WindowSeconds == 0 {
		c.OTP.WindowSeconds = 3600
	}
	if c.OTP.MaxVerifyAttempts == 0 {
		c.OTP.MaxVerifyAttempts = 5
	}
	if c.OTP.CodeLength == 0 {
		c.OTP.CodeLength = otp.DefaultCodeLength
	}
	if c.OTP.RelayTTLSeconds == 0 {
		c.OTP.RelayTTLSeconds = 1800
	}
	if c.OTP.RetentionSeconds == 0 {
		c.OTP.RetentionSeconds = 3600
	}
	if c.Auth.MinPasswordLength == 0 {
		c.Auth.MinPasswordLength = 8
	}
	if c.Auth.LoginMaxAttempts == 0 {
		c.Auth.LoginMaxAttempts = 10
	}
	if c.Auth.LoginWindowSeconds == 0 {
		c.Auth.LoginWindowSeconds = 900
	}
	if c.Notify.ChannelTimeoutSeconds == 0 {
		c.Notify.ChannelTimeoutSeconds = 5
	}
	if c.Notify.SMSProvider == "" {
		c.Notify.SMSProvider = "twilio"
	}
}

// Validate rejects unusable settings and, in production, every development affordance.
func (c *Config) Validate() error {
	var errs []error
	if c.OTP.CodeLength < otp.MinCodeLength || c.OTP.CodeLength > otp.MaxCodeLength {
		errs = append(errs, fmt.Errorf("otp.code_length must be between %d and %d", otp.MinCodeLength, otp.MaxCodeLength))
	}
	if c.OTP.TTLSeconds < 0 || c.OTP.WindowSeconds < 0 || c.OTP.MaxAttempts < 0 || c.OTP.MaxVerifyAttempts < 0 {
		errs = append(errs, errors.New("otp settings must not be negative"))
	}
	if fc := c.OTP.FixedCodeForTesting; fc != "" && (len(fc) != c.OTP.CodeLength || !otp.IsNumeric(fc)) {
		errs = append(errs, fmt.Errorf("otp.fixed_code_for_testing must be %d digits", c.OTP.CodeLength))
	}
	if c.Auth.MinPasswordLength < 6 {
		errs = append(errs, errors.New("auth.min_password_length must be at least 6"))
	}
	switch c.Notify.SMSProvider {
	case "twilio", "mobizon", "none":
	default:
		errs = append(errs, fmt.Errorf("notify.sms_provider %q is not supported", c.Notify.SMSProvider))
	}

	if c.IsProduction() {
		if c.JWT.Secret == "" {
			errs = append(errs, errors.New("jwt.secret is required in production"))
		}
		if c.Dev.ExposeOTP {
			errs = append(errs, errors.New("dev.expose_otp must not be enabled in production"))
		}
		if c.Auth.AllowEmptyCodeBypass {
			errs = append(errs, errors.New("auth.allow_empty_code_bypass must not be enabled in production"))
		}
		if c.OTP.FixedCodeForTesting != "" {
			errs = append(errs, errors.New("otp.fixed_code_for_testing must not be set in production"))
		}
		if c.Notify.Telegram.Enabled() && c.Notify.Telegram.WebhookSecret == "" {
			errs = append(errs, errors.New("notify.telegram.webhook_secret is required in production when the telegram relay is enabled"))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) OTPTTL() time.Duration { return seconds(c.OTP.TTLSeconds) }

func (c *Config) OTPWindow() time.Duration { return seconds(c.OTP.WindowSeconds) }

func (c *Config) OTPRetention() time.Duration { return seconds(c.OTP.RetentionSeconds) }

func (c *Config) RelayTTL() time.Duration { return seconds(c.OTP.RelayTTLSeconds) }

func (c *Config) LoginWindow() time.Duration { return seconds(c.Auth.LoginWindowSeconds) }

func (c *Config) ChannelTimeout() time.Duration { return seconds(c.Notify.ChannelTimeoutSeconds) }

func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.JWT.AccessTTLMinutes) * time.Minute
}

func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.JWT.RefreshTTLMinutes) * time.Minute
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }
