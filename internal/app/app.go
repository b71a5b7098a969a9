package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "niplan/docs"
	"niplan/internal/config"
	"niplan/internal/db"
	"niplan/internal/db/migrate"
	"niplan/internal/handlers"
	"niplan/internal/logger"
	"niplan/internal/middleware"
	"niplan/internal/notify"
	"niplan/internal/otp"
	"niplan/internal/repositories"
	"niplan/internal/routes"
	"niplan/internal/services"
	"niplan/internal/utils"
)

// App owns the HTTP router and the connections behind it.
type App struct {
	Router *gin.Engine

	cfg *config.Config
	log *zap.Logger
	db  *sql.DB
	rdb *redis.Client
}

type redisPinger struct{ rdb *redis.Client }

func (p redisPinger) PingContext(ctx context.Context) error { return p.rdb.Ping(ctx).Err() }

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	// === Redis ===
	a.rdb = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := a.rdb.Ping(ctx).Err(); err != nil {
		_ = a.rdb.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}

	// === DB ===
	var (
		accounts   repositories.AccountRepository
		businesses repositories.BusinessRepository = repositories.NoBusinessRepository{}
		audit      repositories.OTPAuditRepository
	)
	switch {
	case cfg.Database.DSN != "":
		if cfg.Database.AutoMigrate {
			if err := migrate.Run(cfg.Database.DSN, "up"); err != nil {
				a.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		conn, err := db.Open(ctx, cfg.Database.DSN)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.db = conn
		accounts = repositories.NewAccountRepository(conn)
		businesses = repositories.NewBusinessRepository(conn)
		audit = repositories.NewOTPAuditRepository(conn)
	case cfg.IsProduction():
		a.Close()
		return nil, errors.New("database.url is required in production")
	default:
		log.Warn("[app] no database configured, accounts are kept in memory")
		accounts = repositories.NewMemoryAccountRepository()
	}

	// === OTP ===
	otpLog := log.Named("otp")
	store := otp.NewStore(a.rdb, "", otp.StoreConfig{
		CodeLength:        cfg.OTP.CodeLength,
		MaxVerifyAttempts: cfg.OTP.MaxVerifyAttempts,
		Retention:         cfg.OTPRetention(),
		FixedCode:         cfg.OTP.FixedCodeForTesting,
		ExposeDebug:       cfg.Dev.ExposeOTP,
	})
	if audit != nil {
		store.WithLedger(audit, func(op string, err error) {
			otpLog.Warn("[otp][ledger] write failed", zap.String("op", op), zap.Error(err))
		})
	}
	if cfg.OTP.FixedCodeForTesting != "" {
		otpLog.Warn("[otp] fixed test code is active")
	}
	relays := otp.NewRelayStore(a.rdb, "")
	blocklist := otp.NewBlocklist(a.rdb, "")

	// === Notify ===
	gateway, operator, webhookSecret, err := buildNotify(cfg, relays, blocklist, log.Named("notify"))
	if err != nil {
		a.Close()
		return nil, err
	}

	// === Tokens ===
	secret := cfg.JWT.Secret
	if secret == "" {
		secret = randomSecret()
		log.Warn("[app] jwt.secret not set, using an ephemeral secret; tokens will not survive a restart")
	}
	tokens := utils.NewTokenIssuer(secret, cfg.JWT.Issuer, cfg.AccessTTL(), cfg.RefreshTTL())

	// === Services ===
	deps := services.AuthDeps{
		Accounts:   accounts,
		Businesses: businesses,
		OTPs:       store,
		Limiter:    otp.NewLimiter(a.rdb, ""),
		Blocklist:  blocklist,
		Notifier:   gateway,
		Tokens:     tokens,
		Rotation:   utils.NewRefreshRotation(a.rdb, ""),
		Hasher:     services.NewPasswordHasher(cfg.Auth.BcryptCost),
	}
	if audit != nil {
		deps.Deliveries = audit
	}
	authService := services.NewAuthService(deps, services.AuthConfig{
		OTPTTL:               cfg.OTPTTL(),
		OTPMaxAttempts:       cfg.OTP.MaxAttempts,
		OTPWindow:            cfg.OTPWindow(),
		MinPasswordLength:    cfg.Auth.MinPasswordLength,
		LoginMaxAttempts:     cfg.Auth.LoginMaxAttempts,
		LoginWindow:          cfg.LoginWindow(),
		AllowEmptyCodeBypass: cfg.Auth.AllowEmptyCodeBypass,
	}, log.Named("auth"))

	// === Handlers ===
	httpLog := log.Named("http")
	authHandler := handlers.NewAuthHandler(authService, httpLog)
	adminHandler := handlers.NewAdminHandler(authService, httpLog)

	pingers := map[string]handlers.Pinger{"redis": redisPinger{a.rdb}}
	if a.db != nil {
		pingers["postgres"] = a.db
	}
	healthHandler := handlers.NewHealthHandler(pingers)

	var devHandler *handlers.DevHandler
	if cfg.Dev.ExposeOTP {
		devHandler = handlers.NewDevHandler(authService, httpLog)
	}
	var phoneHandler *handlers.PhoneHandler
	if cfg.Auth.LegacyOTPEndpoints {
		phoneHandler = handlers.NewPhoneHandler(authService, httpLog)
	}
	var integrationsHandler *handlers.IntegrationsHandler
	if operator != nil {
		integrationsHandler = handlers.NewIntegrationsHandler(operator, webhookSecret, httpLog)
	}

	// === Router ===
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(logger.GinLogger(httpLog), logger.GinRecovery(httpLog))
	router.Use(middleware.CORS(cfg.Server.AllowOrigins))

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(router, tokens,
		authHandler,
		adminHandler,
		healthHandler,
		devHandler,
		phoneHandler,
		integrationsHandler,
	)
	a.Router = router
	return a, nil
}

// buildNotify assembles the delivery chain: WhatsApp, then SMS, then the Telegram relay.
// The operator service is nil when no Telegram bot is configured.
func buildNotify(cfg *config.Config, relays *otp.RelayStore, blocklist *otp.Blocklist, log *zap.Logger) (*notify.Gateway, *services.OperatorService, string, error) {
	var (
		direct   []notify.Channel
		whatsapp notify.Channel
		sms      notify.Channel
	)

	tw := cfg.Notify.Twilio
	if tw.Enabled() {
		api := notify.NewTwilioAPI(tw)
		if tw.WhatsAppFrom != "" {
			whatsapp = notify.NewTwilioWhatsApp(api, tw.WhatsAppFrom, tw.OTPTemplateSID)
		}
		if cfg.Notify.SMSProvider == "twilio" && tw.SMSFrom != "" {
			sms = notify.NewTwilioSMS(api, tw.SMSFrom)
		}
	}
	if cfg.Notify.SMSProvider == "mobizon" {
		sms = notify.NewMobizonClient(cfg.Notify.Mobizon, nil, log)
	}
	if whatsapp != nil {
		direct = append(direct, whatsapp)
	}
	if sms != nil {
		direct = append(direct, sms)
	}
	if len(direct) == 0 {
		log.Warn("[notify] no direct channel configured")
	}

	gateway := notify.NewGateway(log, cfg.ChannelTimeout(), direct...)

	if cfg.Notify.Email.Enabled() {
		gateway.WithAlerters(notify.NewEmailAlerter(cfg.Notify.Email))
	}

	tg := cfg.Notify.Telegram
	if !tg.Enabled() {
		return gateway, nil, "", nil
	}
	bot, err := tgbotapi.NewBotAPI(tg.BotToken)
	if err != nil {
		return nil, nil, "", fmt.Errorf("telegram bot: %w", err)
	}
	log.Info("[notify] telegram relay enabled", zap.String("bot", bot.Self.UserName))

	relay := notify.NewTelegramRelay(bot, tg.AdminChatID, relays, cfg.RelayTTL())
	gateway.WithRelay(relay).WithAlerters(relay)
	operator := services.NewOperatorService(relays, blocklist, sms, whatsapp, relay, tg.AdminChatID, log.Named("operator"))
	return gateway, operator, tg.WebhookSecret, nil
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("[app] server started", zap.String("addr", srv.Addr), zap.String("env", a.cfg.App.Env))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	a.log.Info("[app] shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("[app] close postgres", zap.Error(err))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Warn("[app] close redis", zap.Error(err))
		}
	}
}
