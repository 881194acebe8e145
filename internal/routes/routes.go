package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/skillswap/skillswap/internal/auth"
	"github.com/skillswap/skillswap/internal/config"
	"github.com/skillswap/skillswap/internal/identity"
	"github.com/skillswap/skillswap/internal/middleware"
	"github.com/skillswap/skillswap/internal/notification"
	"github.com/skillswap/skillswap/internal/oauth"
	"github.com/skillswap/skillswap/internal/otp"
	"github.com/skillswap/skillswap/internal/session"
	"github.com/skillswap/skillswap/internal/token"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	// Stores: Postgres in deployed environments, in-memory in dev.
	var (
		identityRepo identity.Repository
		otpRepo      otp.Repository
		sessionRepo  session.Repository
	)
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
		otpRepo = otp.NewPostgresRepository(d.DB)
		sessionRepo = session.NewPostgresRepository(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
		otpRepo = otp.NewMemoryRepository()
		sessionRepo = session.NewMemoryRepository()
	}

	// Notification sinks: real dispatchers when configured, logging stubs
	// otherwise. Orchestrator code sees only the interfaces.
	var email notification.EmailSender = notification.NewLoggerEmailSender(d.Logger)
	if d.Cfg.SendGridAPIKey != "" {
		email = notification.NewSendGridEmailSender(d.Cfg.SendGridAPIKey, d.Cfg.FromEmail, d.Cfg.AppName, d.Logger)
	}
	var sms notification.SMSSender = notification.NewLoggerSMSSender(d.Logger)
	if d.Cfg.TwilioAccountSID != "" && d.Cfg.TwilioAuthToken != "" {
		sms = notification.NewTwilioSMSSender(
			d.Cfg.TwilioAccountSID, d.Cfg.TwilioAuthToken, d.Cfg.TwilioFromNumber, d.Cfg.AppName, d.Logger)
	}

	issuer := token.NewIssuer(d.Cfg.JWTSecret, d.Cfg.AccessTokenTTL)
	authSvc := auth.NewService(
		identityRepo,
		otp.NewManager(otpRepo, d.Cfg.OTPTTL),
		sessionRepo,
		issuer,
		oauth.NewFederator(d.Cfg.OutboundTimeout),
		email,
		sms,
		d.Logger,
	)
	authHandler := auth.NewHandler(authSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	rateLimiter := middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRateLimit)
	RegisterAuthRoutes(api, authHandler, middleware.RequireAuth(issuer), rateLimiter)

	return nil
}
