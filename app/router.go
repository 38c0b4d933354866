package app

import (
	"context"
	"fmt"
	"time"

	"bitwise74/contacts-api/app/contact"
	"bitwise74/contacts-api/app/root"
	"bitwise74/contacts-api/app/user"
	"bitwise74/contacts-api/config"
	"bitwise74/contacts-api/db"
	"bitwise74/contacts-api/internal"
	"bitwise74/contacts-api/internal/service"
	"bitwise74/contacts-api/internal/store"
	"bitwise74/contacts-api/pkg/middleware"
	"bitwise74/contacts-api/pkg/security"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

// Collaborators that talk to the outside world. Nil fields are built
// from the config
type Externals struct {
	Mail     service.Mailer
	SMS      service.SMSSender
	Codes    service.CodeGenerator
	Throttle service.Throttle
}

// NewRouter connects to the database and redis and returns the engine
// serving the whole API. Background work started for the engine stops
// with ctx
func NewRouter(ctx context.Context, cfg *config.Config) (*gin.Engine, error) {
	gdb, err := db.New(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	var ext Externals

	if cfg.Redis.Addr != "" && cfg.Pin.Cooldown > 0 {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis, %w", err)
		}

		ext.Throttle = store.NewCooldown(client, cfg.Pin.Cooldown)
	} else {
		zap.L().Warn("Redis not configured, pin cooldown disabled")
	}

	d := NewDeps(cfg, gdb, ext)

	return Routes(ctx, cfg, d), nil
}

func NewDeps(cfg *config.Config, gdb *gorm.DB, ext Externals) *internal.Deps {
	if ext.Mail == nil {
		if cfg.Mail.Enabled {
			ext.Mail = service.NewSMTPMailer(cfg.Mail)
		} else {
			ext.Mail = service.LogMailer{}
		}
	}
	if ext.SMS == nil {
		ext.SMS = service.NewTwilioSMS(cfg.SMS)
	}
	if ext.Codes == nil {
		ext.Codes = security.NewDigitCode(cfg.Pin.Length)
	}

	s := store.New(gdb)
	hasher := security.NewPasswordHasher()
	tokens := security.NewTokens(cfg.JWT.Secret, cfg.JWT.TTL, cfg.JWT.ReferralTTL)

	pins := service.NewPinService(service.PinServiceOpts{
		Pins:     s.Pins(),
		Accounts: s.Accounts(),
		Tx:       s,
		Codes:    ext.Codes,
		Mail:     ext.Mail,
		SMS:      ext.SMS,
		Hasher:   hasher,
		Throttle: ext.Throttle,
		Config:   service.PinConfig{TTL: cfg.Pin.TTL},
	})

	return &internal.Deps{
		Config:   cfg,
		Pins:     pins,
		Accounts: service.NewAccountService(s.Accounts(), pins, hasher, tokens),
		Contacts: service.NewContactService(s.Accounts(), s.Contacts(), s),
	}
}

func Routes(ctx context.Context, cfg *config.Config, d *internal.Deps) *gin.Engine {
	router := gin.New()

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     cfg.Host.CORS,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "TurnstileToken"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
		ginzap.RecoveryWithZap(zap.L(), true),
		middleware.BodySizeLimiter(cfg.Security.BodyLimit),
	)

	router.HandleMethodNotAllowed = true
	router.RedirectFixedPath = true

	jwt := middleware.NewJWTMiddleware(d.Accounts)
	turnstile := middleware.NewTurnstileMiddleware(middleware.TurnstileOpts{Config: cfg.Security.Turnstile})
	rateLimiter := middleware.RateLimiterMiddleware(ctx, middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.Security.RateLimit,
		Burst:             cfg.Security.RateLimit * 2,
	})

	// Per engine so separate engines never share cached answers
	responses := persist.NewMemoryStore(time.Minute)

	h := func(fn func(*gin.Context, *internal.Deps)) gin.HandlerFunc {
		return func(c *gin.Context) { fn(c, d) }
	}

	m := router.Group("/api", rateLimiter)
	{
		// HEAD /api/heartbeat 		-> Used to check if the server is alive
		m.HEAD("/heartbeat", root.Heartbeat)

		// GET /api/validate		-> Validates a JWT token
		m.GET("/validate", jwt, root.Validate)
	}

	u := m.Group("/users")
	{
		// POST /api/users 		-> Registers a new user
		u.POST("", h(user.UserRegister))

		// POST /api/users/login 	-> Logs in with email or username
		u.POST("/login", h(user.UserLogin))

		// GET /api/users		-> Returns the logged in user
		u.GET("", jwt, h(user.UserFetch))

		// PUT /api/users		-> Updates profile fields
		u.PUT("", jwt, h(user.UserUpdate))

		// DELETE /api/users		-> Deletes the account and its contacts
		u.DELETE("", jwt, h(user.UserDelete))

		// GET /api/users/verify-value	-> Checks if a phone number, username or email is free.
		// Answers can be a few seconds stale, registration still enforces uniqueness
		u.GET("/verify-value", cacheFor(responses, 5), h(user.UserVerifyValue))

		// GET /api/users/verify-phone	-> Sends a verify-phone pin by SMS
		u.GET("/verify-phone", turnstile, h(user.UserVerifyPhone))

		// GET /api/users/forgot-password	-> Sends a forgot-password pin
		u.GET("/forgot-password", turnstile, h(user.UserForgotPassword))

		// POST /api/users/forgot-password	-> Sets a new password with a validated pin
		u.POST("/forgot-password", h(user.UserRestorePassword))

		// POST /api/users/kyc		-> Submits identity details for review
		u.POST("/kyc", jwt, h(user.UserKYC))

		// POST /api/users/status	-> Changes the account status
		u.POST("/status", jwt, h(user.UserStatus))

		// POST /api/users/password	-> Changes the password
		u.POST("/password", jwt, h(user.UserChangePassword))

		// POST /api/users/email	-> Sends a change-email pin to the new address
		u.POST("/email", jwt, h(user.UserChangeEmail))

		// POST /api/users/pin/validate	-> Consumes a pin, logs in when an account owns it
		u.POST("/pin/validate", h(user.PinValidate))

		// POST /api/users/pin/validate-email	-> Consumes a change-email pin
		u.POST("/pin/validate-email", jwt, h(user.PinValidateEmail))
	}

	c := m.Group("/contacts", jwt)
	{
		// POST /api/contacts		-> Imports address book entries
		c.POST("", h(contact.ContactImport))

		// POST /api/contacts/accounts	-> Adds a registered user as contact
		c.POST("/accounts", h(contact.ContactAddAccount))

		// GET /api/contacts		-> Lists the user's contacts
		c.GET("", h(contact.ContactList))

		// PUT /api/contacts		-> Updates alias and favorite
		c.PUT("", h(contact.ContactUpdate))

		// GET /api/contacts/categories	-> Contacts that are registered users, split by favorite
		c.GET("/categories", h(contact.ContactCategories))

		// GET /api/contacts/search	-> Searches favorites and registered users
		c.GET("/search", h(contact.ContactSearch))

		// DELETE /api/contacts/:id	-> Deletes a contact
		c.DELETE("/:id", h(contact.ContactDelete))
	}

	return router
}

func cacheFor(s persist.CacheStore, sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(s, time.Second*time.Duration(sec))
}
