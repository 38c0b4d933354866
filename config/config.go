// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	configPath     = pflag.String("config", ".", "Directory containing config.toml")
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validDrivers   = []string{"postgres", "sqlite"}
	validSMSModes  = []string{"live", "test"}
)

type Config struct {
	App      App      `mapstructure:"app"`
	Host     Host     `mapstructure:"host"`
	DB       DB       `mapstructure:"db"`
	JWT      JWT      `mapstructure:"jwt"`
	Pin      Pin      `mapstructure:"pin"`
	Mail     Mail     `mapstructure:"mail"`
	SMS      SMS      `mapstructure:"sms"`
	Redis    Redis    `mapstructure:"redis"`
	Security Security `mapstructure:"security"`
}

type App struct {
	LogLevel string `mapstructure:"log_level"`
}

type Host struct {
	Port int      `mapstructure:"port"`
	CORS []string `mapstructure:"cors"`
}

type DB struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type JWT struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
	// Referral links are signed with the same secret but live much longer
	ReferralTTL time.Duration `mapstructure:"referral_ttl"`
}

type Pin struct {
	Length int `mapstructure:"length"`
	// Zero means codes stay usable until consumed
	TTL      time.Duration `mapstructure:"ttl"`
	Cooldown time.Duration `mapstructure:"cooldown"`
}

type Mail struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type SMS struct {
	Mode       string `mapstructure:"mode"`
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	From       string `mapstructure:"from"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type Security struct {
	RateLimit int       `mapstructure:"rate_limit"`
	BodyLimit int64     `mapstructure:"body_limit"`
	Turnstile Turnstile `mapstructure:"turnstile"`
}

type Turnstile struct {
	Enabled     bool   `mapstructure:"enabled"`
	SecretToken string `mapstructure:"secret_token"`
}

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() (*Config, error) {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	// A missing .env is fine, the variables may come from the environment
	_ = godotenv.Load()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(*configPath)

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "APP_LOG_LEVEL")

	v.BindEnv("host.port", "HOST_PORT")
	v.BindEnv("host.cors", "HOST_CORS")

	v.BindEnv("db.driver", "DB_DRIVER")
	v.BindEnv("db.dsn", "DB_DSN")

	v.BindEnv("jwt.secret", "SECURITY_JWT_SECRET")
	v.BindEnv("jwt.ttl", "SECURITY_JWT_TTL")
	v.BindEnv("jwt.referral_ttl", "SECURITY_JWT_REFERRAL_TTL")

	v.BindEnv("pin.length", "PIN_LENGTH")
	v.BindEnv("pin.ttl", "PIN_TTL")
	v.BindEnv("pin.cooldown", "PIN_COOLDOWN")

	v.BindEnv("mail.enabled", "MAIL_ENABLED")
	v.BindEnv("mail.host", "MAIL_HOST")
	v.BindEnv("mail.port", "MAIL_PORT")
	v.BindEnv("mail.username", "MAIL_USERNAME")
	v.BindEnv("mail.password", "MAIL_PASSWORD")
	v.BindEnv("mail.from", "MAIL_SENDER_ADDRESS")

	v.BindEnv("sms.mode", "TWILIO_MODE")
	v.BindEnv("sms.account_sid", "TWILIO_ACCOUNT_SID")
	v.BindEnv("sms.auth_token", "TWILIO_AUTH_TOKEN")
	v.BindEnv("sms.from", "TWILIO_PHONE_NUMBER")

	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	v.BindEnv("security.rate_limit", "SECURITY_RATE_LIMIT")
	v.BindEnv("security.body_limit", "SECURITY_BODY_LIMIT")
	v.BindEnv("security.turnstile.enabled", "TURNSTILE_ENABLED")
	v.BindEnv("security.turnstile.secret_token", "TURNSTILE_SECRET_TOKEN")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.cors", []string{"http://localhost:5173"})

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "database.db")

	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("jwt.referral_ttl", "175200h")

	v.SetDefault("pin.length", 6)
	v.SetDefault("pin.ttl", "0s")
	v.SetDefault("pin.cooldown", "30s")

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.port", 587)

	v.SetDefault("sms.mode", "test")

	v.SetDefault("security.rate_limit", 10)
	v.SetDefault("security.body_limit", 1<<20)
	v.SetDefault("security.turnstile.enabled", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file, %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config, %w", err)
	}

	if cfg.JWT.Secret == "" {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !cfg.Security.Turnstile.Enabled {
		fmt.Println("[WARNING]: Cloudflare's turnstile is disabled. Public PIN endpoints won't be guarded against bots")
	}

	return &cfg, nil
}

// Validate checks values that can't be fixed with a default
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.App.LogLevel) {
		return errors.New("invalid log level provided")
	}

	if c.Host.Port <= 0 {
		return errors.New("invalid port provided")
	}

	if !slices.Contains(validDrivers, c.DB.Driver) {
		return errors.New("invalid database driver provided")
	}

	if c.DB.DSN == "" {
		return errors.New("database dsn can't be empty")
	}

	if c.JWT.Secret == "" {
		return errors.New("jwt secret can't be empty")
	}

	if c.JWT.TTL <= 0 {
		return errors.New("jwt.ttl must be bigger than 0")
	}

	if c.Pin.Length < 4 || c.Pin.Length > 10 {
		return errors.New("pin.length must be between 4 and 10")
	}

	if c.Pin.TTL < 0 || c.Pin.Cooldown < 0 {
		return errors.New("pin durations can't be negative")
	}

	if c.Mail.Enabled {
		if c.Mail.Host == "" {
			return errors.New("no mail host provided")
		}
		if c.Mail.From == "" {
			return errors.New("no mail sender address provided")
		}
	}

	if !slices.Contains(validSMSModes, c.SMS.Mode) {
		return errors.New("invalid sms mode provided")
	}

	if c.SMS.Mode == "live" {
		if c.SMS.AccountSID == "" || c.SMS.AuthToken == "" {
			return errors.New("twilio credentials can't be empty in live mode")
		}
		if c.SMS.From == "" {
			return errors.New("no twilio sender number provided")
		}
	}

	if c.Security.RateLimit <= 0 {
		return errors.New("security.rate_limit must be bigger than 0")
	}

	if c.Security.BodyLimit <= 0 {
		return errors.New("security.body_limit must be bigger than 0")
	}

	if c.Security.Turnstile.Enabled && c.Security.Turnstile.SecretToken == "" {
		return errors.New("turnstile secret token is missing")
	}

	return nil
}
