package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Discord Bot
	DiscordToken string

	// Discord OAuth2 (dashboard login)
	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURI  string

	// Privileged identities allowed to run admin commands
	AdminIDs []string

	// Database (optional; empty keeps all state in memory)
	DatabaseURL string

	// Web Server
	WebBind      string
	WebUIBaseURL string

	// Session
	JWTSecret string

	// Shop settings
	PaymentInfo          string
	MinWithdrawal        int64
	MaxWithdrawal        int64
	ReferralBonusPercent int64
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:        os.Getenv("DISCORD_TOKEN"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		WebBind:             getEnvDefault("WEB_BIND", "0.0.0.0:3000"),
		DiscordClientID:     os.Getenv("DISCORD_CLIENT_ID"),
		DiscordClientSecret: os.Getenv("DISCORD_CLIENT_SECRET"),
		DiscordRedirectURI:  getEnvDefault("DISCORD_REDIRECT_URI", "http://localhost:3000/api/auth/callback"),
		JWTSecret:           getEnvDefault("JWT_SECRET", "dev-only-change-me"),
		PaymentInfo:         getEnvDefault("PAYMENT_INFO", "0701339573 (Camlus Okoth)"),
	}

	for _, id := range strings.Split(os.Getenv("ADMIN_IDS"), ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			cfg.AdminIDs = append(cfg.AdminIDs, id)
		}
	}

	var err error
	if cfg.MinWithdrawal, err = getEnvInt64("MIN_WITHDRAWAL", 20); err != nil {
		return nil, err
	}
	if cfg.MaxWithdrawal, err = getEnvInt64("MAX_WITHDRAWAL", 1000); err != nil {
		return nil, err
	}
	if cfg.ReferralBonusPercent, err = getEnvInt64("REFERRAL_BONUS_PERCENT", 5); err != nil {
		return nil, err
	}

	// Extract base URL from redirect URI
	cfg.WebUIBaseURL = extractBaseURL(cfg.DiscordRedirectURI)

	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is required")
	}
	if len(cfg.AdminIDs) == 0 {
		return nil, fmt.Errorf("ADMIN_IDS is required")
	}
	if cfg.MinWithdrawal <= 0 || cfg.MinWithdrawal >= cfg.MaxWithdrawal {
		return nil, fmt.Errorf("withdrawal bounds must satisfy 0 < MIN_WITHDRAWAL < MAX_WITHDRAWAL")
	}

	return cfg, nil
}

// IsAdmin reports whether id belongs to the configured privileged set.
func (c *Config) IsAdmin(id string) bool {
	for _, admin := range c.AdminIDs {
		if admin == id {
			return true
		}
	}
	return false
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func extractBaseURL(redirectURI string) string {
	// e.g., "http://localhost:3000/api/auth/callback" -> "http://localhost:3000"
	parsed, err := url.Parse(redirectURI)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "http://localhost:3000"
	}

	return fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
}
