package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment names recognized by the service. The dev-only admin bypass is
// live under EnvDevelopment and physically inert everywhere else.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Server captures process-level configuration so main stays lean.
type Server struct {
	Addr        string
	Env         string
	DatabaseURL string
	RedisURL    string

	KafkaBrokers []string
	AuditTopic   string

	Session SessionConfig
	Auth    AuthConfig
}

// SessionConfig governs the cookie contract and session lifetime.
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	// Secure is forced on outside development; cross-origin deployments that
	// relax SameSite must keep it on.
	Secure bool
}

// AuthConfig holds the identifier and password policy knobs. Passed into
// constructors explicitly; there is no ambient global policy.
type AuthConfig struct {
	BcryptCost          int
	PasswordMinLen      int
	PasswordMinLenAdmin int
	PseudonymMinLen     int

	// BootstrapAdminUsername/Password seed a first admin account at startup
	// when both are set and the account does not exist yet.
	BootstrapAdminUsername string
	BootstrapAdminPassword string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = EnvDevelopment
	}

	cfg := Server{
		Addr:        envOr("ADDR", ":8080"),
		Env:         env,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		AuditTopic:  envOr("AUDIT_TOPIC", "registration.audit"),
		Session: SessionConfig{
			CookieName: envOr("SESSION_COOKIE_NAME", "recovery_session"),
			TTL:        envDurationOr("SESSION_TTL", 24*time.Hour),
			Secure:     env != EnvDevelopment,
		},
		Auth: AuthConfig{
			BcryptCost:          envIntOr("BCRYPT_COST", 10),
			PasswordMinLen:      envIntOr("PASSWORD_MIN_LENGTH", 6),
			PasswordMinLenAdmin: envIntOr("PASSWORD_MIN_LENGTH_ADMIN", 8),
			PseudonymMinLen:     envIntOr("PSEUDONYM_MIN_LENGTH", 2),

			BootstrapAdminUsername: os.Getenv("BOOTSTRAP_ADMIN_USERNAME"),
			BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		},
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	return cfg
}

// IsDevelopment reports whether the process runs in the development
// environment. Privilege bypasses hang off this check and nothing else.
func (s Server) IsDevelopment() bool {
	return s.Env == EnvDevelopment
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
