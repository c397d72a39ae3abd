package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/community-content/pkg/communitycontent"
)

// envConfig mirrors the environment variables WithEnv understands. Unset
// variables leave the corresponding ServerConfig field untouched.
type envConfig struct {
	Port               string        `env:"PORT" env-description:"HTTP listen port"`
	Environment        string        `env:"ENVIRONMENT" env-description:"development, production or testing"`
	DatabaseURL        string        `env:"DATABASE_URL" env-description:"'memory' or a postgres connection string"`
	DBSchema           string        `env:"DB_SCHEMA" env-description:"Postgres schema used as search_path"`
	JWTSecret          string        `env:"JWT_SECRET" env-description:"HS256 token signing secret"`
	SubmissionPolicy   string        `env:"SUBMISSION_POLICY" env-description:"'trusted' publishes at once, 'review' queues"`
	MinSecretLength    int           `env:"MIN_SECRET_LENGTH" env-description:"shortest accepted operator secret"`
	StoreTimeout       time.Duration `env:"STORE_TIMEOUT" env-description:"timeout for each store call"`
	EnableEventLogging string        `env:"ENABLE_EVENT_LOGGING" env-description:"log moderation events"`
	OperatorEmail      string        `env:"OPERATOR_EMAIL" env-description:"operator seeded into the memory store"`
	OperatorSecret     string        `env:"OPERATOR_SECRET" env-description:"secret for OPERATOR_EMAIL (memory store only)"`
}

// WithEnv applies environment variable overrides.
//
//	PORT, ENVIRONMENT        server settings
//	DATABASE_URL             "memory" (default) or "postgres://..." / "postgresql://..."
//	DB_SCHEMA                Postgres schema (default: community)
//	JWT_SECRET               token signing secret (required)
//	SUBMISSION_POLICY        trusted | review (default: trusted)
//	MIN_SECRET_LENGTH        operator secret policy (default: 8)
//	STORE_TIMEOUT            e.g. "5s"
//	ENABLE_EVENT_LOGGING     true | false (default: true)
//	OPERATOR_EMAIL           operator to seed when OPERATOR_SECRET is set
//	OPERATOR_SECRET          seeds a memory-store operator credential
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var env envConfig
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}

		if env.Port != "" {
			c.Port = env.Port
		}
		if env.Environment != "" {
			c.Environment = env.Environment
		}
		if err := applyDatabaseURL(env.DatabaseURL, c); err != nil {
			return err
		}
		if env.DBSchema != "" {
			c.DBSchema = env.DBSchema
		}
		if env.JWTSecret != "" {
			c.JWTSecret = env.JWTSecret
		}
		if env.SubmissionPolicy != "" {
			c.SubmissionPolicy = communitycontent.SubmissionPath(strings.ToLower(strings.TrimSpace(env.SubmissionPolicy)))
		}
		if env.MinSecretLength != 0 {
			c.MinSecretLength = env.MinSecretLength
		}
		if env.StoreTimeout != 0 {
			c.StoreTimeout = env.StoreTimeout
		}
		if env.EnableEventLogging != "" {
			enabled, err := strconv.ParseBool(env.EnableEventLogging)
			if err != nil {
				return fmt.Errorf("invalid ENABLE_EVENT_LOGGING %q: %w", env.EnableEventLogging, err)
			}
			c.EnableEventLogging = enabled
		}
		if env.OperatorEmail != "" {
			c.OperatorEmail = env.OperatorEmail
		}
		if env.OperatorSecret != "" {
			c.OperatorSecret = env.OperatorSecret
		}

		return nil
	}
}

// Usage returns a description of every environment variable WithEnv reads.
func Usage() string {
	var env envConfig
	text, err := cleanenv.GetDescription(&env, nil)
	if err != nil {
		return ""
	}
	return text
}

// applyDatabaseURL selects the backend from the DATABASE_URL scheme
func applyDatabaseURL(dbURL string, c *ServerConfig) error {
	switch {
	case dbURL == "":
		return nil
	case dbURL == "memory":
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
	case strings.HasPrefix(dbURL, "postgresql://"), strings.HasPrefix(dbURL, "postgres://"):
		c.DatabaseType = "postgres"
		c.DatabaseURL = dbURL
	default:
		return fmt.Errorf("unsupported DATABASE_URL format (use 'memory' or 'postgresql://...')")
	}
	return nil
}
