package config

import (
	"fmt"
	"time"

	"github.com/tendant/community-content/pkg/communitycontent"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabase configures the database backend
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		if dbType != "memory" && dbType != "postgres" {
			return fmt.Errorf("database type must be 'memory' or 'postgres', got: %s", dbType)
		}
		if dbType == "postgres" && url == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithJWTSecret sets the token signing secret
func WithJWTSecret(secret string) Option {
	return func(c *ServerConfig) error {
		if secret == "" {
			return fmt.Errorf("jwt secret cannot be empty")
		}
		c.JWTSecret = secret
		return nil
	}
}

// WithSubmissionPolicy sets the initial state of self-service submissions
func WithSubmissionPolicy(policy communitycontent.SubmissionPath) Option {
	return func(c *ServerConfig) error {
		if !policy.IsValid() {
			return fmt.Errorf("submission policy must be '%s' or '%s', got: %s",
				communitycontent.SubmissionTrusted, communitycontent.SubmissionReview, policy)
		}
		c.SubmissionPolicy = policy
		return nil
	}
}

// WithMinSecretLength sets the shortest operator secret accepted on rotation
func WithMinSecretLength(n int) Option {
	return func(c *ServerConfig) error {
		if n < 1 {
			return fmt.Errorf("min secret length must be positive, got: %d", n)
		}
		c.MinSecretLength = n
		return nil
	}
}

// WithStoreTimeout bounds every store call
func WithStoreTimeout(d time.Duration) Option {
	return func(c *ServerConfig) error {
		if d <= 0 {
			return fmt.Errorf("store timeout must be positive, got: %s", d)
		}
		c.StoreTimeout = d
		return nil
	}
}

// WithEventLogging enables or disables moderation event logging
func WithEventLogging(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableEventLogging = enabled
		return nil
	}
}

// WithOperatorSeed seeds an operator credential into the memory store
func WithOperatorSeed(email, secret string) Option {
	return func(c *ServerConfig) error {
		if email == "" || secret == "" {
			return fmt.Errorf("operator seed needs both email and secret")
		}
		c.OperatorEmail = email
		c.OperatorSecret = secret
		return nil
	}
}
