package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/community-content/pkg/communitycontent"
	"github.com/tendant/community-content/pkg/communitycontent/credential"
	"github.com/tendant/community-content/pkg/communitycontent/identity"
	"github.com/tendant/community-content/pkg/communitycontent/moderation"
	"github.com/tendant/community-content/pkg/communitycontent/repo/memory"
	repopg "github.com/tendant/community-content/pkg/communitycontent/repo/postgres"
	"github.com/tendant/community-content/pkg/communitycontent/stats"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:               "8080",
		Environment:        "development",
		DatabaseType:       "memory",
		DBSchema:           "community",
		SubmissionPolicy:   communitycontent.SubmissionTrusted,
		MinSecretLength:    credential.DefaultMinSecretLength,
		StoreTimeout:       communitycontent.DefaultStoreTimeout,
		EnableEventLogging: true,
	}
}

// ServerConfig represents configuration for the community content service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"
	DBSchema     string // Postgres schema to use (default: community)

	// JWTSecret signs and verifies identity tokens
	JWTSecret string

	// SubmissionPolicy decides whether POST /content publishes at once
	SubmissionPolicy communitycontent.SubmissionPath

	MinSecretLength int
	StoreTimeout    time.Duration

	// OperatorEmail and OperatorSecret seed one operator credential into the
	// memory store. Postgres deployments manage the operators table directly.
	OperatorEmail  string
	OperatorSecret string

	EnableEventLogging bool
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}

	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}

	if !c.SubmissionPolicy.IsValid() {
		return fmt.Errorf("submission_policy must be '%s' or '%s', got: %s",
			communitycontent.SubmissionTrusted, communitycontent.SubmissionReview, c.SubmissionPolicy)
	}

	if c.MinSecretLength < 1 {
		return errors.New("min_secret_length must be positive")
	}

	if c.StoreTimeout <= 0 {
		return errors.New("store_timeout must be positive")
	}

	if c.OperatorSecret != "" {
		if c.OperatorEmail == "" {
			return errors.New("operator_secret requires operator_email")
		}
		if len(c.OperatorSecret) < c.MinSecretLength || len(c.OperatorSecret) > credential.MaxSecretBytes {
			return fmt.Errorf("operator_secret must be between %d characters and %d bytes",
				c.MinSecretLength, credential.MaxSecretBytes)
		}
	}

	return nil
}

// Services is the wired set of components a server or CLI runs on.
type Services struct {
	Content    communitycontent.Service
	Moderation moderation.Service
	Stats      stats.Service
	Rotator    *credential.Rotator
	Gate       *identity.Gate
	Policy     communitycontent.SubmissionPath

	Repository  communitycontent.Repository
	Roster      communitycontent.RosterSource
	Credentials communitycontent.CredentialStore

	pool *pgxpool.Pool
}

// Close releases the database pool, if any.
func (s *Services) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks that the backing store is reachable.
func (s *Services) Ping(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	return s.pool.Ping(ctx)
}

// BuildServices creates every component from the server configuration
func (c *ServerConfig) BuildServices(ctx context.Context) (*Services, error) {
	gate, err := identity.NewGate(c.JWTSecret)
	if err != nil {
		return nil, err
	}

	svcs := &Services{Gate: gate, Policy: c.SubmissionPolicy}
	if err := c.buildStores(ctx, svcs); err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}

	var sink communitycontent.EventSink = communitycontent.NewNoopEventSink()
	if c.EnableEventLogging {
		sink = communitycontent.NewLoggingEventSink(slog.Default())
	}

	content, err := communitycontent.New(
		communitycontent.WithRepository(svcs.Repository),
		communitycontent.WithEventSink(sink),
		communitycontent.WithStoreTimeout(c.StoreTimeout),
	)
	if err != nil {
		svcs.Close()
		return nil, err
	}
	svcs.Content = content
	svcs.Moderation = moderation.New(svcs.Repository,
		moderation.WithEventSink(sink),
		moderation.WithStoreTimeout(c.StoreTimeout),
	)
	svcs.Stats = stats.New(svcs.Repository, svcs.Roster, stats.WithStoreTimeout(c.StoreTimeout))
	svcs.Rotator = credential.NewRotator(svcs.Credentials,
		credential.WithMinSecretLength(c.MinSecretLength),
		credential.WithStoreTimeout(c.StoreTimeout),
	)

	return svcs, nil
}

// buildStores creates the repository, roster and credential store based on the configuration
func (c *ServerConfig) buildStores(ctx context.Context, svcs *Services) error {
	switch c.DatabaseType {
	case "memory":
		creds := memory.NewCredentialStore()
		if c.OperatorSecret != "" {
			hash, err := credential.NewBcryptHasher().Hash(c.OperatorSecret)
			if err != nil {
				return err
			}
			creds.Put(c.OperatorEmail, hash)
			slog.Info("Seeded operator credential", "operator", communitycontent.NormalizeEmail(c.OperatorEmail))
		}
		svcs.Repository = memory.New()
		svcs.Roster = memory.NewRoster()
		svcs.Credentials = creds
		return nil
	case "postgres":
		if c.OperatorSecret != "" {
			slog.Warn("OPERATOR_SECRET is ignored with postgres; manage the operators table instead")
		}
		pool, err := NewPool(ctx, c.DatabaseURL, c.DBSchema)
		if err != nil {
			return err
		}
		svcs.pool = pool
		svcs.Repository = repopg.NewWithPool(pool)
		svcs.Roster = repopg.NewRosterWithPool(pool)
		svcs.Credentials = repopg.NewCredentialStoreWithPool(pool)
		return nil
	default:
		return fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// NewPool opens a pgx pool whose sessions use schema as their search_path.
func NewPool(ctx context.Context, databaseURL, schema string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, errors.New("database_url is required")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		searchPath := pgx.Identifier{schema}.Sanitize()
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, "SET search_path TO "+searchPath)
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return pool, nil
}
