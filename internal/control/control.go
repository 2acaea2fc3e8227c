package control

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/paymentd/internal/api"
	"github.com/vietddude/paymentd/internal/core/config"
	"github.com/vietddude/paymentd/internal/gateway"
	"github.com/vietddude/paymentd/internal/health"
	redisclient "github.com/vietddude/paymentd/internal/infra/redis"
	"github.com/vietddude/paymentd/internal/infra/storage/postgres"
	"github.com/vietddude/paymentd/internal/payment"
)

// Config holds the application configuration.
type Config struct {
	Port      int
	AuthToken string
	Gateway   gateway.Config
	Retry     config.RetryConfig
	Redis     redisclient.Config
	Database  postgres.Config
}

// Server is the main application struct that wires dependencies and
// manages the service lifecycle.
type Server struct {
	cfg         Config
	store       *payment.RetryStore
	svc         *payment.Service
	apiServer   *api.Server
	db          *postgres.DB
	redisClient *redisclient.Client
	log         *slog.Logger
}

// NewServer creates a Server with all dependencies initialized.
func NewServer(cfg Config) (*Server, error) {
	log := slog.Default()

	// 1. Storage (optional)
	var db *postgres.DB
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(); err != nil {
			return nil, err
		}
		slog.Info("Using PostgreSQL storage")
	} else {
		slog.Info("No database configured, payment persistence disabled")
	}

	// 2. Redis (optional)
	var redisClient *redisclient.Client
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		slog.Info("Redis idempotency cache enabled")
	}

	// 3. Gateway collaborators
	confirmer := gateway.NewStripeConfirmer(cfg.Gateway.APIKey)
	intents := gateway.NewIntentClient(cfg.Gateway.IntentURL, cfg.Gateway.IntentToken, cfg.Gateway.Timeout)

	// 4. Retry engine
	store := payment.NewRetryStore()
	deps := payment.Deps{
		Intents: intents,
		Cards:   confirmer,
		Store:   store,
		Log:     log,
	}
	if db != nil {
		deps.Recorder = postgres.NewPaymentRepo(db)
	}
	if redisClient != nil {
		deps.Confirmed = redisClient
		deps.Locks = redisClient
	}
	svc := payment.NewService(payment.Config{
		MaxRetries: cfg.Retry.MaxRetries,
		Window:     cfg.Retry.Window,
	}, deps)

	// 5. Health + API
	monitor := health.NewMonitor()
	if db != nil {
		monitor.Register("database", db, true)
	}
	if redisClient != nil {
		monitor.Register("redis", redisClient, false)
	}
	apiServer := api.NewServer(svc, monitor, cfg.Port, cfg.AuthToken)

	return &Server{
		cfg:         cfg,
		store:       store,
		svc:         svc,
		apiServer:   apiServer,
		db:          db,
		redisClient: redisClient,
		log:         log,
	}, nil
}

// Service returns the payment orchestrator (for the CLI and tests).
func (s *Server) Service() *payment.Service {
	return s.svc
}

// Start runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	sweep := s.cfg.Retry.SweepInterval
	if sweep == 0 {
		sweep = time.Second
	}
	s.store.StartSweeper(ctx, sweep)

	if s.db != nil {
		s.db.StartMetricsCollector(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("API server listening", "port", s.cfg.Port)
		errCh <- s.apiServer.Start()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Stop(shutdownCtx)
}

// Stop releases all resources.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.apiServer.Stop(ctx); err != nil {
		s.log.Warn("API server shutdown failed", "error", err)
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.log.Warn("Redis close failed", "error", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.log.Warn("Database close failed", "error", err)
		}
	}
	return nil
}
