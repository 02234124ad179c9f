// Package server wires the orchestrator together: registry, dispatcher, audit
// sinks, COMMS task subject and the HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/agent-orchestrator/internal/config"
	"github.com/morezero/agent-orchestrator/pkg/agents"
	"github.com/morezero/agent-orchestrator/pkg/audit"
	"github.com/morezero/agent-orchestrator/pkg/catalog"
	"github.com/morezero/agent-orchestrator/pkg/commsutil"
	"github.com/morezero/agent-orchestrator/pkg/db"
	"github.com/morezero/agent-orchestrator/pkg/dispatcher"
	"github.com/morezero/agent-orchestrator/pkg/events"
	"github.com/morezero/agent-orchestrator/pkg/registry"
	"github.com/morezero/agent-orchestrator/pkg/synth"
)

const logPrefix = "server:server"

// maxTaskBodyBytes caps a POST /tasks body.
const maxTaskBodyBytes = 1 << 20

// Server is the agent-orchestrator.
type Server struct {
	cfg        *config.Config
	reg        *registry.Registry
	disp       *dispatcher.Dispatcher
	catalog    *catalog.Catalog
	nc         *comms.Conn
	pool       *pgxpool.Pool
	sink       audit.Sink
	httpServer *http.Server
}

// NewServerParams holds the components a Server serves.
type NewServerParams struct {
	Config     *config.Config
	Registry   *registry.Registry
	Dispatcher *dispatcher.Dispatcher
	Catalog    *catalog.Catalog
}

// NewServer creates a Server over already-built components. A nil catalog
// means the default catalog.
func NewServer(params NewServerParams) *Server {
	cat := params.Catalog
	if cat == nil {
		cat = catalog.GetDefaultCatalog()
	}
	return &Server{
		cfg:     params.Config,
		reg:     params.Registry,
		disp:    params.Dispatcher,
		catalog: cat,
	}
}

// BuildRegistry registers the built-in agents, seeded from seed (0 = time based).
// A name or route collision is returned as a *registry.RegistryError.
func BuildRegistry(seed uint64) (*registry.Registry, error) {
	reg := registry.NewRegistry()
	if err := reg.RegisterAll(agents.Defaults(synth.NewGenerator(seed))...); err != nil {
		return nil, fmt.Errorf("%s - failed to register agents: %w", logPrefix, err)
	}
	return reg, nil
}

// Run starts the server, blocks until shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	slog.Info(fmt.Sprintf("%s - Starting agent-orchestrator", logPrefix))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Step 1: Register agents
	reg, err := BuildRegistry(cfg.SynthSeed)
	if err != nil {
		return err
	}
	slog.Info(fmt.Sprintf("%s - Registered %d agents", logPrefix, reg.Len()), "routes", len(reg.Routes()))

	// Step 2: Load marketplace catalog
	cat := catalog.LoadCatalog(cfg.CatalogFile)
	if unknown := cat.UnknownAgents(agentNames(reg)); len(unknown) > 0 {
		slog.Warn(fmt.Sprintf("%s - Catalog lists unregistered agents", logPrefix), "agents", unknown)
	}

	// Step 3: Open audit sinks
	sink, pool, err := openAuditSinks(ctx, cfg)
	if err != nil {
		return err
	}

	s := NewServer(NewServerParams{Config: cfg, Registry: reg, Catalog: cat})
	s.sink = sink
	s.pool = pool

	// Step 4: Connect to COMMS when configured
	var publisher events.EventPublisher = &events.NoOpPublisher{}
	if cfg.COMMSURL != "" {
		nc, err := commsutil.Connect(cfg.COMMSURL, commsutil.ConnectOptions{Name: cfg.COMMSName})
		if err != nil {
			s.closeResources()
			return fmt.Errorf("%s - failed to connect to COMMS: %w", logPrefix, err)
		}
		s.nc = nc
		publisher = events.NewCommsPublisher(nc, &events.CommsPublisherOpts{GlobalSubject: cfg.DispatchEventSubject})
	}

	// Step 5: Create dispatcher
	s.disp = dispatcher.NewDispatcher(dispatcher.NewDispatcherParams{
		Registry:  reg,
		Sink:      sink,
		Publisher: publisher,
		Config:    dispatcher.Config{AuditTimeout: cfg.AuditTimeout},
	})

	// Step 6: Serve the task subject
	var sub *comms.Subscription
	if s.nc != nil {
		sub, err = SubscribeTasks(ctx, s.nc, cfg.TaskSubject, s.disp, cfg.RequestTimeout)
		if err != nil {
			s.closeResources()
			return err
		}
	}

	// Step 7: Start HTTP server
	httpAddr := cfg.ListenAddr()
	s.httpServer = &http.Server{
		Addr:              httpAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP server listening on %s", logPrefix, httpAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	slog.Info(fmt.Sprintf("%s - Agent-orchestrator is ready", logPrefix))

	// Wait for shutdown signal or a fatal listener error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	var runErr error
	select {
	case sig := <-sigCh:
		slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))
	case err := <-serveErr:
		runErr = fmt.Errorf("%s - HTTP server error: %w", logPrefix, err)
	}

	// Graceful shutdown
	if sub != nil {
		if err := sub.Unsubscribe(); err != nil {
			slog.Warn(fmt.Sprintf("%s - Unsubscribe failed: %v", logPrefix, err))
		}
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn(fmt.Sprintf("%s - HTTP shutdown: %v", logPrefix, err))
	}
	s.closeResources()

	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return runErr
}

// closeResources drains COMMS, then closes the audit sinks and the pool.
func (s *Server) closeResources() {
	commsutil.Drain(s.nc)
	if s.sink != nil {
		if err := s.sink.Close(); err != nil {
			slog.Warn(fmt.Sprintf("%s - Closing audit sinks: %v", logPrefix, err))
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// openAuditSinks opens the audit file and, when configured, the Postgres and
// Redis mirrors. The returned pool is nil without DATABASE_URL.
func openAuditSinks(ctx context.Context, cfg *config.Config) (audit.Sink, *pgxpool.Pool, error) {
	file, err := audit.NewFileSink(cfg.AuditLogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("%s - failed to open audit log: %w", logPrefix, err)
	}
	sinks := audit.MultiSink{file}
	slog.Info(fmt.Sprintf("%s - Audit log at %s", logPrefix, file.Path()))

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			sinks.Close()
			return nil, nil, fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
		}
		if cfg.RunMigrations {
			migrationSQL, err := db.LoadMigrations(cfg.MigrationPath)
			if err == nil {
				err = db.RunMigrations(ctx, pool, migrationSQL)
			}
			if err != nil {
				pool.Close()
				sinks.Close()
				return nil, nil, fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
			}
		}
		sinks = append(sinks, audit.NewPostgresSink(db.NewRepository(pool)))
	}

	if cfg.AuditRedisAddr != "" {
		rs, err := audit.NewRedisSink(ctx, audit.RedisConfig{
			Address:  cfg.AuditRedisAddr,
			Password: cfg.AuditRedisPassword,
			DB:       cfg.AuditRedisDB,
			Stream:   cfg.AuditRedisStream,
		})
		if err != nil {
			if pool != nil {
				pool.Close()
			}
			sinks.Close()
			return nil, nil, fmt.Errorf("%s - failed to connect to audit redis: %w", logPrefix, err)
		}
		sinks = append(sinks, rs)
		slog.Info(fmt.Sprintf("%s - Mirroring audit entries to redis stream %s", logPrefix, rs.Stream()))
	}

	if len(sinks) == 1 {
		return file, pool, nil
	}
	return sinks, pool, nil
}

func agentNames(reg *registry.Registry) []string {
	list := reg.ListAgents()
	names := make([]string, len(list))
	for i, a := range list {
		names[i] = a.Name()
	}
	return names
}
