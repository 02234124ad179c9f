// Package main is the entrypoint for the agent-orchestrator.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/morezero/agent-orchestrator/internal/config"
	"github.com/morezero/agent-orchestrator/internal/server"
	"github.com/morezero/agent-orchestrator/pkg/audit"
	"github.com/morezero/agent-orchestrator/pkg/catalog"
	"github.com/morezero/agent-orchestrator/pkg/db"
)

const usage = `Usage: orchestrator [command]
       orchestrator serve              Start the orchestrator (HTTP API, optional COMMS task subject).
       orchestrator migrate up         Create the audit_entries table.
       orchestrator migrate down       No-op; the audit trail is append-only.
       orchestrator migrate status     Show migration status.
       orchestrator ensure-db [name]   Create database if missing (default name: orchestrator_test). Uses DATABASE_URL host/user.
       orchestrator audit [n] [source] Print the last n audit entries (default 20) from file, postgres or redis.
       orchestrator agents             List registered agents, their tasks and marketplace pricing.
       orchestrator check              Validate config, agent registration and the catalog file.

Commands:
  serve            (default) Start the agent orchestrator.
  migrate up       Run database migrations only.
  migrate down     Roll back (no-op for the append-only audit trail).
  migrate status   Show current migration status.
  ensure-db [name] Create database (e.g. orchestrator_test) on same host as DATABASE_URL.
  audit [n] [src]  Tail the audit trail as JSON lines. src is file (ORCHESTRATOR_AUDIT_LOG, default),
                   postgres (DATABASE_URL) or redis (AUDIT_REDIS_ADDR).
  agents           Print the routing table.
  check            Exit non-zero when the orchestrator would refuse to start.

Environment: HTTP_PORT (default 8080), ORCHESTRATOR_API_KEY, ORCHESTRATOR_AUDIT_LOG (default audit_log.jsonl),
DATABASE_URL, AUDIT_REDIS_ADDR, COMMS_URL, ORCHESTRATOR_CATALOG_FILE, SYNTH_SEED, LOG_LEVEL. See README.
`

const defaultAuditTail = 20

// Audit sources readable by `orchestrator audit`.
const (
	auditSourceFile     = "file"
	auditSourcePostgres = "postgres"
	auditSourceRedis    = "redis"
)

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("orchestrator migrate: require subcommand (up, down, status)")
		}
		sub := args[1]
		switch sub {
		case "up":
			if err := runMigrateUp(); err != nil {
				log.Fatalf("orchestrator migrate up: %v", err)
			}
		case "status":
			if err := runMigrateStatus(); err != nil {
				log.Fatalf("orchestrator migrate status: %v", err)
			}
		case "down":
			if err := runMigrateDown(); err != nil {
				log.Fatalf("orchestrator migrate down: %v", err)
			}
		default:
			log.Fatalf("orchestrator migrate: unknown subcommand %q (use up, down, status)", sub)
		}
		return
	case "ensure-db":
		dbName := "orchestrator_test"
		if len(args) > 1 && args[1] != "" {
			dbName = args[1]
		}
		if err := runEnsureDB(dbName); err != nil {
			log.Fatalf("orchestrator ensure-db: %v", err)
		}
		return
	case "audit":
		n, source, err := parseAuditArgs(args[1:])
		if err != nil {
			log.Fatalf("orchestrator audit: %v", err)
		}
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("orchestrator audit: load config: %v", err)
		}
		if err := runAudit(context.Background(), os.Stdout, cfg, source, n); err != nil {
			log.Fatalf("orchestrator audit: %v", err)
		}
		return
	case "agents":
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("orchestrator agents: load config: %v", err)
		}
		if err := runAgents(os.Stdout, cfg); err != nil {
			log.Fatalf("orchestrator agents: %v", err)
		}
		return
	case "check":
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("orchestrator check: load config: %v", err)
		}
		if err := runCheck(os.Stdout, cfg); err != nil {
			log.Fatalf("orchestrator check: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "serve", "":
		// serve (explicit or default)
		break
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("orchestrator: %v", err)
	}
}

func runMigrateUp() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	migrationSQL, err := db.LoadMigrations(cfg.MigrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	if err := db.RunMigrations(ctx, pool, migrationSQL); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func runMigrateStatus() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	return db.MigrationStatus(ctx, pool, cfg.MigrationPath, os.Stdout)
}

func runMigrateDown() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	return db.MigrationDown(ctx, pool, os.Stdout)
}

func runEnsureDB(dbName string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	targetURL, err := db.WithDatabaseName(cfg.DatabaseURL, dbName)
	if err != nil {
		return err
	}
	if err := db.EnsureDatabase(context.Background(), targetURL); err != nil {
		return err
	}
	fmt.Printf("Database %q is ready.\n", dbName)
	return nil
}

// parseCount parses the audit tail length; it must be a positive integer.
func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("count must be a positive integer, got %q", s)
	}
	return n, nil
}

// parseAuditArgs reads the optional count and source of `orchestrator audit`, in either order.
func parseAuditArgs(args []string) (int, string, error) {
	n, source := defaultAuditTail, auditSourceFile
	if len(args) > 2 {
		return 0, "", fmt.Errorf("too many arguments %q", args)
	}
	seenCount, seenSource := false, false
	for _, arg := range args {
		switch arg {
		case auditSourceFile, auditSourcePostgres, auditSourceRedis:
			if seenSource {
				return 0, "", errors.New("audit source given twice")
			}
			source, seenSource = arg, true
			continue
		}
		if seenCount {
			return 0, "", fmt.Errorf("unknown audit source %q (use file, postgres, redis)", arg)
		}
		count, err := parseCount(arg)
		if err != nil {
			return 0, "", err
		}
		n, seenCount = count, true
	}
	return n, source, nil
}

// runAudit writes the last n audit entries from source to w, oldest first, one JSON object per line.
func runAudit(ctx context.Context, w io.Writer, cfg *config.Config, source string, n int) error {
	var (
		entries []audit.Entry
		err     error
	)
	switch source {
	case auditSourceFile:
		entries, err = audit.ReadFile(cfg.AuditLogPath)
		entries = audit.Tail(entries, n)
	case auditSourcePostgres:
		entries, err = readPostgresAudit(ctx, cfg, n)
	case auditSourceRedis:
		entries, err = readRedisAudit(ctx, cfg, n)
	default:
		return fmt.Errorf("unknown audit source %q (use file, postgres, redis)", source)
	}
	if err != nil {
		return err
	}
	return writeEntries(w, entries)
}

func readPostgresAudit(ctx context.Context, cfg *config.Config, n int) ([]audit.Entry, error) {
	if err := cfg.ValidateForDB(); err != nil {
		return nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	rows, err := db.NewRepository(pool).ListAuditEntries(ctx, db.ListAuditEntriesParams{Limit: n})
	if err != nil {
		return nil, err
	}
	entries := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := audit.FromRow(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func readRedisAudit(ctx context.Context, cfg *config.Config, n int) ([]audit.Entry, error) {
	if cfg.AuditRedisAddr == "" {
		return nil, errors.New("AUDIT_REDIS_ADDR is required")
	}
	sink, err := audit.NewRedisSink(ctx, audit.RedisConfig{
		Address:  cfg.AuditRedisAddr,
		Password: cfg.AuditRedisPassword,
		DB:       cfg.AuditRedisDB,
		Stream:   cfg.AuditRedisStream,
	})
	if err != nil {
		return nil, err
	}
	defer sink.Close()
	return sink.Read(ctx, int64(n))
}

func writeEntries(w io.Writer, entries []audit.Entry) error {
	enc := json.NewEncoder(w)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}
	return nil
}

// runAgents prints each registered agent with its tasks and catalog pricing.
func runAgents(w io.Writer, cfg *config.Config) error {
	reg, err := server.BuildRegistry(cfg.SynthSeed)
	if err != nil {
		return err
	}
	listings := catalog.Listings(reg.ListAgents(), catalog.LoadCatalog(cfg.CatalogFile))
	infos := reg.Describe()

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "AGENT\tVERSION\tTIER\tRATE\tTASKS")
	for i, l := range listings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%s\n", l.Name, l.Version, l.Pricing.Tier, l.Pricing.Rate, strings.Join(infos[i].Tasks, ", "))
	}
	return tw.Flush()
}

// runCheck validates what serve would validate before binding any listener.
func runCheck(w io.Writer, cfg *config.Config) error {
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}
	reg, err := server.BuildRegistry(cfg.SynthSeed)
	if err != nil {
		return err
	}
	cat := catalog.LoadCatalog(cfg.CatalogFile)
	if err := cat.Validate(); err != nil {
		return err
	}

	names := make([]string, 0, reg.Len())
	for _, info := range reg.Describe() {
		names = append(names, info.Name)
	}
	for _, name := range cat.UnknownAgents(names) {
		fmt.Fprintf(w, "warning: catalog lists unregistered agent %q\n", name)
	}
	fmt.Fprintf(w, "OK: %d agents, %d routes, catalog %s %s\n", reg.Len(), len(reg.Routes()), cat.Name, cat.Version)
	return nil
}
