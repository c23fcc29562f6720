// influxlogd forwards structured log records to InfluxDB.
//
// Records reach it three ways: the process's own slog output, JSON records
// published on MQTT or NATS, and the HTTP/WebSocket ingest API. Each record
// becomes one point written synchronously; failures are reported to the
// diagnostic log and the SQLite error journal, never retried.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/nerrad567/influxlog/internal/api"
	"github.com/nerrad567/influxlog/internal/appender"
	"github.com/nerrad567/influxlog/internal/auth"
	"github.com/nerrad567/influxlog/internal/infrastructure/config"
	"github.com/nerrad567/influxlog/internal/infrastructure/database"
	"github.com/nerrad567/influxlog/internal/infrastructure/logging"
	"github.com/nerrad567/influxlog/internal/infrastructure/mqtt"
	"github.com/nerrad567/influxlog/internal/ingest"
	"github.com/nerrad567/influxlog/internal/journal"
	"github.com/nerrad567/influxlog/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/influxlog.yaml"

// lockFileName lives next to the journal database.
const lockFileName = "influxlogd.lock"

// sourceIngest tags journal entries raised by the ingest transports.
const sourceIngest = "ingest"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "influxlogd",
		Short:         "Forward structured log records to InfluxDB",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}
	root.AddCommand(newTokenCmd())
	return root
}

// newTokenCmd mints a producer token signed with api.jwt_secret.
func newTokenCmd() *cobra.Command {
	var (
		producer string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print an ingest API token for a producer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(getConfigPath())
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			token, err := auth.GenerateIngestToken(producer, cfg.API.JWTSecret, ttl)
			if err != nil {
				return fmt.Errorf("generating token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&producer, "producer", "", "producer name, stored as the token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	//nolint:errcheck // flag is defined just above
	cmd.MarkFlagRequired("producer")

	return cmd
}

// run is the actual application logic, separated from main for testability.
//
// Startup order: config, instance lock, journal, appender, process logger,
// ingest transports, API. Deferred closes run in reverse.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting influxlogd",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// diag never has the appender attached, so reports cannot recurse.
	diag := logging.New(cfg.Logging, version)
	diag.Info("configuration loaded", "path", configPath)

	lock, err := acquireLock(filepath.Dir(cfg.Journal.Path))
	if err != nil {
		return err
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			diag.Error("error releasing instance lock", "error", unlockErr)
		}
	}()

	appenderErrs := appender.MultiErrorHandler{appender.NewLogErrorHandler(diag)}
	ingestErrs := appender.MultiErrorHandler{appender.NewLogErrorHandler(diag.With("source", sourceIngest))}

	var db *database.DB
	var repo journal.Repository
	if cfg.Journal.Enabled {
		db, err = openJournal(ctx, cfg.Journal)
		if err != nil {
			return err
		}
		defer func() {
			diag.Info("closing journal")
			if closeErr := db.Close(); closeErr != nil {
				diag.Error("error closing journal", "error", closeErr)
			}
		}()
		diag.Info("journal opened", "path", db.Path())

		sqliteRepo := journal.NewSQLiteRepository(db.DB)
		repo = sqliteRepo
		jh := journal.NewHandler(sqliteRepo, journal.SourceAppender, diag)
		appenderErrs = append(appenderErrs, jh)
		ingestErrs = append(ingestErrs, jh.WithSource(sourceIngest))
	} else {
		diag.Info("journal disabled")
	}

	app := appender.New(appender.Options{
		Config:       cfg.Appender,
		Identity:     appender.ResolveIdentity(),
		ErrorHandler: appenderErrs,
		Logger:       diag,
	})
	app.Activate(ctx)
	defer func() {
		diag.Info("shutting down appender")
		app.Shutdown()
	}()

	// From here on the process's own records are forwarded too.
	log = logging.New(cfg.Logging, version, appender.NewHandler(app, logging.ParseLevel(cfg.Appender.Level)))
	slog.SetDefault(log.Logger)
	log.Info("appender activated", "state", app.State().String(), "url", app.URL())

	dispatcher := ingest.NewDispatcher(app, ingestErrs)
	brokers := make(map[string]api.ConnectionState)

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			diag.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				diag.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(diag)
		brokers["mqtt"] = mqttClient

		sub := ingest.NewMQTTSubscriber(mqttClient, cfg.MQTT, dispatcher)
		if err := sub.Start(); err != nil {
			return err
		}
		defer sub.Stop() //nolint:errcheck // client is closed right after
		log.Info("MQTT ingest started", "broker", mqtt.BrokerURL(cfg.MQTT), "topic", sub.Topic())
	}

	var natsConn *nats.Conn
	if cfg.NATS.Enabled {
		natsConn, err = ingest.ConnectNATS(cfg.NATS)
		if err != nil {
			return err
		}
		defer func() {
			diag.Info("disconnecting from NATS")
			natsConn.Close()
		}()
		brokers["nats"] = natsConn

		sub := ingest.NewNATSSubscriber(natsConn, cfg.NATS, dispatcher)
		if err := sub.Start(); err != nil {
			return err
		}
		defer sub.Stop() //nolint:errcheck // connection is closed right after
		log.Info("NATS ingest started", "url", cfg.NATS.URL, "subject", sub.Subject())
	}

	var server *api.Server
	if cfg.API.Enabled {
		deps := api.Deps{
			Config:   cfg.API,
			Logger:   diag,
			Appender: app,
			Errors:   ingestErrs,
			Journal:  repo,
			Brokers:  brokers,
			Version:  version,
		}
		if db != nil {
			deps.DB = db.DB
		}
		server, err = api.New(deps)
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				diag.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	if err := healthCheck(ctx, db, mqttClient, server); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	diag.Info("shutdown signal received, cleaning up")

	return nil
}

// getConfigPath returns the configuration file path.
// Uses INFLUXLOG_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("INFLUXLOG_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// acquireLock takes the single-instance lock in dir.
func acquireLock(dir string) (*flock.Flock, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring instance lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another influxlogd instance holds %s", lock.Path())
	}
	return lock, nil
}

// openJournal opens and migrates the error journal.
func openJournal(ctx context.Context, cfg config.JournalConfig) (*database.DB, error) {
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	if _, err := db.Migrate(ctx, migrations.FS); err != nil {
		db.Close() //nolint:errcheck // migration error takes precedence
		return nil, fmt.Errorf("running journal migrations: %w", err)
	}
	return db, nil
}

// healthCheck verifies the local infrastructure. InfluxDB is not checked;
// while it is unreachable points are dropped and reported.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, server *api.Server) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("journal: %w", err)
		}
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if server != nil {
		if err := server.HealthCheck(ctx); err != nil {
			return fmt.Errorf("api: %w", err)
		}
	}
	return nil
}
