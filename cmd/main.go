package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/lmittmann/tint"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/openfuse/console/internal/api"
	"github.com/openfuse/console/internal/catalog"
	"github.com/openfuse/console/internal/client"
	"github.com/openfuse/console/internal/kv"
	"github.com/openfuse/console/internal/server"
	"github.com/openfuse/console/internal/service"
)

//nolint:gochecknoglobals,revive // build variables
var (
	commit string = "unspecified"
	app    string = "unspecified"
)

type config struct {
	LogFormat    string     `default:"json" split_words:"true"`
	LogLevel     slog.Level `default:"debug" split_words:"true"`
	LogAddSource bool       `default:"false" split_words:"true"`
	LogFilePath  string     `split_words:"true"`

	ServerAddr            string        `default:":8080" split_words:"true"`
	ServerWriteTimeout    time.Duration `default:"15s" split_words:"true"`
	ServerReadTimeout     time.Duration `default:"15s" split_words:"true"`
	ServerIdleTimeout     time.Duration `default:"5m" split_words:"true"`
	ServerShutdownTimeout time.Duration `default:"30s" split_words:"true"`

	PipelineAPIURL string `default:"http://localhost:8000" split_words:"true"`
	CatalogURL     string `split_words:"true"`

	DraftStore string `default:"badger" split_words:"true"`
	BadgerDir  string `default:"data/drafts" split_words:"true"`

	NATSServer   string        `default:"localhost:4222" split_words:"true"`
	NATSDraftKV  string        `default:"openfuse-drafts" split_words:"true"`
	NATSDraftTTL time.Duration `default:"720h" split_words:"true"`

	SessionTTL           time.Duration `default:"1h" split_words:"true"`
	SessionSweepInterval time.Duration `default:"5m" split_words:"true"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("Service failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	var cfg config

	err := envconfig.Process("openfuse", &cfg)
	if err != nil {
		return fmt.Errorf("unable to parse config: %w", err)
	}

	return mainErr(&cfg)
}

func mainErr(cfg *config) error {
	var logOut io.Writer
	var logFile io.WriteCloser
	var err error

	switch cfg.LogFilePath {
	case "":
		logOut = os.Stdout
	default:
		fileflags := os.O_WRONLY | os.O_APPEND | os.O_CREATE
		logFile, err = os.OpenFile(
			path.Join(cfg.LogFilePath, time.Now().Format(time.RFC3339)+".log"),
			fileflags,
			os.FileMode(0o644),
		)
		if err != nil {
			return fmt.Errorf("unable to setup logfile %w", err)
		}
		defer logFile.Close()

		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	log := configureLogger(cfg, logOut)

	log.Info("starting console", slog.String("app", app), slog.String("commit", commit))

	drafts, cleanup, err := newDraftStore(cfg, log)
	if err != nil {
		return fmt.Errorf("draft store: %w", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	catalogURL := cfg.CatalogURL
	if catalogURL == "" {
		catalogURL = cfg.PipelineAPIURL
	}
	connectorCatalog := catalog.NewAccessor(catalogURL, http.DefaultClient, log)

	pipelineAPI, err := client.NewPipelineAPI(cfg.PipelineAPIURL, http.DefaultClient)
	if err != nil {
		return fmt.Errorf("pipeline API client: %w", err)
	}

	sessions := service.NewSessionManager(connectorCatalog, pipelineAPI, drafts, cfg.SessionTTL, log)

	handler := api.NewRouter(log, connectorCatalog, sessions)

	apiServer := server.NewHTTPServer(server.Config{
		Addr:         cfg.ServerAddr,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}, log, handler)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- apiServer.Start()
	}()

	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.SessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sessions.Sweep()
			case <-sweepDone:
				return
			}
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		close(sweepDone)
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-shutdown:
		log.Info("Received termination signal - service will shutdown")
		close(sweepDone)

		sessions.Shutdown()

		if err := apiServer.Shutdown(cfg.ServerShutdownTimeout); err != nil {
			log.Error("failed to shutdown server", slog.Any("error", err))
		}
	}

	return nil
}

// newDraftStore selects the draft persistence backend. Badger is the
// default for single-node deployments; NATS shares drafts across console
// replicas; memory is for local development only.
func newDraftStore(cfg *config, log *slog.Logger) (kv.Store, func(), error) {
	switch cfg.DraftStore {
	case "badger":
		store, err := kv.NewBadgerStore(cfg.BadgerDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open badger store: %w", err)
		}
		cleanup := func() {
			if err := store.Close(); err != nil {
				log.Error("failed to close badger store", slog.Any("error", err))
			}
		}
		return store, cleanup, nil

	case "nats":
		nc, err := nats.Connect(cfg.NATSServer)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to nats: %w", err)
		}
		js, err := jetstream.New(nc)
		if err != nil {
			nc.Close()
			return nil, nil, fmt.Errorf("jetstream context: %w", err)
		}
		store, err := kv.NewNATSStore(context.Background(), js, kv.NATSStoreConfig{
			Bucket: cfg.NATSDraftKV,
			TTL:    cfg.NATSDraftTTL,
		})
		if err != nil {
			nc.Close()
			return nil, nil, fmt.Errorf("nats draft store: %w", err)
		}
		return store, nc.Close, nil

	case "memory":
		return kv.NewMemoryStore(), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown draft store %q", cfg.DraftStore)
	}
}

func configureLogger(cfg *config, logOut io.Writer) *slog.Logger {
	//nolint: exhaustruct // optional config
	logOpts := &slog.HandlerOptions{
		Level:     cfg.LogLevel,
		AddSource: cfg.LogAddSource,
	}

	var logHandler slog.Handler
	switch cfg.LogFormat {
	case "json":
		logHandler = slog.NewJSONHandler(logOut, logOpts)
	default:
		//nolint:exhaustruct // optional config
		logHandler = tint.NewHandler(logOut, &tint.Options{
			AddSource:  true,
			TimeFormat: time.Kitchen,
		})
	}

	return slog.New(logHandler)
}
