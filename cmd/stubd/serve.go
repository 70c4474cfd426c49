package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stubd/stubd/internal/registry"
	"github.com/stubd/stubd/pkg/admin"
	"github.com/stubd/stubd/pkg/config"
	"github.com/stubd/stubd/pkg/engine"
	"github.com/stubd/stubd/pkg/logging"
	"github.com/stubd/stubd/pkg/store/file"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
		dataDir    string
		seedFile   string
		logLevel   string
		logFormat  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			// Flags override the config file.
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if dataDir != "" {
				cfg.DataDir = dataDir
			}
			if seedFile != "" {
				cfg.SeedFile = seedFile
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if logFormat != "" {
				cfg.Log.Format = logFormat
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "listen port")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "data directory")
	cmd.Flags().StringVar(&seedFile, "seed", "", "endpoints file loaded into an empty registry")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	return cmd
}

func runServe(cfg *config.Config) error {
	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: logging.ParseFormat(cfg.Log.Format),
	})

	fs, err := file.New(file.Config{DataDir: cfg.DataDir, Logger: log})
	if err != nil {
		return err
	}
	defer fs.Close()

	ctx := context.Background()
	if cfg.SeedFile != "" {
		if err := seedRegistry(ctx, fs, cfg.SeedFile, log); err != nil {
			return err
		}
	}

	reg, err := registry.New(fs.Endpoints(), log)
	if err != nil {
		return err
	}
	defer reg.Close()
	fs.Subscribe(reg.Listener())
	if cfg.WatchRegistry {
		if err := reg.Watch(fs.Path(), fs.Reload); err != nil {
			log.Warn("registry watch unavailable", "error", err)
		}
	}

	handler := engine.NewHandler(reg, fs.Assets())
	handler.SetLogger(log)

	adminAPI := admin.New(admin.Config{
		Endpoints: fs.Endpoints(),
		Assets:    fs.Assets(),
		APIKey:    cfg.APIKey,
		Version:   version,
		Logger:    log,
	})

	srv := engine.NewServer(engine.ServerConfig{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
		Admin:   adminAPI.Routes(),
		Logger:  log,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// seedRegistry loads an endpoints file into an empty registry. A
// populated registry is left untouched so restarts do not duplicate
// declarations.
func seedRegistry(ctx context.Context, fs *file.FileStore, path string, log *slog.Logger) error {
	existing, err := fs.Endpoints().List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	endpoints, err := config.LoadEndpointsFile(path)
	if err != nil {
		return err
	}
	for _, e := range endpoints {
		if err := fs.Endpoints().Create(ctx, e); err != nil {
			return err
		}
	}
	log.Info("registry seeded", "file", path, "endpoints", len(endpoints))
	return nil
}
