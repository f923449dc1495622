package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittodrive/internal/logger"
	httpAdapter "github.com/marmos91/dittodrive/pkg/adapter/http"
	"github.com/marmos91/dittodrive/pkg/config"
	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/gc"
	"github.com/marmos91/dittodrive/pkg/metrics"
	"github.com/marmos91/dittodrive/pkg/thumbnail"
)

func serveCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the DittoDrive server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		fmt.Sprintf("config file (default %s)", config.GetDefaultConfigPath()))

	return cmd
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.SetLevel(cfg.Logging.Level)
	logger.SetFormat(cfg.Logging.Format)

	logger.Info("Starting DittoDrive %s", version)

	// Stores come up in dependency order and are torn down in reverse on
	// exit.
	metadataStore, err := config.CreateMetadataStore(ctx, &cfg.Metadata)
	if err != nil {
		return fmt.Errorf("failed to create metadata store: %w", err)
	}
	defer closeQuietly("metadata store", metadataStore.Close)

	contentStore, err := config.CreateContentStore(ctx, &cfg.Content)
	if err != nil {
		return fmt.Errorf("failed to create content store: %w", err)
	}
	defer closeQuietly("content store", contentStore.Close)

	sessionStore, err := config.CreateSessionStore(ctx, &cfg.Sessions)
	if err != nil {
		return fmt.Errorf("failed to create session store: %w", err)
	}
	defer closeQuietly("session store", sessionStore.Close)

	jobs, err := config.CreateQueue(ctx, &cfg.Queue)
	if err != nil {
		return fmt.Errorf("failed to create queue: %w", err)
	}
	if jobs != nil {
		defer closeQuietly("queue", jobs.Close)
	}

	prom := metrics.NewPrometheusMetrics()
	service := drive.NewService(metadataStore, contentStore, jobs, prom)

	if jobs != nil {
		pool := thumbnail.NewWorkerPool(jobs, metadataStore, contentStore, prom, thumbnail.Config{
			Workers:    cfg.Thumbnails.Workers,
			JobTimeout: cfg.Thumbnails.JobTimeout,
		})
		pool.Start()

		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := pool.Stop(stopCtx); err != nil {
				logger.Warn("Thumbnail workers did not stop cleanly: %v", err)
			}
		}()
	}

	if cfg.GC.Enabled {
		sweeper, err := gc.NewSweeper(metadataStore, contentStore, gc.Config{
			Enabled:  true,
			Interval: cfg.GC.Interval,
			DryRun:   cfg.GC.DryRun,
		})
		if err != nil {
			return fmt.Errorf("failed to create orphan sweeper: %w", err)
		}
		sweeper.Start()

		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := sweeper.Stop(stopCtx); err != nil {
				logger.Warn("Orphan sweeper did not stop cleanly: %v", err)
			}
		}()
	}

	adapter := httpAdapter.New(httpAdapter.HTTPConfig{
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		RateLimit:       cfg.Server.RateLimit,
		RateBurst:       cfg.Server.RateBurst,
	}, service, sessionStore, jobs)

	return adapter.Serve(ctx)
}

func closeQuietly(name string, close func() error) {
	if err := close(); err != nil {
		logger.Warn("Failed to close %s: %v", name, err)
	}
}
