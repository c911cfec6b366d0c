package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/jiaofangliang/datahub/internal/compliance"
	"github.com/jiaofangliang/datahub/internal/config"
	"github.com/jiaofangliang/datahub/internal/events"
	"github.com/jiaofangliang/datahub/internal/server"
	"github.com/jiaofangliang/datahub/internal/store"
	"github.com/jiaofangliang/datahub/internal/store/postgres"
	dhsync "github.com/jiaofangliang/datahub/internal/sync"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

var serveCmd = &cobra.Command{
	Use:               "serve",
	Short:             "Start the compliance metadata server (HTTP + gRPC)",
	GroupID:           "system",
	Args:              cobra.NoArgs,
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		slog.SetDefault(logger)

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		tables, err := loadTables(cfg.RegistryFile)
		if err != nil {
			return err
		}
		logger.Info("compliance tables loaded",
			"registry", registryName(cfg.RegistryFile),
			"logical_types", len(tables.DefaultFieldDataTypeClassification()),
			"classifications", len(tables.SeverityOrder()),
		)

		st, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer func() {
			if err := st.Close(); err != nil {
				logger.Error("error closing store", "err", err)
			}
		}()

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (DHC_NATS_URL not set)")
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("error closing publisher", "err", err)
			}
		}()

		datasetServer := server.NewDatasetServer(st, publisher, tables)

		var interceptors []grpc.UnaryServerInterceptor
		if cfg.AuthToken != "" {
			interceptors = append(interceptors, server.AuthInterceptor(cfg.AuthToken))
			logger.Info("bearer token authentication enabled")
		}
		grpcServer := server.NewGRPCServer(datasetServer, interceptors...)

		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}
		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "err", err)
			}
		}()

		// No write timeout: /v1/events/stream holds responses open.
		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           datasetServer.NewHTTPHandler(cfg.AuthToken),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		scheduler, err := startSync(cmd.Context(), cfg, st, tables, logger)
		if err != nil {
			logger.Error("sync disabled", "err", err)
		}

		logger.Info("datahub compliance server started", "grpc_addr", cfg.GRPCAddr, "http_addr", cfg.HTTPAddr)

		<-cmd.Context().Done()
		logger.Info("shutting down")

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("sync scheduler stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")
		return nil
	},
}

// loadTables builds the compliance tables from path, or returns the embedded
// registry when path is empty. A defective registry aborts startup.
func loadTables(path string) (*compliance.Tables, error) {
	if path == "" {
		return compliance.Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	defer f.Close()
	tables, err := compliance.Load(f)
	if err != nil {
		return nil, fmt.Errorf("registry %s: %w", path, err)
	}
	return tables, nil
}

func registryName(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

// syncDestinations returns the export destinations enabled in cfg.
func syncDestinations(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]dhsync.Destination, error) {
	var dests []dhsync.Destination
	if cfg.SyncS3Bucket != "" {
		d, err := dhsync.NewS3Destination(ctx, cfg.SyncS3Bucket, cfg.SyncS3Key, cfg.SyncS3Region, cfg.SyncS3Endpoint)
		if err != nil {
			return nil, err
		}
		dests = append(dests, d)
		logger.Info("sync destination enabled", "destination", d.String())
	}
	if cfg.SyncGitRepo != "" {
		d := dhsync.NewGitDestination(cfg.SyncGitRepo, cfg.SyncGitFile, cfg.SyncGitBranch)
		dests = append(dests, d)
		logger.Info("sync destination enabled", "destination", d.String())
	}
	return dests, nil
}

// startSync starts the periodic export when an interval and at least one
// destination are configured. It returns a nil scheduler otherwise.
func startSync(ctx context.Context, cfg *config.Config, st store.Store, tables *compliance.Tables, logger *slog.Logger) (*dhsync.Scheduler, error) {
	if cfg.SyncInterval <= 0 {
		return nil, nil
	}
	dests, err := syncDestinations(ctx, cfg, logger)
	if err != nil || len(dests) == 0 {
		return nil, err
	}
	sched := dhsync.NewScheduler(st, dests, cfg.SyncInterval, tables.SeverityOrder(), logger)
	sched.Start()
	logger.Info("sync scheduler started", "interval", cfg.SyncInterval)
	return sched, nil
}
