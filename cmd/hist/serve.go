package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alfredjeanlab/history/internal/config"
	"github.com/alfredjeanlab/history/internal/events"
	"github.com/alfredjeanlab/history/internal/gate"
	"github.com/alfredjeanlab/history/internal/globe"
	"github.com/alfredjeanlab/history/internal/quota"
	"github.com/alfredjeanlab/history/internal/resolver"
	"github.com/alfredjeanlab/history/internal/server"
	"github.com/alfredjeanlab/history/internal/store"
	"github.com/alfredjeanlab/history/internal/store/postgres"
	histsync "github.com/alfredjeanlab/history/internal/sync"
	"github.com/alfredjeanlab/history/internal/views"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the history HTTP and gRPC servers",
	GroupID: "system",
	// Override PersistentPreRunE so we don't create a client.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		level, _ := config.ParseLogLevel(cfg.LogLevel)
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		st, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				st.Close()
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = events.NoopPublisher{}
			logger.Info("events disabled (HISTORY_NATS_URL not set)")
		}

		quotaGate, err := newQuotaGate(cfg, st, logger)
		if err != nil {
			publisher.Close()
			st.Close()
			return err
		}

		res, closeLookup, err := newResolver(cfg, st, logger)
		if err != nil {
			publisher.Close()
			st.Close()
			return err
		}

		historyServer := server.NewHistoryServer(server.Deps{
			Store:           st,
			Publisher:       publisher,
			Quota:           quotaGate,
			Resolver:        res,
			Random:          globe.NewCatalog(0),
			Logger:          logger,
			DeepLinkParam:   cfg.DeepLinkParam,
			NotificationTTL: cfg.NotificationTTL,
		})
		historyServer.Views().StartReaper(views.ReaperConfig{
			IdleTimeout: cfg.ViewIdleTimeout,
			OnReap: func(id string) {
				logger.Debug("view reaped", "view", id)
			},
		})

		grpcServer := server.NewGRPCServer(historyServer, cfg.AuthToken)
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			historyServer.Views().Stop()
			closeLookup.Close()
			publisher.Close()
			st.Close()
			return err
		}
		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "err", err)
			}
		}()

		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: historyServer.NewHTTPHandler(cfg.AuthToken),
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		scheduler := newExportScheduler(cfg, st, logger)
		if scheduler != nil {
			scheduler.Start()
			logger.Info("export scheduler started", "interval", cfg.ExportInterval)
		}

		logger.Info("history server started",
			"grpc_addr", cfg.GRPCAddr,
			"http_addr", cfg.HTTPAddr,
			"resolver", cfg.ResolverTransport,
			"quota_limit", cfg.QuotaLimit,
			"quota_window", cfg.QuotaWindow,
		)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("export scheduler stopped")
		}

		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		historyServer.Views().Stop()
		historyServer.Views().CloseAll()
		logger.Info("views closed")

		if err := closeLookup.Close(); err != nil {
			logger.Error("error closing resolver", "err", err)
		}
		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

// newQuotaGate counts research sessions per actor in fixed windows stored
// in Postgres.
func newQuotaGate(cfg *config.Config, st store.Store, logger *slog.Logger) (*quota.Gate, error) {
	counter, err := quota.NewWindowCounter(st, cfg.QuotaLimit, cfg.QuotaWindow, nil)
	if err != nil {
		return nil, err
	}
	return quota.NewGate(counter,
		quota.WithLogger(logger),
		quota.WithTimeout(cfg.QuotaTimeout),
		quota.WithMaxStaleness(cfg.QuotaMaxStaleness),
	), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newResolver builds the session resolver for the configured transport. The
// returned closer releases any connection the lookup holds.
func newResolver(cfg *config.Config, st store.Store, logger *slog.Logger) (gate.Resolver, io.Closer, error) {
	var (
		lookup resolver.Lookup
		closer io.Closer = nopCloser{}
	)
	switch cfg.ResolverTransport {
	case config.ResolverStore:
		lookup = resolver.StoreLookup(st)
	case config.ResolverHTTP:
		lookup = resolver.NewHTTPLookup(cfg.ResolverURL, cfg.ResolverToken)
	case config.ResolverGRPC:
		l, err := resolver.NewGRPCLookup(cfg.ResolverURL, cfg.ResolverToken)
		if err != nil {
			return nil, nil, err
		}
		lookup, closer = l, l
	default:
		return nil, nil, fmt.Errorf("unknown resolver transport %q", cfg.ResolverTransport)
	}
	logger.Info("session resolver", "transport", cfg.ResolverTransport, "url", cfg.ResolverURL)
	return resolver.New(lookup, cfg.ResolverTimeout, logger), closer, nil
}

// newExportScheduler returns nil when export is disabled or no destination
// could be created.
func newExportScheduler(cfg *config.Config, st store.Store, logger *slog.Logger) *histsync.Scheduler {
	if cfg.ExportInterval <= 0 || cfg.ExportS3Bucket == "" {
		return nil
	}
	dest, err := histsync.NewS3Destination(
		context.Background(),
		cfg.ExportS3Bucket,
		cfg.ExportS3Key,
		cfg.ExportS3Region,
		cfg.ExportS3Endpoint,
	)
	if err != nil {
		logger.Error("failed to create S3 export destination", "err", err)
		return nil
	}
	logger.Info("export S3 destination enabled", "location", dest.Location())
	return histsync.NewScheduler(st, []histsync.Destination{dest}, cfg.ExportInterval, logger)
}
