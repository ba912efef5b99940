package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"planar-recognizer/config"
	telegram "planar-recognizer/internal/api"
	"planar-recognizer/internal/container"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Собираем каталог и сервисы приложения
	appContainer, err := container.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer appContainer.Close()

	g, ctx := errgroup.WithContext(ctx)

	switch cfg.RunMode {
	case config.ModeTelegram:
		bot, err := telegram.NewBot(cfg.TelegramToken, appContainer.SessionService,
			appContainer.Recognition, appContainer.Overlay, logger.With("component", "telegram"))
		if err != nil {
			return err
		}
		logger.Info("bot is running")
		g.Go(func() error {
			defer stop()
			return bot.Run(ctx)
		})

	default:
		stream, err := appContainer.StreamService(stop)
		if err != nil {
			return err
		}
		logger.Info("stream is running", "source", cfg.FrameSource)
		g.Go(func() error {
			defer stop()
			return stream.Run(ctx)
		})
	}

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsMux(appContainer),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("metrics server listening", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func metricsMux(c *container.Container) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
