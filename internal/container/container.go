package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"planar-recognizer/config"
	app "planar-recognizer/internal/application"
	"planar-recognizer/internal/domain/port"
	"planar-recognizer/internal/infrastructure/features"
	"planar-recognizer/internal/infrastructure/geometry"
	"planar-recognizer/internal/infrastructure/imageio"
	"planar-recognizer/internal/infrastructure/metrics"
	"planar-recognizer/internal/infrastructure/storage"
	"planar-recognizer/internal/infrastructure/vision"
)

type Container struct {
	Config         *config.Config
	Logger         *slog.Logger
	Metrics        *metrics.Recorder
	Overlay        *imageio.Overlay
	SessionService *app.SessionService
	Recognition    *app.RecognitionService

	closers []io.Closer
}

// New собирает бэкенд зрения, строит каталог и сервисы приложения.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	pipeline := PipelineConfig(cfg)
	if err := pipeline.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline config: %w", err)
	}
	overlay, err := imageio.NewOverlay(cfg.OverlayColor, cfg.OverlayWidth)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:         cfg,
		Logger:         logger,
		Metrics:        metrics.NewRecorder(),
		Overlay:        overlay,
		SessionService: app.NewSessionService(storage.NewMemorySessionRepository()),
	}

	b, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, b.closers...)

	sources, err := imageio.LoadManifest(cfg.CatalogPath)
	if err != nil {
		c.Close()
		return nil, err
	}
	loader := imageio.NewLoader(filepath.Dir(cfg.CatalogPath))
	catalog, err := app.NewCatalogBuilder(loader, b.extractor, pipeline, logger.With("component", "catalog")).
		Build(ctx, sources)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	c.Metrics.SetCatalogSize(catalog.Len())
	logger.Info("catalog ready", "references", catalog.Len(), "backend", cfg.VisionBackend)

	c.Recognition = app.NewRecognitionService(pipeline, catalog, b.extractor, b.matcher, b.estimator,
		c.Metrics, logger.With("component", "recognition"))
	return c, nil
}

// PipelineConfig переносит настройки конвейера из конфигурации.
func PipelineConfig(cfg *config.Config) app.PipelineConfig {
	return app.PipelineConfig{
		MaxKeypoints:                  cfg.MaxKeypoints,
		RatioTestThreshold:            cfg.RatioTestThreshold,
		MinGoodMatches:                cfg.MinGoodMatches,
		RansacReprojectionThresholdPx: cfg.RansacReprojectionThresholdPx,
		MinInlierFraction:             cfg.MinInlierFraction,
		FrameSkip:                     cfg.FrameSkip,
		LowKeypointWarning:            cfg.LowKeypointWarning,
	}
}

// StreamService собирает источник кадров и приёмники для потокового режима.
// stop вызывается, когда пользователь закрывает окно предпросмотра.
func (c *Container) StreamService(stop func()) (*app.StreamService, error) {
	source, err := c.frameSource()
	if err != nil {
		return nil, err
	}

	sinks := imageio.MultiSink{imageio.NewLogSink(c.Logger.With("component", "stream"))}
	if c.Config.OutputDir != "" {
		jpeg, err := imageio.NewJPEGSink(c.Config.OutputDir, c.Overlay)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, jpeg)
	}
	if c.Config.PreviewWindow {
		window, err := vision.NewWindowSink("planar-recognizer", c.Overlay.Color(), int(c.Config.OverlayWidth), stop)
		if err != nil {
			return nil, fmt.Errorf("preview window: %w", err)
		}
		c.closers = append(c.closers, window)
		sinks = append(sinks, window)
	}

	return app.NewStreamService(c.Recognition, source, sinks, c.Logger.With("component", "stream")), nil
}

func (c *Container) frameSource() (port.FrameSource, error) {
	src := c.Config.FrameSource
	if info, err := os.Stat(src); err == nil && info.IsDir() {
		return imageio.NewDirectorySource(src)
	}

	res, err := vision.ParseResolution(c.Config.CameraPreset)
	if err != nil {
		return nil, err
	}
	capture, err := vision.NewCaptureSource(src, res)
	if err != nil {
		return nil, fmt.Errorf("frame source %q: %w", src, err)
	}
	c.closers = append(c.closers, capture)
	return capture, nil
}

// Close освобождает ресурсы OpenCV.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

type backend struct {
	extractor port.FeatureExtractor
	matcher   port.DescriptorMatcher
	estimator port.HomographyEstimator
	closers   []io.Closer
}

func newBackend(cfg *config.Config) (backend, error) {
	switch cfg.VisionBackend {
	case config.BackendNative:
		return backend{
			extractor: features.NewORBExtractor(features.DefaultORBConfig(cfg.MaxKeypoints)),
			matcher:   features.NewBruteForceMatcher(),
			estimator: geometry.NewEstimator(cfg.RansacMaxIters, cfg.RansacConfidence, cfg.RansacSeed),
		}, nil

	case config.BackendGoCV:
		extractor, err := vision.NewORBExtractor(cfg.MaxKeypoints)
		if err != nil {
			return backend{}, fmt.Errorf("gocv backend: %w", err)
		}
		matcher, err := vision.NewMatcher()
		if err != nil {
			extractor.Close()
			return backend{}, fmt.Errorf("gocv backend: %w", err)
		}
		estimator, err := vision.NewHomographyEstimator(cfg.RansacMaxIters, cfg.RansacConfidence, cfg.RansacSeed)
		if err != nil {
			extractor.Close()
			matcher.Close()
			return backend{}, fmt.Errorf("gocv backend: %w", err)
		}
		return backend{
			extractor: extractor,
			matcher:   matcher,
			estimator: estimator,
			closers:   []io.Closer{extractor, matcher},
		}, nil

	default:
		return backend{}, fmt.Errorf("unknown vision backend %q", cfg.VisionBackend)
	}
}
