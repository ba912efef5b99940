package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	ModeStream   = "stream"
	ModeTelegram = "telegram"

	BackendNative = "native"
	BackendGoCV   = "gocv"
)

type Config struct {
	RunMode       string
	VisionBackend string
	CatalogPath   string
	FrameSource   string
	CameraPreset  string
	OutputDir     string
	PreviewWindow bool
	TelegramToken string
	MetricsAddr   string
	LogLevel      slog.Level
	LogFormat     string
	OverlayColor  string
	OverlayWidth  float64

	MaxKeypoints                  int
	RatioTestThreshold            float64
	MinGoodMatches                int
	RansacReprojectionThresholdPx float64
	MinInlierFraction             float64
	FrameSkip                     int
	RansacMaxIters                int
	RansacConfidence              float64
	RansacSeed                    uint64
	LowKeypointWarning            int
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	p := &parser{}
	cfg := &Config{
		RunMode:       p.str("RUN_MODE", ModeStream),
		VisionBackend: p.str("VISION_BACKEND", BackendNative),
		CatalogPath:   p.str("CATALOG_PATH", "references/references.json"),
		FrameSource:   p.str("FRAME_SOURCE", ""),
		CameraPreset:  p.str("CAMERA_RESOLUTION", "720p"),
		OutputDir:     p.str("OUTPUT_DIR", ""),
		PreviewWindow: p.boolean("PREVIEW_WINDOW", false),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		MetricsAddr:   p.str("METRICS_ADDR", ""),
		LogLevel:      p.level("LOG_LEVEL", slog.LevelInfo),
		LogFormat:     p.str("LOG_FORMAT", "text"),
		OverlayColor:  p.str("OVERLAY_COLOR", "#00ff00"),
		OverlayWidth:  p.float("OVERLAY_WIDTH", 4),

		MaxKeypoints:                  p.integer("MAX_KEYPOINTS", 1000),
		RatioTestThreshold:            p.float("RATIO_TEST_THRESHOLD", 0.7),
		MinGoodMatches:                p.integer("MIN_GOOD_MATCHES", 15),
		RansacReprojectionThresholdPx: p.float("RANSAC_REPROJECTION_THRESHOLD_PX", 5),
		MinInlierFraction:             p.float("MIN_INLIER_FRACTION", 0.8),
		FrameSkip:                     p.integer("FRAME_SKIP", 2),
		RansacMaxIters:                p.integer("RANSAC_MAX_ITERS", 2000),
		RansacConfidence:              p.float("RANSAC_CONFIDENCE", 0.995),
		RansacSeed:                    p.uint("RANSAC_SEED", 1),
		LowKeypointWarning:            p.integer("LOW_KEYPOINT_WARNING", 20),
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	switch c.RunMode {
	case ModeStream:
		if c.FrameSource == "" {
			errs = append(errs, errors.New("FRAME_SOURCE is required in stream mode"))
		}
	case ModeTelegram:
		if c.TelegramToken == "" {
			errs = append(errs, errors.New("TELEGRAM_TOKEN is required in telegram mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("RUN_MODE: unknown mode %q", c.RunMode))
	}
	if c.VisionBackend != BackendNative && c.VisionBackend != BackendGoCV {
		errs = append(errs, fmt.Errorf("VISION_BACKEND: unknown backend %q", c.VisionBackend))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT: unknown format %q", c.LogFormat))
	}
	if c.CatalogPath == "" {
		errs = append(errs, errors.New("CATALOG_PATH is empty"))
	}
	return errors.Join(errs...)
}

// parser собирает ошибки разбора всех переменных
type parser struct {
	errs []error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) uint(key string, def uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (p *parser) boolean(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (p *parser) level(key string, def slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return l
}
