package app

import (
	"errors"
	"fmt"
)

// PipelineConfig параметры конвейера распознавания, передаются явно в каждый сервис.
type PipelineConfig struct {
	MaxKeypoints                  int     // бюджет точек детектора
	RatioTestThreshold            float64 // порог Lowe: d1 < ratio * d2
	MinGoodMatches                int     // минимум соответствий после ratio test
	RansacReprojectionThresholdPx float64 // порог ошибки перепроекции RANSAC, пиксели
	MinInlierFraction             float64 // минимальная доля inliers среди соответствий
	FrameSkip                     int     // обрабатывается каждый N-й кадр
	LowKeypointWarning            int     // порог предупреждения о малом числе точек
}

// DefaultPipelineConfig возвращает значения по умолчанию.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MaxKeypoints:                  1000,
		RatioTestThreshold:            0.7,
		MinGoodMatches:                15,
		RansacReprojectionThresholdPx: 5,
		MinInlierFraction:             0.8,
		FrameSkip:                     2,
		LowKeypointWarning:            20,
	}
}

// Validate проверяет допустимость параметров.
func (c PipelineConfig) Validate() error {
	var errs []error
	if c.MaxKeypoints <= 0 {
		errs = append(errs, fmt.Errorf("max keypoints must be positive, got %d", c.MaxKeypoints))
	}
	if c.RatioTestThreshold <= 0 || c.RatioTestThreshold > 1 {
		errs = append(errs, fmt.Errorf("ratio test threshold must be in (0, 1], got %g", c.RatioTestThreshold))
	}
	if c.MinGoodMatches < 4 {
		errs = append(errs, fmt.Errorf("min good matches must be at least 4, got %d", c.MinGoodMatches))
	}
	if c.RansacReprojectionThresholdPx <= 0 {
		errs = append(errs, fmt.Errorf("ransac reprojection threshold must be positive, got %g", c.RansacReprojectionThresholdPx))
	}
	if c.MinInlierFraction < 0 || c.MinInlierFraction > 1 {
		errs = append(errs, fmt.Errorf("min inlier fraction must be in [0, 1], got %g", c.MinInlierFraction))
	}
	if c.FrameSkip < 1 {
		errs = append(errs, fmt.Errorf("frame skip must be at least 1, got %d", c.FrameSkip))
	}
	return errors.Join(errs...)
}
