// Package metrics метрики конвейера распознавания в формате Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"planar-recognizer/internal/domain/entity"
	"planar-recognizer/internal/domain/port"
)

const (
	OutcomeSkipped   = "skipped"
	OutcomeMatched   = "matched"
	OutcomeNoMatch   = "no_match"
	OutcomeNoFeature = "no_keypoints"
)

// Recorder реализует port.PipelineObserver поверх собственного реестра.
type Recorder struct {
	registry       *prometheus.Registry
	frames         *prometheus.CounterVec
	frameSeconds   prometheus.Histogram
	rejections     *prometheus.CounterVec
	matches        *prometheus.CounterVec
	catalogEntries prometheus.Gauge
}

// NewRecorder регистрирует метрики конвейера и стандартные метрики процесса.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recognizer_frames_total",
			Help: "Frames seen by the pipeline by outcome",
		}, []string{"outcome"}),
		frameSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "recognizer_frame_seconds",
			Help:    "Processing time of one frame",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recognizer_rejections_total",
			Help: "References rejected during verification",
		}, []string{"reference", "reason"}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recognizer_matches_total",
			Help: "Frames where the reference won selection",
		}, []string{"reference"}),
		catalogEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "recognizer_catalog_entries",
			Help: "References loaded into the catalog",
		}),
	}

	r.registry.MustRegister(
		r.frames,
		r.frameSeconds,
		r.rejections,
		r.matches,
		r.catalogEntries,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Handler отдаёт метрики для /metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// SetCatalogSize фиксирует размер каталога после построения.
func (r *Recorder) SetCatalogSize(n int) {
	r.catalogEntries.Set(float64(n))
}

func (r *Recorder) FrameSkipped() {
	r.frames.WithLabelValues(OutcomeSkipped).Inc()
}

func (r *Recorder) FrameProcessed(rec entity.Recognition, seconds float64) {
	r.frameSeconds.Observe(seconds)
	switch {
	case rec.Matched():
		r.frames.WithLabelValues(OutcomeMatched).Inc()
		r.matches.WithLabelValues(rec.Candidate.Reference.Name).Inc()
	case rec.QueryKeypoints == 0:
		r.frames.WithLabelValues(OutcomeNoFeature).Inc()
	default:
		r.frames.WithLabelValues(OutcomeNoMatch).Inc()
	}
}

func (r *Recorder) ReferenceRejected(reference string, reason entity.Rejection) {
	r.rejections.WithLabelValues(reference, string(reason)).Inc()
}

// Проверка реализации интерфейса
var _ port.PipelineObserver = (*Recorder)(nil)
