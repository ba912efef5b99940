package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"planar-recognizer/internal/domain/entity"
	"planar-recognizer/internal/domain/port"
)

// FrameRecognizer распознаёт кадр с учётом пропуска кадров.
type FrameRecognizer interface {
	ProcessFrame(ctx context.Context, frame entity.Frame) (entity.Recognition, bool, error)
}

// StreamService тянет кадры из источника и отдаёт результаты приёмнику.
type StreamService struct {
	recognizer FrameRecognizer
	source     port.FrameSource
	sink       port.RenderSink
	logger     *slog.Logger
}

// NewStreamService создаёт цикл обработки потока.
func NewStreamService(recognizer FrameRecognizer, source port.FrameSource, sink port.RenderSink, logger *slog.Logger) *StreamService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &StreamService{recognizer: recognizer, source: source, sink: sink, logger: logger}
}

// Run обрабатывает кадры до конца потока или отмены контекста.
// Ошибки отдельного кадра логируются и не останавливают цикл.
func (s *StreamService) Run(ctx context.Context) error {
	var processed, matched uint64
	for {
		frame, err := s.source.Next(ctx)
		if errors.Is(err, io.EOF) {
			s.logger.Info("stream finished", "processed", processed, "matched", matched)
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("next frame: %w", err)
		}

		rec, ok, err := s.recognizer.ProcessFrame(ctx, frame)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("frame recognition failed", "frame", frame.Index, "error", err)
			continue
		}
		if !ok {
			continue
		}
		processed++
		if rec.Matched() {
			matched++
		}
		if err := s.sink.Render(ctx, frame, rec); err != nil {
			s.logger.Warn("frame render failed", "frame", frame.Index, "error", err)
		}
	}
}
