package imageio

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"planar-recognizer/internal/domain/entity"
	"planar-recognizer/internal/domain/port"
)

const jpegQuality = 90

// EncodeJPEG кодирует изображение в JPEG.
func EncodeJPEG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality))
}

// LogSink пишет статус каждого обработанного кадра в лог.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Render(_ context.Context, frame entity.Frame, rec entity.Recognition) error {
	attrs := []any{"frame", frame.Index, "status", rec.Status(), "keypoints", rec.QueryKeypoints}
	if rec.Matched() {
		attrs = append(attrs, "reference", rec.Candidate.Reference.Name, "inliers", rec.Candidate.InlierCount)
	}
	s.logger.Info("frame processed", attrs...)
	return nil
}

// JPEGSink сохраняет размеченные кадры в каталог.
type JPEGSink struct {
	dir     string
	overlay *Overlay
}

// NewJPEGSink создаёт каталог dir, если его нет.
func NewJPEGSink(dir string, overlay *Overlay) (*JPEGSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &JPEGSink{dir: dir, overlay: overlay}, nil
}

// Path возвращает имя файла для кадра.
func (s *JPEGSink) Path(index uint64) string {
	return filepath.Join(s.dir, fmt.Sprintf("frame-%06d.jpg", index))
}

func (s *JPEGSink) Render(_ context.Context, frame entity.Frame, rec entity.Recognition) error {
	out := s.overlay.Draw(frame.Image, rec)
	if err := imaging.Save(out, s.Path(frame.Index), imaging.JPEGQuality(jpegQuality)); err != nil {
		return fmt.Errorf("save frame %d: %w", frame.Index, err)
	}
	return nil
}

// MultiSink передаёт результат всем приёмникам по очереди.
type MultiSink []port.RenderSink

func (m MultiSink) Render(ctx context.Context, frame entity.Frame, rec entity.Recognition) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Render(ctx, frame, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ port.RenderSink = (*LogSink)(nil)
	_ port.RenderSink = (*JPEGSink)(nil)
	_ port.RenderSink = MultiSink(nil)
)
