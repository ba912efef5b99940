//go:build gocv

package vision

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"strconv"

	"gocv.io/x/gocv"

	"planar-recognizer/internal/domain/entity"
	"planar-recognizer/internal/domain/port"
)

// CaptureSource кадры с камеры или из видеофайла.
type CaptureSource struct {
	capture *gocv.VideoCapture
	frame   gocv.Mat
	index   uint64
}

// NewCaptureSource открывает камеру по номеру или видеофайл по пути.
func NewCaptureSource(device string, res Resolution) (*CaptureSource, error) {
	var target any = device
	if id, err := strconv.Atoi(device); err == nil {
		target = id
	}
	capture, err := gocv.OpenVideoCapture(target)
	if err != nil {
		return nil, fmt.Errorf("open capture %q: %w", device, err)
	}
	if _, isCamera := target.(int); isCamera {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(res.Width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(res.Height))
	}
	return &CaptureSource{capture: capture, frame: gocv.NewMat()}, nil
}

// Next читает следующий кадр. Конец видео или отключение камеры дают io.EOF.
func (s *CaptureSource) Next(ctx context.Context) (entity.Frame, error) {
	if err := ctx.Err(); err != nil {
		return entity.Frame{}, err
	}
	if ok := s.capture.Read(&s.frame); !ok || s.frame.Empty() {
		return entity.Frame{}, io.EOF
	}
	img, err := s.frame.ToImage()
	if err != nil {
		return entity.Frame{}, fmt.Errorf("frame to image: %w", err)
	}
	s.index++
	return entity.Frame{Index: s.index, Image: img}, nil
}

// Close освобождает устройство.
func (s *CaptureSource) Close() error {
	s.frame.Close()
	return s.capture.Close()
}

// WindowSink показывает кадры с контуром в окне OpenCV.
type WindowSink struct {
	window *gocv.Window
	stroke color.RGBA
	width  int
	onQuit func()
}

// NewWindowSink открывает окно. onQuit вызывается по клавише q или Esc.
func NewWindowSink(title string, stroke color.RGBA, width int, onQuit func()) (*WindowSink, error) {
	return &WindowSink{
		window: gocv.NewWindow(title),
		stroke: stroke,
		width:  max(width, 1),
		onQuit: onQuit,
	}, nil
}

func (s *WindowSink) Render(_ context.Context, frame entity.Frame, rec entity.Recognition) error {
	mat, err := gocv.ImageToMatRGB(frame.Image)
	if err != nil {
		return fmt.Errorf("image to mat: %w", err)
	}
	defer mat.Close()

	if rec.Matched() {
		for i := range rec.Outline {
			p, n := rec.Outline[i], rec.Outline[(i+1)%len(rec.Outline)]
			gocv.Line(&mat, toPoint(p), toPoint(n), s.stroke, s.width)
		}
	}
	gocv.PutText(&mat, rec.Status(), image.Pt(10, 30), gocv.FontHersheySimplex, 0.8, s.stroke, 2)

	s.window.IMShow(mat)
	if key := s.window.WaitKey(1); key == 'q' || key == 27 {
		if s.onQuit != nil {
			s.onQuit()
		}
	}
	return nil
}

// Close закрывает окно.
func (s *WindowSink) Close() error {
	return s.window.Close()
}

func toPoint(p entity.Point) image.Point {
	return image.Pt(int(p.X+0.5), int(p.Y+0.5))
}

var (
	_ port.FrameSource = (*CaptureSource)(nil)
	_ port.RenderSink  = (*WindowSink)(nil)
)
