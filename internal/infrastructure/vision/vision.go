// Package vision бэкенд на OpenCV (gocv): ORB, BFMatcher, FindHomography, камера и окно
// предпросмотра. Собирается с тегом gocv, без него компилируется заглушка.
package vision

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

// ErrNotEnabled возвращается конструкторами заглушки.
var ErrNotEnabled = errors.New("gocv build tag is not enabled")

// Resolution размер кадра камеры.
type Resolution struct {
	Width  int
	Height int
}

// Size возвращает размер как image.Point.
func (r Resolution) Size() image.Point {
	return image.Pt(r.Width, r.Height)
}

var resolutions = map[string]Resolution{
	"1080p": {Width: 1920, Height: 1080},
	"720p":  {Width: 1280, Height: 720},
	"480p":  {Width: 640, Height: 480},
	"360p":  {Width: 480, Height: 360},
	"240p":  {Width: 320, Height: 240},
}

// ParseResolution разбирает пресет вида "720p".
func ParseResolution(name string) (Resolution, error) {
	r, ok := resolutions[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Resolution{}, fmt.Errorf("unknown camera resolution %q", name)
	}
	return r, nil
}
