package imageio

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/disintegration/imaging"

	"planar-recognizer/internal/domain/entity"
	"planar-recognizer/internal/domain/port"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// DirectorySource отдаёт изображения каталога как кадры в порядке имён файлов.
type DirectorySource struct {
	files []string
	pos   int
	index uint64
}

// NewDirectorySource собирает список изображений каталога dir.
func NewDirectorySource(dir string) (*DirectorySource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame directory: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !IsImageFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	slices.Sort(files)

	return &DirectorySource{files: files}, nil
}

// Len возвращает количество кадров.
func (s *DirectorySource) Len() int {
	return len(s.files)
}

// Next декодирует следующий файл. Номера кадров начинаются с 1.
func (s *DirectorySource) Next(ctx context.Context) (entity.Frame, error) {
	if err := ctx.Err(); err != nil {
		return entity.Frame{}, err
	}
	if s.pos >= len(s.files) {
		return entity.Frame{}, io.EOF
	}
	path := s.files[s.pos]
	s.pos++
	s.index++

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return entity.Frame{}, fmt.Errorf("open frame %s: %w", path, err)
	}
	return entity.Frame{Index: s.index, Image: img}, nil
}

// IsImageFile проверяет расширение файла.
func IsImageFile(name string) bool {
	return slices.Contains(imageExtensions, strings.ToLower(filepath.Ext(name)))
}

// Проверка реализации интерфейса
var _ port.FrameSource = (*DirectorySource)(nil)
