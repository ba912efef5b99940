// Package imageio чтение эталонов и кадров с диска или по http и запись результатов.
package imageio

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // декодер WebP

	"planar-recognizer/internal/domain/port"
)

// Loader загружает изображения по пути или http(s) адресу.
type Loader struct {
	baseDir string
	client  *http.Client
}

// NewLoader создаёт загрузчик. Относительные пути считаются от baseDir.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		baseDir: baseDir,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Load декодирует изображение с учётом EXIF-ориентации.
func (l *Loader) Load(ctx context.Context, url string) (image.Image, error) {
	if isRemote(url) {
		return l.fetch(ctx, url)
	}
	img, err := imaging.Open(l.resolve(url), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", url, err)
	}
	return img, nil
}

func (l *Loader) fetch(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}
	img, err := imaging.Decode(resp.Body, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return img, nil
}

func (l *Loader) resolve(path string) string {
	if filepath.IsAbs(path) || l.baseDir == "" {
		return path
	}
	return filepath.Join(l.baseDir, path)
}

func isRemote(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// Проверка реализации интерфейса
var _ port.ReferenceLoader = (*Loader)(nil)
