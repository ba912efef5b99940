//go:build !gocv

package container

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"planar-recognizer/config"
	"planar-recognizer/internal/infrastructure/vision"
)

func TestNew_GoCVBackendDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.VisionBackend = config.BackendGoCV

	_, err := New(context.Background(), cfg, slog.New(slog.DiscardHandler))
	require.ErrorIs(t, err, vision.ErrNotEnabled)
}

func TestStreamService_CameraNeedsGoCV(t *testing.T) {
	cfg := testConfig(t)
	c, err := New(context.Background(), cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer c.Close()

	c.Config.FrameSource = "0"
	_, err = c.StreamService(func() {})
	require.ErrorIs(t, err, vision.ErrNotEnabled)
}
