package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"planar-recognizer/internal/domain/entity"
	"planar-recognizer/internal/infrastructure/storage"
)

func TestSessionService_BeginCheckAndCancel(t *testing.T) {
	repo := storage.NewMemorySessionRepository()
	svc := NewSessionService(repo)
	ctx := context.Background()

	session, err := svc.BeginCheck(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingPhoto, session.State)

	stored, err := svc.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingPhoto, stored.State)

	session, err = svc.Cancel(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, session.State)

	stored, err = svc.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, stored.State)
}

func TestSessionService_SetStateKeepsFrameCounter(t *testing.T) {
	repo := storage.NewMemorySessionRepository()
	svc := NewSessionService(repo)
	ctx := context.Background()

	_, err := svc.AcceptFrame(ctx, 3, 30)
	require.NoError(t, err)

	session, err := svc.SetState(ctx, 3, 30, entity.StateAwaitingPhoto)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingPhoto, session.State)
	require.Equal(t, uint64(1), session.Frames)

	stored, err := svc.Get(ctx, 3, 30)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingPhoto, stored.State)
	require.Equal(t, uint64(1), stored.Frames)
	require.Equal(t, 1, repo.Len())
}

func TestSessionService_AcceptFrameCountsFrames(t *testing.T) {
	repo := storage.NewMemorySessionRepository()
	svc := NewSessionService(repo)
	ctx := context.Background()

	first, err := svc.AcceptFrame(ctx, 2, 20)
	require.NoError(t, err)
	second, err := svc.AcceptFrame(ctx, 2, 20)
	require.NoError(t, err)
	require.Equal(t, uint64(1), first)
	require.Equal(t, uint64(2), second)

	session, err := svc.Get(ctx, 2, 20)
	require.NoError(t, err)
	require.Equal(t, entity.StateProcessing, session.State)
	require.Equal(t, uint64(2), session.Frames)
}
