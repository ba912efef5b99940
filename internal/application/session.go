package app

import (
	"context"

	"planar-recognizer/internal/domain/entity"
	"planar-recognizer/internal/domain/port"
)

// SessionService ведёт состояния сессий пользователей бота.
type SessionService struct {
	repo port.SessionRepository
}

// NewSessionService создаёт сервис поверх хранилища сессий.
func NewSessionService(repo port.SessionRepository) *SessionService {
	return &SessionService{repo: repo}
}

// Get возвращает сессию пользователя, создавая её при первом обращении.
func (s *SessionService) Get(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	return s.repo.Get(ctx, userID, chatID)
}

// SetState переводит сессию пользователя в состояние state.
func (s *SessionService) SetState(ctx context.Context, userID, chatID int64, state entity.SessionState) (*entity.Session, error) {
	session, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateState(ctx, userID, state); err != nil {
		return nil, err
	}
	session.SetState(state)

	return session, nil
}

// BeginCheck переводит сессию в ожидание фотографии.
func (s *SessionService) BeginCheck(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingPhoto)
}

// Cancel возвращает сессию в главное меню.
func (s *SessionService) Cancel(ctx context.Context, userID, chatID int64) (*entity.Session, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

// AcceptFrame переводит сессию в обработку и выдаёт номер кадра.
func (s *SessionService) AcceptFrame(ctx context.Context, userID, chatID int64) (uint64, error) {
	session, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return 0, err
	}

	index := session.NextFrame()
	session.SetState(entity.StateProcessing)
	if err := s.repo.Save(ctx, session); err != nil {
		return 0, err
	}

	return index, nil
}
