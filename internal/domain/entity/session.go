package entity

// SessionState состояние чата с ботом
type SessionState string

const (
	StateMainMenu      SessionState = "main_menu"      // В главном меню
	StateAwaitingPhoto SessionState = "awaiting_photo" // Ожидание кадра для распознавания
	StateProcessing    SessionState = "processing"     // Распознавание кадра
)

// Session сессия пользователя бота
type Session struct {
	UserID int64        // Telegram User ID
	ChatID int64        // Telegram Chat ID
	State  SessionState // Текущее состояние
	Frames uint64       // Счётчик принятых кадров
}

// NewSession создаёт сессию в главном меню
func NewSession(userID, chatID int64) *Session {
	return &Session{
		UserID: userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

// SetState обновляет состояние сессии
func (s *Session) SetState(state SessionState) {
	s.State = state
}

// NextFrame увеличивает счётчик и возвращает номер нового кадра
func (s *Session) NextFrame() uint64 {
	s.Frames++
	return s.Frames
}
