package telegram

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "planar-recognizer/internal/application"
	"planar-recognizer/internal/domain/entity"
	"planar-recognizer/internal/infrastructure/imageio"
)

const (
	msgStart = `👋 Привет! Я узнаю плоские объекты на фотографиях: обложки, постеры, открытки.

📸 Отправьте фото, и я найду на нём один из эталонов каталога и обведу его.

📋 Команды:
/check — начать проверку
/catalog — список эталонов
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте фото объекта
2️⃣ Бот сравнит его со всеми эталонами каталога
3️⃣ Вы получите результат: строку статуса и фото с контуром найденного эталона

💡 Рекомендации:
• Объект должен занимать заметную часть кадра
• Избегайте бликов и сильного размытия
• Хорошее освещение даёт больше ключевых точек

📋 Команды:
/check — начать проверку
/catalog — список эталонов
/cancel — отменить операцию`

	msgAwaitingPhoto   = "📸 Отправьте фото для распознавания."
	msgCancelled       = "❌ Операция отменена. Отправьте /check для новой проверки."
	msgSendPhoto       = "📸 Пожалуйста, отправьте фото для распознавания."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Обрабатываю изображение..."
	msgNoMatch         = "🔍 Ни один эталон не найден. Попробуйте снять объект ближе или при лучшем освещении."
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте сделать другое фото."
)

// Recognizer распознаёт эталон на изображении.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (entity.Recognition, error)
	Catalog() *entity.Catalog
}

// messenger часть BotAPI, которой пользуется бот
type messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type downloadFunc func(ctx context.Context, fileID string) ([]byte, error)

// Bot представляет Telegram-бота
type Bot struct {
	api        *tgbotapi.BotAPI
	client     messenger
	download   downloadFunc
	sessions   *app.SessionService
	recognizer Recognizer
	overlay    *imageio.Overlay
	logger     *slog.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, sessions *app.SessionService, recognizer Recognizer, overlay *imageio.Overlay, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}

	logger.Info("authorized on telegram", "account", api.Self.UserName)

	b := newBot(api, nil, sessions, recognizer, overlay, logger)
	b.api = api
	b.download = b.downloadFile
	return b, nil
}

func newBot(client messenger, download downloadFunc, sessions *app.SessionService, recognizer Recognizer, overlay *imageio.Overlay, logger *slog.Logger) *Bot {
	return &Bot{
		client:     client,
		download:   download,
		sessions:   sessions,
		recognizer: recognizer,
		overlay:    overlay,
		logger:     logger,
	}
}

// Run запускает основной цикл обработки сообщений до отмены контекста
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg)
		return
	}

	// Текстовое сообщение (не команда)
	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID
	log := b.logger.With("user", userID, "command", msg.Command())

	var err error
	switch msg.Command() {
	case "start":
		_, err = b.sessions.SetState(ctx, userID, chatID, entity.StateMainMenu)
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "check":
		_, err = b.sessions.BeginCheck(ctx, userID, chatID)
		b.sendMessage(chatID, msgAwaitingPhoto)

	case "cancel":
		_, err = b.sessions.Cancel(ctx, userID, chatID)
		b.sendMessage(chatID, msgCancelled)

	case "catalog":
		b.sendMessage(chatID, catalogText(b.recognizer.Catalog()))

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
	if err != nil {
		log.Error("session update failed", "error", err)
	}
}

// handlePhoto распознаёт фото как очередной кадр сессии
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID

	index, err := b.sessions.AcceptFrame(ctx, userID, chatID)
	if err != nil {
		b.logger.Error("session update failed", "user", userID, "error", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}
	log := b.logger.With("user", userID, "frame", index)
	defer func() {
		if _, err := b.sessions.SetState(ctx, userID, chatID, entity.StateMainMenu); err != nil {
			log.Error("session update failed", "error", err)
		}
	}()

	b.sendMessage(chatID, msgProcessing)

	// Получаем файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	data, err := b.download(ctx, photo.FileID)
	if err != nil {
		log.Error("photo download failed", "error", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		log.Warn("photo decode failed", "bytes", len(data), "error", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	rec, err := b.recognizer.Recognize(ctx, img)
	if err != nil {
		log.Error("recognition failed", "error", err)
		b.sendMessage(chatID, msgProcessingError)
		return
	}
	log.Info("photo recognized", "status", rec.Status(), "keypoints", rec.QueryKeypoints)

	if !rec.Matched() {
		b.sendMessage(chatID, rec.Status()+"\n\n"+msgNoMatch)
		return
	}

	var buf bytes.Buffer
	if err := imageio.EncodeJPEG(&buf, b.overlay.Draw(img, rec)); err != nil {
		log.Error("overlay encode failed", "error", err)
		b.sendMessage(chatID, rec.Status())
		return
	}

	reply := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("frame-%06d.jpg", index),
		Bytes: buf.Bytes(),
	})
	reply.Caption = rec.Status()
	if _, err := b.client.Send(reply); err != nil {
		log.Error("photo send failed", "error", err)
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.client.Send(msg); err != nil {
		b.logger.Error("message send failed", "chat", chatID, "error", err)
	}
}

// catalogText список эталонов для /catalog
func catalogText(c *entity.Catalog) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📚 Эталоны в каталоге: %d", c.Len())
	for _, e := range c.Entries() {
		fmt.Fprintf(&sb, "\n• %s — %dx%d, точек: %d", e.Name, e.Width, e.Height, e.Features.Len())
	}
	return sb.String()
}
