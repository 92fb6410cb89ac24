package services

import (
	"encoding/json"
	"log"
	"os"
	"strconv"

	"tournament-funding-system/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/gorm"
)

// NotificationService records notifications for users and optionally mirrors
// them to a Telegram ops channel. It is always called after a transition has
// committed — a delivery failure is logged and can never roll one back.
type NotificationService struct {
	DB        *gorm.DB
	bot       *tgbotapi.BotAPI
	opsChatID int64
	printer   *message.Printer
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	s := &NotificationService{
		DB:      db,
		printer: message.NewPrinter(language.English),
	}

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	chatIDStr := os.Getenv("TELEGRAM_CHAT_ID")
	if token != "" && chatIDStr != "" {
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			log.Printf("[Notify] Invalid TELEGRAM_CHAT_ID %q, Telegram mirror disabled", chatIDStr)
			return s
		}
		bot, err := tgbotapi.NewBotAPI(token)
		if err != nil {
			log.Printf("[Notify] Telegram bot init failed, mirror disabled: %v", err)
			return s
		}
		s.bot = bot
		s.opsChatID = chatID
		log.Printf("[Notify] Telegram mirror enabled for chat %d", chatID)
	}
	return s
}

// Notify persists a notification row and mirrors it to the ops channel.
// Fire-and-forget: every failure path ends in a log line, not an error.
func (s *NotificationService) Notify(userID, notificationType string, content map[string]interface{}) {
	payload, err := json.Marshal(content)
	if err != nil {
		log.Printf("[Notify] Failed to encode %s payload: %v", notificationType, err)
		return
	}

	n := models.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Type:    notificationType,
		Content: string(payload),
	}
	if err := s.DB.Create(&n).Error; err != nil {
		log.Printf("[Notify] Failed to store %s notification for user %s: %v", notificationType, userID, err)
	}

	if s.bot != nil {
		text := s.printer.Sprintf("%s | user %s", notificationType, userID)
		if amount, ok := content["amount"].(float64); ok {
			text = s.printer.Sprintf("%s | user %s | amount %.2f", notificationType, userID, amount)
		}
		if _, err := s.bot.Send(tgbotapi.NewMessage(s.opsChatID, text)); err != nil {
			log.Printf("[Notify] Telegram send failed: %v", err)
		}
	}
}

// ListForUser returns a user's notifications, newest first.
func (s *NotificationService) ListForUser(userID string) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}
