package repository

import (
	"time"

	"gapmentor_backend/internal/model"

	"gorm.io/gorm"
)

type ChatRepository struct {
	DB *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{DB: db}
}

func (r *ChatRepository) Create(msg *model.ChatMessage) error {
	return r.DB.Create(msg).Error
}

func (r *ChatRepository) ListBySession(userID uint, sessionID string, limit int) ([]model.ChatMessage, error) {
	var msgs []model.ChatMessage
	query := r.DB.Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("created_at asc, id asc")
	if limit > 0 {
		// keep the newest N while preserving chronological order
		var total int64
		if err := r.DB.Model(&model.ChatMessage{}).
			Where("user_id = ? AND session_id = ?", userID, sessionID).
			Count(&total).Error; err != nil {
			return nil, err
		}
		if total > int64(limit) {
			query = query.Offset(int(total) - limit)
		}
	}
	err := query.Find(&msgs).Error
	return msgs, err
}

type ChatSession struct {
	SessionID     string    `json:"sessionId"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	MessageCount  int64     `json:"messageCount"`
}

func (r *ChatRepository) ListSessions(userID uint) ([]ChatSession, error) {
	var sessions []ChatSession
	err := r.DB.Model(&model.ChatMessage{}).
		Select("session_id, MAX(created_at) as last_message_at, COUNT(*) as message_count").
		Where("user_id = ?", userID).
		Group("session_id").
		Order("last_message_at desc").
		Scan(&sessions).Error
	return sessions, err
}
