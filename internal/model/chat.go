package model

type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of a user's conversation with the AI mentor.
// swagger:model ChatMessage
type ChatMessage struct {
	BaseModel
	UserID    uint     `gorm:"index;index:idx_user_session;not null" json:"userId"`
	SessionID string   `gorm:"size:36;index:idx_user_session;not null" json:"sessionId"`
	Role      ChatRole `gorm:"type:enum('user','assistant');not null" json:"role"`
	Content   string   `gorm:"type:text;not null" json:"content"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
