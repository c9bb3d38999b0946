package entities

import "time"

// ChatRole identifies the author of a chat turn
type ChatRole string

const (
	ChatRoleUser  ChatRole = "user"
	ChatRoleModel ChatRole = "model"
)

// ChatTurn is one message of the transcript Q&A history
type ChatTurn struct {
	Role      ChatRole  `json:"role"`
	Text      string    `json:"text"`
	IsError   bool      `json:"is_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewChatTurn creates a chat turn stamped with the current time
func NewChatTurn(role ChatRole, text string, isError bool) ChatTurn {
	return ChatTurn{
		Role:      role,
		Text:      text,
		IsError:   isError,
		CreatedAt: time.Now().UTC(),
	}
}
