package types

import (
	"time"

	"github.com/google/uuid"
)

// User is a marketplace account. Telegram-backed accounts have TelegramID set
// and may have no password; email accounts have a bcrypt hash.
type User struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email,omitempty"`
	Username   string    `json:"username"`
	Password   string    `json:"-"`
	FirstName  string    `json:"first_name,omitempty"`
	LastName   string    `json:"last_name,omitempty"`
	PhotoURL   string    `json:"photo_url,omitempty"`
	TelegramID int64     `json:"telegram_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
