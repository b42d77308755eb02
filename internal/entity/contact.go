package entity

import (
	"time"

	"github.com/google/uuid"
)

// Contact represents a directory entry used to recognise contact names.
type Contact struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Note      *string   `json:"note,omitempty"`
	Priority  int       `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}
