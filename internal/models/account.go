package models

import (
	"time"

	"github.com/google/uuid"
)

// Account ties an external identity (JWT subject) to everything we own for
// that user. Created on first access, never deleted.
type Account struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Subject   string    `json:"subject" db:"subject"`
	Email     *string   `json:"email,omitempty" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
