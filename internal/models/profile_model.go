package models

import (
	"time"

	"github.com/google/uuid"
)

const DefaultProfileTimezone = "UTC"

// Profile is keyed by the identity provider's user id. Email is not stored;
// it is filled from the caller's token.
type Profile struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Email     *string    `db:"-" json:"email"`
	FullName  *string    `db:"full_name" json:"full_name"`
	AvatarURL *string    `db:"avatar_url" json:"avatar_url"`
	Timezone  string     `db:"timezone" json:"timezone"`
	CreatedAt *time.Time `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at"`
}
