package model

import (
	"time"

	"github.com/google/uuid"
)

// OAuthStateModel mirrors the 'oauth_states' table. The consumed flag is
// flipped exactly once by a guarded UPDATE; consumed rows stay for a short
// audit window before the cleanup job removes them.
type OAuthStateModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Token       string    `gorm:"type:varchar(128);unique;not null"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null"`
	Nonce       string    `gorm:"type:varchar(128);not null"`
	RedirectURI string    `gorm:"type:text"`
	Consumed    bool      `gorm:"not null;default:false"`
	ConsumedAt  *time.Time
	ExpiresAt   time.Time `gorm:"not null;index"`
	CreatedAt   time.Time
}

// TableName explicitly sets the table name for GORM.
func (OAuthStateModel) TableName() string {
	return "oauth_states"
}
