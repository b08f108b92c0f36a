package model

import (
	"time"

	"github.com/google/uuid"
)

// IdentityModel mirrors the 'identities' table. PostgreSQL generates UUIDs via uuid_generate_v7().
// It is an exported type so it can be used by the GORM Gen tool from other packages.
type IdentityModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Email         string     `gorm:"type:varchar(255);unique;not null"`
	Phone         string     `gorm:"type:varchar(50)"`
	PasswordHash  string     `gorm:"type:varchar(255)"`
	GoogleSubject *string    `gorm:"type:varchar(255);uniqueIndex:idx_identities_google_subject,where:google_subject IS NOT NULL"`
	DateOfBirth   *time.Time `gorm:"type:date"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	PatientProfiles []PatientProfileModel `gorm:"foreignKey:IdentityID"`
}

// TableName explicitly sets the table name for GORM.
func (IdentityModel) TableName() string {
	return "identities"
}
