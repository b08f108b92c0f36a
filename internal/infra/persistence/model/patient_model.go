package model

import (
	"time"

	"github.com/google/uuid"
)

// PatientProfileModel mirrors the 'patient_profiles' table. One row per
// (tenant, identity) pair; the google_subject column is denormalized from
// identities for tenant-scoped lookups without a join.
type PatientProfileModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	TenantID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_patient_tenant_identity;index:idx_patient_tenant_subject"`
	IdentityID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_patient_tenant_identity"`
	FirstName     string    `gorm:"type:varchar(100)"`
	LastName      string    `gorm:"type:varchar(100)"`
	Email         string    `gorm:"type:varchar(255)"`
	Phone         string    `gorm:"type:varchar(50)"`
	GoogleSubject *string   `gorm:"type:varchar(255);index:idx_patient_tenant_subject"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName explicitly sets the table name for GORM.
func (PatientProfileModel) TableName() string {
	return "patient_profiles"
}
