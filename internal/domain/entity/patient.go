package entity

import (
	"time"

	"github.com/google/uuid"
)

// PatientProfile holds the tenant-scoped view of a person. One row exists per
// (tenant, identity) pair: the same person visiting two clinics has two
// profiles pointing at the same Identity.
type PatientProfile struct {
	ID         uuid.UUID // The unique ID of this profile record.
	TenantID   uuid.UUID // The clinic this profile belongs to.
	IdentityID uuid.UUID // Links this profile to the global Identity.
	FirstName  string
	LastName   string
	Email      string // Contact email as registered with this clinic; may differ from Identity.Email.
	Phone      string
	// GoogleSubject is denormalized from the Identity so tenant-scoped
	// lookups by external subject need no join.
	GoogleSubject string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FullName returns the display name used in tenant-facing surfaces.
func (p *PatientProfile) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}

	return p.FirstName + " " + p.LastName
}
