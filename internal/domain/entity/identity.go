// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// AuthMode describes which credential kinds an identity currently carries.
// It is always derived from the stored credentials, never persisted.
type AuthMode string

const (
	// AuthModeLocal means only a password hash is present.
	AuthModeLocal AuthMode = "LOCAL"
	// AuthModeExternal means only an external provider subject is present.
	AuthModeExternal AuthMode = "EXTERNAL"
	// AuthModeBoth means the account has been linked: password and external subject coexist.
	AuthModeBoth AuthMode = "BOTH"
	// AuthModeNone is the degenerate case of an identity with no usable credential.
	AuthModeNone AuthMode = "NONE"
)

// Identity is the core entity of the system, representing one real person
// across all tenants. A person has exactly one Identity no matter how many
// clinics they visit; tenant-specific data lives on PatientProfile.
type Identity struct {
	ID            uuid.UUID  // The global unique identifier for this person.
	Email         string     // Primary contact email, unique across the system; used for account linking.
	Phone         string     // Primary contact phone number.
	PasswordHash  string     // bcrypt hash for local login. Empty when the person has never set a password.
	GoogleSubject string     // Google's stable `sub` claim. Empty until the person signs in with Google.
	DateOfBirth   *time.Time // Optional; collected by clinics during intake.
	CreatedAt     time.Time  // Timestamp of when this identity was created.
	UpdatedAt     time.Time  // Timestamp of the last modification.
}

// HasLocalAuth reports whether the identity can log in with a password.
func (i *Identity) HasLocalAuth() bool {
	return i.PasswordHash != ""
}

// HasExternalAuth reports whether the identity is bound to an external provider subject.
func (i *Identity) HasExternalAuth() bool {
	return i.GoogleSubject != ""
}

// Mode derives the current authentication mode from the stored credentials.
func (i *Identity) Mode() AuthMode {
	switch {
	case i.HasLocalAuth() && i.HasExternalAuth():
		return AuthModeBoth
	case i.HasLocalAuth():
		return AuthModeLocal
	case i.HasExternalAuth():
		return AuthModeExternal
	default:
		return AuthModeNone
	}
}
