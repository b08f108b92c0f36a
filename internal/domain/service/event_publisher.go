package service

import (
	"context"
)

// AuthEvent describes the outcome of one authentication attempt. Events are
// published best-effort for downstream consumers (audit trail, anomaly
// detection); publishing failures never fail the login.
type AuthEvent struct {
	RequestID  string `json:"request_id,omitempty"` // For distributed tracing
	TenantID   string `json:"tenant_id"`
	IdentityID string `json:"identity_id,omitempty"` // Empty when authentication failed before resolution
	Provider   string `json:"provider"`
	Outcome    string `json:"outcome"` // "success", "expired", "rejected"
	ErrorCode  string `json:"error_code,omitempty"`
	NewProfile bool   `json:"new_profile,omitempty"` // True when this login created the tenant profile
	Linked     bool   `json:"linked,omitempty"`      // True when this login linked an existing local account
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishAuthEvent publishes an authentication event for async processing
	PublishAuthEvent(ctx context.Context, event *AuthEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
