// Package constants defines domain-wide constant values.
package constants

// Pub/Sub provider names accepted by configuration.
const (
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)

// Auth event outcomes.
const (
	AuthOutcomeSuccess  = "success"
	AuthOutcomeExpired  = "expired"
	AuthOutcomeRejected = "rejected"
)
