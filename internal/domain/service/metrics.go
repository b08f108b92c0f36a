package service

// AuthMetrics records counters for the authentication flow. The concrete
// implementation lives in infra; usecases only see this interface so tests
// can observe calls without a registry.
type AuthMetrics interface {
	// LoginStarted increments the count of initiated login flows for a tenant.
	LoginStarted(provider string)

	// TokenValidation records one ID token verification outcome.
	// result is "valid", "expired", or a hard error code.
	TokenValidation(provider, result string)

	// StateConsumption records one state consume attempt outcome.
	// result is "consumed", "not_found", "already_used", or "expired".
	StateConsumption(result string)

	// LoginCompleted records a finished callback. outcome is "success",
	// "expired", or "rejected".
	LoginCompleted(provider, outcome string)

	// CleanupDeleted adds to the count of rows removed by the cleanup job.
	// kind is "expired" or "consumed".
	CleanupDeleted(kind string, n int64)
}
