package entity

// ProviderType identifies an external identity provider.
type ProviderType string

const (
	// ProviderGoogle is the only provider currently wired end to end.
	ProviderGoogle ProviderType = "google"
)

// String returns the provider name as stored and logged.
func (p ProviderType) String() string {
	return string(p)
}
