package models

// ProviderInfo contains static information about a provider.
type ProviderInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Limit    int    `json:"limit"`    // Maximum collection size for this provider
	Indirect bool   `json:"indirect"` // Downloads need a link request before the bytes can be fetched
}
