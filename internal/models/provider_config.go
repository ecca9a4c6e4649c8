package models

import "time"

// ProviderConfig holds the OAuth app credentials registered for one provider.
// Empty strings mean "unset"; upserts never overwrite a stored value with one.
type ProviderConfig struct {
	Provider     string    `gorm:"primaryKey;type:varchar(64)" json:"provider"`
	ClientID     string    `gorm:"type:text;not null;default:''" json:"clientId"`
	ClientSecret string    `gorm:"type:text;not null;default:''" json:"-"`
	RedirectURI  string    `gorm:"type:text;not null;default:''" json:"redirectUri"`
	Scopes       string    `gorm:"type:text;not null;default:''" json:"scopes"` // raw provider string (space or comma separated)
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName overrides the table name used by ProviderConfig to `oauth_configs`
func (ProviderConfig) TableName() string {
	return "oauth_configs"
}

// ProviderConfigSummary is the bulk listing shape; it never carries secrets
type ProviderConfigSummary struct {
	Provider string `json:"provider"`
	ClientID string `json:"clientId"`
}

// MaskedProviderConfig is the single-provider read-back shape.
// ClientSecret stays empty unless the caller explicitly asked to reveal it.
type MaskedProviderConfig struct {
	Provider          string `json:"provider"`
	ClientID          string `json:"clientId"`
	ClientSecretSaved bool   `json:"clientSecretSaved"`
	ClientSecret      string `json:"clientSecret"`
	RedirectURI       string `json:"redirectUri"`
	Scopes            string `json:"scopes"`
}
