package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Core token_data keys. Everything else is a provider extra.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyTokenType    = "token_type"
	KeyScope        = "scope"
	KeyExpiresAt    = "expires_at"
)

// TokenData is the normalized token payload for one provider.
// It serializes as a flat JSON object: the core keys plus every Extra entry
// (instance_url, realmId, dc, api_domain, ...) side by side.
type TokenData struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Scope        string
	ExpiresAt    *int64 // epoch millis, nil = never expires
	Extra        map[string]string
}

// Expired reports whether the token has a deadline that is already behind now
func (t TokenData) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && *t.ExpiresAt < now.UnixMilli()
}

// HasRefresh reports whether a refresh token was issued
func (t TokenData) HasRefresh() bool {
	return t.RefreshToken != ""
}

// Lookup returns a core field or extra by its token_data key
func (t TokenData) Lookup(key string) (string, bool) {
	switch key {
	case KeyAccessToken:
		return t.AccessToken, t.AccessToken != ""
	case KeyRefreshToken:
		return t.RefreshToken, t.RefreshToken != ""
	case KeyTokenType:
		return t.TokenType, t.TokenType != ""
	case KeyScope:
		return t.Scope, t.Scope != ""
	}
	v, ok := t.Extra[key]
	return v, ok
}

// ExpiresAtMillis builds an ExpiresAt value
func ExpiresAtMillis(at time.Time) *int64 {
	ms := at.UnixMilli()
	return &ms
}

// MarshalJSON flattens extras next to the core keys
func (t TokenData) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(t.Extra)+5)
	for k, v := range t.Extra {
		out[k] = v
	}
	out[KeyAccessToken] = t.AccessToken
	if t.RefreshToken != "" {
		out[KeyRefreshToken] = t.RefreshToken
	}
	if t.TokenType != "" {
		out[KeyTokenType] = t.TokenType
	}
	if t.Scope != "" {
		out[KeyScope] = t.Scope
	}
	if t.ExpiresAt != nil {
		out[KeyExpiresAt] = *t.ExpiresAt
	} else {
		out[KeyExpiresAt] = nil
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits a flat object back into core fields and extras.
// Non-string extras are kept as their raw JSON text.
func (t *TokenData) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	result := TokenData{}
	for k, v := range raw {
		switch k {
		case KeyAccessToken:
			result.AccessToken = rawString(v)
		case KeyRefreshToken:
			result.RefreshToken = rawString(v)
		case KeyTokenType:
			result.TokenType = rawString(v)
		case KeyScope:
			result.Scope = rawString(v)
		case KeyExpiresAt:
			ms, err := rawMillis(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", KeyExpiresAt, err)
			}
			result.ExpiresAt = ms
		default:
			if result.Extra == nil {
				result.Extra = make(map[string]string)
			}
			result.Extra[k] = rawString(v)
		}
	}

	*t = result
	return nil
}

func rawString(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return ""
	}
	return string(bytes.TrimSpace(v))
}

func rawMillis(v json.RawMessage) (*int64, error) {
	if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, nil //nolint:nilnil // absent deadline
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		return nil, err
	}
	if ms, err := n.Int64(); err == nil {
		return &ms, nil
	}
	f, err := n.Float64()
	if err != nil {
		return nil, err
	}
	ms := int64(f)
	return &ms, nil
}

// Value implements the driver.Valuer interface for database storage
func (t TokenData) Value() (driver.Value, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database retrieval
func (t *TokenData) Scan(value any) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	case nil:
		*t = TokenData{}
		return nil
	default:
		return fmt.Errorf("failed to unmarshal TokenData value: %v", value)
	}
}

// GormDBDataType stores token_data as JSONB on Postgres and JSON elsewhere
func (TokenData) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "JSONB"
	}
	return "JSON"
}

// TokenRecord is the single stored token for a provider
type TokenRecord struct {
	Provider  string    `gorm:"primaryKey;type:varchar(64)" json:"provider"`
	TokenData TokenData `gorm:"not null"                    json:"token_data"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name used by TokenRecord to `oauth_tokens`
func (TokenRecord) TableName() string {
	return "oauth_tokens"
}
