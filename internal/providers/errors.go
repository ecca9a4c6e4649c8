package providers

import "errors"

// ErrMetadataIncomplete is returned when a post-exchange metadata call does
// not yield the fields the token record needs
var ErrMetadataIncomplete = errors.New("provider metadata incomplete")

// ProviderError is a provider-side rejection reported in a 2xx body,
// e.g. Slack's {"ok": false, "error": "invalid_code"}
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description != "" {
		return e.Description
	}
	if e.Code != "" {
		return e.Code
	}
	return "provider rejected the request"
}
