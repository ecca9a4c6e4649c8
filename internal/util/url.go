package util

import (
	"net/url"
	"strings"
)

// CallbackPath is where providers send the browser back to
const CallbackPath = "/api/oauth/callback/"

// CallbackURL is the default redirect URI registered with a provider
func CallbackURL(baseURL, provider string) string {
	return strings.TrimSuffix(baseURL, "/") + CallbackPath + url.PathEscape(provider)
}

// DashboardRedirect builds {baseURL}?key=value, keeping any query baseURL
// already carries.
func DashboardRedirect(baseURL, key, value string) string {
	u, err := url.Parse(baseURL)
	if err != nil || baseURL == "" {
		return "/?" + url.Values{key: {value}}.Encode()
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

// IsRedirectSafe reports whether a user supplied redirect URI is an
// absolute http(s) URL without header-injection characters.
func IsRedirectSafe(redirectURL string) bool {
	if redirectURL == "" {
		return true
	}

	// Must not contain newlines or carriage returns (header injection)
	if strings.ContainsAny(redirectURL, "\r\n") {
		return false
	}

	u, err := url.Parse(redirectURL)
	if err != nil {
		return false
	}

	// Reject javascript:, data:, and other non-http(s) schemes
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
