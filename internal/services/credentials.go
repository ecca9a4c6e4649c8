package services

import (
	"context"
	"errors"
	"os"

	"github.com/go-authgate/connectgate/internal/providers"
	"github.com/go-authgate/connectgate/internal/store"
	"github.com/go-authgate/connectgate/internal/util"
)

// Credentials is the resolved OAuth app configuration for one provider.
// Empty fields mean nothing was found at any layer.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       string
}

// CredentialResolver merges inline overrides, stored config and the
// environment, first non-empty value per field.
type CredentialResolver struct {
	registry *providers.Registry
	configs  *ConfigService
	baseURL  string
	getenv   func(string) string
}

// NewCredentialResolver creates a resolver reading the process environment
func NewCredentialResolver(
	registry *providers.Registry,
	configs *ConfigService,
	baseURL string,
) *CredentialResolver {
	return &CredentialResolver{
		registry: registry,
		configs:  configs,
		baseURL:  baseURL,
		getenv:   os.Getenv,
	}
}

// Resolve never fails on missing fields; only an unknown provider or a
// storage error is returned.
func (r *CredentialResolver) Resolve(
	ctx context.Context,
	provider string,
	overrides Credentials,
) (Credentials, error) {
	d, ok := r.registry.Get(provider)
	if !ok {
		return Credentials{}, ErrUnknownProvider
	}

	stored, err := r.configs.Get(ctx, provider)
	if err != nil && !errors.Is(err, store.ErrRecordNotFound) {
		return Credentials{}, err
	}

	creds := Credentials{
		ClientID: firstNonEmpty(
			overrides.ClientID,
			stored.ClientID,
			r.env(d, "_CLIENT_ID", "_ID"),
		),
		ClientSecret: firstNonEmpty(
			overrides.ClientSecret,
			stored.ClientSecret,
			r.env(d, "_CLIENT_SECRET", "_SECRET"),
		),
		RedirectURI: firstNonEmpty(
			overrides.RedirectURI,
			stored.RedirectURI,
			r.env(d, "_REDIRECT_URI"),
			util.CallbackURL(r.baseURL, provider),
		),
		Scopes: firstNonEmpty(
			overrides.Scopes,
			stored.Scopes,
			r.env(d, "_SCOPES"),
		),
	}
	return creds, nil
}

// env tries every prefix of the provider with every suffix, in order
func (r *CredentialResolver) env(d *providers.Descriptor, suffixes ...string) string {
	for _, prefix := range d.Prefixes() {
		for _, suffix := range suffixes {
			if v := r.getenv(prefix + suffix); v != "" {
				return v
			}
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
