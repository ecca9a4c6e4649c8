package providers

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-authgate/connectgate/internal/models"

	"golang.org/x/oauth2"
)

// Auth schemes for probe steps. Any other non-empty value is used verbatim
// as the Authorization prefix (e.g. "OAuth").
const (
	AuthBearer = "Bearer"
	AuthRaw    = "raw"  // Authorization: <token>
	AuthNone   = "none" // token travels in the URL or not at all
)

// ExchangeResult is what a normalizer sees after a successful code exchange
type ExchangeResult struct {
	Token *oauth2.Token
	Query url.Values     // callback query string (QuickBooks realmId lives here)
	Raw   map[string]any // decoded token endpoint body, nil when unavailable
}

// Normalizer maps a token endpoint response onto the stored token shape.
// client is the outbound HTTP client for normalizers that need extra calls.
type Normalizer func(
	ctx context.Context,
	client *http.Client,
	d *Descriptor,
	res ExchangeResult,
) (models.TokenData, error)

// ProbeStep is one read-only call of a connectivity probe.
// URL, Body and header values may contain {placeholders}: {access_token},
// any token_data key ({instance_url}, {dc}, {realmId}, {api_domain}) and
// names captured by earlier steps.
type ProbeStep struct {
	Method     string
	URL        string
	Body       string
	Headers    map[string]string
	AuthScheme string            // "" means Bearer
	Capture    map[string]string // placeholder name -> dotted JSON path, e.g. "0.id"
	OKField    string            // body-level success flag (Slack "ok")
}

// Probe is a named, ordered list of steps
type Probe struct {
	Type        string
	Description string
	Steps       []ProbeStep
}

// Descriptor is the data-driven definition of one provider
type Descriptor struct {
	ID   string
	Name string

	AuthURL   string
	TokenURL  string
	AuthStyle oauth2.AuthStyle

	// DefaultScopes is the raw provider string used when nothing was
	// configured. Separators are provider specific (Slack uses commas).
	DefaultScopes string
	AuthParams    map[string]string // extra authorize query parameters
	UsePKCE       bool

	// EnvPrefixes are tried in order for {P}_CLIENT_ID style variables.
	// Empty means the upper-cased ID.
	EnvPrefixes []string

	ExtraKeys []string   // token response fields read through x/oauth2 even without Raw
	Normalize Normalizer // nil means NormalizeDefault

	// MetadataURL is called by NormalizeMetadata after the exchange
	MetadataURL string

	Probes []Probe
}

// EnvPrefix is the primary environment prefix, e.g. "SLACK"
func (d *Descriptor) EnvPrefix() string {
	if len(d.EnvPrefixes) > 0 {
		return d.EnvPrefixes[0]
	}
	return strings.ToUpper(d.ID)
}

// Prefixes returns every environment prefix to try, primary first
func (d *Descriptor) Prefixes() []string {
	if len(d.EnvPrefixes) > 0 {
		return d.EnvPrefixes
	}
	return []string{d.EnvPrefix()}
}

// Endpoint returns the x/oauth2 endpoint for the provider
func (d *Descriptor) Endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   d.AuthURL,
		TokenURL:  d.TokenURL,
		AuthStyle: d.AuthStyle,
	}
}

// AuthCodeOptions returns the descriptor's extra authorize parameters
func (d *Descriptor) AuthCodeOptions() []oauth2.AuthCodeOption {
	opts := make([]oauth2.AuthCodeOption, 0, len(d.AuthParams))
	for k, v := range d.AuthParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	return opts
}

// NormalizeToken runs the provider normalizer
func (d *Descriptor) NormalizeToken(
	ctx context.Context,
	client *http.Client,
	res ExchangeResult,
) (models.TokenData, error) {
	if d.Normalize != nil {
		return d.Normalize(ctx, client, d, res)
	}
	return NormalizeDefault(ctx, client, d, res)
}

// Probe looks up a probe by type. An empty type selects the first probe.
func (d *Descriptor) Probe(testType string) (Probe, bool) {
	if len(d.Probes) == 0 {
		return Probe{}, false
	}
	if testType == "" {
		return d.Probes[0], true
	}
	for _, p := range d.Probes {
		if p.Type == testType {
			return p, true
		}
	}
	return Probe{}, false
}

// ProbeTypes lists the supported test types in declaration order
func (d *Descriptor) ProbeTypes() []string {
	types := make([]string, 0, len(d.Probes))
	for _, p := range d.Probes {
		types = append(types, p.Type)
	}
	return types
}
