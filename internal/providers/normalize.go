package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-authgate/connectgate/internal/models"
)

// KeyRealmID is the QuickBooks company id captured from the callback query
const KeyRealmID = "realmId"

// Token response fields that map onto core token_data keys
var coreResponseKeys = map[string]bool{
	models.KeyAccessToken:  true,
	models.KeyRefreshToken: true,
	models.KeyTokenType:    true,
	models.KeyScope:        true,
	models.KeyExpiresAt:    true,
	"expires_in":           true,
}

// DecodeTokenBody decodes a token endpoint response into a flat map.
// JSON objects and form-encoded bodies are understood; anything else is nil.
func DecodeTokenBody(contentType string, body []byte) map[string]any {
	if len(body) == 0 {
		return nil
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "application/x-www-form-urlencoded" || mediaType == "text/plain" {
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil
		}
		out := make(map[string]any, len(values))
		for k := range values {
			out[k] = values.Get(k)
		}
		return out
	}

	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil
	}
	return out
}

// NormalizeDefault copies the core token fields, converts the relative TTL
// into an absolute expires_at, and keeps every other response field as an
// extra: the descriptor's ExtraKeys first, then the rest of the raw body.
func NormalizeDefault(
	_ context.Context,
	_ *http.Client,
	d *Descriptor,
	res ExchangeResult,
) (models.TokenData, error) {
	tok := res.Token
	data := models.TokenData{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Scope:        ExtraString(tok.Extra("scope")),
	}
	if !tok.Expiry.IsZero() {
		data.ExpiresAt = models.ExpiresAtMillis(tok.Expiry)
	}

	setExtra := func(key, v string) {
		if v == "" {
			return
		}
		if data.Extra == nil {
			data.Extra = make(map[string]string, len(d.ExtraKeys)+len(res.Raw))
		}
		data.Extra[key] = v
	}
	for _, key := range d.ExtraKeys {
		setExtra(key, ExtraString(tok.Extra(key)))
	}
	for key, v := range res.Raw {
		if coreResponseKeys[key] {
			continue
		}
		if _, ok := data.Extra[key]; ok {
			continue
		}
		setExtra(key, ExtraString(v))
	}
	return data, nil
}

// NormalizeSlack rejects responses whose ok flag is not true
func NormalizeSlack(
	ctx context.Context,
	client *http.Client,
	d *Descriptor,
	res ExchangeResult,
) (models.TokenData, error) {
	if ok, _ := res.Token.Extra("ok").(bool); !ok {
		return models.TokenData{}, &ProviderError{
			Code: ExtraString(res.Token.Extra("error")),
		}
	}
	return NormalizeDefault(ctx, client, d, res)
}

// NormalizeQueryRealm records QuickBooks' realmId, which arrives on the
// callback query string rather than in the token body
func NormalizeQueryRealm(
	ctx context.Context,
	client *http.Client,
	d *Descriptor,
	res ExchangeResult,
) (models.TokenData, error) {
	data, err := NormalizeDefault(ctx, client, d, res)
	if err != nil {
		return data, err
	}
	if realm := res.Query.Get(KeyRealmID); realm != "" {
		if data.Extra == nil {
			data.Extra = make(map[string]string, 1)
		}
		data.Extra[KeyRealmID] = realm
	}
	return data, nil
}

type mailchimpMetadata struct {
	DC          string `json:"dc"`
	APIEndpoint string `json:"api_endpoint"`
	LoginURL    string `json:"login_url"`
}

// NormalizeMetadata performs Mailchimp's second call to resolve the data
// center. The record is not complete until dc is known.
func NormalizeMetadata(
	ctx context.Context,
	client *http.Client,
	d *Descriptor,
	res ExchangeResult,
) (models.TokenData, error) {
	data, err := NormalizeDefault(ctx, client, d, res)
	if err != nil {
		return data, err
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.MetadataURL, nil)
	if err != nil {
		return data, fmt.Errorf("failed to create metadata request: %w", err)
	}
	req.Header.Set("Authorization", "OAuth "+data.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return data, fmt.Errorf("failed to fetch metadata: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return data, fmt.Errorf("failed to read metadata: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return data, fmt.Errorf("metadata endpoint returned %s: %s", resp.Status, body)
	}

	var meta mailchimpMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return data, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if meta.DC == "" {
		return data, ErrMetadataIncomplete
	}

	if data.Extra == nil {
		data.Extra = make(map[string]string, 3)
	}
	data.Extra["dc"] = meta.DC
	if meta.APIEndpoint != "" {
		data.Extra["api_endpoint"] = meta.APIEndpoint
	}
	if meta.LoginURL != "" {
		data.Extra["login_url"] = meta.LoginURL
	}
	return data, nil
}

// ExtraString flattens a token response value into the string stored in
// token_data. Objects and arrays keep their JSON text.
func ExtraString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
