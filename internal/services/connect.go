package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-authgate/connectgate/internal/metrics"
	"github.com/go-authgate/connectgate/internal/models"
	"github.com/go-authgate/connectgate/internal/providers"
	"github.com/go-authgate/connectgate/internal/store"
	"github.com/go-authgate/connectgate/internal/util"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// CallbackOutcome classifies how a callback ended. It doubles as the
// metrics result label.
type CallbackOutcome string

const (
	OutcomeSuccess         CallbackOutcome = "success"
	OutcomeProviderError   CallbackOutcome = "provider_error"
	OutcomeMissingCode     CallbackOutcome = "missing_code"
	OutcomeInvalidState    CallbackOutcome = "invalid_state"
	OutcomeUnknownProvider CallbackOutcome = "unknown_provider"
	OutcomeMissingClient   CallbackOutcome = "missing_client"
	OutcomeExchangeError   CallbackOutcome = "exchange_error"
	OutcomeStoreError      CallbackOutcome = "store_error"
)

// Redirect codes for failures detected locally
const (
	CodeMissingCode     = "missing_code"
	CodeInvalidState    = "invalid_state"
	CodeMissingClient   = "missing_client"
	CodeUnknownProvider = "unknown_provider"
)

const (
	msgMissingCode  = "Missing code from provider"
	msgInvalidState = "Invalid OAuth state"
	msgUnknownError = "Unknown error"

	// provider error bodies can be whole HTML pages
	maxErrorMessageLen = 200

	// same cap x/oauth2 applies when reading token responses
	maxTokenBodyBytes = 1 << 20
)

// StartResult carries what the HTTP layer needs to redirect the browser
// and remember the attempt.
type StartResult struct {
	AuthURL     string
	State       string
	RedirectURI string
	Verifier    string // non-empty only for PKCE providers
}

// CallbackRequest is everything the browser brought back
type CallbackRequest struct {
	Provider string
	Query    url.Values

	// Values remembered at start time
	SessionState    string
	SessionProvider string
	RedirectURI     string
	Verifier        string
}

// CallbackResult is the terminal outcome of a callback. Code is what goes
// into the oauth_error redirect; Message is the activity log text.
type CallbackResult struct {
	Provider string
	Outcome  CallbackOutcome
	Code     string
	Message  string
}

// OK reports whether the provider was connected
func (r *CallbackResult) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// ConnectService runs the authorization-code flow for every provider
type ConnectService struct {
	registry        *providers.Registry
	resolver        *CredentialResolver
	configs         *ConfigService
	tokens          *TokenService
	activity        *ActivityService
	httpClient      *http.Client
	metrics         metrics.Recorder
	preserveRefresh bool
}

func NewConnectService(
	registry *providers.Registry,
	resolver *CredentialResolver,
	configs *ConfigService,
	tokens *TokenService,
	activity *ActivityService,
	httpClient *http.Client,
	m metrics.Recorder,
	preserveRefresh bool,
) *ConnectService {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ConnectService{
		registry:        registry,
		resolver:        resolver,
		configs:         configs,
		tokens:          tokens,
		activity:        activity,
		httpClient:      httpClient,
		metrics:         m,
		preserveRefresh: preserveRefresh,
	}
}

// oauthConfig builds the x/oauth2 config. The scope string is passed as a
// single element so provider-specific separators survive untouched.
func oauthConfig(d *providers.Descriptor, creds Credentials) *oauth2.Config {
	scopes := creds.Scopes
	if scopes == "" {
		scopes = d.DefaultScopes
	}

	cfg := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURI,
		Endpoint:     d.Endpoint(),
	}
	if scopes != "" {
		cfg.Scopes = []string{scopes}
	}
	return cfg
}

// Start resolves credentials and builds the authorize URL. Inline
// overrides are persisted so the callback can complete the exchange.
func (s *ConnectService) Start(
	ctx context.Context,
	provider string,
	overrides Credentials,
) (*StartResult, error) {
	d, ok := s.registry.Get(provider)
	if !ok {
		return nil, ErrUnknownProvider
	}

	result, err := s.start(ctx, d, overrides)
	s.metrics.RecordAuthorizeStart(provider, err == nil)
	if err != nil {
		zap.L().Warn("oauth start failed", zap.String("provider", provider), zap.Error(err))
	}
	return result, err
}

func (s *ConnectService) start(
	ctx context.Context,
	d *providers.Descriptor,
	overrides Credentials,
) (*StartResult, error) {
	if !util.IsRedirectSafe(overrides.RedirectURI) {
		return nil, ErrInvalidRedirectURI
	}

	creds, err := s.resolver.Resolve(ctx, d.ID, overrides)
	if err != nil {
		return nil, err
	}
	if creds.ClientID == "" {
		return nil, missingClientID(d.EnvPrefix())
	}

	inline := ConfigInput(overrides)
	if !inline.IsEmpty() {
		if err := s.configs.Upsert(ctx, d.ID, inline); err != nil {
			return nil, err
		}
	}

	state, err := util.NewState()
	if err != nil {
		return nil, err
	}

	opts := d.AuthCodeOptions()
	result := &StartResult{
		State:       state,
		RedirectURI: creds.RedirectURI,
	}
	if d.UsePKCE {
		result.Verifier = oauth2.GenerateVerifier()
		opts = append(opts, oauth2.S256ChallengeOption(result.Verifier))
	}

	result.AuthURL = oauthConfig(d, creds).AuthCodeURL(state, opts...)
	return result, nil
}

// Complete runs the callback steps in order and stops at the first failure.
// Every terminal outcome for a known provider is written to the activity log.
func (s *ConnectService) Complete(ctx context.Context, req CallbackRequest) *CallbackResult {
	result := s.complete(ctx, req)
	if result.Outcome == OutcomeUnknownProvider {
		zap.L().Warn("oauth callback for unknown provider", zap.String("provider", req.Provider))
		return result
	}

	status := models.ActivitySuccess
	if !result.OK() {
		status = models.ActivityError
	}
	_ = s.activity.Record(ctx, req.Provider, status, result.Message)
	s.metrics.RecordCallback(req.Provider, string(result.Outcome))
	return result
}

func (s *ConnectService) complete(ctx context.Context, req CallbackRequest) *CallbackResult {
	fail := func(outcome CallbackOutcome, code, message string) *CallbackResult {
		return &CallbackResult{
			Provider: req.Provider,
			Outcome:  outcome,
			Code:     code,
			Message:  message,
		}
	}
	// Provider and transport failures redirect with the message itself
	failWith := func(outcome CallbackOutcome, err error) *CallbackResult {
		msg := errorMessage(err)
		return fail(outcome, msg, msg)
	}

	d, ok := s.registry.Get(req.Provider)
	if !ok {
		return fail(OutcomeUnknownProvider, CodeUnknownProvider, ErrUnknownProvider.Error())
	}

	if providerErr := req.Query.Get("error"); providerErr != "" {
		message := providerErr
		if desc := req.Query.Get("error_description"); desc != "" {
			message = desc
		}
		return fail(OutcomeProviderError, truncate(providerErr), truncate(message))
	}

	code := req.Query.Get("code")
	if code == "" {
		return fail(OutcomeMissingCode, CodeMissingCode, msgMissingCode)
	}

	if req.SessionState == "" ||
		req.Query.Get("state") != req.SessionState ||
		(req.SessionProvider != "" && req.SessionProvider != req.Provider) {
		return fail(OutcomeInvalidState, CodeInvalidState, msgInvalidState)
	}

	creds, err := s.resolver.Resolve(ctx, d.ID, Credentials{RedirectURI: req.RedirectURI})
	if err != nil {
		return failWith(OutcomeStoreError, err)
	}
	if creds.ClientID == "" {
		return fail(OutcomeMissingClient, CodeMissingClient,
			missingClientID(d.EnvPrefix()).Error())
	}
	if creds.ClientSecret == "" {
		return fail(OutcomeMissingClient, CodeMissingClient,
			missingClientSecret(d.EnvPrefix()).Error())
	}

	var opts []oauth2.AuthCodeOption
	if req.Verifier != "" {
		opts = append(opts, oauth2.VerifierOption(req.Verifier))
	}

	recorder := newBodyRecorder(s.httpClient)
	exchangeCtx := context.WithValue(ctx, oauth2.HTTPClient, recorder.client())
	begin := time.Now()
	tok, err := oauthConfig(d, creds).Exchange(exchangeCtx, code, opts...)
	s.metrics.RecordTokenExchange(d.ID, err == nil, time.Since(begin))
	if err != nil {
		return failWith(OutcomeExchangeError, err)
	}

	data, err := d.NormalizeToken(ctx, s.httpClient, providers.ExchangeResult{
		Token: tok,
		Query: req.Query,
		Raw:   providers.DecodeTokenBody(recorder.contentType, recorder.body),
	})
	if err != nil {
		return failWith(OutcomeExchangeError, err)
	}

	// Reconnecting usually happens after the access token expired, so the
	// previous record is read without the expiry rule.
	if s.preserveRefresh && data.RefreshToken == "" {
		prev, err := s.tokens.Previous(ctx, d.ID)
		switch {
		case err == nil:
			data.RefreshToken = prev.RefreshToken
		case !errors.Is(err, store.ErrRecordNotFound):
			return failWith(OutcomeStoreError, err)
		}
	}

	if err := s.tokens.Set(ctx, d.ID, data); err != nil {
		return failWith(OutcomeStoreError, err)
	}
	return &CallbackResult{Provider: d.ID, Outcome: OutcomeSuccess, Message: "Connected"}
}

// bodyRecorder keeps a copy of the token endpoint response so fields
// x/oauth2 does not model reach the normalizer.
type bodyRecorder struct {
	base        *http.Client
	body        []byte
	contentType string
}

func newBodyRecorder(base *http.Client) *bodyRecorder {
	return &bodyRecorder{base: base}
}

func (r *bodyRecorder) client() *http.Client {
	c := *r.base
	c.Transport = r
	return &c
}

func (r *bodyRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	transport := r.base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	resp, err := transport.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenBodyBytes))
	_ = resp.Body.Close()
	if err != nil {
		return nil, err
	}
	r.body = body
	r.contentType = resp.Header.Get("Content-Type")
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

// errorMessage extracts a human-readable message, preferring what the
// provider said over transport wrapping.
func errorMessage(err error) string {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		switch {
		case retrieveErr.ErrorDescription != "":
			return truncate(retrieveErr.ErrorDescription)
		case retrieveErr.ErrorCode != "":
			return truncate(retrieveErr.ErrorCode)
		}
		if body := strings.TrimSpace(string(retrieveErr.Body)); body != "" {
			return truncate(body)
		}
		if retrieveErr.Response != nil {
			return retrieveErr.Response.Status
		}
	}

	var providerErr *providers.ProviderError
	if errors.As(err, &providerErr) {
		return truncate(providerErr.Error())
	}

	if err == nil || err.Error() == "" {
		return msgUnknownError
	}
	return truncate(err.Error())
}

// truncate caps s at maxErrorMessageLen bytes without splitting a rune
func truncate(s string) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= maxErrorMessageLen {
		return s
	}
	cut := maxErrorMessageLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
