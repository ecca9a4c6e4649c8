package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-authgate/connectgate/internal/metrics"
	"github.com/go-authgate/connectgate/internal/models"
	"github.com/go-authgate/connectgate/internal/providers"
	"github.com/go-authgate/connectgate/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxProbeBodyBytes = 1 << 20

// ProbeRequest selects a probe and, optionally, a manual credential.
// Params supply template values (instance_url, dc, realmId, ...) that a
// manual token has no stored record for.
type ProbeRequest struct {
	TestType string
	Token    string
	Params   map[string]string
}

// ProbeHTTPRequest is the upstream request as sent
type ProbeHTTPRequest struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

// ProbeHTTPResponse is the upstream response passed through verbatim
type ProbeHTTPResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// ProbeStepResult is one executed (or refused) step
type ProbeStepResult struct {
	Request  ProbeHTTPRequest   `json:"request"`
	Response *ProbeHTTPResponse `json:"response,omitempty"`
	OK       bool               `json:"ok"`
	Error    string             `json:"error,omitempty"`
}

// ProbeResult is the outcome of a whole probe
type ProbeResult struct {
	ID        string            `json:"id"`
	Provider  string            `json:"provider"`
	TestType  string            `json:"testType"`
	OK        bool              `json:"ok"`
	Source    string            `json:"source"` // manual or stored
	Steps     []ProbeStepResult `json:"steps"`
	Timestamp time.Time         `json:"timestamp"`
}

// ProbeService issues read-only calls to verify a credential works
type ProbeService struct {
	registry   *providers.Registry
	tokens     *TokenService
	httpClient *http.Client
	metrics    metrics.Recorder
}

func NewProbeService(
	registry *providers.Registry,
	tokens *TokenService,
	httpClient *http.Client,
	m metrics.Recorder,
) *ProbeService {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ProbeService{
		registry:   registry,
		tokens:     tokens,
		httpClient: httpClient,
		metrics:    m,
	}
}

// Probe runs the steps of the selected test in order. A missing credential
// is ErrNoCredential and nothing is sent upstream. Upstream failures are
// reported in the result, not as an error.
func (s *ProbeService) Probe(
	ctx context.Context,
	provider string,
	req ProbeRequest,
) (*ProbeResult, error) {
	d, ok := s.registry.Get(provider)
	if !ok {
		return nil, ErrUnknownProvider
	}
	probe, ok := d.Probe(req.TestType)
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)",
			ErrUnknownTestType, req.TestType, strings.Join(d.ProbeTypes(), ", "))
	}

	vars, source, err := s.credential(ctx, provider, req)
	if err != nil {
		return nil, err
	}

	result := &ProbeResult{
		ID:        uuid.New().String(),
		Provider:  provider,
		TestType:  probe.Type,
		Source:    source,
		Steps:     make([]ProbeStepResult, 0, len(probe.Steps)),
		Timestamp: time.Now().UTC(),
	}

	begin := time.Now()
	result.OK = true
	for _, step := range probe.Steps {
		stepResult := s.runStep(ctx, step, vars)
		result.Steps = append(result.Steps, stepResult)
		if !stepResult.OK {
			result.OK = false
			break
		}
	}
	s.metrics.RecordProbe(provider, probe.Type, result.OK, time.Since(begin))

	zap.L().Info("connectivity probe finished",
		zap.String("probe_id", result.ID),
		zap.String("provider", provider),
		zap.String("test_type", probe.Type),
		zap.String("source", source),
		zap.Bool("ok", result.OK),
	)
	return result, nil
}

// credential builds the template variables from a manual token or the
// token store
func (s *ProbeService) credential(
	ctx context.Context,
	provider string,
	req ProbeRequest,
) (map[string]string, string, error) {
	vars := make(map[string]string)

	source := "manual"
	if req.Token != "" {
		vars[models.KeyAccessToken] = req.Token
	} else {
		data, err := s.tokens.Get(ctx, provider)
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, "", ErrNoCredential
		}
		if err != nil {
			return nil, "", err
		}
		if data.AccessToken == "" {
			return nil, "", ErrNoCredential
		}
		for k, v := range data.Extra {
			vars[k] = v
		}
		vars[models.KeyAccessToken] = data.AccessToken
		source = "stored"
	}

	for k, v := range req.Params {
		if k != models.KeyAccessToken && v != "" {
			vars[k] = v
		}
	}
	return vars, source, nil
}

func (s *ProbeService) runStep(
	ctx context.Context,
	step providers.ProbeStep,
	vars map[string]string,
) ProbeStepResult {
	method := step.Method
	if method == "" {
		method = http.MethodGet
	}

	var missing []string
	rawURL, m := providers.Expand(step.URL, vars)
	missing = append(missing, m...)
	body, m := providers.Expand(step.Body, vars)
	missing = append(missing, m...)
	headers := make(map[string]string, len(step.Headers))
	for k, v := range step.Headers {
		expanded, m := providers.Expand(v, vars)
		missing = append(missing, m...)
		headers[k] = expanded
	}

	result := ProbeStepResult{Request: ProbeHTTPRequest{Method: method, URL: redact(rawURL, vars)}}
	if len(missing) > 0 {
		sort.Strings(missing)
		result.Error = "missing value for " + strings.Join(missing, ", ")
		return result
	}

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}
	if auth := authorization(step.AuthScheme, vars[models.KeyAccessToken]); auth != "" {
		httpReq.Header.Set("Authorization", auth)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		result.Error = redact(err.Error(), vars)
		return result
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBodyBytes))
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Response = &ProbeHTTPResponse{Status: resp.StatusCode, Body: passThrough(raw)}
	result.OK = resp.StatusCode >= 200 && resp.StatusCode <= 299
	if result.OK && step.OKField != "" {
		flag, _ := providers.Lookup(raw, step.OKField)
		result.OK = flag == "true"
	}
	if !result.OK {
		return result
	}

	for name, path := range step.Capture {
		v, found := providers.Lookup(raw, path)
		if !found || v == "" {
			result.OK = false
			result.Error = fmt.Sprintf("no %s in response (%s)", name, path)
			return result
		}
		vars[name] = v
	}
	return result
}

func authorization(scheme, token string) string {
	switch scheme {
	case "", providers.AuthBearer:
		return "Bearer " + token
	case providers.AuthRaw:
		return token
	case providers.AuthNone:
		return ""
	default:
		return scheme + " " + token
	}
}

// redact keeps tokens that travel in the URL out of the response
func redact(s string, vars map[string]string) string {
	if token := vars[models.KeyAccessToken]; token != "" {
		return strings.ReplaceAll(s, token, "[REDACTED]")
	}
	return s
}

// passThrough returns valid JSON as-is and anything else as a JSON string
func passThrough(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	if json.Valid(raw) {
		return json.RawMessage(raw)
	}
	b, _ := json.Marshal(string(raw))
	return json.RawMessage(b)
}
