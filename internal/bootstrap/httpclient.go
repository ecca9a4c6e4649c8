package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/go-authgate/connectgate/internal/config"
	"github.com/go-authgate/connectgate/internal/httpclient"

	"go.uber.org/zap"
)

// createOutboundHTTPClient creates the client used for token exchange,
// provider metadata and probe calls
func createOutboundHTTPClient(cfg *config.Config) (*http.Client, error) {
	if cfg.OutboundInsecureSkipVerify {
		zap.L().Warn("outbound TLS verification is disabled (OUTBOUND_INSECURE_SKIP_VERIFY=true)")
	}

	client, err := httpclient.NewOutboundClient(cfg.OutboundTimeout, cfg.OutboundInsecureSkipVerify)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbound HTTP client: %w", err)
	}
	return client, nil
}
