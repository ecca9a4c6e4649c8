package bootstrap

import (
	"context"

	"github.com/go-authgate/connectgate/internal/config"
	"github.com/go-authgate/connectgate/internal/telemetry"
	"github.com/go-authgate/connectgate/internal/version"

	"go.uber.org/zap"
)

// initializeTelemetry installs the global tracer provider
func initializeTelemetry(
	ctx context.Context,
	cfg *config.Config,
	logger *zap.Logger,
) (*telemetry.Provider, error) {
	return telemetry.New(ctx, telemetry.Options{
		Endpoint:    cfg.OTelEndpoint,
		Insecure:    cfg.OTelInsecure,
		ServiceName: cfg.OTelServiceName,
		Version:     version.GetVersion(),
	}, logger)
}
