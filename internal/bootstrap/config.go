package bootstrap

import (
	"fmt"

	"github.com/go-authgate/connectgate/internal/config"
	"github.com/go-authgate/connectgate/internal/util"
)

const defaultSessionSecret = "session-secret-change-in-production"

// validateAllConfiguration validates all configuration settings
func validateAllConfiguration(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validateProductionConfig(cfg); err != nil {
		return fmt.Errorf("invalid production configuration: %w", err)
	}
	return nil
}

// validateProductionConfig refuses the development defaults in production
func validateProductionConfig(cfg *config.Config) error {
	if !cfg.IsProduction {
		return nil
	}
	if cfg.SessionSecret == defaultSessionSecret || len(cfg.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be set to at least 32 characters")
	}
	if !util.IsRedirectSafe(cfg.BaseURL) {
		return fmt.Errorf("BASE_URL must be an absolute http(s) URL, got %q", cfg.BaseURL)
	}
	if cfg.OutboundInsecureSkipVerify {
		return fmt.Errorf("OUTBOUND_INSECURE_SKIP_VERIFY must not be enabled")
	}
	return nil
}
