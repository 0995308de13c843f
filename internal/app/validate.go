package app

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"messagewall/pkg/config"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateConfig performs fail-fast validation of the effective
// configuration before anything long-running starts.
func validateConfig(eff config.EffectiveConfigResult) error {
	if eff.Config == nil {
		return fmt.Errorf("nil config")
	}
	if err := validate.Struct(eff.Config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if eff.Config.Notify.Backend == "kafka" && len(eff.Config.Notify.Kafka.Brokers) == 0 {
		return fmt.Errorf("notify backend is kafka but no brokers configured: set notify.kafka.brokers or MESSAGEWALL_KAFKA_BROKERS")
	}
	return nil
}
