package builtin

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/Iron-Ham/modhost/internal/component"
	"github.com/Iron-Ham/modhost/internal/logging"
	"github.com/Iron-Ham/modhost/internal/manifest"
)

// Factory names registered by Register.
const (
	FactoryClock     = "clock"
	FactoryKV        = "kv"
	FactoryHeartbeat = "heartbeat"
)

// Register adds the builtin factories to cat. Each component logs through
// a child of logger tagged with its factory name.
func Register(cat *manifest.Catalog, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.NopLogger()
	}
	factories := []struct {
		name string
		ctor manifest.Constructor
	}{
		{FactoryClock, func(s map[string]any) (component.Component, error) {
			return NewClock(s, logger.WithComponent(FactoryClock))
		}},
		{FactoryKV, func(s map[string]any) (component.Component, error) {
			return NewStore(s, logger.WithComponent(FactoryKV))
		}},
		{FactoryHeartbeat, func(s map[string]any) (component.Component, error) {
			return NewHeartbeat(s, logger.WithComponent(FactoryHeartbeat))
		}},
	}
	for _, f := range factories {
		if err := cat.Register(f.name, f.ctor); err != nil {
			return err
		}
	}
	return nil
}

// decodeSettings fills out from a manifest settings map. Durations accept
// strings such as "250ms"; unknown keys are rejected.
func decodeSettings(settings map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(settings); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	return nil
}
