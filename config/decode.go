package config

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Decode fills out from a generic map using the same mapstructure tags and
// duration parsing as LoadConfig. Backend factories use it to turn their
// config map into a typed Config. Unknown keys are ignored.
func Decode(in map[string]any, out any) error {
	if len(in) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("config: build decoder: %w", err)
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("config: decode: %w", err)
	}
	return nil
}
