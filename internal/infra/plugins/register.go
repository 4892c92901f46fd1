package plugins

import "github.com/pathmorph/pathmorph/internal/app/plugin"

// RegisterAll registers every built-in operation with the registry.
func RegisterAll(r *plugin.Registry) error {
	factories := []plugin.Factory{
		func() plugin.Plugin { return NewIntensityThreshold() },
		func() plugin.Plugin { return NewMeasurementFilter() },
		func() plugin.Plugin { return NewMetadataSet() },
	}
	for _, f := range factories {
		if err := r.Register(f); err != nil {
			return err
		}
	}
	return nil
}
