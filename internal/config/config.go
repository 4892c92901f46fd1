// Package config defines the engine's runtime configuration and how it is
// loaded.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// RuntimeConfig controls the execution engine.
type RuntimeConfig struct {
	// Workers caps the runner's worker pool. Zero means one worker per
	// available CPU.
	Workers int `yaml:"workers" validate:"gte=0"`
}

// TelemetryConfig controls tracing and metrics export.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled"`

	// ExporterEndpoint is the OTLP gRPC endpoint, host:port.
	ExporterEndpoint string `yaml:"exporter_endpoint" validate:"required_if=Enabled true"`

	// SampleProbability is the fraction of traces sampled.
	SampleProbability float64 `yaml:"sample_probability" validate:"gte=0,lte=1"`

	InsecureExporter bool `yaml:"insecure_exporter"`
}

// Config represents the top-level configuration.
type Config struct {
	ServiceName string `yaml:"service_name" validate:"required"`
	LogLevel    string `yaml:"log_level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR"`

	Runtime   RuntimeConfig   `yaml:"runtime"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// WorkflowPath is the workflow document to replay.
	WorkflowPath string `yaml:"workflow_path" validate:"required"`

	// HierarchyPath is the hierarchy snapshot the workflow runs against.
	HierarchyPath string `yaml:"hierarchy_path" validate:"required"`

	// OutputPath receives the post-replay hierarchy snapshot. Empty
	// disables the write-back.
	OutputPath string `yaml:"output_path"`
}

// Validate checks the configuration against its declared constraints.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
