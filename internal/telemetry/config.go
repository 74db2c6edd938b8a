// Package telemetry provides OpenTelemetry trace instrumentation for
// advisord. Metrics are exported separately via the Prometheus endpoint.
package telemetry

import (
	"fmt"
	"strings"
)

// Config holds telemetry configuration.
type Config struct {
	// Enabled turns trace export on. Disabled by default so deployments
	// without a collector are not degraded.
	Enabled bool `koanf:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port).
	Endpoint string `koanf:"endpoint"`

	// Protocol selects the exporter transport: "grpc" or "http/protobuf".
	Protocol string `koanf:"protocol"`

	// ServiceName identifies this service in traces.
	ServiceName string `koanf:"service_name"`

	// ServiceVersion is the reported service version.
	ServiceVersion string `koanf:"service_version"`

	// Insecure disables TLS. Only allowed for local endpoints.
	Insecure bool `koanf:"insecure"`

	// SamplingRate is the trace sampling rate in [0, 1].
	SamplingRate float64 `koanf:"sampling_rate"`
}

// ApplyDefaults fills unset fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4317"
	}
	if c.Protocol == "" {
		c.Protocol = "grpc"
	}
	if c.ServiceName == "" {
		c.ServiceName = "advisord"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "0.1.0"
	}
	if c.SamplingRate == 0 {
		c.SamplingRate = 1.0
	}
}

// Validate checks configuration for errors.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required when telemetry is enabled")
	}

	switch c.Protocol {
	case "grpc", "http/protobuf":
	default:
		return fmt.Errorf("invalid protocol %q", c.Protocol)
	}

	// Plaintext export of trace payloads stays on the local host.
	if c.Insecure && !c.isLocalEndpoint() {
		return fmt.Errorf("insecure connections to remote endpoints are not allowed")
	}

	if c.SamplingRate < 0 || c.SamplingRate > 1 {
		return fmt.Errorf("sampling_rate must be between 0 and 1, got %f", c.SamplingRate)
	}

	return nil
}

// isLocalEndpoint checks if the endpoint is a local address.
func (c *Config) isLocalEndpoint() bool {
	host := c.Endpoint
	if idx := strings.LastIndex(host, ":"); idx != -1 && strings.Count(host, ":") == 1 {
		host = host[:idx]
	}
	return host == "localhost" || host == "::1" || strings.HasPrefix(host, "127.")
}
