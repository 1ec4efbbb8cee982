package config

const (
	// Engine configuration
	DefaultBaseURL = "http://localhost:9200"
	DefaultIndex   = "products"
	DefaultWorkers = 8
	DefaultRetries = 2

	// Shared breaker state; empty keeps the breaker local
	RedisAddr = "localhost:6379"

	// Server configuration
	MetricsPort = ":2112"

	// OpenTelemetry configuration
	OTLPEndpoint   = "localhost:4317"
	ServiceName    = "sentinel-search-example"
	ServiceVersion = "0.1.0"

	// Operation intervals
	OperationInterval = 5 // seconds
)
