package esclient

import (
	"crypto/tls"
	"encoding/base64"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// scope is the instrumentation scope name for OpenTelemetry.
	scope = "github.com/kroma-labs/sentinel-search/esclient"

	// defaultBaseURL is the engine's conventional local address.
	defaultBaseURL = "http://localhost:9200"
)

// =============================================================================
// Config - Transport and Pool Configuration
// =============================================================================

// Config holds the HTTP transport and worker pool parameters.
// Use DefaultConfig() to get a properly initialized configuration,
// then modify specific fields as needed.
//
// Example:
//
//	cfg := esclient.DefaultConfig()
//	cfg.Timeout = 5 * time.Second
//	cfg.Workers = 32
//
//	client := esclient.New(
//	    esclient.WithConfig(cfg),
//	    esclient.WithBaseURL("http://es.internal:9200"),
//	)
type Config struct {
	// Timeout limits a single transport attempt, body read included.
	// Retries each get their own budget.
	//
	// Default: 30s
	Timeout time.Duration

	// MaxIdleConns controls the maximum number of idle (keep-alive)
	// connections across all engine nodes.
	//
	// Default: 100
	MaxIdleConns int

	// MaxIdleConnsPerHost controls idle connections kept per node.
	// Search clients usually talk to a handful of nodes, so keep this
	// close to MaxIdleConns.
	//
	// Default: 50
	MaxIdleConnsPerHost int

	// MaxConnsPerHost limits idle plus active connections per node.
	// 0 means unlimited.
	//
	// Default: 100
	MaxConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains pooled.
	//
	// Default: 90s
	IdleConnTimeout time.Duration

	// TLSHandshakeTimeout is the maximum time to wait for a TLS handshake.
	//
	// Default: 10s
	TLSHandshakeTimeout time.Duration

	// ResponseHeaderTimeout is the time to wait for response headers once
	// the request is written. Zero falls back to Timeout.
	//
	// Default: 0
	ResponseHeaderTimeout time.Duration

	// DialTimeout is the maximum time to establish a TCP connection.
	//
	// Default: 5s
	DialTimeout time.Duration

	// KeepAlive specifies the TCP keep-alive probe interval.
	//
	// Default: 30s
	KeepAlive time.Duration

	// DisableCompression disables "Accept-Encoding: gzip".
	//
	// Default: false
	DisableCompression bool

	// Workers bounds how many asynchronous requests run at once.
	// Submissions beyond the bound wait for a free worker.
	//
	// Default: 16
	Workers int
}

// DefaultConfig returns a balanced configuration suitable for most use cases.
func DefaultConfig() Config {
	return Config{
		Timeout:             30 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 50,
		MaxConnsPerHost:     100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialTimeout:         5 * time.Second,
		KeepAlive:           30 * time.Second,
		Workers:             16,
	}
}

// HighThroughputConfig returns a configuration for bulk indexing and
// other workloads with many concurrent requests.
//
// Key differences from DefaultConfig:
//   - Larger connection pools, unlimited connections per node
//   - More async workers
//   - Longer timeout for large bulk bodies
func HighThroughputConfig() Config {
	return Config{
		Timeout:             60 * time.Second,
		MaxIdleConns:        500,
		MaxIdleConnsPerHost: 200,
		MaxConnsPerHost:     0, // Unlimited for bursts
		IdleConnTimeout:     120 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialTimeout:         5 * time.Second,
		KeepAlive:           30 * time.Second,
		Workers:             128,
	}
}

// LowLatencyConfig returns a configuration for user-facing search where
// failing fast beats waiting.
func LowLatencyConfig() Config {
	return Config{
		Timeout:               5 * time.Second,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   25,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       60 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: 3 * time.Second,
		DialTimeout:           2 * time.Second,
		KeepAlive:             15 * time.Second,
		Workers:               32,
	}
}

// ConservativeConfig returns a resource-conscious configuration for
// constrained environments.
func ConservativeConfig() Config {
	return Config{
		Timeout:             20 * time.Second,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 5,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialTimeout:         5 * time.Second,
		KeepAlive:           30 * time.Second,
		Workers:             4,
	}
}

// =============================================================================
// Internal Configuration
// =============================================================================

// internalConfig holds all client configuration.
type internalConfig struct {
	httpConfig Config

	// BaseURL is the engine address every path is appended to.
	BaseURL string

	// ServiceName identifies the client in spans, metrics and breaker names.
	ServiceName string

	// === Logging ===

	Logger       zerolog.Logger
	Debug        bool
	GenerateCurl bool

	// === OpenTelemetry ===

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Metrics        *metrics

	// === Retry ===

	RetryConfig     RetryConfig
	RetryBackOff    func() backoff.BackOff
	RetryClassifier RetryClassifier

	// === Resilience ===

	BreakerConfig   *BreakerConfig
	RateLimitConfig RateLimitConfig

	// === Collaborators ===

	// Transport replaces the built-in HTTP transport entirely.
	Transport Transport

	// RoundTripper replaces the base http.Transport under the built-in chain.
	RoundTripper http.RoundTripper

	Serializer Serializer

	TLSConfig *tls.Config

	DefaultHeaders http.Header
	Interceptors   []RequestInterceptor

	// Registerer receives the worker pool collector when set.
	Registerer prometheus.Registerer
}

// newConfig creates a new internal config with defaults and applies options.
func newConfig(opts ...Option) *internalConfig {
	cfg := &internalConfig{
		httpConfig:     DefaultConfig(),
		BaseURL:        defaultBaseURL,
		Logger:         zerolog.Nop(),
		TracerProvider: otel.GetTracerProvider(),
		MeterProvider:  otel.GetMeterProvider(),
		RetryConfig:    DefaultRetryConfig(),
		Serializer:     CanonicalSerializer{},
		DefaultHeaders: make(http.Header),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	cfg.Tracer = cfg.TracerProvider.Tracer(scope)
	cfg.Meter = cfg.MeterProvider.Meter(scope)

	// Instruments are optional; a nil *metrics records nothing.
	cfg.Metrics, _ = newMetrics(cfg.Meter)

	if cfg.RetryClassifier == nil {
		cfg.RetryClassifier = DefaultClassifier
	}

	return cfg
}

// buildTransport creates an http.Transport from the configuration.
func (cfg *internalConfig) buildTransport() *http.Transport {
	hc := cfg.httpConfig

	dialer := &net.Dialer{
		Timeout:   hc.DialTimeout,
		KeepAlive: hc.KeepAlive,
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          hc.MaxIdleConns,
		MaxIdleConnsPerHost:   hc.MaxIdleConnsPerHost,
		MaxConnsPerHost:       hc.MaxConnsPerHost,
		IdleConnTimeout:       hc.IdleConnTimeout,
		TLSHandshakeTimeout:   hc.TLSHandshakeTimeout,
		ResponseHeaderTimeout: hc.ResponseHeaderTimeout,
		DisableCompression:    hc.DisableCompression,
		TLSClientConfig:       cfg.TLSConfig,
	}
}

// newBackOff returns a fresh pacing strategy for one dispatch.
func (cfg *internalConfig) newBackOff() backoff.BackOff {
	if cfg.RetryBackOff != nil {
		return cfg.RetryBackOff()
	}
	return ExponentialBackOffFromConfig(cfg.RetryConfig)
}

// baseAttributes returns common attributes for all spans and metrics.
func (cfg *internalConfig) baseAttributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	attrs = append(attrs, attribute.String("db.system", "elasticsearch"))
	if cfg.ServiceName != "" {
		attrs = append(attrs, attribute.String("es.client.name", cfg.ServiceName))
	}
	return attrs
}

// =============================================================================
// Options - Functional Options for Client Configuration
// =============================================================================

// Option configures the client.
type Option func(*internalConfig)

// WithConfig sets the transport and pool configuration.
// Use DefaultConfig(), HighThroughputConfig(), LowLatencyConfig(), or
// ConservativeConfig() as a starting point.
func WithConfig(c Config) Option {
	return func(cfg *internalConfig) {
		cfg.httpConfig = c
	}
}

// WithBaseURL sets the engine address, e.g. "https://es.internal:9200".
//
// Default: http://localhost:9200
func WithBaseURL(baseURL string) Option {
	return func(cfg *internalConfig) {
		cfg.BaseURL = baseURL
	}
}

// WithServiceName sets an identifier for this client. It is added as the
// "es.client.name" attribute on spans and metrics and names the breaker.
func WithServiceName(name string) Option {
	return func(cfg *internalConfig) {
		cfg.ServiceName = name
	}
}

// WithLogger sets the zerolog logger used for retries and debug output.
//
// Default: zerolog.Nop()
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *internalConfig) {
		cfg.Logger = logger
	}
}

// WithDebug logs every HTTP request and response at debug level.
func WithDebug(enabled bool) Option {
	return func(cfg *internalConfig) {
		cfg.Debug = enabled
	}
}

// WithGenerateCurl attaches an equivalent cURL command to every Response.
func WithGenerateCurl(enabled bool) Option {
	return func(cfg *internalConfig) {
		cfg.GenerateCurl = enabled
	}
}

// WithTracerProvider sets a custom OpenTelemetry TracerProvider.
// If not called, the global provider from otel.GetTracerProvider() is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *internalConfig) {
		cfg.TracerProvider = tp
	}
}

// WithMeterProvider sets a custom OpenTelemetry MeterProvider.
// If not called, the global provider from otel.GetMeterProvider() is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(cfg *internalConfig) {
		cfg.MeterProvider = mp
	}
}

// WithRetryConfig sets the pacing between retry attempts. The number of
// attempts is set per request with Request.SetRetries.
func WithRetryConfig(rc RetryConfig) Option {
	return func(cfg *internalConfig) {
		cfg.RetryConfig = rc
	}
}

// WithRetryBackOff sets a factory for a custom pacing strategy. The factory
// is called once per dispatch so strategies may keep state.
//
// Example:
//
//	client := esclient.New(
//	    esclient.WithRetryBackOff(func() backoff.BackOff {
//	        return esclient.NewConstantBackOffWithJitter()
//	    }),
//	)
func WithRetryBackOff(f func() backoff.BackOff) Option {
	return func(cfg *internalConfig) {
		cfg.RetryBackOff = f
	}
}

// WithRetryClassifier sets the function deciding which failures are retried.
//
// Default: DefaultClassifier
func WithRetryClassifier(c RetryClassifier) Option {
	return func(cfg *internalConfig) {
		cfg.RetryClassifier = c
	}
}

// WithBreakerConfig wraps the HTTP transport in a circuit breaker.
func WithBreakerConfig(bc BreakerConfig) Option {
	return func(cfg *internalConfig) {
		cfg.BreakerConfig = &bc
	}
}

// WithRateLimit throttles outgoing HTTP attempts.
func WithRateLimit(rl RateLimitConfig) Option {
	return func(cfg *internalConfig) {
		cfg.RateLimitConfig = rl
	}
}

// WithTransport replaces the built-in HTTP transport with t.
// HTTP-level options (base URL, breaker, rate limit, headers) are then ignored.
func WithTransport(t Transport) Option {
	return func(cfg *internalConfig) {
		cfg.Transport = t
	}
}

// WithRoundTripper replaces the base http.Transport. The breaker, rate
// limiter and tracing layers still wrap it.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(cfg *internalConfig) {
		cfg.RoundTripper = rt
	}
}

// WithSerializer replaces the canonical body serializer.
func WithSerializer(s Serializer) Option {
	return func(cfg *internalConfig) {
		cfg.Serializer = s
	}
}

// WithWorkers sets the async worker bound, overriding Config.Workers.
func WithWorkers(n int) Option {
	return func(cfg *internalConfig) {
		cfg.httpConfig.Workers = n
	}
}

// WithTLSConfig sets a custom TLS configuration.
func WithTLSConfig(tlsCfg *tls.Config) Option {
	return func(cfg *internalConfig) {
		cfg.TLSConfig = tlsCfg
	}
}

// WithDefaultHeader adds a header sent with every request.
func WithDefaultHeader(key, value string) Option {
	return func(cfg *internalConfig) {
		cfg.DefaultHeaders.Add(key, value)
	}
}

// WithRequestInterceptor adds an interceptor run on every outgoing HTTP request.
func WithRequestInterceptor(i RequestInterceptor) Option {
	return func(cfg *internalConfig) {
		cfg.Interceptors = append(cfg.Interceptors, i)
	}
}

// WithBasicAuth authenticates with a username and password.
func WithBasicAuth(username, password string) Option {
	return WithRequestInterceptor(BasicAuthInterceptor(username, password))
}

// WithAPIKey authenticates with an engine API key. Pass either the encoded
// key or an id and secret to be encoded.
//
// Example:
//
//	esclient.WithAPIKey("VnVhQ2ZHY0JDZGJrU...")
//	esclient.WithAPIKey("key-id", "key-secret")
func WithAPIKey(key string, secret ...string) Option {
	if len(secret) > 0 {
		key = base64.StdEncoding.EncodeToString([]byte(key + ":" + secret[0]))
	}
	return WithRequestInterceptor(APIKeyInterceptor(key))
}

// WithPrometheusRegisterer registers a collector exporting worker pool
// statistics with reg.
func WithPrometheusRegisterer(reg prometheus.Registerer) Option {
	return func(cfg *internalConfig) {
		cfg.Registerer = reg
	}
}
