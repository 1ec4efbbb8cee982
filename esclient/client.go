package esclient

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Client owns the resources shared by every request: the transport, the
// async worker pool, the body serializer and telemetry.
//
// Create a Client using New():
//
//	client := esclient.New(
//	    esclient.WithBaseURL("http://es.internal:9200"),
//	    esclient.WithServiceName("catalog-search"),
//	)
//	defer client.Close(ctx)
//
//	resp, err := client.Request("CountLogs", http.MethodGet, "_count").
//	    SetIndex("logs").
//	    Get(ctx)
type Client struct {
	cfg        *internalConfig
	transport  Transport
	pool       *Pool
	serializer Serializer
	logger     zerolog.Logger
	collector  prometheus.Collector
}

// New creates a Client. Without WithTransport, requests go through an
// HTTPTransport built from the same options.
//
// Example - distributed breaker and throttling:
//
//	client := esclient.New(
//	    esclient.WithBaseURL("https://es.internal:9200"),
//	    esclient.WithAPIKey(keyID, keySecret),
//	    esclient.WithBreakerConfig(esclient.DistributedBreakerConfig(esclient.NewRedisStore(rdb))),
//	    esclient.WithRateLimit(esclient.DefaultRateLimitConfig()),
//	)
func New(opts ...Option) *Client {
	cfg := newConfig(opts...)

	transport := cfg.Transport
	if transport == nil {
		transport = newHTTPTransport(cfg)
	}

	c := &Client{
		cfg:        cfg,
		transport:  transport,
		pool:       NewPool(cfg.httpConfig.Workers, cfg.Logger),
		serializer: cfg.Serializer,
		logger:     cfg.Logger,
	}

	if cfg.Registerer != nil {
		name := cfg.ServiceName
		if name == "" {
			name = "esclient"
		}
		collector := NewPoolCollector(c.pool, name)
		if err := cfg.Registerer.Register(collector); err != nil {
			cfg.Logger.Warn().Err(err).Msg("esclient: pool collector not registered")
		} else {
			c.collector = collector
		}
	}

	return c
}

// Request creates a request whose result is the raw *Response.
//
// Example:
//
//	resp, err := client.Request("Search", http.MethodPost, "_search").
//	    SetIndices("logs-2024", "logs-2025").
//	    Get(ctx)
func (c *Client) Request(name, method, endpoint string) *Request[*Response] {
	return NewRequest(c, RawKind(name, method, endpoint))
}

// Transport returns the transport requests are sent through.
func (c *Client) Transport() Transport {
	return c.transport
}

// Pool returns the async worker pool.
func (c *Client) Pool() *Pool {
	return c.pool
}

// Close stops accepting async requests and waits for running ones to
// finish or for ctx to end.
func (c *Client) Close(ctx context.Context) error {
	err := c.pool.Close(ctx)
	if c.collector != nil {
		c.cfg.Registerer.Unregister(c.collector)
		c.collector = nil
	}
	return err
}
