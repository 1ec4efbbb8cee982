package esclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OpaqueIDHeader is the header the engine echoes into its task list and
// slow logs, used to correlate a call with its server-side traces.
const OpaqueIDHeader = "X-Opaque-Id"

// Call is one fully assembled request, ready for a transport.
type Call struct {
	// Kind is the name of the request kind that produced the call.
	Kind string

	// Method is the HTTP method.
	Method string

	// Path is the escaped URL path, e.g. "/logs-2024,logs-2025/_search".
	Path string

	// Params become query parameters.
	Params map[string]any

	// Body is the JSON body text; only meaningful when HasBody is true.
	Body    string
	HasBody bool

	// OpaqueID correlates every attempt of one dispatch.
	OpaqueID string
}

// Query renders Params as URL query values. Strings are used verbatim and
// other values are formatted with fmt.Sprint.
func (c *Call) Query() url.Values {
	if len(c.Params) == 0 {
		return nil
	}
	q := make(url.Values, len(c.Params))
	for k, v := range c.Params {
		switch t := v.(type) {
		case string:
			q.Set(k, t)
		case []string:
			q.Set(k, strings.Join(t, ","))
		default:
			q.Set(k, fmt.Sprint(v))
		}
	}
	return q
}

// Transport performs a single attempt of a call. Retries are driven by the
// request executor, never by the transport.
//
// Implementations must be safe for concurrent use.
type Transport interface {
	Perform(ctx context.Context, call *Call) (*Response, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, call *Call) (*Response, error)

// Perform implements Transport.
func (f TransportFunc) Perform(ctx context.Context, call *Call) (*Response, error) {
	return f(ctx, call)
}

// HTTPTransport is the default Transport. It sends calls over an
// instrumented *http.Client and buffers the full response body.
//
// Any non-2xx status is returned as a *StatusError carrying the response.
type HTTPTransport struct {
	httpClient   *http.Client
	baseURL      string
	headers      http.Header
	interceptors *InterceptorChain
	logger       zerolog.Logger
	debug        bool
	generateCurl bool
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport builds the HTTP transport chain from opts:
// tracing → circuit breaker → rate limiter → base transport.
func NewHTTPTransport(opts ...Option) *HTTPTransport {
	return newHTTPTransport(newConfig(opts...))
}

func newHTTPTransport(cfg *internalConfig) *HTTPTransport {
	var base http.RoundTripper = cfg.RoundTripper
	if base == nil {
		base = cfg.buildTransport()
	}

	limited := newRateLimitTransport(base, cfg.RateLimitConfig)
	withBreaker := newCircuitBreakerTransport(limited, cfg)
	instrumented := newOtelTransport(withBreaker, cfg)

	chain := NewInterceptorChain()
	for _, i := range cfg.Interceptors {
		chain.AddRequestInterceptor(i)
	}

	return &HTTPTransport{
		httpClient: &http.Client{
			Transport: instrumented,
			Timeout:   cfg.httpConfig.Timeout,
		},
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		headers:      cfg.DefaultHeaders.Clone(),
		interceptors: chain,
		logger:       cfg.Logger,
		debug:        cfg.Debug,
		generateCurl: cfg.GenerateCurl,
	}
}

// HTTP returns the underlying *http.Client.
func (t *HTTPTransport) HTTP() *http.Client {
	return t.httpClient
}

// Perform implements Transport.
func (t *HTTPTransport) Perform(ctx context.Context, call *Call) (*Response, error) {
	req, err := t.newRequest(ctx, call)
	if err != nil {
		return nil, err
	}

	if t.debug {
		logRequest(t.logger, req)
	}

	start := time.Now()
	httpResp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	duration := time.Since(start)

	if t.debug {
		logResponse(t.logger, httpResp, duration)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
		Call:       call,
	}
	if t.generateCurl {
		var reqBody []byte
		if call.HasBody {
			reqBody = []byte(call.Body)
		}
		resp.curlCommand = generateCurlCommand(req, reqBody)
	}

	if !resp.IsSuccess() {
		return nil, &StatusError{StatusCode: resp.StatusCode, Response: resp}
	}
	return resp, nil
}

// newRequest converts a call into an *http.Request.
func (t *HTTPTransport) newRequest(ctx context.Context, call *Call) (*http.Request, error) {
	u, err := url.Parse(t.baseURL + call.Path)
	if err != nil {
		return nil, fmt.Errorf("esclient: build url: %w", err)
	}
	if q := call.Query(); len(q) > 0 {
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if call.HasBody {
		body = strings.NewReader(call.Body)
	}

	req, err := http.NewRequestWithContext(ctx, call.Method, u.String(), body)
	if err != nil {
		return nil, err
	}

	for k, v := range t.headers {
		for _, vv := range v {
			req.Header.Add(k, vv)
		}
	}

	if call.HasBody && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	opaqueID := call.OpaqueID
	if opaqueID == "" {
		opaqueID = uuid.NewString()
	}
	req.Header.Set(OpaqueIDHeader, opaqueID)

	if err := t.interceptors.ApplyRequestInterceptors(req); err != nil {
		return nil, err
	}
	return req, nil
}
