package esclient

import (
	"net/http"
)

// RequestInterceptor modifies an outgoing HTTP request before it is sent.
// Interceptors run in the order they were added, once per attempt.
//
// Common use cases:
//   - Authentication (basic auth, API keys, bearer tokens)
//   - Tenant or cluster routing headers
//   - Custom User-Agent strings
type RequestInterceptor func(req *http.Request) error

// InterceptorChain runs request interceptors in order.
type InterceptorChain struct {
	requestInterceptors []RequestInterceptor
}

// NewInterceptorChain creates an empty interceptor chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{}
}

// AddRequestInterceptor adds a request interceptor to the chain.
func (c *InterceptorChain) AddRequestInterceptor(i RequestInterceptor) {
	c.requestInterceptors = append(c.requestInterceptors, i)
}

// ApplyRequestInterceptors runs all request interceptors in order and stops
// at the first error.
func (c *InterceptorChain) ApplyRequestInterceptors(req *http.Request) error {
	for _, interceptor := range c.requestInterceptors {
		if err := interceptor(req); err != nil {
			return err
		}
	}
	return nil
}

// BasicAuthInterceptor sets HTTP basic credentials.
func BasicAuthInterceptor(username, password string) RequestInterceptor {
	return func(req *http.Request) error {
		req.SetBasicAuth(username, password)
		return nil
	}
}

// APIKeyInterceptor sets "Authorization: ApiKey <key>" where key is the
// base64 encoding of "id:secret".
func APIKeyInterceptor(key string) RequestInterceptor {
	return func(req *http.Request) error {
		req.Header.Set("Authorization", "ApiKey "+key)
		return nil
	}
}

// AuthBearerFuncInterceptor sets a bearer token obtained from tokenFunc on
// every attempt, so refreshed tokens are picked up.
func AuthBearerFuncInterceptor(tokenFunc func() (string, error)) RequestInterceptor {
	return func(req *http.Request) error {
		token, err := tokenFunc()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	}
}

// UserAgentInterceptor sets the User-Agent header.
func UserAgentInterceptor(userAgent string) RequestInterceptor {
	return func(req *http.Request) error {
		req.Header.Set("User-Agent", userAgent)
		return nil
	}
}
