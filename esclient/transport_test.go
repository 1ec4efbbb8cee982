package esclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seenRequest struct {
	method string
	path   string
	query  string
	header http.Header
	body   string
}

// newEngineServer answers every request with status and body and records
// what it saw.
func newEngineServer(t *testing.T, status int, body string) (*httptest.Server, func() []seenRequest) {
	t.Helper()

	var (
		mu   sync.Mutex
		seen []seenRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, seenRequest{
			method: r.Method,
			path:   r.URL.EscapedPath(),
			query:  r.URL.RawQuery,
			header: r.Header.Clone(),
			body:   string(b),
		})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv, func() []seenRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]seenRequest(nil), seen...)
	}
}

func TestCall_Query(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]any
		wantVal string
	}{
		{name: "given no params, then returns nothing", params: nil, wantVal: ""},
		{name: "given string param, then uses it verbatim", params: map[string]any{"routing": "u 1"}, wantVal: "routing=u+1"},
		{name: "given number param, then formats it", params: map[string]any{"size": 10}, wantVal: "size=10"},
		{name: "given bool param, then formats it", params: map[string]any{"refresh": true}, wantVal: "refresh=true"},
		{name: "given string slice, then joins with commas", params: map[string]any{"fields": []string{"a", "b"}}, wantVal: "fields=a%2Cb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Call{Params: tt.params}
			assert.Equal(t, tt.wantVal, c.Query().Encode())
		})
	}
}

func TestHTTPTransport_Perform(t *testing.T) {
	t.Run("given call with body and params, then sends them to base url plus path", func(t *testing.T) {
		srv, seen := newEngineServer(t, http.StatusOK, `{"took":1}`)
		tr := NewHTTPTransport(WithBaseURL(srv.URL+"/"), WithDefaultHeader("X-Tenant", "acme"))

		call := &Call{
			Kind:     "Search",
			Method:   http.MethodPost,
			Path:     "/a%2Cb,c/_search",
			Params:   map[string]any{"size": 5},
			Body:     `{"query":{"match_all":{}}}`,
			HasBody:  true,
			OpaqueID: "op-1",
		}

		resp, err := tr.Perform(context.Background(), call)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"took":1}`, resp.String())
		assert.Same(t, call, resp.Call)
		assert.Empty(t, resp.CurlCommand())

		got := seen()
		require.Len(t, got, 1)
		assert.Equal(t, http.MethodPost, got[0].method)
		assert.Equal(t, "/a%2Cb,c/_search", got[0].path)
		assert.Equal(t, "size=5", got[0].query)
		assert.Equal(t, `{"query":{"match_all":{}}}`, got[0].body)
		assert.Equal(t, "application/json", got[0].header.Get("Content-Type"))
		assert.Equal(t, "application/json", got[0].header.Get("Accept"))
		assert.Equal(t, "acme", got[0].header.Get("X-Tenant"))
		assert.Equal(t, "op-1", got[0].header.Get(OpaqueIDHeader))
	})

	t.Run("given call without body, then sends no content type", func(t *testing.T) {
		srv, seen := newEngineServer(t, http.StatusOK, `{}`)
		tr := NewHTTPTransport(WithBaseURL(srv.URL))

		_, err := tr.Perform(context.Background(), &Call{Method: http.MethodGet, Path: "/logs/_doc/1"})
		require.NoError(t, err)

		got := seen()
		require.Len(t, got, 1)
		assert.Empty(t, got[0].body)
		assert.Empty(t, got[0].header.Get("Content-Type"))
		assert.NotEmpty(t, got[0].header.Get(OpaqueIDHeader))
	})

	t.Run("given error status, then returns StatusError with the response", func(t *testing.T) {
		srv, _ := newEngineServer(t, http.StatusNotFound, `{"found":false}`)
		tr := NewHTTPTransport(WithBaseURL(srv.URL))

		resp, err := tr.Perform(context.Background(), &Call{Method: http.MethodGet, Path: "/logs/_doc/1"})

		assert.Nil(t, resp)
		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusNotFound, se.StatusCode)
		assert.JSONEq(t, `{"found":false}`, se.Response.String())
		assert.Contains(t, err.Error(), "HTTP 404")
	})

	t.Run("given curl generation, then attaches a redacted command", func(t *testing.T) {
		srv, _ := newEngineServer(t, http.StatusOK, `{}`)
		tr := NewHTTPTransport(
			WithBaseURL(srv.URL),
			WithGenerateCurl(true),
			WithBasicAuth("elastic", "secret"),
		)

		resp, err := tr.Perform(context.Background(), &Call{
			Method:  http.MethodPost,
			Path:    "/logs/_search",
			Body:    `{"q":"it's"}`,
			HasBody: true,
		})
		require.NoError(t, err)

		cmd := resp.CurlCommand()
		assert.True(t, strings.HasPrefix(cmd, "curl -X POST '"+srv.URL+"/logs/_search'"))
		assert.Contains(t, cmd, "-H 'Authorization: ***'")
		assert.NotContains(t, cmd, "secret")
		assert.Contains(t, cmd, `-d '{"q":"it'\''s"}'`)
	})

	t.Run("given interceptors, then applies them in order", func(t *testing.T) {
		srv, seen := newEngineServer(t, http.StatusOK, `{}`)
		tr := NewHTTPTransport(
			WithBaseURL(srv.URL),
			WithAPIKey("id", "secret"),
			WithRequestInterceptor(UserAgentInterceptor("catalog/1.0")),
			WithRequestInterceptor(func(req *http.Request) error {
				req.Header.Set("X-Order", req.Header.Get("User-Agent"))
				return nil
			}),
		)

		_, err := tr.Perform(context.Background(), &Call{Method: http.MethodGet, Path: "/"})
		require.NoError(t, err)

		got := seen()
		require.Len(t, got, 1)
		assert.Equal(t, "ApiKey aWQ6c2VjcmV0", got[0].header.Get("Authorization"))
		assert.Equal(t, "catalog/1.0", got[0].header.Get("X-Order"))
	})

	t.Run("given failing interceptor, then does not send", func(t *testing.T) {
		srv, seen := newEngineServer(t, http.StatusOK, `{}`)
		boom := errors.New("token unavailable")
		tr := NewHTTPTransport(
			WithBaseURL(srv.URL),
			WithRequestInterceptor(AuthBearerFuncInterceptor(func() (string, error) { return "", boom })),
		)

		_, err := tr.Perform(context.Background(), &Call{Method: http.MethodGet, Path: "/"})

		assert.ErrorIs(t, err, boom)
		assert.Empty(t, seen())
	})

	t.Run("given unreachable engine, then returns the network error", func(t *testing.T) {
		srv, _ := newEngineServer(t, http.StatusOK, `{}`)
		url := srv.URL
		srv.Close()

		tr := NewHTTPTransport(WithBaseURL(url))
		_, err := tr.Perform(context.Background(), &Call{Method: http.MethodGet, Path: "/"})

		require.Error(t, err)
		assert.True(t, TransientClassifier(err))
	})
}

func TestInterceptors(t *testing.T) {
	tests := []struct {
		name        string
		interceptor RequestInterceptor
		header      string
		wantVal     string
	}{
		{
			name:        "given basic auth, then sets basic credentials",
			interceptor: BasicAuthInterceptor("elastic", "changeme"),
			header:      "Authorization",
			wantVal:     "Basic ZWxhc3RpYzpjaGFuZ2VtZQ==",
		},
		{
			name:        "given API key, then sets the ApiKey scheme",
			interceptor: APIKeyInterceptor("abc"),
			header:      "Authorization",
			wantVal:     "ApiKey abc",
		},
		{
			name: "given bearer func, then sets the current token",
			interceptor: AuthBearerFuncInterceptor(func() (string, error) {
				return "tok", nil
			}),
			header:  "Authorization",
			wantVal: "Bearer tok",
		},
		{
			name:        "given user agent, then sets it",
			interceptor: UserAgentInterceptor("search/2"),
			header:      "User-Agent",
			wantVal:     "search/2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://es/", nil)

			require.NoError(t, tt.interceptor(req))
			assert.Equal(t, tt.wantVal, req.Header.Get(tt.header))
		})
	}
}

func TestInterceptorChain_StopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	var ran []string

	chain := NewInterceptorChain()
	chain.AddRequestInterceptor(func(*http.Request) error { ran = append(ran, "a"); return nil })
	chain.AddRequestInterceptor(func(*http.Request) error { ran = append(ran, "b"); return boom })
	chain.AddRequestInterceptor(func(*http.Request) error { ran = append(ran, "c"); return nil })

	err := chain.ApplyRequestInterceptors(httptest.NewRequest(http.MethodGet, "http://es/", nil))

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b"}, ran)
}

func TestGenerateCurlCommand(t *testing.T) {
	t.Run("given GET without body, then omits method and data", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://es:9200/logs/_count", nil)
		req.Header = http.Header{}

		assert.Equal(t, "curl 'http://es:9200/logs/_count'", generateCurlCommand(req, nil))
	})

	t.Run("given headers, then lists them sorted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "http://es:9200/logs", nil)
		req.Header = http.Header{}
		req.Header.Set("X-B", "2")
		req.Header.Set("Accept", "application/json")

		assert.Equal(t,
			"curl -X PUT 'http://es:9200/logs' -H 'Accept: application/json' -H 'X-B: 2' -d '{}'",
			generateCurlCommand(req, []byte(`{}`)),
		)
	})
}
