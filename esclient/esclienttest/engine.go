// Package esclienttest provides test doubles for code built on esclient.
package esclienttest

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"sync"
)

// Engine is an http.RoundTripper that answers like a search engine node
// from stubbed responses. Plug it in with esclient.WithRoundTripper.
//
//	engine := esclienttest.NewEngine().
//	    Stub(http.MethodGet, "/logs/_doc/1", 200, `{"found":true}`)
//	client := esclient.New(esclient.WithRoundTripper(engine))
type Engine struct {
	mu       sync.Mutex
	stubs    []*stub
	requests []Recorded
}

// Recorded is a request seen by the engine, body included.
type Recorded struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

type stub struct {
	method string
	path   string
	// replies are used in order; the last one repeats.
	replies []reply
	served  int
}

type reply struct {
	status int
	body   string
	err    error
}

// NewEngine creates an engine with no stubs.
func NewEngine() *Engine {
	return &Engine{}
}

// Stub answers method and path with status and body. An empty method
// matches any method.
func (e *Engine) Stub(method, path string, status int, body string) *Engine {
	return e.add(method, path, reply{status: status, body: body})
}

// StubError fails requests for method and path with err.
func (e *Engine) StubError(method, path string, err error) *Engine {
	return e.add(method, path, reply{err: err})
}

// StubSequence answers successive matching requests with statuses in order,
// all with body. The last status repeats.
func (e *Engine) StubSequence(method, path string, body string, statuses ...int) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := &stub{method: method, path: path}
	for _, status := range statuses {
		s.replies = append(s.replies, reply{status: status, body: body})
	}
	e.stubs = append(e.stubs, s)
	return e
}

func (e *Engine) add(method, path string, r reply) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stubs = append(e.stubs, &stub{method: method, path: path, replies: []reply{r}})
	return e
}

// RoundTrip implements http.RoundTripper.
func (e *Engine) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		_ = req.Body.Close()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.requests = append(e.requests, Recorded{
		Method: req.Method,
		Path:   req.URL.EscapedPath(),
		Query:  req.URL.RawQuery,
		Header: req.Header.Clone(),
		Body:   string(body),
	})

	// First match wins.
	for _, s := range e.stubs {
		if s.method != "" && s.method != req.Method {
			continue
		}
		if s.path != req.URL.EscapedPath() {
			continue
		}
		if len(s.replies) == 0 {
			break
		}

		r := s.replies[min(s.served, len(s.replies)-1)]
		s.served++
		if r.err != nil {
			return nil, r.err
		}
		return &http.Response{
			StatusCode:    r.status,
			Status:        http.StatusText(r.status),
			Header:        http.Header{"Content-Type": []string{"application/json"}},
			Body:          io.NopCloser(bytes.NewBufferString(r.body)),
			ContentLength: int64(len(r.body)),
			Request:       req,
		}, nil
	}

	return nil, errors.New("esclienttest: no stub for " + req.Method + " " + req.URL.EscapedPath())
}

// Requests returns every request seen so far.
func (e *Engine) Requests() []Recorded {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Recorded(nil), e.requests...)
}

// RequestCount returns the number of requests seen.
func (e *Engine) RequestCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.requests)
}

// LastRequest returns the most recent request and false if there is none.
func (e *Engine) LastRequest() (Recorded, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.requests) == 0 {
		return Recorded{}, false
	}
	return e.requests[len(e.requests)-1], true
}

// Reset clears recorded requests and stubs.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requests = nil
	e.stubs = nil
}
