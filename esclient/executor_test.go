package esclient

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var errConnReset = errors.New("connection reset by peer")

// scriptedTransport fails the first failures attempts with err, then
// answers with body.
type scriptedTransport struct {
	mu       sync.Mutex
	failures int
	err      error
	body     string
	calls    []*Call
}

func (s *scriptedTransport) Perform(_ context.Context, call *Call) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	if len(s.calls) <= s.failures {
		return nil, s.err
	}
	return &Response{StatusCode: http.StatusOK, Body: []byte(s.body), Call: call}, nil
}

func (s *scriptedTransport) attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newTestClient(t *testing.T, transport Transport, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{
		WithTransport(transport),
		WithRetryBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	}, opts...)
	c := New(opts...)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

type hits struct {
	Total int `json:"total"`
}

var searchKind = NewKind("Search", http.MethodPost, "_search", DecodeJSON[hits]())

func TestRequest_Get_Retries(t *testing.T) {
	type args struct {
		retries  int
		failures int
	}

	tests := []struct {
		name         string
		args         args
		wantErr      assert.ErrorAssertionFunc
		wantAttempts int
	}{
		{
			name:         "given no retries and success, then sends once",
			args:         args{retries: 0, failures: 0},
			wantErr:      assert.NoError,
			wantAttempts: 1,
		},
		{
			name:         "given no retries and a failure, then surfaces it after one attempt",
			args:         args{retries: 0, failures: 1},
			wantErr:      assert.Error,
			wantAttempts: 1,
		},
		{
			name:         "given two retries and failures on attempts 1 and 2, then succeeds on attempt 3",
			args:         args{retries: 2, failures: 2},
			wantErr:      assert.NoError,
			wantAttempts: 3,
		},
		{
			name:         "given two retries and three failures, then surfaces the last failure",
			args:         args{retries: 2, failures: 3},
			wantErr:      assert.Error,
			wantAttempts: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &scriptedTransport{failures: tt.args.failures, err: errConnReset, body: `{"total":7}`}
			c := newTestClient(t, transport)

			r := NewRequest(c, searchKind).SetIndex("logs")
			require.NoError(t, r.SetRetries(tt.args.retries))

			got, err := r.Get(context.Background())

			tt.wantErr(t, err)
			assert.Equal(t, tt.wantAttempts, transport.attempts())
			if err != nil {
				// Transport failures surface unchanged.
				assert.Same(t, errConnReset, err)
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, 7, got.Total)
		})
	}
}

func TestRequest_Get_Classifier(t *testing.T) {
	transport := &scriptedTransport{failures: 5, err: errConnReset}
	c := newTestClient(t, transport, WithRetryClassifier(NeverRetryClassifier()))

	r := NewRequest(c, searchKind)
	require.NoError(t, r.SetRetries(3))

	_, err := r.Get(context.Background())

	assert.Same(t, errConnReset, err)
	assert.Equal(t, 1, transport.attempts())
}

func TestRequest_Get_ValidationBeforeSend(t *testing.T) {
	transport := &scriptedTransport{}
	c := newTestClient(t, transport)

	kind := RawKind("GetDoc", http.MethodGet, "").WithValidate(RequireFields("index", "id"))

	_, err := NewRequest(c, kind).SetIndex("logs").Get(context.Background())

	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, transport.attempts())
}

func TestRequest_Get_AssemblesCall(t *testing.T) {
	transport := &scriptedTransport{body: `{}`}
	c := newTestClient(t, transport)

	r := NewRequest(c, RawKind("Search", "", "_search")).
		SetIndices("a", "b").
		SetFields("x", "y").
		SetParam("size", 20)
	require.NoError(t, r.SetRouting("user-1"))
	require.NoError(t, r.SetBodyMap(map[string]any{"query": map[string]any{"match_all": map[string]any{}}}))

	resp, err := r.Get(context.Background())
	require.NoError(t, err)

	require.Len(t, transport.calls, 1)
	call := transport.calls[0]
	assert.Equal(t, "Search", call.Kind)
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "/a,b/_search", call.Path)
	assert.True(t, call.HasBody)
	assert.JSONEq(t, `{"query":{"match_all":{}}}`, call.Body)
	assert.Equal(t, map[string]any{"fields": "x,y", "size": 20, "routing": "user-1"}, call.Params)
	assert.NotEmpty(t, call.OpaqueID)

	assert.Equal(t, 1, resp.Attempts)
	assert.Same(t, call, resp.Call)
}

func TestRequest_Get_OpaqueIDStableAcrossRetries(t *testing.T) {
	transport := &scriptedTransport{failures: 2, err: errConnReset, body: `{}`}
	c := newTestClient(t, transport)

	r := c.Request("Ping", http.MethodGet, "")
	require.NoError(t, r.SetRetries(2))

	_, err := r.Get(context.Background())
	require.NoError(t, err)

	require.Len(t, transport.calls, 3)
	assert.Equal(t, transport.calls[0].OpaqueID, transport.calls[2].OpaqueID)
}

func TestRequest_DispatchOnce(t *testing.T) {
	transport := &scriptedTransport{body: `{}`}
	c := newTestClient(t, transport)

	r := c.Request("Ping", http.MethodGet, "")

	_, err := r.Get(context.Background())
	require.NoError(t, err)

	_, err = r.Get(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyDispatched)
	assert.ErrorIs(t, err, ErrIllegalState)

	_, err = r.Execute(context.Background()).Wait(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyDispatched)
	assert.Equal(t, 1, transport.attempts())
}

func TestRequest_NoClient(t *testing.T) {
	_, err := NewRequest(nil, RawKind("Ping", "", "")).Get(context.Background())
	assert.ErrorIs(t, err, ErrIllegalState)
}

func TestRequest_Get_NilResponse(t *testing.T) {
	transport := TransportFunc(func(context.Context, *Call) (*Response, error) {
		return nil, nil
	})
	c := newTestClient(t, transport)

	r := c.Request("Ping", http.MethodGet, "")
	require.NoError(t, r.SetRetries(3))

	_, err := r.Get(context.Background())
	assert.ErrorIs(t, err, ErrIllegalState)
}

// blockingTransport holds every call until release is closed.
type blockingTransport struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingTransport) Perform(ctx context.Context, call *Call) (*Response, error) {
	b.started <- struct{}{}
	select {
	case <-b.release:
		return &Response{StatusCode: http.StatusOK, Body: []byte(`{"total":3}`), Call: call}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestRequest_Execute(t *testing.T) {
	t.Run("given slow transport, then returns a pending future immediately", func(t *testing.T) {
		transport := &blockingTransport{started: make(chan struct{}, 1), release: make(chan struct{})}
		c := newTestClient(t, transport)

		f := NewRequest(c, searchKind).Execute(context.Background())

		<-transport.started
		_, done, _ := f.Result()
		assert.False(t, done)

		close(transport.release)
		resp, err := f.Wait(context.Background())
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("given transforming kind, then Execute holds the raw response and Get the transformed one", func(t *testing.T) {
		transport := &scriptedTransport{body: `{"total":9}`}
		c := newTestClient(t, transport)

		resp, err := NewRequest(c, searchKind).Execute(context.Background()).Wait(context.Background())
		require.NoError(t, err)
		assert.IsType(t, &Response{}, resp)
		assert.JSONEq(t, `{"total":9}`, resp.String())

		got, err := NewRequest(c, searchKind).Get(context.Background())
		require.NoError(t, err)
		assert.IsType(t, &hits{}, got)
		assert.Equal(t, 9, got.Total)
	})

	t.Run("given transforming kind, then ExecuteResult applies the transform", func(t *testing.T) {
		transport := &scriptedTransport{body: `{"total":4}`}
		c := newTestClient(t, transport)

		got, err := NewRequest(c, searchKind).ExecuteResult(context.Background()).Wait(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 4, got.Total)
	})

	t.Run("given retries, then the future holds the eventual success", func(t *testing.T) {
		transport := &scriptedTransport{failures: 2, err: errConnReset, body: `{}`}
		c := newTestClient(t, transport)

		r := NewRequest(c, searchKind)
		require.NoError(t, r.SetRetries(2))

		resp, err := r.Execute(context.Background()).Wait(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 3, resp.Attempts)
	})

	t.Run("given exhausted retries, then the future holds the transport failure", func(t *testing.T) {
		transport := &scriptedTransport{failures: 10, err: errConnReset}
		c := newTestClient(t, transport)

		r := NewRequest(c, searchKind)
		require.NoError(t, r.SetRetries(1))

		_, err := r.Execute(context.Background()).Wait(context.Background())

		assert.Same(t, errConnReset, err)
		assert.Equal(t, 2, transport.attempts())
	})

	t.Run("given failing validation, then the future is already completed", func(t *testing.T) {
		transport := &scriptedTransport{}
		c := newTestClient(t, transport)

		kind := RawKind("GetDoc", http.MethodGet, "").WithValidate(RequireFields("id"))
		f := NewRequest(c, kind).Execute(context.Background())

		_, done, err := f.Result()
		assert.True(t, done)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Zero(t, transport.attempts())
	})

	t.Run("given cancelled future, then the transport sees a cancelled context", func(t *testing.T) {
		transport := &blockingTransport{started: make(chan struct{}, 1), release: make(chan struct{})}
		c := newTestClient(t, transport)

		f := NewRequest(c, searchKind).Execute(context.Background())
		<-transport.started

		assert.True(t, f.Cancel())

		_, err := f.Wait(context.Background())
		assert.ErrorIs(t, err, context.Canceled)
		require.NoError(t, c.Close(context.Background()))
	})
}

func TestRequest_Execute_Concurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	transport := TransportFunc(func(_ context.Context, call *Call) (*Response, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return &Response{StatusCode: http.StatusOK, Call: call}, nil
	})
	c := newTestClient(t, transport, WithWorkers(2))

	futures := make([]*Future[*Response], 8)
	for i := range futures {
		futures[i] = c.Request("Ping", http.MethodGet, "").Execute(context.Background())
	}
	for _, f := range futures {
		_, err := f.Wait(context.Background())
		require.NoError(t, err)
	}

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, uint64(8), c.Pool().Stats().Completed)
}

func TestRequest_Get_Span(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	transport := &scriptedTransport{failures: 1, err: errConnReset, body: `{}`}
	c := newTestClient(t, transport, WithTracerProvider(tp), WithServiceName("catalog"))

	r := c.Request("Ping", http.MethodGet, "")
	require.NoError(t, r.SetRetries(1))
	_, err := r.Get(context.Background())
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "Ping", spans[0].Name())

	attrs := map[string]any{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "elasticsearch", attrs["db.system"])
	assert.Equal(t, "catalog", attrs["es.client.name"])
	assert.Equal(t, int64(2), attrs["es.attempts"])
}

func TestRequest_Get_RetryBudget(t *testing.T) {
	paced := WithRetryBackOff(func() backoff.BackOff { return backoff.NewConstantBackOff(40 * time.Millisecond) })

	t.Run("given default config and paced retries, then every retry is attempted", func(t *testing.T) {
		transport := &scriptedTransport{failures: 10, err: errConnReset}
		c := newTestClient(t, transport, paced)

		r := NewRequest(c, searchKind)
		require.NoError(t, r.SetRetries(5))

		_, err := r.Get(context.Background())

		assert.Same(t, errConnReset, err)
		assert.Equal(t, 6, transport.attempts())
	})

	t.Run("given an explicit time budget, then it can end retries early", func(t *testing.T) {
		rc := DefaultRetryConfig()
		rc.MaxElapsedTime = 100 * time.Millisecond
		transport := &scriptedTransport{failures: 10, err: errConnReset}
		c := newTestClient(t, transport, paced, WithRetryConfig(rc))

		r := NewRequest(c, searchKind)
		require.NoError(t, r.SetRetries(5))

		_, err := r.Get(context.Background())

		assert.Same(t, errConnReset, err)
		assert.Less(t, transport.attempts(), 6)
	})
}
