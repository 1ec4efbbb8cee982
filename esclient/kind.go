package esclient

import (
	"fmt"
	"net/http"
)

// Kind describes one kind of engine request: how it is sent, what must hold
// before it is sent, and how its response is turned into R.
//
// Kinds are plain values, usually declared once at package level:
//
//	var GetDocument = esclient.Kind[*Document]{
//	    Name:      "GetDocument",
//	    Method:    http.MethodGet,
//	    Validate:  esclient.RequireFields("index", "id"),
//	    Transform: esclient.DecodeJSON[Document](),
//	}
type Kind[R any] struct {
	// Name identifies the kind in logs, spans and String().
	Name string

	// Method is the HTTP method. Empty means GET, or POST when a body is set.
	Method string

	// Endpoint is the trailing operation segment, e.g. "_search" or "_bulk".
	// It is appended to the path without escaping.
	Endpoint string

	// Validate runs before any network call. Nil accepts every request.
	Validate func(t Target) error

	// Transform turns the raw response into R on the synchronous path.
	// Nil is the identity when R is *Response.
	Transform func(resp *Response) (R, error)
}

// Target is the read-only view of a request handed to Kind.Validate.
type Target struct {
	Path    Path
	Params  map[string]any
	HasBody bool
	Retries int
}

// RawKind returns a kind whose result is the raw *Response.
func RawKind(name, method, endpoint string) Kind[*Response] {
	return Kind[*Response]{Name: name, Method: method, Endpoint: endpoint}
}

// NewKind returns a kind that decodes responses with transform.
func NewKind[R any](name, method, endpoint string, transform func(*Response) (R, error)) Kind[R] {
	return Kind[R]{Name: name, Method: method, Endpoint: endpoint, Transform: transform}
}

// WithValidate returns a copy of k that validates with v.
func (k Kind[R]) WithValidate(v func(t Target) error) Kind[R] {
	k.Validate = v
	return k
}

// DecodeJSON returns a transform that unmarshals the response body into a
// new T.
func DecodeJSON[T any]() func(*Response) (*T, error) {
	return func(resp *Response) (*T, error) {
		v := new(T)
		if err := resp.Decode(v); err != nil {
			return nil, fmt.Errorf("esclient: decode %T: %w", v, err)
		}
		return v, nil
	}
}

func (k Kind[R]) method(hasBody bool) string {
	switch {
	case k.Method != "":
		return k.Method
	case hasBody:
		return http.MethodPost
	default:
		return http.MethodGet
	}
}

func (k Kind[R]) validate(t Target) error {
	if k.Validate == nil {
		return nil
	}
	return k.Validate(t)
}

func (k Kind[R]) transform(resp *Response) (R, error) {
	if k.Transform != nil {
		return k.Transform(resp)
	}
	if r, ok := any(resp).(R); ok {
		return r, nil
	}
	var zero R
	return zero, fmt.Errorf("%w: %s", ErrNoTransform, k.Name)
}
