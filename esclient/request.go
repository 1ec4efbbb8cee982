package esclient

import (
	"fmt"
	"maps"
	"strings"
	"sync/atomic"
)

// Request is a single engine call being assembled. R is the result type of
// its Kind, so chained setters keep it without conversions.
//
// A Request has one owner and is dispatched at most once. It must not be
// mutated while a dispatch is running.
//
//	hits, err := esclient.NewRequest(client, Search).
//	    SetIndices("logs-2024", "logs-2025").
//	    SetParam("size", 20).
//	    Get(ctx)
type Request[R any] struct {
	client *Client
	kind   Kind[R]

	path    Path
	params  map[string]any
	body    Body
	retries int

	// bodyJSON memoizes the serialized body.
	bodyJSON *string

	dispatched atomic.Bool
}

// NewRequest creates a request of kind k bound to c.
func NewRequest[R any](c *Client, k Kind[R]) *Request[R] {
	return &Request[R]{
		client: c,
		kind:   k,
		path:   Path{Endpoint: k.Endpoint},
		params: make(map[string]any),
	}
}

// SetIndices sets the target indices. Calling it with no names targets no
// index at all, which differs from SetAllIndices. The names are copied.
func (r *Request[R]) SetIndices(indices ...string) *Request[R] {
	r.path.Indices = append([]string{}, indices...)
	return r
}

// SetAllIndices targets every index (`_all`), the state of a request on
// which no index was ever set.
func (r *Request[R]) SetAllIndices() *Request[R] {
	r.path.Indices = nil
	return r
}

// SetIndex targets a single index.
func (r *Request[R]) SetIndex(index string) *Request[R] {
	r.path.Indices = []string{index}
	return r
}

// SetType sets the document type segment.
func (r *Request[R]) SetType(typ string) *Request[R] {
	r.path.Type = typ
	return r
}

// SetID sets the document id segment.
func (r *Request[R]) SetID(id string) *Request[R] {
	r.path.ID = id
	return r
}

// SetPath copies the indices, type and id present in p. The endpoint always
// comes from the request kind.
func (r *Request[R]) SetPath(p Path) *Request[R] {
	r.path = r.path.merge(p)
	return r
}

// SetParam sets a query parameter.
func (r *Request[R]) SetParam(key string, value any) *Request[R] {
	r.params[key] = value
	return r
}

// SetParams sets several query parameters.
func (r *Request[R]) SetParams(params map[string]any) *Request[R] {
	maps.Copy(r.params, params)
	return r
}

// SetParent sets the parent document id.
func (r *Request[R]) SetParent(id string) *Request[R] {
	r.params["parent"] = id
	return r
}

// SetFields limits the returned fields; stored as "fields=a,b,c".
func (r *Request[R]) SetFields(names ...string) *Request[R] {
	r.params["fields"] = strings.Join(names, ",")
	return r
}

// SetRouting sets the routing key. The literal "null" is rejected: it is
// what a stringified missing value looks like.
func (r *Request[R]) SetRouting(routing string) error {
	if routing == "null" {
		return &ValidationError{Field: "routing", Value: routing, Reason: `the literal "null" is not a routing key`}
	}
	r.params["routing"] = routing
	return nil
}

// SetRetries sets how many extra attempts follow a failed one.
func (r *Request[R]) SetRetries(n int) error {
	if n < 0 {
		return &ValidationError{Field: "retries", Value: n, Reason: "must be >= 0"}
	}
	r.retries = n
	return nil
}

// SetBodyJSON sets a raw JSON body sent verbatim.
func (r *Request[R]) SetBodyJSON(json string) error {
	return r.SetBody(RawBody(json))
}

// SetBodyMap sets a structured body.
func (r *Request[R]) SetBodyMap(doc map[string]any) error {
	return r.SetBody(MapBody(doc))
}

// SetBody sets the body. Only the first assignment of either form succeeds;
// later ones return ErrBodyAlreadySet.
func (r *Request[R]) SetBody(b Body) error {
	if r.body.IsSet() {
		return ErrBodyAlreadySet
	}
	if !b.IsSet() {
		return &ValidationError{Field: "body", Value: nil, Reason: "body is unset"}
	}
	r.body = b
	return nil
}

// BodyMap returns the structured body for in-place editing, creating an
// empty one when no body is set. It fails with ErrBodyAlreadySet when the
// body is raw.
func (r *Request[R]) BodyMap() (map[string]any, error) {
	if !r.body.IsSet() {
		r.body = MapBody(nil)
	}
	doc, ok := r.body.Map()
	if !ok {
		return nil, fmt.Errorf("%w: body is raw JSON", ErrBodyAlreadySet)
	}
	return doc, nil
}

// BodyJSON returns the body text and whether a body is set. A structured
// body is serialized on the first call; later calls return the same text.
func (r *Request[R]) BodyJSON() (string, bool, error) {
	if r.bodyJSON != nil {
		return *r.bodyJSON, true, nil
	}
	text, ok, err := r.body.resolve(r.serializer())
	if err != nil || !ok {
		return "", false, err
	}
	r.bodyJSON = &text
	return text, true, nil
}

// Params returns the query parameters. The map is owned by the request.
func (r *Request[R]) Params() map[string]any { return r.params }

// Path returns the request path.
func (r *Request[R]) Path() Path { return r.path }

// Retries returns the number of extra attempts.
func (r *Request[R]) Retries() int { return r.retries }

// Kind returns the request kind.
func (r *Request[R]) Kind() Kind[R] { return r.kind }

// Body returns the body as set so far.
func (r *Request[R]) Body() Body { return r.body }

// String returns the kind name, followed by the path when exactly one index
// is targeted, e.g. "GetDocument[/logs/_doc/7]".
func (r *Request[R]) String() string {
	if len(r.path.Indices) == 1 {
		return r.kind.Name + "[" + r.path.String() + "]"
	}
	return r.kind.Name
}

func (r *Request[R]) target() Target {
	return Target{
		Path:    r.path,
		Params:  r.params,
		HasBody: r.body.IsSet(),
		Retries: r.retries,
	}
}

func (r *Request[R]) serializer() Serializer {
	if r.client != nil && r.client.serializer != nil {
		return r.client.serializer
	}
	return CanonicalSerializer{}
}
