// Package esclient builds and dispatches requests to a document-oriented
// search engine addressed by index, type and id.
//
// # Requests
//
// A request is created for a Kind, which fixes its method, its endpoint,
// an optional pre-send validation and the transform from the raw response
// to the kind's result type:
//
//	type Doc struct {
//	    Found  bool           `json:"found"`
//	    Source map[string]any `json:"_source"`
//	}
//
//	var GetDoc = esclient.NewKind("GetDoc", http.MethodGet, "", esclient.DecodeJSON[Doc]()).
//	    WithValidate(esclient.RequireFields("index", "id"))
//
//	doc, err := esclient.NewRequest(client, GetDoc).
//	    SetIndex("products").
//	    SetType("_doc").
//	    SetID("42").
//	    Get(ctx)
//
// Setters that cannot fail chain. SetRouting, SetRetries and the body
// setters return an error at the call that caused it.
//
// # Paths
//
// Paths are built as /<indices>/<type>/<id>/<endpoint>. Each index name is
// escaped on its own and the names are joined with ",". A request that never
// sets indices targets "_all".
//
// # Bodies
//
// A body is set once, either as raw JSON (SetBodyJSON) or as a document
// (SetBodyMap, BodyMap). Documents are serialized once with the client's
// Serializer; CanonicalSerializer is the default.
//
// # Dispatch
//
// Get blocks and returns the transformed result. Execute submits the
// request to the client's worker pool and returns a Future holding the raw
// *Response; the kind's Transform is not applied there. ExecuteResult
// applies it. Futures can be cancelled.
//
// A failed attempt is retried up to Retries times, paced by the client's
// RetryConfig and filtered by its RetryClassifier. The final failure is
// returned exactly as the transport produced it.
//
// # Transport
//
// HTTPTransport is the default Transport. Each attempt passes through
// OpenTelemetry tracing, an optional sony/gobreaker circuit breaker (local
// or shared through Redis) and an optional rate limiter. Responses outside
// 2xx become *StatusError.
package esclient
