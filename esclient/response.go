package esclient

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

// Response is a fully read engine response.
//
// Transports buffer the body so a Response can be decoded any number of
// times and handed across goroutines through a Future.
type Response struct {
	// StatusCode is the HTTP status returned by the engine.
	StatusCode int

	// Header holds the response headers.
	Header http.Header

	// Body is the raw response body.
	Body []byte

	// Call is the call that produced this response.
	Call *Call

	// Attempts is the number of transport attempts made, including the first.
	Attempts int

	// Duration is the total time spent dispatching, retries included.
	Duration time.Duration

	// curlCommand is only populated when WithGenerateCurl(true) was set.
	curlCommand string
}

// String returns the body as a string.
func (r *Response) String() string {
	return string(r.Body)
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

// IsSuccess returns true if the response status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError returns true if the response status code is 4xx or 5xx.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// CurlCommand returns the cURL command equivalent for the request.
//
// This is only populated if WithGenerateCurl(true) was set on the client.
func (r *Response) CurlCommand() string {
	return r.curlCommand
}
