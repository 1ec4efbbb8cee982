package esclient

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"
)

// RetryClassifier decides whether a failed transport attempt is retried.
// Return true to retry, false to surface the failure immediately.
//
// The classifier only ever sees failures; a request with zero retries never
// consults it.
//
// Example classifier that only retries overloaded nodes:
//
//	client := esclient.New(
//	    esclient.WithRetryClassifier(esclient.StatusCodeClassifier(429, 503)),
//	)
type RetryClassifier func(err error) bool

// DefaultClassifier retries every transport failure except caller
// cancellation and configuration errors. The retry count set on the request
// is the real limit.
func DefaultClassifier(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrIllegalState) {
		return false
	}
	return true
}

// TransientClassifier applies conservative rules:
//
// Retries on:
//   - Network errors (timeout, connection refused or reset)
//   - 429 Too Many Requests (queue rejections)
//   - 502 Bad Gateway, 503 Service Unavailable, 504 Gateway Timeout
//
// Does NOT retry on:
//   - Other 4xx responses (bad query, version conflict, missing index)
//   - 500 Internal Server Error
//   - Context cancellation
//   - TLS and certificate errors
func TransientClassifier(err error) bool {
	if !DefaultClassifier(err) {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return isRetryableStatusCode(se.StatusCode)
	}

	if isPermanentError(err) {
		return false
	}
	return isRetryableNetworkError(err)
}

// NeverRetryClassifier returns a classifier that never retries.
func NeverRetryClassifier() RetryClassifier {
	return func(error) bool { return false }
}

// StatusCodeClassifier returns a classifier that retries status errors with
// one of the given codes. Retryable network errors are always retried.
func StatusCodeClassifier(codes ...int) RetryClassifier {
	codeSet := make(map[int]bool, len(codes))
	for _, code := range codes {
		codeSet[code] = true
	}

	return func(err error) bool {
		var se *StatusError
		if errors.As(err, &se) {
			return codeSet[se.StatusCode]
		}
		return isRetryableNetworkError(err) && !isPermanentError(err)
	}
}

// isRetryableStatusCode returns true for status codes that indicate
// transient failures that may succeed on retry.
func isRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// isRetryableNetworkError returns true for network errors that are
// typically transient and may succeed on retry.
func isRetryableNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, io.EOF) {
		return true
	}

	return containsPattern(err, transientPatterns)
}

// isPermanentError returns true for errors that will not succeed on retry.
func isPermanentError(err error) bool {
	if err == nil {
		return false
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return true
	}

	if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EHOSTDOWN) {
		return true
	}

	return containsPattern(err, permanentPatterns)
}

var (
	transientPatterns = []string{
		"connection refused",
		"connection reset",
		"network is down",
		"network unreachable",
		"i/o timeout",
		"temporary failure",
		"server closed",
		"broken pipe",
		"eof",
	}
	permanentPatterns = []string{
		"x509:",
		"certificate",
		"tls:",
		"no route to host",
		"permission denied",
	}
)

// containsPattern is a fallback for wrapped errors where type checks fail.
func containsPattern(err error, patterns []string) bool {
	errStr := strings.ToLower(err.Error())
	for _, p := range patterns {
		if strings.Contains(errStr, p) {
			return true
		}
	}
	return false
}
