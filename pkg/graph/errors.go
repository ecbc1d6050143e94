package graph

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed Graph API call. The kind decides who handles the
// failure: Fatal aborts the run, Transient is retried by the transport, everything
// else is surfaced to the caller for a local decision (fallback, narrowing, zeroing).
type ErrorKind int

const (
	// KindFatal marks token/permission errors. Never retried; aborts the run.
	KindFatal ErrorKind = iota
	// KindRateLimited marks Graph-level rate limiting (codes 4, 17, 32, 613).
	// Retried with backoff like any transient failure.
	KindRateLimited
	// KindInvalidParameter marks Graph codes the caller declared non-retryable
	// for this specific call (invalid metric, deprecated field set). Surfaced
	// immediately so the caller can switch candidates or narrow the request.
	KindInvalidParameter
	// KindTransient marks network failures and HTTP 429/5xx responses.
	KindTransient
	// KindPermanent marks every other Graph error or non-OK HTTP status.
	// Not retried; the caller degrades or escalates.
	KindPermanent
)

func (k ErrorKind) String() string {
	switch k {
	case KindFatal:
		return "fatal"
	case KindRateLimited:
		return "rate_limited"
	case KindInvalidParameter:
		return "invalid_parameter"
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Graph error code sets. Meta documents these as stable across API versions.
var (
	fatalCodes     = map[int]bool{10: true, 190: true, 200: true}
	rateLimitCodes = map[int]bool{4: true, 17: true, 32: true, 613: true}
)

const (
	// CodeInvalidParameter is the catch-all Graph code for bad metric/field/query
	// parameters (OAuthException #100).
	CodeInvalidParameter = 100
	// CodeDeprecatedFeature is returned when a requested field combination has
	// been deprecated for the endpoint (#12).
	CodeDeprecatedFeature = 12

	// SubcodeUnsupportedOperation marks an object that does not support the
	// requested edge at all, as opposed to rejecting one bad parameter.
	SubcodeUnsupportedOperation = 33
	// CodeNotQueryable marks a query context the API refuses to serve (#3001).
	CodeNotQueryable = 3001
)

// Error is the transport's single error type. Kind drives control flow; the
// remaining fields preserve the Graph error payload for logs and diagnostics.
type Error struct {
	Kind       ErrorKind
	Code       int    // Graph API error code, 0 for pure HTTP/network failures
	Subcode    int    // Graph error_subcode
	Type       string // Graph error type, e.g. "OAuthException"
	Message    string
	TraceID    string // fbtrace_id, useful when filing Meta support tickets
	StatusCode int    // HTTP status, 0 for network failures
	Attempts   int    // attempts spent before giving up, 0 if not retried
	Cause      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("graph: %s", e.Kind)
	if e.Code != 0 {
		msg = fmt.Sprintf("%s code=%d", msg, e.Code)
		if e.Subcode != 0 {
			msg = fmt.Sprintf("%s subcode=%d", msg, e.Subcode)
		}
	} else if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s http=%d", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.TraceID != "" {
		msg = fmt.Sprintf("%s (fbtrace_id=%s)", msg, e.TraceID)
	}
	if e.Attempts > 1 {
		msg = fmt.Sprintf("%s after %d attempts", msg, e.Attempts)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches two graph errors by kind, so callers can use errors.Is with a
// kind-only target: errors.Is(err, &graph.Error{Kind: graph.KindFatal}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// IsFatal reports whether err carries a fatal token/permission classification.
func IsFatal(err error) bool { return hasKind(err, KindFatal) }

// IsInvalidParameter reports whether err was surfaced as a per-call
// non-retryable parameter rejection.
func IsInvalidParameter(err error) bool { return hasKind(err, KindInvalidParameter) }

// IsTransient reports whether err would be retried by the transport.
func IsTransient(err error) bool {
	return hasKind(err, KindTransient) || hasKind(err, KindRateLimited)
}

func hasKind(err error, kind ErrorKind) bool {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind == kind
	}
	return false
}

// ErrCode extracts the Graph API error code from err, or 0.
func ErrCode(err error) int {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return 0
}

// ErrSubcode extracts the Graph API error subcode from err, or 0.
func ErrSubcode(err error) int {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Subcode
	}
	return 0
}

// classify maps a parsed Graph error payload to an error kind. nonRetryable
// holds the codes the caller marked non-retryable for this specific call.
func classify(code int, nonRetryable map[int]bool) ErrorKind {
	switch {
	case fatalCodes[code]:
		return KindFatal
	case nonRetryable[code]:
		return KindInvalidParameter
	case rateLimitCodes[code]:
		return KindRateLimited
	default:
		return KindPermanent
	}
}
