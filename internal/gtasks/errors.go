package gtasks

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// ErrorKind classifies a failed call.
type ErrorKind int

const (
	// KindTransport covers network failures and every non-success HTTP status except 401.
	KindTransport ErrorKind = iota + 1
	// KindPermissionDenied is an HTTP 401 from the service.
	KindPermissionDenied
	// KindCancelled means the call's context ended before an outcome was read.
	KindCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindPermissionDenied:
		return "permission denied"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrTransport        = &Error{Kind: KindTransport}
	ErrPermissionDenied = &Error{Kind: KindPermissionDenied}
	ErrCancelled        = &Error{Kind: KindCancelled}
)

// Error is the failure outcome of a call.
type Error struct {
	Kind ErrorKind

	// StatusCode is the HTTP status, zero when no response was received.
	StatusCode int

	// Message is the server's reason phrase for HTTP failures.
	Message string

	// Err is the underlying transport or context error, if any.
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		return "gtasks: " + e.Kind.String()
	}
	return "gtasks: " + e.Kind.String() + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.StatusCode == 0 && t.Message == "" && t.Err == nil
}

// KindOf returns the kind of a call failure anywhere in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsPermissionDenied reports whether err is an HTTP 401 outcome.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsCancelled reports whether err is a cancelled outcome.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

func statusError(resp *http.Response) *Error {
	kind := KindTransport
	if resp.StatusCode == http.StatusUnauthorized {
		kind = KindPermissionDenied
	}
	return &Error{
		Kind:       kind,
		StatusCode: resp.StatusCode,
		Message:    reasonPhrase(resp),
	}
}

// reasonPhrase strips the numeric code from resp.Status.
func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}
