package fetch

import (
	"errors"
	"fmt"

	"github.com/kroma-labs/readerbridge/httpclient"
)

// Kind classifies why an executor call failed.
type Kind int

const (
	// KindOther is any failure without a more specific kind.
	KindOther Kind = iota

	// KindInvalidInput is a malformed URL, unsupported method or invalid
	// header. No network I/O was attempted.
	KindInvalidInput

	// KindConnectFailed is a DNS, TCP connect or TLS handshake failure.
	KindConnectFailed

	// KindTimedOut means the overall or connect timeout elapsed.
	KindTimedOut

	// KindTransportFailed means the request could not be framed or sent.
	KindTransportFailed

	// KindHTTPStatus is a non-2xx response on the content-fetch path.
	KindHTTPStatus

	// KindBodyReadFailed means a response arrived but its body could not
	// be read or decoded.
	KindBodyReadFailed
)

var kindNames = map[Kind]string{
	KindOther:           "other",
	KindInvalidInput:    "invalid_input",
	KindConnectFailed:   "connect_failed",
	KindTimedOut:        "timed_out",
	KindTransportFailed: "transport_failed",
	KindHTTPStatus:      "http_status",
	KindBodyReadFailed:  "body_read_failed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the classified failure returned by every executor. Its message
// is the text shown to the user.
type Error struct {
	Kind Kind

	// Status is the response status code for KindHTTPStatus, else zero.
	Status int

	// Detail is the human-readable message returned by Error.
	Detail string

	Err error
}

func (e *Error) Error() string {
	return e.Detail
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or KindOther if err is not an *Error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindOther
}

// kindFromTransport maps the transport's closed error set onto Kind.
func kindFromTransport(k httpclient.ErrorKind) Kind {
	switch k {
	case httpclient.ErrorKindConnect:
		return KindConnectFailed
	case httpclient.ErrorKindTimeout:
		return KindTimedOut
	case httpclient.ErrorKindProtocol:
		return KindTransportFailed
	default:
		return KindOther
	}
}

// messages holds the user-facing prefix per transport failure kind.
type messages map[Kind]string

var (
	requestMessages = messages{
		KindConnectFailed:   "Connection failed",
		KindTimedOut:        "Timeout",
		KindTransportFailed: "TLS/Request error",
		KindOther:           "Request failed",
	}

	probeMessages = messages{
		KindConnectFailed:   "Connection failed (DNS or firewall?)",
		KindTimedOut:        "Timeout",
		KindTransportFailed: "TLS/Request error",
		KindOther:           "Network error",
	}
)

func (m messages) transportError(err error) *Error {
	kind := kindFromTransport(httpclient.Classify(err))
	return &Error{
		Kind:   kind,
		Detail: fmt.Sprintf("%s: %v", m[kind], err),
		Err:    err,
	}
}

func invalidInput(err error, format string, args ...any) *Error {
	return &Error{
		Kind:   KindInvalidInput,
		Detail: fmt.Sprintf(format, args...),
		Err:    err,
	}
}

func statusError(code int) *Error {
	return &Error{
		Kind:   KindHTTPStatus,
		Status: code,
		Detail: fmt.Sprintf("HTTP %d", code),
	}
}

func bodyReadError(err error) *Error {
	return &Error{
		Kind:   KindBodyReadFailed,
		Detail: fmt.Sprintf("Failed to read response body: %v", err),
		Err:    err,
	}
}

// clientError reports a shared client that could not be built.
func clientError(err error) *Error {
	return &Error{
		Kind:   KindOther,
		Detail: fmt.Sprintf("Request failed: %v", err),
		Err:    err,
	}
}
