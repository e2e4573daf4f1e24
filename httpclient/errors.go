package httpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// ErrClientInit wraps failures to construct the shared client.
var ErrClientInit = errors.New("httpclient: client initialization failed")

// ErrorKind is the closed set of reasons a request can fail before a
// response is received.
type ErrorKind int

const (
	// ErrorKindOther is any failure not matching a more specific kind,
	// including redirect limit violations and cancellation.
	ErrorKindOther ErrorKind = iota

	// ErrorKindConnect covers DNS resolution, TCP connect and TLS
	// handshake failures.
	ErrorKindConnect

	// ErrorKindTimeout means the overall or connect-phase timeout elapsed.
	ErrorKindTimeout

	// ErrorKindProtocol means the request could not be framed or sent, or
	// the connection broke before a well-formed response arrived.
	ErrorKindProtocol
)

// String returns the kind name used in logs and the error.kind attribute.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindConnect:
		return "connect"
	case ErrorKindTimeout:
		return "timeout"
	case ErrorKindProtocol:
		return "protocol"
	default:
		return "other"
	}
}

// TransportError is returned by Client.Do when no response was received.
type TransportError struct {
	Kind ErrorKind

	// Type is the fine-grained error.type recorded on the span,
	// e.g. "dns_error" or "connection_refused".
	Type string

	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Classify returns the ErrorKind of a transport error. Errors already
// classified as *TransportError keep their kind.
func Classify(err error) ErrorKind {
	kind, _ := classify(err)
	return kind
}

// Error type classifications for the error.type attribute.
const (
	ErrorTypeTimeout           = "timeout"
	ErrorTypeConnectionRefused = "connection_refused"
	ErrorTypeDNSError          = "dns_error"
	ErrorTypeTLSError          = "tls_error"
	ErrorTypeCancelled         = "cancelled"
	ErrorTypeConnectionReset   = "connection_reset"
	ErrorTypeEOF               = "eof"
	ErrorTypeRedirect          = "redirect_limit"
	ErrorTypeProtocol          = "protocol_error"
	ErrorTypeUnknown           = "unknown"
)

// errRedirectLimit is returned from CheckRedirect once the hop limit is hit.
var errRedirectLimit = errors.New("redirect limit exceeded")

// classify maps an error to its ErrorKind and error.type. Typed checks
// run first; message matching only catches errors that lost their type
// while being wrapped by the transport.
func classify(err error) (ErrorKind, string) {
	if err == nil {
		return ErrorKindOther, ""
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Kind, te.Type
	}

	// Timeouts take precedence: a dial that timed out is a timeout, not a
	// connect failure.
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout, ErrorTypeTimeout
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return ErrorKindTimeout, ErrorTypeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorKindTimeout, ErrorTypeTimeout
	}

	if errors.Is(err, context.Canceled) {
		return ErrorKindOther, ErrorTypeCancelled
	}
	if errors.Is(err, errRedirectLimit) {
		return ErrorKindOther, ErrorTypeRedirect
	}

	if kind, typ, ok := classifyConnect(err); ok {
		return kind, typ
	}

	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return ErrorKindProtocol, ErrorTypeConnectionReset
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrorKindProtocol, ErrorTypeEOF
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && (opErr.Op == "read" || opErr.Op == "write") {
		return ErrorKindProtocol, ErrorTypeProtocol
	}

	return classifyMessage(err)
}

// classifyConnect recognises failures during connection establishment.
func classifyConnect(err error) (ErrorKind, string, bool) {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrorKindConnect, ErrorTypeDNSError, true
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return ErrorKindConnect, ErrorTypeConnectionRefused, true
	}

	var (
		recordErr tls.RecordHeaderError
		verifyErr *tls.CertificateVerificationError
		alertErr  tls.AlertError
		authErr   x509.UnknownAuthorityError
		hostErr   x509.HostnameError
		certErr   x509.CertificateInvalidError
	)
	if errors.As(err, &recordErr) || errors.As(err, &verifyErr) || errors.As(err, &alertErr) ||
		errors.As(err, &authErr) || errors.As(err, &hostErr) || errors.As(err, &certErr) {
		return ErrorKindConnect, ErrorTypeTLSError, true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return ErrorKindConnect, ErrorTypeConnectionRefused, true
	}

	return ErrorKindOther, "", false
}

// classifyMessage is the fallback for errors the transport flattened to text.
func classifyMessage(err error) (ErrorKind, string) {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "timeout"):
		return ErrorKindTimeout, ErrorTypeTimeout
	case strings.Contains(msg, "no such host"):
		return ErrorKindConnect, ErrorTypeDNSError
	case strings.Contains(msg, "connection refused"):
		return ErrorKindConnect, ErrorTypeConnectionRefused
	case strings.Contains(msg, "tls:") || strings.Contains(msg, "x509") ||
		strings.Contains(msg, "certificate"):
		return ErrorKindConnect, ErrorTypeTLSError
	case strings.Contains(msg, "connection reset"):
		return ErrorKindProtocol, ErrorTypeConnectionReset
	case strings.Contains(msg, "unsupported protocol scheme"),
		strings.Contains(msg, "malformed http"),
		strings.Contains(msg, "invalid header"),
		strings.Contains(msg, "http2:"):
		return ErrorKindProtocol, ErrorTypeProtocol
	case strings.Contains(msg, "eof"):
		return ErrorKindProtocol, ErrorTypeEOF
	}

	return ErrorKindOther, ErrorTypeUnknown
}
