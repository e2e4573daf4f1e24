package httpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	wrap := func(err error) error {
		return &url.Error{Op: "Get", URL: "https://example.com", Err: err}
	}

	tests := []struct {
		name     string
		err      error
		wantKind ErrorKind
		wantType string
	}{
		{
			name:     "given deadline exceeded, then timeout",
			err:      wrap(context.DeadlineExceeded),
			wantKind: ErrorKindTimeout,
			wantType: ErrorTypeTimeout,
		},
		{
			name:     "given dial timeout, then timeout wins over connect",
			err:      wrap(&net.OpError{Op: "dial", Net: "tcp", Err: timeoutErr{}}),
			wantKind: ErrorKindTimeout,
			wantType: ErrorTypeTimeout,
		},
		{
			name:     "given dns failure, then connect",
			err:      wrap(&net.OpError{Op: "dial", Err: &net.DNSError{Err: "no such host", Name: "nope.invalid"}}),
			wantKind: ErrorKindConnect,
			wantType: ErrorTypeDNSError,
		},
		{
			name: "given connection refused, then connect",
			err: wrap(&net.OpError{Op: "dial", Net: "tcp",
				Err: &os.SyscallError{Syscall: "connect", Err: syscall.ECONNREFUSED}}),
			wantKind: ErrorKindConnect,
			wantType: ErrorTypeConnectionRefused,
		},
		{
			name:     "given unknown authority, then connect",
			err:      wrap(&tls.CertificateVerificationError{Err: x509.UnknownAuthorityError{}}),
			wantKind: ErrorKindConnect,
			wantType: ErrorTypeTLSError,
		},
		{
			name:     "given tls record header error, then connect",
			err:      wrap(tls.RecordHeaderError{Msg: "first record does not look like a TLS handshake"}),
			wantKind: ErrorKindConnect,
			wantType: ErrorTypeTLSError,
		},
		{
			name:     "given connection reset while reading, then protocol",
			err:      wrap(&net.OpError{Op: "read", Err: &os.SyscallError{Syscall: "read", Err: syscall.ECONNRESET}}),
			wantKind: ErrorKindProtocol,
			wantType: ErrorTypeConnectionReset,
		},
		{
			name:     "given server closed before response, then protocol",
			err:      wrap(io.EOF),
			wantKind: ErrorKindProtocol,
			wantType: ErrorTypeEOF,
		},
		{
			name:     "given unsupported scheme, then protocol",
			err:      wrap(errors.New(`unsupported protocol scheme "ftp"`)),
			wantKind: ErrorKindProtocol,
			wantType: ErrorTypeProtocol,
		},
		{
			name:     "given redirect limit, then other",
			err:      wrap(fmt.Errorf("stopped after 10 redirects: %w", errRedirectLimit)),
			wantKind: ErrorKindOther,
			wantType: ErrorTypeRedirect,
		},
		{
			name:     "given cancellation, then other",
			err:      wrap(context.Canceled),
			wantKind: ErrorKindOther,
			wantType: ErrorTypeCancelled,
		},
		{
			name:     "given unrecognised error, then other",
			err:      errors.New("something odd"),
			wantKind: ErrorKindOther,
			wantType: ErrorTypeUnknown,
		},
		{
			name:     "given already classified error, then keeps kind",
			err:      fmt.Errorf("wrapped: %w", &TransportError{Kind: ErrorKindTimeout, Type: "custom", Err: io.EOF}),
			wantKind: ErrorKindTimeout,
			wantType: "custom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, typ := classify(tt.err)

			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantType, typ)
			assert.Equal(t, tt.wantKind, Classify(tt.err))
		})
	}
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "connect", ErrorKindConnect.String())
	assert.Equal(t, "timeout", ErrorKindTimeout.String())
	assert.Equal(t, "protocol", ErrorKindProtocol.String())
	assert.Equal(t, "other", ErrorKindOther.String())
}

func TestTransportError(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := &TransportError{Kind: ErrorKindConnect, Err: cause}

	assert.Equal(t, "dial tcp: refused", err.Error())
	assert.ErrorIs(t, err, cause)
}
