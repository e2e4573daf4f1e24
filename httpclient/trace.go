package httpclient

import (
	"context"
	"crypto/tls"
	"net/http/httptrace"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// networkTrace collects connection timing for a single round trip.
// Hooks may fire from transport goroutines, hence the mutex.
type networkTrace struct {
	mu sync.Mutex

	dnsStart, dnsDone         time.Time
	connectStart, connectDone time.Time
	tlsStart, tlsDone         time.Time
	wroteRequest, firstByte   time.Time

	connReused bool
	remoteAddr string
	tlsVersion uint16
}

func (nt *networkTrace) clientTrace() *httptrace.ClientTrace {
	stamp := func(t *time.Time) {
		nt.mu.Lock()
		*t = time.Now()
		nt.mu.Unlock()
	}

	return &httptrace.ClientTrace{
		GotConn: func(info httptrace.GotConnInfo) {
			nt.mu.Lock()
			defer nt.mu.Unlock()
			nt.connReused = info.Reused
			if info.Conn != nil && info.Conn.RemoteAddr() != nil {
				nt.remoteAddr = info.Conn.RemoteAddr().String()
			}
		},
		DNSStart:          func(httptrace.DNSStartInfo) { stamp(&nt.dnsStart) },
		DNSDone:           func(httptrace.DNSDoneInfo) { stamp(&nt.dnsDone) },
		ConnectStart:      func(_, _ string) { stamp(&nt.connectStart) },
		ConnectDone:       func(_, _ string, _ error) { stamp(&nt.connectDone) },
		TLSHandshakeStart: func() { stamp(&nt.tlsStart) },
		TLSHandshakeDone: func(state tls.ConnectionState, _ error) {
			nt.mu.Lock()
			defer nt.mu.Unlock()
			nt.tlsDone = time.Now()
			nt.tlsVersion = state.Version
		},
		WroteRequest:         func(httptrace.WroteRequestInfo) { stamp(&nt.wroteRequest) },
		GotFirstResponseByte: func() { stamp(&nt.firstByte) },
	}
}

// finish adds span events and timing metrics for the phases that ran.
func (nt *networkTrace) finish(
	ctx context.Context,
	span trace.Span,
	m *metrics,
	attrs []attribute.KeyValue,
) {
	nt.mu.Lock()
	defer nt.mu.Unlock()

	if !nt.dnsStart.IsZero() && !nt.dnsDone.IsZero() {
		d := nt.dnsDone.Sub(nt.dnsStart)
		span.AddEvent("dns.done", trace.WithTimestamp(nt.dnsDone),
			trace.WithAttributes(attribute.Int64("dns.duration_ms", d.Milliseconds())))
		m.recordDNSDuration(ctx, d, attrs)
	}

	if !nt.connectStart.IsZero() && !nt.connectDone.IsZero() {
		d := nt.connectDone.Sub(nt.connectStart)
		span.AddEvent("connect.done", trace.WithTimestamp(nt.connectDone),
			trace.WithAttributes(attribute.Int64("connect.duration_ms", d.Milliseconds())))
		m.recordConnectDuration(ctx, d, attrs)
		if !nt.connReused {
			m.recordConnectionOpened(ctx, attrs)
		}
	}

	if !nt.tlsStart.IsZero() && !nt.tlsDone.IsZero() {
		d := nt.tlsDone.Sub(nt.tlsStart)
		span.AddEvent("tls.done", trace.WithTimestamp(nt.tlsDone),
			trace.WithAttributes(
				attribute.Int64("tls.duration_ms", d.Milliseconds()),
				attribute.String("tls.protocol.version", tls.VersionName(nt.tlsVersion)),
			))
		m.recordTLSDuration(ctx, d, attrs)
	}

	if nt.remoteAddr != "" {
		span.SetAttributes(
			attribute.String("network.peer.address", nt.remoteAddr),
			attribute.Bool("http.connection.reused", nt.connReused),
		)
	}

	if !nt.wroteRequest.IsZero() && !nt.firstByte.IsZero() {
		m.recordTTFB(ctx, nt.firstByte.Sub(nt.wroteRequest), attrs)
	}
}

// setSpanError records err on the span with its classification.
func setSpanError(span trace.Span, err error, kind ErrorKind, errorType string) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("error.kind", kind.String()))
	if errorType != "" {
		span.SetAttributes(attribute.String("error.type", errorType))
	}
}
