package httpclient

import (
	"errors"
	"io"
	"net/http"
	"sync/atomic"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// trackedBody counts bytes read from a response body and ends the request
// span on EOF or Close, whichever comes first. A failed read marks the
// span as errored so body truncation is visible in traces.
type trackedBody struct {
	span   trace.Span
	body   io.ReadCloser
	read   atomic.Int64
	closed atomic.Bool

	onDone func(bytesRead int64)
}

func newTrackedBody(span trace.Span, body io.ReadCloser, onDone func(int64)) io.ReadCloser {
	if body == nil || body == http.NoBody {
		span.End()
		if onDone != nil {
			onDone(0)
		}
		return body
	}
	return &trackedBody{span: span, body: body, onDone: onDone}
}

func (b *trackedBody) Read(p []byte) (int, error) {
	n, err := b.body.Read(p)
	b.read.Add(int64(n))

	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		b.finish()
	default:
		b.span.RecordError(err)
		b.span.SetStatus(codes.Error, "read response body: "+err.Error())
	}
	return n, err
}

func (b *trackedBody) Close() error {
	b.finish()
	return b.body.Close()
}

func (b *trackedBody) finish() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}
	if b.onDone != nil {
		b.onDone(b.read.Load())
	}
	b.span.End()
}
