// Package httpclient provides the shared, instrumented HTTP client used for
// every outgoing request.
//
// # Shared Client
//
// A Manager builds one Client on first use and hands the same instance to
// every caller, concurrent or not. The client pools connections across all
// destinations and applies a fixed policy:
//
//   - 30s total request timeout
//   - 15s connection timeout (TCP dial and TLS handshake)
//   - at most 10 redirect hops
//
// If the client cannot be built, for example because the system trust
// store cannot be loaded, the error is sticky: every later call to
// Manager.Client returns it.
//
//	manager := httpclient.NewManager(
//	    httpclient.WithServiceName("readerbridge"),
//	    httpclient.WithLogger(logger),
//	)
//	client, err := manager.Client()
//
// # Transport Errors
//
// Client.Do returns a *TransportError when no response was received. Its
// Kind is one of a closed set (Connect, Timeout, Protocol, Other), so
// callers branch with a switch instead of probing the underlying error:
//
//	resp, err := client.Do(req)
//	var te *httpclient.TransportError
//	if errors.As(err, &te) && te.Kind == httpclient.ErrorKindTimeout {
//	    // ...
//	}
//
// HTTP error statuses are not errors at this layer.
//
// # Observability
//
// Every request produces an OpenTelemetry client span named "HTTP {method}"
// that ends when the response body is drained or closed, plus metrics:
//
//   - http.client.request.duration: time until response headers
//   - http.client.response.body.size: bytes read from bodies
//   - http.client.active_requests: in-flight requests
//   - http.client.request.errors: failures by error.kind
//   - http.client.{dns,connect,tls}.duration and http.client.ttfb
//
// # Testing
//
// MockTransport records every request and answers from stubs:
//
//	mock := httpclient.NewMockTransport().StubResponse(200, "hello")
//	client, _ := httpclient.New(httpclient.WithMockTransport(mock))
package httpclient
