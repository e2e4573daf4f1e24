package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// MockTransport is an http.RoundTripper for tests. Stubs are matched in
// the order they were added; every request is recorded, so RequestCount
// doubles as a network call counter.
type MockTransport struct {
	mu          sync.Mutex
	stubs       []stub
	fallback    *stub
	requests    []*http.Request
	requestHook func(*http.Request)
}

type stub struct {
	matcher  func(*http.Request) bool
	response *http.Response
	body     []byte
	err      error
}

// NewMockTransport creates an empty MockTransport. Unmatched requests fail.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

func newStubResponse(statusCode int, body string, header http.Header) (*http.Response, []byte) {
	if header == nil {
		header = make(http.Header)
	}
	return &http.Response{
		StatusCode: statusCode,
		Status:     fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     header,
	}, []byte(body)
}

// StubResponse answers every unmatched request with statusCode and body.
func (m *MockTransport) StubResponse(statusCode int, body string) *MockTransport {
	return m.StubResponseWithHeaders(statusCode, body, nil)
}

// StubResponseWithHeaders is StubResponse with response headers.
func (m *MockTransport) StubResponseWithHeaders(statusCode int, body string, header http.Header) *MockTransport {
	resp, b := newStubResponse(statusCode, body, header)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = &stub{response: resp, body: b}
	return m
}

// StubError fails every unmatched request with err.
func (m *MockTransport) StubError(err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = &stub{err: err}
	return m
}

// StubPath answers requests for path with statusCode and body.
func (m *MockTransport) StubPath(path string, statusCode int, body string) *MockTransport {
	return m.StubFunc(func(req *http.Request) bool {
		return req.URL.Path == path
	}, statusCode, body)
}

// StubFunc answers requests matching matcher with statusCode and body.
func (m *MockTransport) StubFunc(matcher func(*http.Request) bool, statusCode int, body string) *MockTransport {
	resp, b := newStubResponse(statusCode, body, nil)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, stub{matcher: matcher, response: resp, body: b})
	return m
}

// StubFuncError fails requests matching matcher with err.
func (m *MockTransport) StubFuncError(matcher func(*http.Request) bool, err error) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stubs = append(m.stubs, stub{matcher: matcher, err: err})
	return m
}

// OnRequest registers a hook called with every request before it is answered.
func (m *MockTransport) OnRequest(fn func(*http.Request)) *MockTransport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestHook = fn
	return m
}

// RoundTrip implements http.RoundTripper.
func (m *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	hook := m.requestHook
	matched := m.fallback
	for i := range m.stubs {
		if m.stubs[i].matcher(req) {
			matched = &m.stubs[i]
			break
		}
	}
	m.mu.Unlock()

	if hook != nil {
		hook(req)
	}
	if req.Body != nil {
		_, _ = io.Copy(io.Discard, req.Body)
		_ = req.Body.Close()
	}

	if matched == nil {
		return nil, fmt.Errorf("no stub found for request: %s %s", req.Method, req.URL)
	}
	if matched.err != nil {
		return nil, matched.err
	}

	resp := *matched.response
	resp.Header = matched.response.Header.Clone()
	resp.Body = io.NopCloser(bytes.NewReader(matched.body))
	resp.ContentLength = int64(len(matched.body))
	resp.Request = req
	return &resp, nil
}

// Requests returns all requests made through this transport.
func (m *MockTransport) Requests() []*http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*http.Request{}, m.requests...)
}

// RequestCount returns the number of requests made.
func (m *MockTransport) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or nil if none.
func (m *MockTransport) LastRequest() *http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

// Reset clears recorded requests, stubs and the hook.
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.stubs = nil
	m.fallback = nil
	m.requestHook = nil
}
