package middleware

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- Flusher and Hijacker delegation tests ---

// mockFlusherWriter implements both http.ResponseWriter and http.Flusher.
type mockFlusherWriter struct {
	http.ResponseWriter
	flushed bool
}

func (m *mockFlusherWriter) Flush() {
	m.flushed = true
}

func TestStatusWriter_Flush_DelegatesToUnderlying(t *testing.T) {
	mock := &mockFlusherWriter{ResponseWriter: httptest.NewRecorder()}
	rw := &statusWriter{ResponseWriter: mock, statusCode: http.StatusOK}

	rw.Flush()
	assert.True(t, mock.flushed, "Flush should delegate to underlying ResponseWriter")
}

func TestStatusWriter_Flush_NoOpWhenNotSupported(t *testing.T) {
	// Plain httptest.Recorder does not implement Flusher in all cases.
	// Use a minimal ResponseWriter that definitely doesn't implement Flusher.
	rw := &statusWriter{ResponseWriter: &minimalResponseWriter{}, statusCode: http.StatusOK}

	// Should not panic.
	rw.Flush()
}

// mockHijackerWriter implements both http.ResponseWriter and http.Hijacker.
type mockHijackerWriter struct {
	http.ResponseWriter
	hijacked bool
}

func (m *mockHijackerWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	m.hijacked = true
	// Return nil conn for test purposes.
	return nil, nil, nil
}

func TestStatusWriter_Hijack_DelegatesToUnderlying(t *testing.T) {
	mock := &mockHijackerWriter{ResponseWriter: httptest.NewRecorder()}
	rw := &statusWriter{ResponseWriter: mock, statusCode: http.StatusOK}

	_, _, err := rw.Hijack()
	assert.NoError(t, err)
	assert.True(t, mock.hijacked, "Hijack should delegate to underlying ResponseWriter")
}

func TestStatusWriter_Hijack_ErrorWhenNotSupported(t *testing.T) {
	rw := &statusWriter{ResponseWriter: &minimalResponseWriter{}, statusCode: http.StatusOK}

	_, _, err := rw.Hijack()
	assert.ErrorIs(t, err, http.ErrNotSupported)
}

// minimalResponseWriter is a bare http.ResponseWriter without Flusher/Hijacker.
type minimalResponseWriter struct {
	header http.Header
}

func (m *minimalResponseWriter) Header() http.Header {
	if m.header == nil {
		m.header = make(http.Header)
	}
	return m.header
}

func (m *minimalResponseWriter) Write(b []byte) (int, error) {
	return len(b), nil
}

func (m *minimalResponseWriter) WriteHeader(int) {}

func TestStatusWriter_ImplementsFlusher(t *testing.T) {
	rw := &statusWriter{ResponseWriter: httptest.NewRecorder()}
	_, ok := interface{}(rw).(http.Flusher)
	assert.True(t, ok, "statusWriter should implement http.Flusher")
}

func TestStatusWriter_ImplementsHijacker(t *testing.T) {
	rw := &statusWriter{ResponseWriter: httptest.NewRecorder()}
	_, ok := interface{}(rw).(http.Hijacker)
	assert.True(t, ok, "statusWriter should implement http.Hijacker")
}

func TestStatusWriter_FirstStatusWins(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := newStatusWriter(rec)

	_, _ = sw.Write([]byte("ok"))
	sw.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusOK, sw.statusCode)
	assert.Equal(t, 2, sw.bytes)
}

func TestNewStatusWriter_ReusesExisting(t *testing.T) {
	outer := newStatusWriter(httptest.NewRecorder())
	assert.Same(t, outer, newStatusWriter(outer))
}
