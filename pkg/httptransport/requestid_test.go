package httptransport

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureTransport struct {
	last *http.Request
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.last = req
	return &http.Response{
		StatusCode: 200,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	inner := &captureTransport{}
	rt := RequestID(inner)

	req, err := http.NewRequest(http.MethodGet, "http://api.test/ping", nil)
	require.NoError(t, err)
	_, err = rt.RoundTrip(req)
	require.NoError(t, err)

	id := inner.last.Header.Get("X-Request-ID")
	_, err = uuid.Parse(id)
	require.NoError(t, err, "generated id should be a UUID, got %q", id)

	// The caller's request is left untouched.
	assert.Empty(t, req.Header.Get("X-Request-ID"))
}

func TestRequestID_KeepsValidCallerValue(t *testing.T) {
	inner := &captureTransport{}
	rt := RequestID(inner)

	req, err := http.NewRequest(http.MethodGet, "http://api.test/ping", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "caller-chosen-id")
	_, err = rt.RoundTrip(req)
	require.NoError(t, err)

	assert.Equal(t, "caller-chosen-id", inner.last.Header.Get("X-Request-ID"))
}

func TestRequestID_ReplacesInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{name: "control characters", id: "bad\x01id"},
		{name: "too long", id: strings.Repeat("a", 129)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &captureTransport{}
			req, err := http.NewRequest(http.MethodGet, "http://api.test/ping", nil)
			require.NoError(t, err)
			req.Header.Set("X-Request-ID", tt.id)

			_, err = RequestID(inner).RoundTrip(req)
			require.NoError(t, err)
			assert.NotEqual(t, tt.id, inner.last.Header.Get("X-Request-ID"))
		})
	}
}
