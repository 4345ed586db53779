// Package httptransport provides http.RoundTripper decorators for outbound
// API calls.
package httptransport

import (
	"net/http"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type requestIDTransport struct {
	next http.RoundTripper
}

// RequestID wraps next so every outbound request carries a unique
// X-Request-ID header, letting server-side logs be correlated with SDK
// activity. A caller-provided valid header value is kept; anything else is
// replaced with a fresh UUID v4. Valid means at most 128 bytes of printable
// ASCII (0x20-0x7E).
func RequestID(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &requestIDTransport{next: next}
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !isValidRequestID(req.Header.Get(requestIDHeader)) {
		// RoundTrippers must not mutate the caller's request.
		req = req.Clone(req.Context())
		req.Header.Set(requestIDHeader, uuid.New().String())
	}
	return t.next.RoundTrip(req)
}

func isValidRequestID(id string) bool {
	if len(id) == 0 || len(id) > 128 {
		return false
	}
	for i := range len(id) {
		if id[i] < 0x20 || id[i] > 0x7E {
			return false
		}
	}
	return true
}
