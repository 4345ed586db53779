package adapter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/vector/brandibble-go/pkg/cyclicjson"
)

// The upstream's 500 responses are not guaranteed to be parseable, so no
// parsing is attempted; this fixed payload is substituted instead.
const internalServerPayload = `{"errors":[{"code":"errors.server.internal","title":"Internal Server Error","status":500}]}`

// ErrorObject is one entry of the conventional {"errors":[...]} upstream
// error document.
type ErrorObject struct {
	Code   string
	Title  string
	Status int
}

// APIError is a non-2xx response whose body parsed as JSON. Payload is the
// upstream error document, passed through unmodified so callers can inspect
// upstream error codes.
type APIError struct {
	StatusCode int
	Payload    jx.Raw
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, string(e.Payload))
}

// Errors decodes the conventional error-document shape from the payload. It
// is best-effort: an unconventional payload yields an empty slice.
func (e *APIError) Errors() []ErrorObject {
	var out []ErrorObject
	d := jx.DecodeBytes(e.Payload)
	_ = d.Obj(func(d *jx.Decoder, key string) error {
		if key != "errors" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			var eo ErrorObject
			if err := d.Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "code":
					s, err := d.Str()
					eo.Code = s
					return err
				case "title":
					s, err := d.Str()
					eo.Title = s
					return err
				case "status":
					n, err := d.Int()
					eo.Status = n
					return err
				default:
					return d.Skip()
				}
			}); err != nil {
				return err
			}
			out = append(out, eo)
			return nil
		})
	})
	return out
}

func internalServerError() *APIError {
	return &APIError{
		StatusCode: http.StatusInternalServerError,
		Payload:    jx.Raw(internalServerPayload),
	}
}

// ExtractionError is a response whose non-empty body could not be parsed as
// JSON. It carries the raw text for diagnostics and is never silently
// swallowed.
type ExtractionError struct {
	StatusCode int
	Text       string
	Err        error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("response body could not be parsed as JSON (status %d)", e.StatusCode)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// TimeoutError reports a request that did not complete within the
// configured bound. The in-flight call is not aborted, only its result is
// discarded, so the server may still have processed the request.
type TimeoutError struct {
	Method string
	Path   string
	After  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("the %s request to %s timed out after %s", e.Method, e.Path, e.After)
}

// Request issues one API call and classifies the response uniformly. The
// returned payload is raw JSON: the parsed body for 2xx responses, an empty
// object for empty 2xx bodies, and the literal true for 204/no-content
// responses. Non-2xx responses come back as *APIError, unparsable bodies as
// *ExtractionError, and 500s as the fixed internal-error payload.
//
// When a timeout is configured the call races a timer; the first outcome
// wins and a losing call is left to finish on its own.
func (a *Adapter) Request(ctx context.Context, method, path string, body any) (jx.Raw, error) {
	if a.timeout <= 0 {
		return a.do(ctx, method, path, body)
	}

	type outcome struct {
		payload jx.Raw
		err     error
	}
	results := make(chan outcome, 1)
	go func() {
		payload, err := a.do(ctx, method, path, body)
		results <- outcome{payload: payload, err: err}
	}()

	timer := time.NewTimer(a.timeout)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil, &TimeoutError{Method: method, Path: path, After: a.timeout}
	case r := <-results:
		return r.payload, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *Adapter) do(ctx context.Context, method, path string, body any) (jx.Raw, error) {
	var reader io.Reader
	if body != nil {
		data, err := cyclicjson.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encode request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.apiBase+path, reader)
	if err != nil {
		return nil, errors.Wrapf(err, "build %s %s", method, path)
	}
	for k, v := range a.headers() {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := classifyResponse(resp)
	zctx.From(ctx).Debug("API request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)
	return payload, err
}

// headers builds the outbound header set: the API key and content type are
// always present, Origin only when configured, and the bearer token only
// when one is cached. Credentials and cookies are never sent.
func (a *Adapter) headers() map[string]string {
	h := map[string]string{
		"Api-Key":      a.apiKey,
		"Content-Type": "application/json",
	}
	if a.origin != "" {
		h["Origin"] = a.origin
	}
	if token := a.CustomerToken(); token != "" {
		h["Customer-Token"] = token
	}
	return h
}

func classifyResponse(resp *http.Response) (jx.Raw, error) {
	if resp.StatusCode == http.StatusInternalServerError {
		return nil, internalServerError()
	}
	if resp.StatusCode == http.StatusNoContent || strings.EqualFold(statusText(resp), "no content") {
		return jx.Raw(`true`), nil
	}

	succeeded := resp.StatusCode >= 200 && resp.StatusCode < 300
	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ExtractionError{StatusCode: resp.StatusCode, Err: err}
	}
	if len(bytes.TrimSpace(text)) == 0 {
		if succeeded {
			return jx.Raw(`{}`), nil
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Payload: jx.Raw(`{}`)}
	}
	if !jx.Valid(text) {
		return nil, &ExtractionError{
			StatusCode: resp.StatusCode,
			Text:       string(text),
			Err:        errors.New("invalid JSON"),
		}
	}
	if succeeded {
		return jx.Raw(text), nil
	}
	return nil, &APIError{StatusCode: resp.StatusCode, Payload: jx.Raw(text)}
}

// statusText returns the reason phrase of the response status line.
func statusText(resp *http.Response) string {
	if i := strings.IndexByte(resp.Status, ' '); i >= 0 {
		return resp.Status[i+1:]
	}
	return resp.Status
}
