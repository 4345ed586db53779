// Package resource provides thin clients for the remote API's resource
// endpoints, built on the adapter's request protocol. Draft validation does
// a local required-field pass first; only drafts that pass it reach the
// network.
package resource

import (
	"context"

	"github.com/go-faster/jx"
)

// Requester issues classified API requests. *adapter.Adapter satisfies it.
type Requester interface {
	Request(ctx context.Context, method, path string, body any) (jx.Raw, error)
}
