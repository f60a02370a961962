// Package delivery defines the contract every transport server implements.
package delivery

import "context"

// Delivery is a running transport (HTTP today) managed by the application
// lifecycle.
type Delivery interface {
	// Serve blocks until the server stops or the context is canceled.
	Serve(ctx context.Context) error
}
