// Package delivery defines the inbound surfaces of the application.
package delivery

import "context"

// Delivery is a long-running inbound surface, such as an HTTP server or a
// background worker. Serve blocks until the surface stops.
type Delivery interface {
	Serve(ctx context.Context) error
}
