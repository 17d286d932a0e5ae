package port

import "context"

// Pinger reports whether a backing store is reachable. Satisfied by
// pgxpool.Pool and the redis client wrapper.
type Pinger interface {
	Ping(ctx context.Context) error
}
