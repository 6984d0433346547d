package store

import "context"

// Ports for persistence backends.
type (
	// KV is a string-keyed blob store. Get reports found=false for a key
	// that was never written.
	KV interface {
		Get(ctx context.Context, key string) (value []byte, found bool, err error)
		Put(ctx context.Context, key string, value []byte) error
	}

	// Pinger is implemented by backends that can report their health.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
