package adapter

import "context"

// AttemptLimiter bounds how many codes a single kiosk may try per window.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
