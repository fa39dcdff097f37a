// Package storage is the console's durable key/value store. Only the
// session manager writes to it, and only the two token keys.
package storage

import "context"

// Keys the session manager reads and writes.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	// KeyLegacyUser held a serialized user in older builds; it is purged, never written.
	KeyLegacyUser = "user"
)

// Store is a string key/value store. Get returns "" with a nil error for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}
