// Package kvscope provides small per-caller key/value scopes. A scope stands in
// for the caller's own local storage: whoever controls the scope identifier can
// read, rewrite or discard its contents.
package kvscope

import (
	"context"
	"time"
)

// Scope gets and sets small records for a single caller.
type Scope interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store hands out the scope belonging to a caller identifier.
type Store interface {
	Scope(callerID string) Scope
}

// DefaultTTL bounds how long an idle scope entry is kept.
const DefaultTTL = 2 * time.Hour

// MinTTL is the shortest entry lifetime a store accepts. An entry must outlive
// the longest abuse lockout it may hold.
const MinTTL = time.Hour

func clampTTL(ttl time.Duration) time.Duration {
	switch {
	case ttl <= 0:
		return DefaultTTL
	case ttl < MinTTL:
		return MinTTL
	}
	return ttl
}

func namespaced(callerID, key string) string {
	return callerID + ":" + key
}
