package tokenstore

import (
	"time"

	"Strimoid/pkg/cache"
)

// Revoked token ids are kept until the token would have expired anyway.
var revoked = cache.New(0)

// RevokeToken marks jti as revoked until exp. A zero exp keeps it forever.
func RevokeToken(jti string, exp time.Time) {
	if jti == "" {
		return
	}
	var ttl time.Duration
	if !exp.IsZero() {
		ttl = time.Until(exp)
		if ttl <= 0 {
			return
		}
	}
	revoked.Set(jti, struct{}{}, ttl)
}

func IsRevoked(jti string) bool {
	if jti == "" {
		return false
	}
	_, ok := revoked.Get(jti)
	return ok
}

// Store exposes the backing cache so the caller can run its janitor.
func Store() *cache.Cache {
	return revoked
}
