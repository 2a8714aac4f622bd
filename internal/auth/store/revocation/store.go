package revocation

import (
	"context"
	"time"
)

// TokenRevocationList records JWT IDs invalidated before their natural
// expiry, such as on logout or ban. Entries carry a TTL matching the token's
// remaining lifetime so the list never grows unbounded.
type TokenRevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
