package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrTokenRevoked = errors.New("token revoked")

// RevocationList wraps a Manager with a redis denylist keyed by jti. It
// satisfies the same verifier contract as the bare Manager, so the auth
// middleware and handlers stay unchanged when it is swapped in.
type RevocationList struct {
	mgr *Manager
	rdb *redis.Client
}

func NewRevocationList(mgr *Manager, rdb *redis.Client) *RevocationList {
	return &RevocationList{mgr: mgr, rdb: rdb}
}

func revocationKey(jti string) string {
	return "session:revoked:" + jti
}

func (l *RevocationList) VerifySessionToken(tokenStr string) (*Claims, error) {
	claims, err := l.mgr.VerifySessionToken(tokenStr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	n, err := l.rdb.Exists(ctx, revocationKey(claims.JTI)).Result()
	if err != nil {
		// redis being down must not lock everyone out; the token still
		// carries a valid signature and expiry
		return claims, nil
	}
	if n > 0 {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke denylists the token's jti until its natural expiry.
func (l *RevocationList) Revoke(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.JTI == "" {
		return errors.New("missing jti")
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}

	return l.rdb.Set(ctx, revocationKey(claims.JTI), "1", ttl).Err()
}
