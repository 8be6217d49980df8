package token

import (
	"context"
	"time"

	"siteadmin/internal/pkg/cache"
)

const revokedKeyPrefix = "jwt:revoked:"

// RevocationList guarda no Redis os jti de tokens invalidados (logout/refresh)
// até o momento em que expirariam naturalmente.
type RevocationList struct {
	cache cache.Client
	now   func() time.Time
}

// NewRevocationList cria a lista de revogação sobre o cliente de cache.
func NewRevocationList(c cache.Client) *RevocationList {
	return &RevocationList{cache: c, now: time.Now}
}

// Revoke marca o jti como revogado até expiresAt. Tokens já expirados são ignorados.
func (r *RevocationList) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if jti == "" || ttl <= 0 {
		return nil
	}
	return r.cache.Set(ctx, revokedKeyPrefix+jti, "1", ttl)
}

// IsRevoked informa se o jti foi revogado.
func (r *RevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	return r.cache.Exists(ctx, revokedKeyPrefix+jti)
}
