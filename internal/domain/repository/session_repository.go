package repository

import (
	"context"

	"stakemarket/internal/domain/entity"
)

// SessionRepository stores the persisted bearer token per principal. A token
// that no longer matches the stored one is considered revoked.
type SessionRepository interface {
	Get(ctx context.Context, principal entity.Principal) (string, error)
	Revoke(ctx context.Context, principal entity.Principal) error
}
