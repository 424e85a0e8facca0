package repository

import (
	"context"

	"stakemarket/internal/domain/entity"
)

// DirectoryRepository is the read/moderation view onto the account and
// role/permission stores owned by the user and admin services.
type DirectoryRepository interface {
	GetUser(ctx context.Context, id string) (*entity.User, error)
	GetAdmin(ctx context.Context, id string) (*entity.Admin, error)

	// AdminIDsByRole resolves role names (e.g. SUPER_ADMIN) to admin ids.
	AdminIDsByRole(ctx context.Context, roleTypes []string) ([]string, error)

	UpdateUserStatus(ctx context.Context, id, status string) error
	UpdateAdminStatus(ctx context.Context, id, status string) error
}
