package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"stakemarket/internal/domain/entity"
	"stakemarket/internal/domain/repository"
	"stakemarket/pkg/errors"
)

// firestoreDirectoryRepository reads the account collections maintained by
// the user and admin services and writes only the moderation status field.
type firestoreDirectoryRepository struct {
	client *firestore.Client
}

func NewFirestoreDirectoryRepository(client *firestore.Client) repository.DirectoryRepository {
	return &firestoreDirectoryRepository{client: client}
}

func (r *firestoreDirectoryRepository) GetUser(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.client.Collection("users").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}
	return &user, nil
}

func (r *firestoreDirectoryRepository) GetAdmin(ctx context.Context, id string) (*entity.Admin, error) {
	doc, err := r.client.Collection("admins").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Admin", err)
		}
		return nil, errors.Internal("Failed to get admin", err)
	}

	var admin entity.Admin
	if err := doc.DataTo(&admin); err != nil {
		return nil, errors.Internal("Failed to parse admin data", err)
	}
	return &admin, nil
}

// AdminIDsByRole resolves role names to role ids, then finds the admins
// holding any of those roles.
func (r *firestoreDirectoryRepository) AdminIDsByRole(ctx context.Context, roleTypes []string) ([]string, error) {
	if len(roleTypes) == 0 {
		return nil, nil
	}

	roleDocs, err := r.client.Collection("roles").
		Where("type", "in", roleTypes).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to resolve roles", err)
	}
	if len(roleDocs) == 0 {
		return nil, nil
	}

	roleIDs := make([]string, 0, len(roleDocs))
	for _, doc := range roleDocs {
		var role entity.Role
		if err := doc.DataTo(&role); err != nil {
			continue
		}
		roleIDs = append(roleIDs, role.ID)
	}

	adminDocs, err := r.client.Collection("admins").
		Where("roles", "array-contains-any", roleIDs).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to fetch admins by role", err)
	}

	ids := make([]string, 0, len(adminDocs))
	for _, doc := range adminDocs {
		var admin entity.Admin
		if err := doc.DataTo(&admin); err != nil {
			continue
		}
		ids = append(ids, admin.ID)
	}
	return ids, nil
}

func (r *firestoreDirectoryRepository) UpdateUserStatus(ctx context.Context, id, status string) error {
	_, err := r.client.Collection("users").Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: status},
	})
	if err != nil {
		return errors.Internal("Failed to update user status", err)
	}
	return nil
}

func (r *firestoreDirectoryRepository) UpdateAdminStatus(ctx context.Context, id, status string) error {
	_, err := r.client.Collection("admins").Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: status},
	})
	if err != nil {
		return errors.Internal("Failed to update admin status", err)
	}
	return nil
}
