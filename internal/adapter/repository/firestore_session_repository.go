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

// firestoreSessionRepository keeps one token document per principal. The auth
// services write the token at login; this service only reads and revokes.
type firestoreSessionRepository struct {
	client *firestore.Client
}

func NewFirestoreSessionRepository(client *firestore.Client) repository.SessionRepository {
	return &firestoreSessionRepository{client: client}
}

func sessionCollection(kind entity.PrincipalKind) string {
	if kind == entity.PrincipalAdmin {
		return "admin_sessions"
	}
	return "user_sessions"
}

func (r *firestoreSessionRepository) Get(ctx context.Context, principal entity.Principal) (string, error) {
	doc, err := r.client.Collection(sessionCollection(principal.Kind)).Doc(principal.ID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", errors.Unauthorized("Session not found", err)
		}
		return "", errors.Internal("Failed to get session", err)
	}

	token, err := doc.DataAt("token")
	if err != nil {
		return "", errors.Internal("Failed to read session token", err)
	}
	value, ok := token.(string)
	if !ok {
		return "", errors.Internal("Malformed session token", nil)
	}
	return value, nil
}

// Revoke deletes the stored token. Any bearer of the old token fails the
// session match on its next authenticated call.
func (r *firestoreSessionRepository) Revoke(ctx context.Context, principal entity.Principal) error {
	_, err := r.client.Collection(sessionCollection(principal.Kind)).Doc(principal.ID).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to revoke session", err)
	}
	return nil
}
