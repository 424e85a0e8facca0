package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"

	"stakemarket/internal/domain/entity"
	"stakemarket/internal/domain/repository"
	"stakemarket/pkg/errors"
)

type claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// Verifier maps a bearer token plus a declared role to a principal. Tokens
// are HS256 JWTs; the parsed token must also match the session persisted for
// that principal, so revoking the stored session invalidates the token
// immediately (moderation depends on this ordering).
type Verifier struct {
	secret   []byte
	sessions repository.SessionRepository
}

func NewVerifier(secret string, sessions repository.SessionRepository) *Verifier {
	return &Verifier{secret: []byte(secret), sessions: sessions}
}

func (v *Verifier) Verify(ctx context.Context, token string, role entity.PrincipalKind) (entity.Principal, error) {
	if token == "" {
		return entity.Principal{}, errors.Unauthorized("Token is missing", nil)
	}
	if !role.Valid() {
		role = entity.PrincipalUser
	}

	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return entity.Principal{}, errors.Unauthorized("Invalid token", err)
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || c.ID == "" {
		return entity.Principal{}, errors.Unauthorized("Invalid token", nil)
	}

	principal := entity.Principal{ID: c.ID, Kind: role}

	stored, err := v.sessions.Get(ctx, principal)
	if err != nil || stored != token {
		return entity.Principal{}, errors.Unauthorized("Session revoked or expired", err)
	}

	return principal, nil
}
