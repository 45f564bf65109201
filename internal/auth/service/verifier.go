package service

import (
	"context"

	"github.com/Aleksandr505/Confa/internal/auth/models"
	"github.com/Aleksandr505/Confa/internal/auth/password"
	usermodels "github.com/Aleksandr505/Confa/internal/user/models"
	dErrors "github.com/Aleksandr505/Confa/pkg/domain-errors"
	pstrings "github.com/Aleksandr505/Confa/pkg/platform/strings"
)

// VerifierUserStore is the slice of the user store the verifier needs.
type VerifierUserStore interface {
	FindByUsername(ctx context.Context, username string) (*usermodels.User, error)
}

// StoreVerifier checks credentials against the user store with bcrypt.
// Every rejection carries the same generic message so callers cannot
// learn whether the username exists or the account is locked.
type StoreVerifier struct {
	users VerifierUserStore
}

func NewStoreVerifier(users VerifierUserStore) *StoreVerifier {
	return &StoreVerifier{users: users}
}

func (v *StoreVerifier) Verify(ctx context.Context, username, plaintext string) (*models.Principal, error) {
	user, err := v.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if user == nil || !password.Verify(plaintext, user.PasswordHash) || user.Locked {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication failed")
	}
	return &models.Principal{ID: user.Subject(), Roles: pstrings.DedupeAndTrim(user.Roles)}, nil
}
