package repository

import (
	"context"

	"github.com/DownstreamWealth/portal/internal/domain"
)

// Lookups report found=false both when no row matches and when the read
// itself fails; read failures are logged by the implementation. Writes
// always return their error.

// UserRepository exposes persistence for accounts.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (domain.User, bool)
	FindByID(ctx context.Context, userID int64) (domain.User, bool)
	Create(ctx context.Context, user NewUser) error
	SetStatus(ctx context.Context, userID int64, status string) error
}

// CredentialRepository reads and replaces stored password hashes.
type CredentialRepository interface {
	FindByEmail(ctx context.Context, email string) (domain.User, bool)
	UpdatePassword(ctx context.Context, userID int64, plain string) error
}

// ProfileRepository exposes persistence for the one-per-user profile row.
type ProfileRepository interface {
	FindByUserID(ctx context.Context, userID int64) (domain.Profile, bool)
	Upsert(ctx context.Context, userID int64, fields domain.ProfileFields, kind domain.ProfileKind) error
}

// NewUser is the input for account creation. Password is plaintext and is
// hashed before it reaches the database.
type NewUser struct {
	Name     string
	Email    string
	Password string
}
