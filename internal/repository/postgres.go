package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/DownstreamWealth/portal/internal/domain"
	"github.com/DownstreamWealth/portal/internal/password"
)

// Compile-time interface assertions.
var (
	_ UserRepository       = (*PostgresUserRepo)(nil)
	_ CredentialRepository = (*PostgresUserRepo)(nil)
	_ ProfileRepository    = (*PostgresProfileRepo)(nil)
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresUserRepo implements UserRepository.
type PostgresUserRepo struct {
	db     DBTX
	ids    *snowflake.Node
	logger *zap.Logger
}

func NewPostgresUserRepo(db DBTX, ids *snowflake.Node, logger *zap.Logger) *PostgresUserRepo {
	if logger == nil {
		logger = zap.L()
	}
	return &PostgresUserRepo{db: db, ids: ids, logger: logger}
}

const selectUserSQL = `SELECT id, name, email, password_hash, status, created_at, updated_at FROM users`

func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (domain.User, bool) {
	user, err := scanUser(r.db.QueryRow(ctx, selectUserSQL+` WHERE email = $1 LIMIT 1`, email))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			r.logger.Error("get user by email", zap.Error(err))
		}
		return domain.User{}, false
	}
	return user, true
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, userID int64) (domain.User, bool) {
	user, err := scanUser(r.db.QueryRow(ctx, selectUserSQL+` WHERE id = $1 LIMIT 1`, userID))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			r.logger.Error("get user by id", zap.Int64("user_id", userID), zap.Error(err))
		}
		return domain.User{}, false
	}
	return user, true
}

const insertUserSQL = `INSERT INTO users (id, name, email, password_hash, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`

func (r *PostgresUserRepo) Create(ctx context.Context, user NewUser) error {
	hashed, err := password.Hash(user.Password)
	if err != nil {
		r.logger.Error("create user", zap.Error(err))
		return fmt.Errorf("hash password: %w", err)
	}

	if _, err := r.db.Exec(ctx, insertUserSQL,
		r.ids.Generate().Int64(),
		nullable(&user.Name),
		user.Email,
		hashed,
		domain.StatusExplorer,
	); err != nil {
		r.logger.Error("create user", zap.Error(err))
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepo) SetStatus(ctx context.Context, userID int64, status string) error {
	const query = `UPDATE users SET status = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, userID, status); err != nil {
		r.logger.Error("update user status", zap.Int64("user_id", userID), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("update user status: %w", err)
	}
	return nil
}

// UpdatePassword stores a fresh argon2id hash of plain.
func (r *PostgresUserRepo) UpdatePassword(ctx context.Context, userID int64, plain string) error {
	hashed, err := password.Hash(plain)
	if err != nil {
		r.logger.Error("update user password", zap.Int64("user_id", userID), zap.Error(err))
		return fmt.Errorf("hash password: %w", err)
	}

	const query = `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, userID, hashed); err != nil {
		r.logger.Error("update user password", zap.Int64("user_id", userID), zap.Error(err))
		return fmt.Errorf("update user password: %w", err)
	}
	return nil
}

// PostgresProfileRepo implements ProfileRepository.
type PostgresProfileRepo struct {
	db     DBTX
	ids    *snowflake.Node
	logger *zap.Logger
}

func NewPostgresProfileRepo(db DBTX, ids *snowflake.Node, logger *zap.Logger) *PostgresProfileRepo {
	if logger == nil {
		logger = zap.L()
	}
	return &PostgresProfileRepo{db: db, ids: ids, logger: logger}
}

func (r *PostgresProfileRepo) FindByUserID(ctx context.Context, userID int64) (domain.Profile, bool) {
	const query = `
SELECT id, user_id, phone, address, city, state, zip_code, business_name, business_type, created_at, updated_at
FROM profiles
WHERE user_id = $1
LIMIT 1`

	var p domain.Profile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.ID,
		&p.UserID,
		&p.Phone,
		&p.Address,
		&p.City,
		&p.State,
		&p.ZipCode,
		&p.BusinessName,
		&p.BusinessType,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			r.logger.Error("get user profile", zap.Int64("user_id", userID), zap.Error(err))
		}
		return domain.Profile{}, false
	}
	return p, true
}

const (
	insertPersonalSQL = `INSERT INTO profiles (id, user_id, phone, address, city, state, zip_code, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`
	insertBusinessSQL = `INSERT INTO profiles (id, user_id, business_name, business_type, created_at, updated_at)
VALUES ($1, $2, $3, $4, NOW(), NOW())`
	updatePersonalSQL = `UPDATE profiles SET
	phone = $2,
	address = $3,
	city = $4,
	state = $5,
	zip_code = $6,
	updated_at = NOW()
WHERE user_id = $1`
	updateBusinessSQL = `UPDATE profiles SET
	business_name = $2,
	business_type = $3,
	updated_at = NOW()
WHERE user_id = $1`
)

// Upsert writes the column group selected by kind. Omitted or empty fields of
// that group are stored as NULL; the other group is left untouched.
func (r *PostgresProfileRepo) Upsert(ctx context.Context, userID int64, fields domain.ProfileFields, kind domain.ProfileKind) error {
	_, exists := r.FindByUserID(ctx, userID)

	var err error
	switch {
	case !exists && kind == domain.ProfileKindPersonal:
		_, err = r.db.Exec(ctx, insertPersonalSQL, r.ids.Generate().Int64(), userID,
			nullable(fields.Phone), nullable(fields.Address), nullable(fields.City), nullable(fields.State), nullable(fields.ZipCode))
	case !exists && kind == domain.ProfileKindBusiness:
		_, err = r.db.Exec(ctx, insertBusinessSQL, r.ids.Generate().Int64(), userID,
			nullable(fields.BusinessName), nullable(fields.BusinessType))
	case kind == domain.ProfileKindPersonal:
		_, err = r.db.Exec(ctx, updatePersonalSQL, userID,
			nullable(fields.Phone), nullable(fields.Address), nullable(fields.City), nullable(fields.State), nullable(fields.ZipCode))
	case kind == domain.ProfileKindBusiness:
		_, err = r.db.Exec(ctx, updateBusinessSQL, userID,
			nullable(fields.BusinessName), nullable(fields.BusinessType))
	default:
		err = fmt.Errorf("%w: unknown profile type %q", domain.ErrInvalidPayload, kind)
	}
	if err != nil {
		r.logger.Error("update profile", zap.Int64("user_id", userID), zap.String("kind", string(kind)), zap.Error(err))
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// nullable maps absent and empty values to SQL NULL.
func nullable(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}
