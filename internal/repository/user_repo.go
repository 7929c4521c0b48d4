package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"loadboard/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is the SQLSTATE for unique constraint violations.
const pgUniqueViolation = "23505"

// UserRepository defines operations for user profile records
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, id string, patch model.UserPatch) error
}

type userRepository struct {
	db  DBTX
	now func() time.Time
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db, now: time.Now}
}

const userColumns = `id, email, name, role, address, password_hash, created_at, updated_at`

// Create inserts a new user. The caller supplies the id (the identity uid).
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	now := r.now()
	user.CreatedAt = now
	user.UpdatedAt = &now
	sql := `INSERT INTO users (` + userColumns + `)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(ctx, sql, user.ID, user.Email, user.Name, user.Role, user.Address,
		user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return storeErr("create user", ErrDuplicate)
		}
		return storeErr("create user", err)
	}
	return nil
}

// FindByEmail retrieves a user by email. Emails are compared case-insensitively.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return r.scanOne(ctx, "find user by email", sql, email)
}

// FindByID retrieves a user by id
func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(ctx, "find user by id", sql, id)
}

func (r *userRepository) scanOne(ctx context.Context, op, sql string, arg any) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRow(ctx, sql, arg).Scan(
		&user.ID, &user.Email, &user.Name, &user.Role, &user.Address,
		&user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storeErr(op, ErrNotFound)
		}
		return nil, storeErr(op, err)
	}
	return user, nil
}

// Update applies a partial profile update and stamps updated_at
func (r *userRepository) Update(ctx context.Context, id string, patch model.UserPatch) error {
	var set []string
	var args []any
	argCount := 1

	if patch.Address != nil {
		set = append(set, fmt.Sprintf("address = $%d", argCount))
		args = append(args, *patch.Address)
		argCount++
	}
	if patch.PasswordHash != nil {
		set = append(set, fmt.Sprintf("password_hash = $%d", argCount))
		args = append(args, *patch.PasswordHash)
		argCount++
	}
	set = append(set, fmt.Sprintf("updated_at = $%d", argCount))
	args = append(args, r.now())
	argCount++

	sql := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d`, strings.Join(set, ", "), argCount)
	args = append(args, id)

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return storeErr("update user", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return storeErr("update user", ErrNotFound)
	}
	return nil
}
