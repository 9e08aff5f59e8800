package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `id, full_name, email, hashed_password, pin, role, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.HashedPassword, &u.Pin,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE LOWER(email) = LOWER($1) AND is_active`, email)
	return scanUser(row)
}

// GetUserByPin looks up cashier/chef staff by their short login PIN.
func (q *Queries) GetUserByPin(ctx context.Context, pin string) (User, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE pin = $1 AND is_active`, pin)
	return scanUser(row)
}

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+userColumns+` FROM users ORDER BY full_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type CreateUserParams struct {
	FullName       string
	Email          string
	HashedPassword string
	Pin            pgtype.Text
	Role           string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO users (full_name, email, hashed_password, pin, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		arg.FullName, arg.Email, arg.HashedPassword, arg.Pin, arg.Role)
	return scanUser(row)
}

type SetUserActiveParams struct {
	ID       uuid.UUID
	IsActive bool
}

func (q *Queries) SetUserActive(ctx context.Context, arg SetUserActiveParams) (User, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE users SET is_active = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		arg.ID, arg.IsActive)
	return scanUser(row)
}
