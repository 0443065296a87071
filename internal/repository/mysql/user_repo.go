package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"aves/lms-app/internal/domain"
	"aves/lms-app/internal/repository"
)

// mysqlUserRepository implements repository.UserRepository on database/sql.
type mysqlUserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &mysqlUserRepository{db: db}
}

const userColumns = "id, email, password_hash, name, role, is_active, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts the user and returns its generated id. The unique index
// on email is the authoritative duplicate guard; MySQL error 1062 maps to
// ErrDuplicateEmail so a racing second registration fails cleanly.
func (r *mysqlUserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, name, role) VALUES (?, ?, ?, ?)",
		strings.ToLower(strings.TrimSpace(user.Email)), user.PasswordHash, user.Name, user.Role)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return 0, repository.ErrDuplicateEmail
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (r *mysqlUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ? LIMIT 1",
		strings.ToLower(strings.TrimSpace(email)))
	return scanUser(row)
}

func (r *mysqlUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id)
	return scanUser(row)
}

// List returns users newest first, optionally restricted to one role.
func (r *mysqlUserRepository) List(ctx context.Context, role domain.Role) ([]domain.User, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if role != "" {
		rows, err = r.db.QueryContext(ctx,
			"SELECT "+userColumns+" FROM users WHERE role = ? ORDER BY created_at DESC", role)
	} else {
		rows, err = r.db.QueryContext(ctx,
			"SELECT "+userColumns+" FROM users ORDER BY created_at DESC")
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *mysqlUserRepository) Update(ctx context.Context, id int64, name, email string) error {
	if email != "" {
		// Reject an email already held by another account.
		var existing int64
		err := r.db.QueryRowContext(ctx,
			"SELECT id FROM users WHERE email = ? AND id != ? LIMIT 1",
			strings.ToLower(strings.TrimSpace(email)), id).Scan(&existing)
		if err == nil {
			return repository.ErrDuplicateEmail
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if _, err := r.db.ExecContext(ctx,
			"UPDATE users SET email = ? WHERE id = ?",
			strings.ToLower(strings.TrimSpace(email)), id); err != nil {
			return err
		}
	}
	if name != "" {
		if _, err := r.db.ExecContext(ctx,
			"UPDATE users SET name = ? WHERE id = ?", name, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *mysqlUserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return repository.ErrNotFound
	}
	return err
}

func (r *mysqlUserRepository) CountByRole(ctx context.Context) (int64, map[domain.Role]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT role, COUNT(*) FROM users GROUP BY role")
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()

	var total int64
	perRole := make(map[domain.Role]int64)
	for rows.Next() {
		var role domain.Role
		var n int64
		if err := rows.Scan(&role, &n); err != nil {
			return 0, nil, err
		}
		perRole[role] = n
		total += n
	}
	return total, perRole, rows.Err()
}

// SignupsPerDay returns registration counts keyed by YYYY-MM-DD for the
// most recent days.
func (r *mysqlUserRepository) SignupsPerDay(ctx context.Context, days int) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DATE_FORMAT(created_at, '%Y-%m-%d') AS day, COUNT(*) FROM users
		 GROUP BY day ORDER BY day DESC LIMIT ?`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	growth := make(map[string]int64)
	for rows.Next() {
		var day string
		var n int64
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		growth[day] = n
	}
	return growth, rows.Err()
}
