package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"userapi/internal/model"
	"userapi/internal/repository"
)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

// FindAll returns all users in insertion order.
func (r *UserPostgres) FindAll(ctx context.Context) ([]model.User, error) {
	const q = `
		SELECT id, name, email
		FROM users
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, classify(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return users, nil
}

// FindByID fetches a single user by its ID.
func (r *UserPostgres) FindByID(ctx context.Context, id int64) (*model.User, error) {
	const q = `
		SELECT id, name, email
		FROM users
		WHERE id = $1
	`
	u, err := scanUser(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, classify(err)
	}
	return &u, nil
}

// Save updates the row matching user.ID, falling back to an insert with a new ID
// when the user has no ID or the ID is unknown.
func (r *UserPostgres) Save(ctx context.Context, user *model.User) (*model.User, error) {
	if user.ID != 0 {
		const qUpdate = `
			UPDATE users SET name = $2, email = $3
			WHERE id = $1
			RETURNING id, name, email
		`
		u, err := scanUser(r.db.QueryRowContext(ctx, qUpdate, user.ID, user.Name, nullString(user.Email)))
		if err == nil {
			return &u, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, classify(err)
		}
	}

	const qInsert = `
		INSERT INTO users (name, email)
		VALUES ($1, $2)
		RETURNING id, name, email
	`
	u, err := scanUser(r.db.QueryRowContext(ctx, qInsert, user.Name, nullString(user.Email)))
	if err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

// DeleteByID removes a user by ID. It does not return an error if the row does not exist.
func (r *UserPostgres) DeleteByID(ctx context.Context, id int64) error {
	const q = `DELETE FROM users WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return classify(err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (model.User, error) {
	var (
		u     model.User
		email sql.NullString
	)
	if err := s.Scan(&u.ID, &u.Name, &email); err != nil {
		return model.User{}, err
	}
	u.Email = email.String
	return u, nil
}

// nullString stores empty emails as NULL so the unique index ignores them.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// classify maps driver errors onto the repository error taxonomy.
// SQLSTATE class 23 is "integrity constraint violation".
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return fmt.Errorf("%w: %w", repository.ErrConstraintViolation, err)
	}
	return fmt.Errorf("%w: %w", repository.ErrStorageUnavailable, err)
}
