package userservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sushihentaime/blogsphere/internal/common"
	"github.com/sushihentaime/blogsphere/internal/credential"
)

var ErrDuplicateEmail = errors.New("duplicate email")

func NewDBModel(db *sql.DB) *DBModel {
	return &DBModel{db: db}
}

const userColumns = `id, first_name, last_name, email, password, bio, profile_photo_id, num_blogs, version,
		signed_in_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Password.hash, &u.Bio, &u.ProfilePhotoID,
		&u.NumBlogs, &u.Version, &u.SignedInAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrRecordNotFound
		}
		return nil, err
	}

	return &u, nil
}

// insertUser stores a new, signed-in user: version 0 and signed_in_at set to u.SignedInAt.
func (m *DBModel) insertUser(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (first_name, last_name, email, password, profile_photo_id, signed_in_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, version, created_at, updated_at`

	args := []any{u.FirstName, u.LastName, u.Email, u.Password.hash, u.ProfilePhotoID, u.SignedInAt}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.Version, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		switch {
		case common.UniqueViolation(err, "users_email_key"):
			return ErrDuplicateEmail
		default:
			return err
		}
	}

	return nil
}

func (m *DBModel) getUserByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	return scanUser(m.db.QueryRowContext(ctx, query, id))
}

func (m *DBModel) getUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	return scanUser(m.db.QueryRowContext(ctx, query, email))
}

// signIn starts a new refresh chain: the version goes back to 0 and refresh credentials
// issued before at stop rotating.
func (m *DBModel) signIn(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE users
		SET version = 0, signed_in_at = $2
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return err
	}

	return expectOne(res)
}

// IncrementVersion moves the user's version from expected to expected+1. It fails with
// credential.ErrVersionMismatch when the stored version differs or the credential
// predates the latest sign-in.
func (m *DBModel) IncrementVersion(ctx context.Context, userID int64, expected int, issuedAt time.Time) (int, error) {
	query := `
		UPDATE users
		SET version = version + 1
		WHERE id = $1 AND version = $2 AND signed_in_at <= $3
		RETURNING version`

	var version int
	err := m.db.QueryRowContext(ctx, query, userID, expected, issuedAt).Scan(&version)
	if err == nil {
		return version, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	var exists bool
	if err := m.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, common.ErrRecordNotFound
	}

	return 0, credential.ErrVersionMismatch
}

// revokeRefresh bumps the version so no outstanding refresh credential rotates again.
func (m *DBModel) revokeRefresh(ctx context.Context, id int64) error {
	res, err := m.db.ExecContext(ctx, `UPDATE users SET version = version + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return expectOne(res)
}

func (m *DBModel) updatePassword(ctx context.Context, id int64, pwd Password) error {
	query := `
		UPDATE users
		SET password = $2, updated_at = NOW()
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, id, pwd.hash)
	if err != nil {
		return err
	}

	return expectOne(res)
}

func (m *DBModel) updateProfile(ctx context.Context, u *User) error {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, email = $4, bio = $5, profile_photo_id = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	args := []any{u.ID, u.FirstName, u.LastName, u.Email, u.Bio, u.ProfilePhotoID}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&u.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return common.ErrRecordNotFound
		case common.UniqueViolation(err, "users_email_key"):
			return ErrDuplicateEmail
		default:
			return err
		}
	}

	return nil
}

func expectOne(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}

	switch {
	case rows == 0:
		return common.ErrRecordNotFound
	case rows > 1:
		return fmt.Errorf("expected 1 row to be affected, got %d", rows)
	}

	return nil
}
