package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pgdapi/internal/domain"
)

const userColumns = `id,email,password_hash,unit_code,org_code,is_admin,disabled,created_at`

// CreateUser stores u. An email already in use yields ErrConflict.
func (r Repo) CreateUser(ctx context.Context, u domain.User) error {
	if u.CreatedAt == "" {
		u.CreatedAt = timestamp(r.now())
	}
	_, err := r.exec(ctx, `INSERT INTO users(`+userColumns+`) VALUES (?,?,?,?,?,?,?,?)`,
		u.ID, normalizeEmail(u.Email), u.PasswordHash, u.UnitCode, u.OrgCode, u.IsAdmin, u.Disabled, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", u.Email, ErrConflict)
		}
		return err
	}
	return nil
}

func (r Repo) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findUser(ctx, `email=?`, normalizeEmail(email))
}

func (r Repo) FindUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.findUser(ctx, `id=?`, id)
}

func (r Repo) findUser(ctx context.Context, where string, arg any) (domain.User, error) {
	var u domain.User
	err := r.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.UnitCode, &u.OrgCode, &u.IsAdmin, &u.Disabled, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

func (r Repo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.UnitCode, &u.OrgCode, &u.IsAdmin, &u.Disabled, &u.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
