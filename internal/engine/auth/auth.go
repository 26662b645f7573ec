package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Principal is the authenticated caller and the scope it may act on.
type Principal struct {
	UserID   string
	Email    string
	UnitCode int64
	OrgCode  int64
	Admin    bool
}

// ForbiddenError indicates the caller is authenticated but outside the
// target's unit or organization.
type ForbiddenError struct {
	Permission string
	Message    string
}

func (e ForbiddenError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("permission %s required", e.Permission)
}

// AuthorizeUnit checks that p may write or read plans of the given unit.
func AuthorizeUnit(p Principal, unitCode int64) error {
	if p.Admin || p.UnitCode == unitCode {
		return nil
	}
	return ForbiddenError{
		Permission: fmt.Sprintf("unit:%d", unitCode),
		Message:    "user cannot access a work plan of another unit",
	}
}

// AuthorizeOrg checks that p may write or read plans of the given
// instituting organization.
func AuthorizeOrg(p Principal, orgCode int64) error {
	if p.Admin || p.OrgCode == orgCode {
		return nil
	}
	return ForbiddenError{
		Permission: fmt.Sprintf("org:%d", orgCode),
		Message:    "user has no permission on the informed instituting_org_code",
	}
}

func RequireAdmin(p Principal) error {
	if p.Admin {
		return nil
	}
	return ForbiddenError{Permission: "admin", Message: "administrator privileges required"}
}

var ErrPasswordMismatch = errors.New("password mismatch")

// HashPassword hashes a password with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a stored hash with a candidate password.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("compare password: %w", err)
	}
	return nil
}
