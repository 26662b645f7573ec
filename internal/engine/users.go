package engine

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"pgdapi/internal/domain"
	"pgdapi/internal/engine/auth"
	"pgdapi/internal/events"
	"pgdapi/internal/repo"
	"pgdapi/internal/rules"
)

const minPasswordLength = 8

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDuplicateUser      = errors.New("a user with this email already exists")
	ErrUserNotFound       = fmt.Errorf("user %w", repo.ErrNotFound)
	ErrUnknownTable       = fmt.Errorf("truncate: %w", repo.ErrUnknownTable)
)

// NewUser is an account to register.
type NewUser struct {
	Email    string
	Password string
	UnitCode int64
	OrgCode  int64
	Admin    bool
}

// PrincipalFor is the scope granted to an authenticated user.
func PrincipalFor(u domain.User) auth.Principal {
	return auth.Principal{
		UserID:   u.ID,
		Email:    u.Email,
		UnitCode: u.UnitCode,
		OrgCode:  u.OrgCode,
		Admin:    u.IsAdmin,
	}
}

// RegisterUser creates an account on behalf of an administrator.
func (e Engine) RegisterUser(ctx context.Context, p auth.Principal, in NewUser) (domain.User, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return domain.User{}, err
	}
	return e.createUser(ctx, p.UserID, in)
}

// CreateSuperuser creates an administrator without a calling principal. It
// backs the bootstrap CLI command.
func (e Engine) CreateSuperuser(ctx context.Context, email, password string) (domain.User, error) {
	return e.createUser(ctx, "system", NewUser{Email: email, Password: password, Admin: true})
}

func (e Engine) createUser(ctx context.Context, actorID string, in NewUser) (domain.User, error) {
	c := rules.NewChecker(nil)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		c.Add("email", rules.KindInvalidFormat, "value is not a valid email address")
	}
	if len(in.Password) < minPasswordLength {
		c.Add("password", rules.KindOutOfRange, fmt.Sprintf("password must have at least %d characters", minPasswordLength))
	}
	if !in.Admin {
		c.Positive("unit_code", in.UnitCode, "invalid unit code")
		c.Positive("org_code", in.OrgCode, "invalid organization code")
	}
	if err := c.Violations().Err(); err != nil {
		return domain.User{}, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, err
	}
	u := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		UnitCode:     in.UnitCode,
		OrgCode:      in.OrgCode,
		IsAdmin:      in.Admin,
		CreatedAt:    e.now().Format(time.RFC3339),
	}
	err = e.Store.RunInTx(ctx, func(ctx context.Context) error {
		if err := e.Store.CreateUser(ctx, u); err != nil {
			return err
		}
		return e.Store.AppendEvent(ctx, domain.Event{
			Type:       events.UserCreated,
			EntityKind: "user",
			EntityID:   u.ID,
			ActorID:    actorID,
			Payload:    map[string]any{"email": u.Email, "admin": u.IsAdmin},
		})
	})
	if errors.Is(err, repo.ErrConflict) {
		return domain.User{}, ErrDuplicateUser
	}
	if err != nil {
		return domain.User{}, err
	}
	e.log().InfoContext(ctx, "user created", "user_id", u.ID, "admin", u.IsAdmin)
	return u, nil
}

// Authenticate checks an email and password pair. Unknown, disabled and
// wrong-password accounts all yield ErrInvalidCredentials.
func (e Engine) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	u, err := e.Store.FindUserByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, err
	}
	if u.Disabled {
		return domain.User{}, ErrInvalidCredentials
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (e Engine) CurrentUser(ctx context.Context, p auth.Principal) (domain.User, error) {
	u, err := e.Store.FindUserByID(ctx, p.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}

func (e Engine) ListUsers(ctx context.Context) ([]domain.User, error) {
	return e.Store.ListUsers(ctx)
}

// Truncate empties one of repo.Truncatable for an administrator and records
// who did it.
func (e Engine) Truncate(ctx context.Context, p auth.Principal, table string) (int64, error) {
	if err := auth.RequireAdmin(p); err != nil {
		return 0, err
	}
	if !slices.Contains(repo.Truncatable, table) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	var removed int64
	err := e.Store.RunInTx(ctx, func(ctx context.Context) error {
		n, err := e.Store.Truncate(ctx, table)
		if err != nil {
			return err
		}
		removed = n
		return e.Store.AppendEvent(ctx, domain.Event{
			Type:       events.TableTruncated,
			EntityKind: "table",
			EntityID:   table,
			ActorID:    p.UserID,
			Payload:    map[string]any{"rows": n},
		})
	})
	if err != nil {
		return 0, err
	}
	e.log().WarnContext(ctx, "table truncated", "table", table, "rows", removed, "actor", p.UserID)
	return removed, nil
}

// Events returns the latest audit events, newest first.
func (e Engine) Events(ctx context.Context, limit int) ([]domain.Event, error) {
	return e.Store.ListEvents(ctx, limit)
}

// EventsAfter pages forward through the audit log from afterID.
func (e Engine) EventsAfter(ctx context.Context, afterID int64, limit int) ([]domain.Event, error) {
	return e.Store.EventsAfter(ctx, afterID, limit)
}

func (e Engine) LatestEventID(ctx context.Context) (int64, error) {
	return e.Store.LatestEventID(ctx)
}
