package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"pgdapi/internal/domain"
	"pgdapi/internal/events"
	"pgdapi/internal/rules"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultTxAttempts = 3
)

// Repo is the SQL persistence layer for plans, users and events. Queries are
// written with "?" placeholders and rebound for PostgreSQL.
type Repo struct {
	DB     *sql.DB
	Driver string
	Now    func() time.Time
	// TxAttempts bounds RunInTx retries on write conflicts.
	TxAttempts int
}

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflicting concurrent write")
	ErrUnknownTable = errors.New("unknown table")
)

// Truncatable lists the tables an administrator may empty.
var Truncatable = []string{"work_plans", "delivery_plans", "users", "events"}

func New(db *sql.DB, driver string) Repo {
	if driver == "" {
		driver = DriverSQLite
	}
	return Repo{DB: db, Driver: driver, Now: time.Now}
}

type txKey struct{}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r Repo) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return r.DB
}

func (r Repo) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r Repo) rebind(query string) string {
	if r.Driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (r Repo) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.q(ctx).ExecContext(ctx, r.rebind(query), args...)
}

func (r Repo) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.q(ctx).QueryContext(ctx, r.rebind(query), args...)
}

func (r Repo) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return r.q(ctx).QueryRowContext(ctx, r.rebind(query), args...)
}

// RunInTx runs fn in one transaction, carried by the context it receives.
// SQLite transactions take the write lock up front; PostgreSQL ones run
// SERIALIZABLE. Unique violations and serialization failures restart fn,
// up to TxAttempts times, after which ErrConflict is returned.
func (r Repo) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	attempts := r.TxAttempts
	if attempts <= 0 {
		attempts = defaultTxAttempts
	}
	var err error
	for i := 0; i < attempts; i++ {
		err = r.runOnce(ctx, fn)
		if err == nil || !IsConflict(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w: %v", ErrConflict, err)
}

func (r Repo) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	var opts *sql.TxOptions
	if r.Driver == DriverPostgres {
		opts = &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	tx, err := r.DB.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit()
}

// IsConflict reports whether err is a write conflict worth retrying.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "40001", "40P01":
			return true
		}
		return false
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// Truncate empties an administrative table. Plan children go with their
// parents; administrators survive a users truncate.
func (r Repo) Truncate(ctx context.Context, table string) (int64, error) {
	var stmt string
	switch table {
	case "work_plans":
		stmt = `DELETE FROM work_plans`
	case "delivery_plans":
		stmt = `DELETE FROM delivery_plans`
	case "users":
		stmt = `DELETE FROM users WHERE is_admin = FALSE`
	case "events":
		stmt = `DELETE FROM events`
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	res, err := r.exec(ctx, stmt)
	if err != nil {
		return 0, fmt.Errorf("truncate %s: %w", table, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// AppendEvent writes an audit event in the current transaction, if any.
func (r Repo) AppendEvent(ctx context.Context, evt domain.Event) error {
	w := events.Writer{Now: r.now, Rebind: r.rebind}
	return w.Append(ctx, r.q(ctx), evt.Type, evt.EntityKind, evt.EntityID, evt.ActorID, events.EventPayload(evt.Payload))
}

// ListEvents returns the latest events, newest first.
func (r Repo) ListEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.scanEvents(ctx, `SELECT id,ts,type,entity_kind,COALESCE(entity_id,''),actor_id,payload_json FROM events ORDER BY id DESC LIMIT ?`, limit)
}

// EventsAfter returns up to limit events with an id above afterID, oldest
// first.
func (r Repo) EventsAfter(ctx context.Context, afterID int64, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.scanEvents(ctx, `SELECT id,ts,type,entity_kind,COALESCE(entity_id,''),actor_id,payload_json FROM events WHERE id > ? ORDER BY id ASC LIMIT ?`, afterID, limit)
}

// LatestEventID is the id of the newest event, 0 when the log is empty.
func (r Repo) LatestEventID(ctx context.Context) (int64, error) {
	var id sql.NullInt64
	if err := r.queryRow(ctx, `SELECT MAX(id) FROM events`).Scan(&id); err != nil {
		return 0, err
	}
	return id.Int64, nil
}

func (r Repo) scanEvents(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var (
			e       domain.Event
			payload string
		)
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &e.EntityID, &e.ActorID, &payload); err != nil {
			return nil, err
		}
		if payload != "" {
			if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
				return nil, fmt.Errorf("decode event %d payload: %w", e.ID, err)
			}
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// --- column helpers ---

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func dateString(t time.Time) string {
	return t.Format(rules.DateLayout)
}

func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return dateString(*t)
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullBool(v *bool) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func intPtr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

func boolPtr(nb sql.NullBool) *bool {
	if !nb.Valid {
		return nil
	}
	v := nb.Bool
	return &v
}

func datePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := rules.ParseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func decimalPtr(ns sql.NullString) (*decimal.Decimal, error) {
	if !ns.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
