package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	WorkPlanCreated     = "work_plan.created"
	WorkPlanUpdated     = "work_plan.updated"
	DeliveryPlanCreated = "delivery_plan.created"
	DeliveryPlanUpdated = "delivery_plan.updated"
	UserCreated         = "user.created"
	TableTruncated      = "table.truncated"
)

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Writer appends audit events, normally inside the transaction that made the
// change. Rebind adapts the "?" placeholders to the driver in use.
type Writer struct {
	Now    func() time.Time
	Rebind func(string) string
}

type EventPayload map[string]any

func (w Writer) Append(ctx context.Context, ex Execer, evtType, entityKind, entityID, actorID string, payload EventPayload) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	query := `INSERT INTO events(ts,type,entity_kind,entity_id,actor_id,payload_json) VALUES (?,?,?,?,?,?)`
	if w.Rebind != nil {
		query = w.Rebind(query)
	}
	_, err = ex.ExecContext(ctx, query, ts, evtType, entityKind, nullable(entityID), actorID, string(data))
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
