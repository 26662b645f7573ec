package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgdapi/internal/db"
	"pgdapi/internal/domain"
	"pgdapi/internal/migrate"
	"pgdapi/internal/rules"
)

var fixedNow = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestRepo(t *testing.T) Repo {
	t.Helper()
	conn, err := db.Open(db.Config{Driver: db.DriverSQLite, Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_, err = migrate.Migrate(conn, db.DriverSQLite)
	require.NoError(t, err)
	r := New(conn, DriverSQLite)
	r.Now = func() time.Time { return fixedNow }
	return r
}

func day(s string) time.Time {
	d, err := rules.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func strp(s string) *string { return &s }
func intp(v int64) *int64   { return &v }
func boolp(v bool) *bool    { return &v }

func sampleWorkPlan() domain.WorkPlan {
	return domain.WorkPlan{
		UnitCode:           1,
		PlanCode:           "555",
		RegistrationNumber: 123456,
		NationalID:         "52998224725",
		ParticipantName:    "Maria Silva",
		ExecutionUnitCode:  1,
		ExecutionModality:  1,
		WeeklyWorkload:     40,
		TotalWorkload:      decimal.NewFromInt(80),
		StartDate:          day("2023-01-01"),
		EndDate:            day("2023-01-31"),
		InsertedAt:         fixedNow,
		UpdatedAt:          fixedNow,
		Activities: []domain.Activity{
			{ActivityID: 2, Name: "Review", ComplexityTier: "high", PresentialTime: decimal.RequireFromString("30.5"), RemoteTime: decimal.RequireFromString("9.5"), ExpectedCount: 1},
			{ActivityID: 1, Name: "Draft", ComplexityTier: "low", PresentialTime: decimal.NewFromInt(20), RemoteTime: decimal.NewFromInt(20), ExpectedCount: 2, Evaluation: intp(4), EvaluationDate: timep(day("2023-02-10"))},
		},
	}
}

func timep(t time.Time) *time.Time { return &t }

func TestWorkPlanRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	wp := sampleWorkPlan()
	require.NoError(t, r.InsertWorkPlan(ctx, wp))

	got, err := r.FindWorkPlan(ctx, wp.Key())
	require.NoError(t, err)
	assert.NotZero(t, got.ID)
	assert.Equal(t, "Maria Silva", got.ParticipantName)
	assert.True(t, got.TotalWorkload.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, day("2023-01-31"), got.EndDate)
	assert.Nil(t, got.Status)
	assert.Nil(t, got.DeliveredOnTime)
	assert.Equal(t, fixedNow, got.InsertedAt)
	require.Len(t, got.Activities, 2)
	assert.Equal(t, int64(2), got.Activities[0].ActivityID, "activities keep submission order")
	assert.True(t, got.Activities[0].PresentialTime.Equal(decimal.RequireFromString("30.5")))
	require.NotNil(t, got.Activities[1].EvaluationDate)
	assert.Equal(t, day("2023-02-10"), *got.Activities[1].EvaluationDate)
}

func TestFindWorkPlanMissing(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.FindWorkPlan(context.Background(), domain.WorkPlanKey{UnitCode: 9, PlanCode: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplaceWorkPlanKeepsInsertedAt(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	wp := sampleWorkPlan()
	require.NoError(t, r.InsertWorkPlan(ctx, wp))

	later := fixedNow.Add(time.Hour)
	wp.InsertedAt = later
	wp.UpdatedAt = later
	wp.Status = strp("active")
	wp.Activities = wp.Activities[:1]
	require.NoError(t, r.ReplaceWorkPlan(ctx, wp))

	got, err := r.FindWorkPlan(ctx, wp.Key())
	require.NoError(t, err)
	assert.Equal(t, fixedNow, got.InsertedAt)
	assert.Equal(t, later, got.UpdatedAt)
	require.NotNil(t, got.Status)
	assert.Equal(t, "active", *got.Status)
	assert.Len(t, got.Activities, 1)

	missing := sampleWorkPlan()
	missing.PlanCode = "other"
	assert.ErrorIs(t, r.ReplaceWorkPlan(ctx, missing), ErrNotFound)
}

func deliveryPlan(org, id, unit int64, start, end string, cancelled *bool) domain.DeliveryPlan {
	return domain.DeliveryPlan{
		InstitutingOrgCode: org,
		DeliveryPlanID:     id,
		PlanningUnitCode:   unit,
		StartDate:          day(start),
		EndDate:            day(end),
		Cancelled:          cancelled,
		InsertedAt:         fixedNow,
		UpdatedAt:          fixedNow,
		Deliveries: []domain.Delivery{
			{DeliveryID: "d-1", Name: "Report", GoalValue: 100, GoalType: 1, DeliveryDate: day(start), RequesterName: "A", RecipientName: "B", ExpectedProgress: intp(50)},
		},
	}
}

func TestDeliveryPlanRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	dp := deliveryPlan(1, 10, 7, "2023-01-01", "2023-06-30", boolp(false))
	require.NoError(t, r.InsertDeliveryPlan(ctx, dp))

	got, err := r.FindDeliveryPlan(ctx, dp.Key())
	require.NoError(t, err)
	require.NotNil(t, got.Cancelled)
	assert.False(t, *got.Cancelled)
	require.Len(t, got.Deliveries, 1)
	assert.Equal(t, "d-1", got.Deliveries[0].DeliveryID)
	assert.Equal(t, int64(50), *got.Deliveries[0].ExpectedProgress)
	assert.Nil(t, got.Deliveries[0].ActualProgress)

	dp.Deliveries = nil
	dp.Cancelled = boolp(true)
	require.NoError(t, r.ReplaceDeliveryPlan(ctx, dp))
	got, err = r.FindDeliveryPlan(ctx, dp.Key())
	require.NoError(t, err)
	assert.True(t, got.IsCancelled())
	assert.Empty(t, got.Deliveries)
}

func TestFindOverlappingDeliveryPlans(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, r.InsertDeliveryPlan(ctx, deliveryPlan(1, 1, 7, "2023-01-01", "2023-06-30", nil)))
	require.NoError(t, r.InsertDeliveryPlan(ctx, deliveryPlan(1, 2, 7, "2022-12-01", "2023-01-31", boolp(true))))
	require.NoError(t, r.InsertDeliveryPlan(ctx, deliveryPlan(1, 3, 8, "2023-01-01", "2023-12-31", nil)))

	cases := []struct {
		name    string
		period  rules.Period
		exclude domain.DeliveryPlanKey
		want    []int64
	}{
		{"adjacent", rules.Period{Start: day("2023-07-01"), End: day("2023-12-31")}, domain.DeliveryPlanKey{OrgCode: 1, PlanID: 9}, nil},
		{"touching end", rules.Period{Start: day("2023-06-30"), End: day("2023-12-31")}, domain.DeliveryPlanKey{OrgCode: 1, PlanID: 9}, nil},
		{"straddles start", rules.Period{Start: day("2022-12-01"), End: day("2023-01-31")}, domain.DeliveryPlanKey{OrgCode: 1, PlanID: 9}, []int64{1}},
		{"self excluded", rules.Period{Start: day("2023-01-01"), End: day("2023-06-30")}, domain.DeliveryPlanKey{OrgCode: 1, PlanID: 1}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.FindOverlappingDeliveryPlans(ctx, 7, tc.period, tc.exclude)
			require.NoError(t, err)
			var ids []int64
			for _, dp := range got {
				ids = append(ids, dp.DeliveryPlanID)
			}
			assert.Equal(t, tc.want, ids)
		})
	}
}

func TestRunInTxRollsBack(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	boom := errors.New("boom")
	err := r.RunInTx(ctx, func(ctx context.Context) error {
		require.NoError(t, r.InsertWorkPlan(ctx, sampleWorkPlan()))
		_, err := r.FindWorkPlan(ctx, sampleWorkPlan().Key())
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	_, err = r.FindWorkPlan(ctx, sampleWorkPlan().Key())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunInTxGivesUpOnRepeatedConflict(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, r.InsertWorkPlan(ctx, sampleWorkPlan()))
	calls := 0
	err := r.RunInTx(ctx, func(ctx context.Context) error {
		calls++
		return r.InsertWorkPlan(ctx, sampleWorkPlan())
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, defaultTxAttempts, calls)
}

func userFixture(id, email string, admin bool) domain.User {
	return domain.User{ID: id, Email: email, PasswordHash: "h", UnitCode: 1, OrgCode: 1, IsAdmin: admin}
}

func TestUsers(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, r.CreateUser(ctx, userFixture("u1", "Admin@Example.org", true)))
	require.NoError(t, r.CreateUser(ctx, userFixture("u2", "user@example.org", false)))
	assert.ErrorIs(t, r.CreateUser(ctx, userFixture("u3", "user@example.org", false)), ErrConflict)

	u, err := r.FindUserByEmail(ctx, " admin@example.org ")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.True(t, u.IsAdmin)
	assert.Equal(t, fixedNow.Format(time.RFC3339), u.CreatedAt)

	_, err = r.FindUserByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := r.Truncate(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	users, err := r.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u1", users[0].ID)
}

func TestTruncatePlansCascades(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, r.InsertWorkPlan(ctx, sampleWorkPlan()))
	_, err := r.Truncate(ctx, "work_plans")
	require.NoError(t, err)

	var left int
	require.NoError(t, r.DB.QueryRow(`SELECT COUNT(*) FROM activities`).Scan(&left))
	assert.Zero(t, left)

	_, err = r.Truncate(ctx, "schema_version")
	assert.ErrorIs(t, err, ErrUnknownTable)
}

func TestEvents(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, r.AppendEvent(ctx, domain.Event{Type: "work_plan.created", EntityKind: "work_plan", EntityID: "1/555", ActorID: "u1", Payload: map[string]any{"activities": 2}}))
	require.NoError(t, r.AppendEvent(ctx, domain.Event{Type: "table.truncated", EntityKind: "table", EntityID: "users", ActorID: "u1"}))

	evts, err := r.ListEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, evts, 2)
	assert.Equal(t, "table.truncated", evts[0].Type)
	assert.Equal(t, float64(2), evts[1].Payload["activities"])

	latest, err := r.LatestEventID(ctx)
	require.NoError(t, err)
	assert.Equal(t, evts[0].ID, latest)

	after, err := r.EventsAfter(ctx, evts[1].ID, 10)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, "table.truncated", after[0].Type)

	after, err = r.EventsAfter(ctx, latest, 10)
	require.NoError(t, err)
	assert.Empty(t, after)
}

func TestLatestEventIDEmptyLog(t *testing.T) {
	r := newTestRepo(t)
	id, err := r.LatestEventID(context.Background())
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestRebind(t *testing.T) {
	pg := Repo{Driver: DriverPostgres}
	assert.Equal(t, "SELECT 1 WHERE a=$1 AND b=$2", pg.rebind("SELECT 1 WHERE a=? AND b=?"))
	lite := Repo{Driver: DriverSQLite}
	assert.Equal(t, "a=?", lite.rebind("a=?"))
}
