package pgdsdk_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgdapi/internal/db"
	"pgdapi/internal/engine"
	"pgdapi/internal/migrate"
	"pgdapi/internal/repo"
	"pgdapi/internal/server"
	pgdsdk "pgdapi/sdk/go"
)

func newClient(t *testing.T) *pgdsdk.Client {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_, err = migrate.Migrate(conn, db.DriverSQLite)
	require.NoError(t, err)

	e := engine.New(repo.New(conn, repo.DriverSQLite))
	ctx := context.Background()
	root, err := e.CreateSuperuser(ctx, "root@example.org", "root-password")
	require.NoError(t, err)
	_, err = e.RegisterUser(ctx, engine.PrincipalFor(root), engine.NewUser{
		Email: "unit4@example.org", Password: "unit4-password", UnitCode: 4, OrgCode: 40,
	})
	require.NoError(t, err)

	handler, err := server.New(server.Config{Engine: e, Auth: server.AuthConfig{JWTSecret: "sdk-secret", TokenTTL: time.Hour}})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return pgdsdk.New(srv.URL + "/api/v1")
}

func sampleWorkPlan() pgdsdk.WorkPlan {
	return pgdsdk.WorkPlan{
		UnitCode:           4,
		PlanCode:           "wp-1",
		RegistrationNumber: 987,
		NationalID:         "52998224725",
		ParticipantName:    "Joana Souza",
		ExecutionUnitCode:  4,
		ExecutionModality:  1,
		WeeklyWorkload:     20,
		TotalWorkload:      10,
		StartDate:          "2024-02-01",
		EndDate:            "2024-02-29",
		Activities: []pgdsdk.Activity{
			{ActivityID: 1, Name: "Analysis", ComplexityTier: "medium", PresentialTime: 4, RemoteTime: 6, ExpectedCount: 2},
		},
	}
}

func TestClientWorkPlanRoundTrip(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()
	require.NoError(t, c.Login(ctx, "unit4@example.org", "unit4-password"))

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), me.UnitCode)

	stored, created, err := c.PutWorkPlan(ctx, sampleWorkPlan())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "wp-1", stored.PlanCode)

	_, created, err = c.PutWorkPlan(ctx, sampleWorkPlan())
	require.NoError(t, err)
	assert.False(t, created)

	got, err := c.GetWorkPlan(ctx, 4, "wp-1")
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.TotalWorkload)
	require.Len(t, got.Activities, 1)
	assert.Equal(t, "Analysis", got.Activities[0].Name)
}

func TestClientSurfacesErrorEnvelope(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	err := c.Login(ctx, "unit4@example.org", "nope-nope")
	var apiErr *pgdsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid_credentials", apiErr.Code)

	require.NoError(t, c.Login(ctx, "unit4@example.org", "unit4-password"))
	wp := sampleWorkPlan()
	wp.TotalWorkload = 11
	_, _, err = c.PutWorkPlan(ctx, wp)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "arithmetic_mismatch", apiErr.Code)
	require.Len(t, apiErr.Errors, 1)
	assert.Equal(t, "total_workload", apiErr.Errors[0].FieldPath)

	_, err = c.GetDeliveryPlan(ctx, 41, 1)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "forbidden", apiErr.Code)
}

func TestClientDeliveryPlan(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()
	require.NoError(t, c.Login(ctx, "unit4@example.org", "unit4-password"))

	dp := pgdsdk.DeliveryPlan{
		InstitutingOrgCode: 40,
		DeliveryPlanID:     9,
		PlanningUnitCode:   4,
		StartDate:          "2024-01-01",
		EndDate:            "2024-12-31",
		Deliveries: []pgdsdk.Delivery{
			{DeliveryID: "d-1", Name: "Dashboard", GoalValue: 50, GoalType: 2, DeliveryDate: "2024-06-30", RequesterName: "Ana", RecipientName: "Bruno"},
		},
	}
	_, created, err := c.PutDeliveryPlan(ctx, dp)
	require.NoError(t, err)
	assert.True(t, created)

	got, err := c.GetDeliveryPlan(ctx, 40, 9)
	require.NoError(t, err)
	assert.Nil(t, got.Cancelled)
	require.Len(t, got.Deliveries, 1)
	assert.Equal(t, "2024-06-30", got.Deliveries[0].DeliveryDate)

	_, err = c.Events(ctx, 5)
	var apiErr *pgdsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}
