package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"pgdapi/internal/domain"
	"pgdapi/internal/engine"
	"pgdapi/internal/engine/auth"
	"pgdapi/internal/engine/mocks"
	"pgdapi/internal/metrics"
	"pgdapi/internal/repo"
	"pgdapi/internal/rules"
)

// EngineSuite drives the engine against a mocked store to pin down which
// store calls each path makes.
type EngineSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	store   *mocks.MockStore
	metrics *metrics.Metrics
	engine  engine.Engine
	ctx     context.Context
}

var mockNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func (s *EngineSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.metrics = metrics.New()
	s.engine = engine.New(s.store,
		engine.WithMetrics(s.metrics),
		engine.WithClock(func() time.Time { return mockNow }))
	s.ctx = context.Background()
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

// passThroughTx makes RunInTx call fn directly.
func (s *EngineSuite) passThroughTx() {
	s.store.EXPECT().RunInTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		})
}

func (s *EngineSuite) workPlanPayload(m map[string]any) engine.WorkPlanPayload {
	return engine.DecodeWorkPlan(encode(s.T(), m))
}

func (s *EngineSuite) outcomes(plan, outcome string) float64 {
	return testutil.ToFloat64(s.metrics.UpsertOutcome.WithLabelValues(plan, outcome))
}

var workPlanKey = domain.WorkPlanKey{UnitCode: 1, PlanCode: "555"}

func (s *EngineSuite) TestRejectedSubmissionNeverTouchesStore() {
	m := workPlanFields()
	m["weekly_workload"] = 41
	_, _, err := s.engine.UpsertWorkPlan(s.ctx, unitUser, workPlanKey, s.workPlanPayload(m))

	var violations rules.Violations
	s.Require().ErrorAs(err, &violations)
	s.Equal(1.0, s.outcomes("work_plan", "rejected"))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ValidationFailures.WithLabelValues("work_plan", string(rules.KindOutOfRange))))
}

func (s *EngineSuite) TestForbiddenCountsAsRejected() {
	other := auth.Principal{UserID: "u2", UnitCode: 2, OrgCode: 10}
	_, _, err := s.engine.UpsertWorkPlan(s.ctx, other, workPlanKey, s.workPlanPayload(workPlanFields()))

	var forbidden auth.ForbiddenError
	s.Require().ErrorAs(err, &forbidden)
	s.Equal(1.0, s.outcomes("work_plan", "rejected"))
}

func (s *EngineSuite) TestCreateInsertsAndRecordsEvent() {
	s.passThroughTx()
	s.store.EXPECT().FindWorkPlan(gomock.Any(), workPlanKey).Return(domain.WorkPlan{}, repo.ErrNotFound)
	s.store.EXPECT().InsertWorkPlan(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, wp domain.WorkPlan) error {
			s.Equal(mockNow, wp.InsertedAt)
			s.Len(wp.Activities, 2)
			return nil
		})
	s.store.EXPECT().AppendEvent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, evt domain.Event) error {
			s.Equal("work_plan.created", evt.Type)
			s.Equal("1/555", evt.EntityID)
			s.Equal("u1", evt.ActorID)
			return nil
		})

	_, outcome, err := s.engine.UpsertWorkPlan(s.ctx, unitUser, workPlanKey, s.workPlanPayload(workPlanFields()))
	s.Require().NoError(err)
	s.Equal(engine.Created, outcome)
	s.Equal(1.0, s.outcomes("work_plan", "created"))
}

func (s *EngineSuite) TestUpdateReplacesKeepingInsertedAt() {
	inserted := mockNow.Add(-48 * time.Hour)
	status := "running"
	s.passThroughTx()
	s.store.EXPECT().FindWorkPlan(gomock.Any(), workPlanKey).
		Return(domain.WorkPlan{ID: 9, UnitCode: 1, PlanCode: "555", Status: &status, InsertedAt: inserted}, nil)
	s.store.EXPECT().ReplaceWorkPlan(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, wp domain.WorkPlan) error {
			s.Equal(int64(9), wp.ID)
			s.Equal(inserted, wp.InsertedAt)
			s.Equal(mockNow, wp.UpdatedAt)
			s.Require().NotNil(wp.Status)
			s.Equal("running", *wp.Status)
			return nil
		})
	s.store.EXPECT().AppendEvent(gomock.Any(), gomock.Any()).Return(nil)

	_, outcome, err := s.engine.UpsertWorkPlan(s.ctx, unitUser, workPlanKey, s.workPlanPayload(workPlanFields()))
	s.Require().NoError(err)
	s.Equal(engine.Updated, outcome)
}

func (s *EngineSuite) TestStoreFailurePropagates() {
	boom := errors.New("disk on fire")
	s.passThroughTx()
	s.store.EXPECT().FindWorkPlan(gomock.Any(), workPlanKey).Return(domain.WorkPlan{}, boom)

	_, _, err := s.engine.UpsertWorkPlan(s.ctx, unitUser, workPlanKey, s.workPlanPayload(workPlanFields()))
	s.ErrorIs(err, boom)
	s.Equal(1.0, s.outcomes("work_plan", "failed"))
}

func (s *EngineSuite) TestConflictAfterRetriesSurfaces() {
	s.store.EXPECT().RunInTx(gomock.Any(), gomock.Any()).Return(repo.ErrConflict)

	_, _, err := s.engine.UpsertWorkPlan(s.ctx, unitUser, workPlanKey, s.workPlanPayload(workPlanFields()))
	s.ErrorIs(err, repo.ErrConflict)
}

func (s *EngineSuite) TestOverlapQueryUsesPlanningUnitAndExcludesSelf() {
	key := domain.DeliveryPlanKey{OrgCode: 10, PlanID: 4}
	s.passThroughTx()
	s.store.EXPECT().FindDeliveryPlan(gomock.Any(), key).Return(domain.DeliveryPlan{}, repo.ErrNotFound)
	s.store.EXPECT().FindOverlappingDeliveryPlans(gomock.Any(), int64(7), gomock.Any(), key).
		DoAndReturn(func(_ context.Context, _ int64, p rules.Period, _ domain.DeliveryPlanKey) ([]domain.DeliveryPlan, error) {
			return []domain.DeliveryPlan{{
				InstitutingOrgCode: 10, DeliveryPlanID: 3, PlanningUnitCode: 7,
				StartDate: p.Start.AddDate(0, 0, -10), EndDate: p.Start.AddDate(0, 0, 1),
			}}, nil
		})

	payload := engine.DecodeDeliveryPlan(encode(s.T(), deliveryPlanFields(4, "2023-02-01", "2023-03-01")))
	_, _, err := s.engine.UpsertDeliveryPlan(s.ctx, unitUser, key, payload)
	re := requireRule(s.T(), err, rules.KindOverlappingPeriod)
	s.Equal("start_date", re.Path)
}

func (s *EngineSuite) TestOverlapQueryErrorIsWrapped() {
	key := domain.DeliveryPlanKey{OrgCode: 10, PlanID: 4}
	boom := errors.New("connection reset")
	s.passThroughTx()
	s.store.EXPECT().FindDeliveryPlan(gomock.Any(), key).Return(domain.DeliveryPlan{}, repo.ErrNotFound)
	s.store.EXPECT().FindOverlappingDeliveryPlans(gomock.Any(), int64(7), gomock.Any(), key).Return(nil, boom)

	payload := engine.DecodeDeliveryPlan(encode(s.T(), deliveryPlanFields(4, "2023-02-01", "2023-03-01")))
	_, _, err := s.engine.UpsertDeliveryPlan(s.ctx, unitUser, key, payload)
	s.ErrorIs(err, boom)
	s.Contains(err.Error(), "find overlapping delivery plans")
}

func (s *EngineSuite) TestCancelledPlanSkipsOverlapQuery() {
	key := domain.DeliveryPlanKey{OrgCode: 10, PlanID: 4}
	m := deliveryPlanFields(4, "2023-02-01", "2023-03-01")
	m["cancelled"] = true
	s.passThroughTx()
	s.store.EXPECT().FindDeliveryPlan(gomock.Any(), key).Return(domain.DeliveryPlan{}, repo.ErrNotFound)
	s.store.EXPECT().InsertDeliveryPlan(gomock.Any(), gomock.Any()).Return(nil)
	s.store.EXPECT().AppendEvent(gomock.Any(), gomock.Any()).Return(nil)

	_, outcome, err := s.engine.UpsertDeliveryPlan(s.ctx, unitUser, key, engine.DecodeDeliveryPlan(encode(s.T(), m)))
	s.Require().NoError(err)
	s.Equal(engine.Created, outcome)
}

func (s *EngineSuite) TestAuthenticate() {
	hash, err := auth.HashPassword("correct horse")
	s.Require().NoError(err)

	s.store.EXPECT().FindUserByEmail(gomock.Any(), "a@example.org").
		Return(domain.User{ID: "a", Email: "a@example.org", PasswordHash: hash}, nil).Times(2)
	s.store.EXPECT().FindUserByEmail(gomock.Any(), "off@example.org").
		Return(domain.User{ID: "off", PasswordHash: hash, Disabled: true}, nil)
	s.store.EXPECT().FindUserByEmail(gomock.Any(), "nobody@example.org").
		Return(domain.User{}, repo.ErrNotFound)

	u, err := s.engine.Authenticate(s.ctx, "a@example.org", "correct horse")
	s.Require().NoError(err)
	s.Equal("a", u.ID)

	_, err = s.engine.Authenticate(s.ctx, "a@example.org", "wrong")
	s.ErrorIs(err, engine.ErrInvalidCredentials)
	_, err = s.engine.Authenticate(s.ctx, "off@example.org", "correct horse")
	s.ErrorIs(err, engine.ErrInvalidCredentials)
	_, err = s.engine.Authenticate(s.ctx, "nobody@example.org", "correct horse")
	s.ErrorIs(err, engine.ErrInvalidCredentials)
}

func (s *EngineSuite) TestDuplicateUserMapsConflict() {
	s.passThroughTx()
	s.store.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(repo.ErrConflict)

	_, err := s.engine.RegisterUser(s.ctx, admin, engine.NewUser{
		Email: "dup@example.org", Password: "long enough", UnitCode: 1, OrgCode: 10,
	})
	s.ErrorIs(err, engine.ErrDuplicateUser)
}

func (s *EngineSuite) TestTruncateRejectsBeforeStore() {
	_, err := s.engine.Truncate(s.ctx, unitUser, "work_plans")
	var forbidden auth.ForbiddenError
	s.ErrorAs(err, &forbidden)

	_, err = s.engine.Truncate(s.ctx, admin, "activities")
	s.ErrorIs(err, engine.ErrUnknownTable)
	s.ErrorIs(err, repo.ErrUnknownTable)
}
