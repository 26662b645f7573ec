package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"pgdapi/internal/domain"
	"pgdapi/internal/engine/auth"
	"pgdapi/internal/events"
	"pgdapi/internal/repo"
	"pgdapi/internal/rules"
)

var (
	executionModalities = []int64{1, 2, 3}
	evaluationScores    = []int64{1, 2, 3, 4, 5}
)

// UpsertWorkPlan validates a work plan submission for key and stores it.
// Checks run category by category and the first failing category is
// returned: identity, authorization, repeated activity ids, field-level
// problems (as one rules.Violations), then the rules over the merged record.
func (e Engine) UpsertWorkPlan(ctx context.Context, p auth.Principal, key domain.WorkPlanKey, in WorkPlanPayload) (wp domain.WorkPlan, outcome Outcome, err error) {
	ctx, span := e.startSpan(ctx, "engine.UpsertWorkPlan",
		attribute.Int64("unit_code", key.UnitCode),
		attribute.String("plan_code", key.PlanCode))
	start := time.Now()
	defer func() {
		e.finishUpsert(ctx, span, planWork, workPlanRef(key), start, outcome, err)
	}()

	if err := checkWorkPlanIdentity(key, in); err != nil {
		return domain.WorkPlan{}, 0, err
	}
	if err := auth.AuthorizeUnit(p, key.UnitCode); err != nil {
		return domain.WorkPlan{}, 0, err
	}
	if err := checkActivityIDs(in.Activities); err != nil {
		return domain.WorkPlan{}, 0, err
	}
	if err := checkWorkPlanFields(in).Err(); err != nil {
		return domain.WorkPlan{}, 0, err
	}

	now := e.now()
	return runUpsert(ctx, e.Store, upsertSteps[domain.WorkPlan]{
		find: func(ctx context.Context) (domain.WorkPlan, error) {
			return e.Store.FindWorkPlan(ctx, key)
		},
		build: func(_ context.Context, prev domain.WorkPlan, exists bool) (domain.WorkPlan, error) {
			merged := mergeWorkPlan(key, in, prev, exists, now)
			if err := checkWorkPlanConsistency(merged); err != nil {
				return domain.WorkPlan{}, err
			}
			return merged, nil
		},
		insert:  e.Store.InsertWorkPlan,
		replace: e.Store.ReplaceWorkPlan,
		event: func(rec domain.WorkPlan, outcome Outcome) domain.Event {
			evtType := events.WorkPlanCreated
			if outcome == Updated {
				evtType = events.WorkPlanUpdated
			}
			return domain.Event{
				Type:       evtType,
				EntityKind: planWork,
				EntityID:   workPlanRef(key),
				ActorID:    p.UserID,
				Payload: map[string]any{
					"activities": len(rec.Activities),
					"start_date": rec.StartDate.Format(rules.DateLayout),
					"end_date":   rec.EndDate.Format(rules.DateLayout),
				},
			}
		},
	})
}

// GetWorkPlan returns the stored plan if p may read the unit.
func (e Engine) GetWorkPlan(ctx context.Context, p auth.Principal, key domain.WorkPlanKey) (domain.WorkPlan, error) {
	if err := auth.AuthorizeUnit(p, key.UnitCode); err != nil {
		return domain.WorkPlan{}, err
	}
	wp, err := e.Store.FindWorkPlan(ctx, key)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.WorkPlan{}, ErrWorkPlanNotFound
	}
	return wp, err
}

func workPlanRef(key domain.WorkPlanKey) string {
	return strconv.FormatInt(key.UnitCode, 10) + "/" + key.PlanCode
}

func checkWorkPlanIdentity(key domain.WorkPlanKey, in WorkPlanPayload) error {
	if in.UnitCode.Present() && in.UnitCode.Value != key.UnitCode {
		return rules.Fail(rules.KindIdentifierMismatch, "unit_code", "unit_code in path and body must match")
	}
	if in.PlanCode.Present() && in.PlanCode.Value != key.PlanCode {
		return rules.Fail(rules.KindIdentifierMismatch, "plan_code", "plan_code in path and body must match")
	}
	return nil
}

func checkActivityIDs(acts []ActivityPayload) error {
	i, dup := rules.FirstDuplicate(acts, func(a ActivityPayload) (int64, bool) {
		return a.ActivityID.Value, a.ActivityID.Present()
	})
	if dup {
		return rules.Fail(rules.KindDuplicateIdentifier, fmt.Sprintf("activities[%d].activity_id", i),
			"activities must have distinct activity_id values")
	}
	return nil
}

func checkWorkPlanFields(in WorkPlanPayload) rules.Violations {
	if in.Malformed {
		return in.Problems
	}
	c := rules.NewChecker(in.Problems)
	c.NationalID("national_id", in.NationalID)
	c.MaxLen("participant_name", in.ParticipantName)
	maxLenOptional(c, "status", in.Status)
	maxLenOptional(c, "execution_unit_name", in.ExecutionUnitName)
	c.Enum("execution_modality", in.ExecutionModality, executionModalities, "value is not a valid enumeration member")
	c.Range("weekly_workload", in.WeeklyWorkload, 1, 40, "weekly workload must be between 1 and 40")
	nonNegativeDecimal(c, "total_workload", in.TotalWorkload)
	if in.HomologatedHours.Present() {
		nonNegativeDecimal(c, "homologated_hours", in.HomologatedHours.Value)
	}
	for i, a := range in.Activities {
		path := func(field string) string { return fmt.Sprintf("activities[%d].%s", i, field) }
		c.MaxLen(path("name"), a.Name)
		c.MaxLen(path("complexity_tier"), a.ComplexityTier)
		maxLenOptional(c, path("group_name"), a.GroupName)
		maxLenOptional(c, path("complexity_params"), a.ComplexityParams)
		maxLenOptional(c, path("expected_delivery"), a.ExpectedDelivery)
		maxLenOptional(c, path("justification"), a.Justification)
		nonNegativeDecimal(c, path("presential_time"), a.PresentialTime)
		nonNegativeDecimal(c, path("remote_time"), a.RemoteTime)
		c.Range(path("expected_count"), a.ExpectedCount, 0, math.MaxInt64, "must be greater than or equal to 0")
		if a.ActualCount.Present() {
			c.Range(path("actual_count"), a.ActualCount.Value, 0, math.MaxInt64, "must be greater than or equal to 0")
		}
		if a.Evaluation.Present() {
			c.Range(path("evaluation"), a.Evaluation.Value, 0, math.MaxInt64, "must be greater than or equal to 0")
		}
	}
	return c.Violations()
}

func maxLenOptional(c *rules.Checker, path string, v Optional[string]) {
	if v.Present() {
		c.MaxLen(path, v.Value)
	}
}

func nonNegativeDecimal(c *rules.Checker, path string, d decimal.Decimal) {
	if d.IsNegative() {
		c.Add(path, rules.KindOutOfRange, "must be greater than or equal to 0")
	}
}

func mergeWorkPlan(key domain.WorkPlanKey, in WorkPlanPayload, prev domain.WorkPlan, exists bool, now time.Time) domain.WorkPlan {
	wp := domain.WorkPlan{
		ID:                 prev.ID,
		UnitCode:           key.UnitCode,
		PlanCode:           key.PlanCode,
		Status:             in.Status.merge(prev.Status),
		RegistrationNumber: in.RegistrationNumber,
		NationalID:         in.NationalID,
		ParticipantName:    in.ParticipantName,
		ExecutionUnitCode:  in.ExecutionUnitCode,
		ExecutionUnitName:  in.ExecutionUnitName.merge(prev.ExecutionUnitName),
		ExecutionModality:  in.ExecutionModality,
		WeeklyWorkload:     in.WeeklyWorkload,
		TotalWorkload:      in.TotalWorkload,
		StartDate:          in.StartDate,
		EndDate:            in.EndDate,
		InterruptionDate:   in.InterruptionDate.merge(prev.InterruptionDate),
		DeliveredOnTime:    in.DeliveredOnTime.merge(prev.DeliveredOnTime),
		HomologatedHours:   in.HomologatedHours.merge(prev.HomologatedHours),
		InsertedAt:         now,
		UpdatedAt:          now,
		Activities:         make([]domain.Activity, 0, len(in.Activities)),
	}
	if exists {
		wp.InsertedAt = prev.InsertedAt
	}
	stored := make(map[int64]domain.Activity, len(prev.Activities))
	for _, a := range prev.Activities {
		stored[a.ActivityID] = a
	}
	for _, a := range in.Activities {
		old := stored[a.ActivityID.Value]
		wp.Activities = append(wp.Activities, domain.Activity{
			ActivityID:       a.ActivityID.Value,
			GroupName:        a.GroupName.merge(old.GroupName),
			Name:             a.Name,
			ComplexityTier:   a.ComplexityTier,
			ComplexityParams: a.ComplexityParams.merge(old.ComplexityParams),
			PresentialTime:   a.PresentialTime,
			RemoteTime:       a.RemoteTime,
			ExpectedDelivery: a.ExpectedDelivery.merge(old.ExpectedDelivery),
			ExpectedCount:    a.ExpectedCount,
			ActualCount:      a.ActualCount.merge(old.ActualCount),
			Evaluation:       a.Evaluation.merge(old.Evaluation),
			EvaluationDate:   a.EvaluationDate.merge(old.EvaluationDate),
			Justification:    a.Justification.merge(old.Justification),
		})
	}
	return wp
}

// checkWorkPlanConsistency runs the cross-field rules on the record about to
// be stored and reports the first one broken.
func checkWorkPlanConsistency(wp domain.WorkPlan) error {
	if !rules.Ordered(wp.StartDate, wp.EndDate) {
		return rules.Fail(rules.KindInvalidInterval, "end_date",
			"work plan end date must be greater than or equal to start date")
	}
	for i, a := range wp.Activities {
		if a.EvaluationDate != nil && a.EvaluationDate.Before(wp.EndDate) {
			return rules.Fail(rules.KindOutOfBounds, fmt.Sprintf("activities[%d].evaluation_date", i),
				"activity evaluation date must be greater than or equal to the work plan end date")
		}
	}
	sum := decimal.Zero
	for _, a := range wp.Activities {
		sum = sum.Add(a.PresentialTime).Add(a.RemoteTime)
	}
	if !sum.Equal(wp.TotalWorkload) {
		return rules.Fail(rules.KindArithmeticMismatch, "total_workload",
			"the sum of presential and remote execution times of the activities must equal total_workload")
	}
	return nil
}
