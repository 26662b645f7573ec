package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"pgdapi/internal/domain"
	"pgdapi/internal/engine/auth"
	"pgdapi/internal/events"
	"pgdapi/internal/repo"
	"pgdapi/internal/rules"
)

var goalTypes = []int64{1, 2}

// UpsertDeliveryPlan validates a delivery plan submission for key and stores
// it. Category order matches UpsertWorkPlan; the overlap check against the
// other plans of the planning unit runs last, in the write transaction.
func (e Engine) UpsertDeliveryPlan(ctx context.Context, p auth.Principal, key domain.DeliveryPlanKey, in DeliveryPlanPayload) (dp domain.DeliveryPlan, outcome Outcome, err error) {
	ctx, span := e.startSpan(ctx, "engine.UpsertDeliveryPlan",
		attribute.Int64("org_code", key.OrgCode),
		attribute.Int64("delivery_plan_id", key.PlanID))
	start := time.Now()
	defer func() {
		e.finishUpsert(ctx, span, planDelivery, deliveryPlanRef(key), start, outcome, err)
	}()

	if err := checkDeliveryPlanIdentity(key, in); err != nil {
		return domain.DeliveryPlan{}, 0, err
	}
	if err := auth.AuthorizeOrg(p, key.OrgCode); err != nil {
		return domain.DeliveryPlan{}, 0, err
	}
	if err := checkDeliveryIDs(in.Deliveries); err != nil {
		return domain.DeliveryPlan{}, 0, err
	}
	if err := checkDeliveryPlanFields(in).Err(); err != nil {
		return domain.DeliveryPlan{}, 0, err
	}

	now := e.now()
	return runUpsert(ctx, e.Store, upsertSteps[domain.DeliveryPlan]{
		find: func(ctx context.Context) (domain.DeliveryPlan, error) {
			return e.Store.FindDeliveryPlan(ctx, key)
		},
		build: func(ctx context.Context, prev domain.DeliveryPlan, exists bool) (domain.DeliveryPlan, error) {
			merged := mergeDeliveryPlan(key, in, prev, exists, now)
			if err := checkDeliveryPlanConsistency(merged); err != nil {
				return domain.DeliveryPlan{}, err
			}
			if err := e.checkOverlap(ctx, merged); err != nil {
				return domain.DeliveryPlan{}, err
			}
			return merged, nil
		},
		insert:  e.Store.InsertDeliveryPlan,
		replace: e.Store.ReplaceDeliveryPlan,
		event: func(rec domain.DeliveryPlan, outcome Outcome) domain.Event {
			evtType := events.DeliveryPlanCreated
			if outcome == Updated {
				evtType = events.DeliveryPlanUpdated
			}
			return domain.Event{
				Type:       evtType,
				EntityKind: planDelivery,
				EntityID:   deliveryPlanRef(key),
				ActorID:    p.UserID,
				Payload: map[string]any{
					"planning_unit_code": rec.PlanningUnitCode,
					"deliveries":         len(rec.Deliveries),
					"cancelled":          rec.IsCancelled(),
				},
			}
		},
	})
}

// GetDeliveryPlan returns the stored plan if p may read the organization.
func (e Engine) GetDeliveryPlan(ctx context.Context, p auth.Principal, key domain.DeliveryPlanKey) (domain.DeliveryPlan, error) {
	if err := auth.AuthorizeOrg(p, key.OrgCode); err != nil {
		return domain.DeliveryPlan{}, err
	}
	dp, err := e.Store.FindDeliveryPlan(ctx, key)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.DeliveryPlan{}, ErrDeliveryPlanNotFound
	}
	return dp, err
}

func deliveryPlanRef(key domain.DeliveryPlanKey) string {
	return strconv.FormatInt(key.OrgCode, 10) + "/" + strconv.FormatInt(key.PlanID, 10)
}

func checkDeliveryPlanIdentity(key domain.DeliveryPlanKey, in DeliveryPlanPayload) error {
	if in.InstitutingOrgCode.Present() && in.InstitutingOrgCode.Value != key.OrgCode {
		return rules.Fail(rules.KindIdentifierMismatch, "instituting_org_code",
			"instituting_org_code in path and body must match")
	}
	if in.DeliveryPlanID.Present() && in.DeliveryPlanID.Value != key.PlanID {
		return rules.Fail(rules.KindIdentifierMismatch, "delivery_plan_id",
			"delivery_plan_id in path and body must match")
	}
	return nil
}

func checkDeliveryIDs(deliveries []DeliveryPayload) error {
	i, dup := rules.FirstDuplicate(deliveries, func(d DeliveryPayload) (string, bool) {
		return d.DeliveryID.Value, d.DeliveryID.Present()
	})
	if dup {
		return rules.Fail(rules.KindDuplicateIdentifier, fmt.Sprintf("deliveries[%d].delivery_id", i),
			"deliveries must have distinct delivery_id values")
	}
	return nil
}

func checkDeliveryPlanFields(in DeliveryPlanPayload) rules.Violations {
	if in.Malformed {
		return in.Problems
	}
	c := rules.NewChecker(in.Problems)
	c.Positive("planning_unit_code", in.PlanningUnitCode, "invalid planning unit code")
	if in.Evaluation.Present() {
		c.Enum("evaluation", in.Evaluation.Value, evaluationScores, "invalid evaluation score")
	}
	for i, d := range in.Deliveries {
		path := func(field string) string { return fmt.Sprintf("deliveries[%d].%s", i, field) }
		if d.DeliveryID.Present() {
			c.MaxLen(path("delivery_id"), d.DeliveryID.Value)
		}
		c.MaxLen(path("name"), d.Name)
		c.MaxLen(path("requester_name"), d.RequesterName)
		c.MaxLen(path("recipient_name"), d.RecipientName)
		maxLenOptional(c, path("goal_description"), d.GoalDescription)
		maxLenOptional(c, path("value_chain_name"), d.ValueChainName)
		maxLenOptional(c, path("planning_link_name"), d.PlanningLinkName)
		c.Percent(path("goal_value"), d.GoalValue)
		c.Enum(path("goal_type"), d.GoalType, goalTypes, "invalid goal type")
		if d.ExpectedProgress.Present() {
			c.Percent(path("expected_progress"), d.ExpectedProgress.Value)
		}
		if d.ActualProgress.Present() {
			c.Percent(path("actual_progress"), d.ActualProgress.Value)
		}
	}
	return c.Violations()
}

func mergeDeliveryPlan(key domain.DeliveryPlanKey, in DeliveryPlanPayload, prev domain.DeliveryPlan, exists bool, now time.Time) domain.DeliveryPlan {
	dp := domain.DeliveryPlan{
		ID:                 prev.ID,
		InstitutingOrgCode: key.OrgCode,
		DeliveryPlanID:     key.PlanID,
		PlanningUnitCode:   in.PlanningUnitCode,
		StartDate:          in.StartDate,
		EndDate:            in.EndDate,
		Cancelled:          in.Cancelled.merge(prev.Cancelled),
		Evaluation:         in.Evaluation.merge(prev.Evaluation),
		EvaluationDate:     in.EvaluationDate.merge(prev.EvaluationDate),
		InsertedAt:         now,
		UpdatedAt:          now,
		Deliveries:         make([]domain.Delivery, 0, len(in.Deliveries)),
	}
	if exists {
		dp.InsertedAt = prev.InsertedAt
	}
	stored := make(map[string]domain.Delivery, len(prev.Deliveries))
	for _, d := range prev.Deliveries {
		stored[d.DeliveryID] = d
	}
	for _, d := range in.Deliveries {
		old := stored[d.DeliveryID.Value]
		dp.Deliveries = append(dp.Deliveries, domain.Delivery{
			DeliveryID:       d.DeliveryID.Value,
			Name:             d.Name,
			GoalDescription:  d.GoalDescription.merge(old.GoalDescription),
			GoalValue:        d.GoalValue,
			GoalType:         d.GoalType,
			DeliveryDate:     d.DeliveryDate,
			RequesterName:    d.RequesterName,
			RecipientName:    d.RecipientName,
			ValueChainName:   d.ValueChainName.merge(old.ValueChainName),
			PlanningLinkName: d.PlanningLinkName.merge(old.PlanningLinkName),
			ExpectedProgress: d.ExpectedProgress.merge(old.ExpectedProgress),
			ActualProgress:   d.ActualProgress.merge(old.ActualProgress),
		})
	}
	return dp
}

func checkDeliveryPlanConsistency(dp domain.DeliveryPlan) error {
	period := rules.Period{Start: dp.StartDate, End: dp.EndDate}
	if !period.Ordered() {
		return rules.Fail(rules.KindInvalidInterval, "end_date",
			"delivery plan end date must be greater than or equal to start date")
	}
	if period.ExceedsOneYear() {
		return rules.Fail(rules.KindInvalidInterval, "end_date",
			"delivery plan cannot span more than 1 year")
	}
	for i, d := range dp.Deliveries {
		if !period.Contains(d.DeliveryDate) {
			return rules.Fail(rules.KindOutOfBounds, fmt.Sprintf("deliveries[%d].delivery_date", i),
				"delivery date must fall within the delivery plan period")
		}
	}
	if dp.EvaluationDate != nil && dp.EvaluationDate.Before(dp.StartDate) {
		return rules.Fail(rules.KindOutOfBounds, "evaluation_date",
			"delivery plan evaluation date must be greater than or equal to start date")
	}
	return nil
}

// checkOverlap rejects dp when another non-cancelled plan of the same
// planning unit overlaps its period. A cancelled dp never conflicts.
func (e Engine) checkOverlap(ctx context.Context, dp domain.DeliveryPlan) error {
	if dp.IsCancelled() {
		return nil
	}
	period := rules.Period{Start: dp.StartDate, End: dp.EndDate}
	siblings, err := e.Store.FindOverlappingDeliveryPlans(ctx, dp.PlanningUnitCode, period, dp.Key())
	if err != nil {
		return fmt.Errorf("find overlapping delivery plans: %w", err)
	}
	for _, s := range siblings {
		if s.IsCancelled() || !period.Overlaps(rules.Period{Start: s.StartDate, End: s.EndDate}) {
			continue
		}
		return rules.Fail(rules.KindOverlappingPeriod, "start_date",
			"a delivery plan already exists for this planning_unit_code in the informed period")
	}
	return nil
}
