package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pgdapi/internal/domain"
	"pgdapi/internal/rules"
)

const deliveryPlanColumns = `id,instituting_org_code,delivery_plan_id,planning_unit_code,start_date,end_date,
cancelled,evaluation,evaluation_date,inserted_at,updated_at`

func (r Repo) FindDeliveryPlan(ctx context.Context, key domain.DeliveryPlanKey) (domain.DeliveryPlan, error) {
	row := r.queryRow(ctx, `SELECT `+deliveryPlanColumns+` FROM delivery_plans WHERE instituting_org_code=? AND delivery_plan_id=?`, key.OrgCode, key.PlanID)
	dp, err := scanDeliveryPlan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DeliveryPlan{}, ErrNotFound
		}
		return domain.DeliveryPlan{}, err
	}
	deliveries, err := r.listDeliveries(ctx, dp.ID)
	if err != nil {
		return domain.DeliveryPlan{}, err
	}
	dp.Deliveries = deliveries
	return dp, nil
}

// FindOverlappingDeliveryPlans returns the non-cancelled delivery plans of a
// planning unit whose period overlaps p, leaving out the plan under exclude.
// Only plan headers are loaded.
func (r Repo) FindOverlappingDeliveryPlans(ctx context.Context, planningUnit int64, p rules.Period, exclude domain.DeliveryPlanKey) ([]domain.DeliveryPlan, error) {
	rows, err := r.query(ctx, `SELECT `+deliveryPlanColumns+` FROM delivery_plans
WHERE planning_unit_code=? AND start_date < ? AND ? < end_date
AND (cancelled IS NULL OR cancelled = FALSE)
AND NOT (instituting_org_code=? AND delivery_plan_id=?)
ORDER BY start_date`,
		planningUnit, dateString(p.End), dateString(p.Start), exclude.OrgCode, exclude.PlanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.DeliveryPlan
	for rows.Next() {
		dp, err := scanDeliveryPlan(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, dp)
	}
	return res, rows.Err()
}

func (r Repo) InsertDeliveryPlan(ctx context.Context, dp domain.DeliveryPlan) error {
	var id int64
	err := r.queryRow(ctx, `INSERT INTO delivery_plans(instituting_org_code,delivery_plan_id,planning_unit_code,start_date,end_date,
cancelled,evaluation,evaluation_date,inserted_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?) RETURNING id`,
		dp.InstitutingOrgCode, dp.DeliveryPlanID, dp.PlanningUnitCode, dateString(dp.StartDate), dateString(dp.EndDate),
		nullBool(dp.Cancelled), nullInt(dp.Evaluation), nullDate(dp.EvaluationDate), timestamp(dp.InsertedAt), timestamp(dp.UpdatedAt),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert delivery plan %d/%d: %w", dp.InstitutingOrgCode, dp.DeliveryPlanID, err)
	}
	return r.insertDeliveries(ctx, id, dp.Deliveries)
}

func (r Repo) ReplaceDeliveryPlan(ctx context.Context, dp domain.DeliveryPlan) error {
	var id int64
	err := r.queryRow(ctx, `UPDATE delivery_plans SET planning_unit_code=?,start_date=?,end_date=?,
cancelled=?,evaluation=?,evaluation_date=?,updated_at=?
WHERE instituting_org_code=? AND delivery_plan_id=? RETURNING id`,
		dp.PlanningUnitCode, dateString(dp.StartDate), dateString(dp.EndDate),
		nullBool(dp.Cancelled), nullInt(dp.Evaluation), nullDate(dp.EvaluationDate), timestamp(dp.UpdatedAt),
		dp.InstitutingOrgCode, dp.DeliveryPlanID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("replace delivery plan %d/%d: %w", dp.InstitutingOrgCode, dp.DeliveryPlanID, err)
	}
	if _, err := r.exec(ctx, `DELETE FROM deliveries WHERE plan_ref=?`, id); err != nil {
		return fmt.Errorf("clear deliveries: %w", err)
	}
	return r.insertDeliveries(ctx, id, dp.Deliveries)
}

func (r Repo) insertDeliveries(ctx context.Context, planRef int64, deliveries []domain.Delivery) error {
	for i, d := range deliveries {
		_, err := r.exec(ctx, `INSERT INTO deliveries(plan_ref,position,delivery_id,name,goal_description,goal_value,goal_type,
delivery_date,requester_name,recipient_name,value_chain_name,planning_link_name,expected_progress,actual_progress)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			planRef, i, d.DeliveryID, d.Name, nullString(d.GoalDescription), d.GoalValue, d.GoalType,
			dateString(d.DeliveryDate), d.RequesterName, d.RecipientName, nullString(d.ValueChainName),
			nullString(d.PlanningLinkName), nullInt(d.ExpectedProgress), nullInt(d.ActualProgress),
		)
		if err != nil {
			return fmt.Errorf("insert delivery %s: %w", d.DeliveryID, err)
		}
	}
	return nil
}

func (r Repo) listDeliveries(ctx context.Context, planRef int64) ([]domain.Delivery, error) {
	rows, err := r.query(ctx, `SELECT delivery_id,name,goal_description,goal_value,goal_type,delivery_date,requester_name,
recipient_name,value_chain_name,planning_link_name,expected_progress,actual_progress
FROM deliveries WHERE plan_ref=? ORDER BY position`, planRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Delivery{}
	for rows.Next() {
		var (
			d                     domain.Delivery
			goalDesc, chain, link sql.NullString
			date                  string
			expected, actual      sql.NullInt64
		)
		if err := rows.Scan(&d.DeliveryID, &d.Name, &goalDesc, &d.GoalValue, &d.GoalType, &date, &d.RequesterName,
			&d.RecipientName, &chain, &link, &expected, &actual); err != nil {
			return nil, err
		}
		if d.DeliveryDate, err = rules.ParseDate(date); err != nil {
			return nil, err
		}
		d.GoalDescription = stringPtr(goalDesc)
		d.ValueChainName = stringPtr(chain)
		d.PlanningLinkName = stringPtr(link)
		d.ExpectedProgress = intPtr(expected)
		d.ActualProgress = intPtr(actual)
		res = append(res, d)
	}
	return res, rows.Err()
}

func scanDeliveryPlan(row rowScanner) (domain.DeliveryPlan, error) {
	var (
		dp                    domain.DeliveryPlan
		start, end            string
		cancelled             sql.NullBool
		evaluation            sql.NullInt64
		evalDate              sql.NullString
		insertedAt, updatedAt string
	)
	if err := row.Scan(&dp.ID, &dp.InstitutingOrgCode, &dp.DeliveryPlanID, &dp.PlanningUnitCode, &start, &end,
		&cancelled, &evaluation, &evalDate, &insertedAt, &updatedAt); err != nil {
		return domain.DeliveryPlan{}, err
	}
	var err error
	if dp.StartDate, err = rules.ParseDate(start); err != nil {
		return domain.DeliveryPlan{}, err
	}
	if dp.EndDate, err = rules.ParseDate(end); err != nil {
		return domain.DeliveryPlan{}, err
	}
	if dp.EvaluationDate, err = datePtr(evalDate); err != nil {
		return domain.DeliveryPlan{}, err
	}
	if dp.InsertedAt, err = parseTimestamp(insertedAt); err != nil {
		return domain.DeliveryPlan{}, err
	}
	if dp.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return domain.DeliveryPlan{}, err
	}
	dp.Cancelled = boolPtr(cancelled)
	dp.Evaluation = intPtr(evaluation)
	return dp, nil
}
