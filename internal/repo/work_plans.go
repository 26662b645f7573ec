package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"pgdapi/internal/domain"
	"pgdapi/internal/rules"
)

const workPlanColumns = `id,unit_code,plan_code,status,registration_number,national_id,participant_name,
execution_unit_code,execution_unit_name,execution_modality,weekly_workload,total_workload,
start_date,end_date,interruption_date,delivered_on_time,homologated_hours,inserted_at,updated_at`

func (r Repo) FindWorkPlan(ctx context.Context, key domain.WorkPlanKey) (domain.WorkPlan, error) {
	row := r.queryRow(ctx, `SELECT `+workPlanColumns+` FROM work_plans WHERE unit_code=? AND plan_code=?`, key.UnitCode, key.PlanCode)
	wp, err := scanWorkPlan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.WorkPlan{}, ErrNotFound
		}
		return domain.WorkPlan{}, err
	}
	acts, err := r.listActivities(ctx, wp.ID)
	if err != nil {
		return domain.WorkPlan{}, err
	}
	wp.Activities = acts
	return wp, nil
}

func (r Repo) InsertWorkPlan(ctx context.Context, wp domain.WorkPlan) error {
	var id int64
	err := r.queryRow(ctx, `INSERT INTO work_plans(unit_code,plan_code,status,registration_number,national_id,participant_name,
execution_unit_code,execution_unit_name,execution_modality,weekly_workload,total_workload,
start_date,end_date,interruption_date,delivered_on_time,homologated_hours,inserted_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?) RETURNING id`,
		wp.UnitCode, wp.PlanCode, nullString(wp.Status), wp.RegistrationNumber, wp.NationalID, wp.ParticipantName,
		wp.ExecutionUnitCode, nullString(wp.ExecutionUnitName), wp.ExecutionModality, wp.WeeklyWorkload, wp.TotalWorkload.String(),
		dateString(wp.StartDate), dateString(wp.EndDate), nullDate(wp.InterruptionDate), nullBool(wp.DeliveredOnTime),
		nullDecimal(wp.HomologatedHours), timestamp(wp.InsertedAt), timestamp(wp.UpdatedAt),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert work plan %d/%s: %w", wp.UnitCode, wp.PlanCode, err)
	}
	return r.insertActivities(ctx, id, wp.Activities)
}

// ReplaceWorkPlan overwrites every column but inserted_at and swaps the
// activity list.
func (r Repo) ReplaceWorkPlan(ctx context.Context, wp domain.WorkPlan) error {
	var id int64
	err := r.queryRow(ctx, `UPDATE work_plans SET status=?,registration_number=?,national_id=?,participant_name=?,
execution_unit_code=?,execution_unit_name=?,execution_modality=?,weekly_workload=?,total_workload=?,
start_date=?,end_date=?,interruption_date=?,delivered_on_time=?,homologated_hours=?,updated_at=?
WHERE unit_code=? AND plan_code=? RETURNING id`,
		nullString(wp.Status), wp.RegistrationNumber, wp.NationalID, wp.ParticipantName,
		wp.ExecutionUnitCode, nullString(wp.ExecutionUnitName), wp.ExecutionModality, wp.WeeklyWorkload, wp.TotalWorkload.String(),
		dateString(wp.StartDate), dateString(wp.EndDate), nullDate(wp.InterruptionDate), nullBool(wp.DeliveredOnTime),
		nullDecimal(wp.HomologatedHours), timestamp(wp.UpdatedAt),
		wp.UnitCode, wp.PlanCode,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("replace work plan %d/%s: %w", wp.UnitCode, wp.PlanCode, err)
	}
	if _, err := r.exec(ctx, `DELETE FROM activities WHERE work_plan_id=?`, id); err != nil {
		return fmt.Errorf("clear activities: %w", err)
	}
	return r.insertActivities(ctx, id, wp.Activities)
}

func (r Repo) insertActivities(ctx context.Context, planID int64, acts []domain.Activity) error {
	for i, a := range acts {
		_, err := r.exec(ctx, `INSERT INTO activities(work_plan_id,position,activity_id,group_name,name,complexity_tier,complexity_params,
presential_time,remote_time,expected_delivery,expected_count,actual_count,evaluation,evaluation_date,justification)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			planID, i, a.ActivityID, nullString(a.GroupName), a.Name, a.ComplexityTier, nullString(a.ComplexityParams),
			a.PresentialTime.String(), a.RemoteTime.String(), nullString(a.ExpectedDelivery), a.ExpectedCount,
			nullInt(a.ActualCount), nullInt(a.Evaluation), nullDate(a.EvaluationDate), nullString(a.Justification),
		)
		if err != nil {
			return fmt.Errorf("insert activity %d: %w", a.ActivityID, err)
		}
	}
	return nil
}

func (r Repo) listActivities(ctx context.Context, planID int64) ([]domain.Activity, error) {
	rows, err := r.query(ctx, `SELECT activity_id,group_name,name,complexity_tier,complexity_params,presential_time,remote_time,
expected_delivery,expected_count,actual_count,evaluation,evaluation_date,justification
FROM activities WHERE work_plan_id=? ORDER BY position`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Activity{}
	for rows.Next() {
		var (
			a                       domain.Activity
			group, params, expected sql.NullString
			justification, evalDate sql.NullString
			presential, remote      string
			actual, evaluation      sql.NullInt64
		)
		if err := rows.Scan(&a.ActivityID, &group, &a.Name, &a.ComplexityTier, &params, &presential, &remote,
			&expected, &a.ExpectedCount, &actual, &evaluation, &evalDate, &justification); err != nil {
			return nil, err
		}
		if a.PresentialTime, err = decimal.NewFromString(presential); err != nil {
			return nil, fmt.Errorf("activity %d presential_time: %w", a.ActivityID, err)
		}
		if a.RemoteTime, err = decimal.NewFromString(remote); err != nil {
			return nil, fmt.Errorf("activity %d remote_time: %w", a.ActivityID, err)
		}
		if a.EvaluationDate, err = datePtr(evalDate); err != nil {
			return nil, err
		}
		a.GroupName = stringPtr(group)
		a.ComplexityParams = stringPtr(params)
		a.ExpectedDelivery = stringPtr(expected)
		a.Justification = stringPtr(justification)
		a.ActualCount = intPtr(actual)
		a.Evaluation = intPtr(evaluation)
		res = append(res, a)
	}
	return res, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkPlan(row rowScanner) (domain.WorkPlan, error) {
	var (
		wp                        domain.WorkPlan
		status, unitName          sql.NullString
		interruption, homologated sql.NullString
		onTime                    sql.NullBool
		total, start, end         string
		insertedAt, updatedAt     string
	)
	if err := row.Scan(&wp.ID, &wp.UnitCode, &wp.PlanCode, &status, &wp.RegistrationNumber, &wp.NationalID, &wp.ParticipantName,
		&wp.ExecutionUnitCode, &unitName, &wp.ExecutionModality, &wp.WeeklyWorkload, &total,
		&start, &end, &interruption, &onTime, &homologated, &insertedAt, &updatedAt); err != nil {
		return domain.WorkPlan{}, err
	}
	var err error
	if wp.TotalWorkload, err = decimal.NewFromString(total); err != nil {
		return domain.WorkPlan{}, fmt.Errorf("total_workload: %w", err)
	}
	if wp.StartDate, err = rules.ParseDate(start); err != nil {
		return domain.WorkPlan{}, err
	}
	if wp.EndDate, err = rules.ParseDate(end); err != nil {
		return domain.WorkPlan{}, err
	}
	if wp.InterruptionDate, err = datePtr(interruption); err != nil {
		return domain.WorkPlan{}, err
	}
	if wp.HomologatedHours, err = decimalPtr(homologated); err != nil {
		return domain.WorkPlan{}, err
	}
	if wp.InsertedAt, err = parseTimestamp(insertedAt); err != nil {
		return domain.WorkPlan{}, err
	}
	if wp.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return domain.WorkPlan{}, err
	}
	wp.Status = stringPtr(status)
	wp.ExecutionUnitName = stringPtr(unitName)
	wp.DeliveredOnTime = boolPtr(onTime)
	return wp, nil
}
