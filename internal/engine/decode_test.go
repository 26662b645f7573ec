package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgdapi/internal/rules"
)

func problemPaths(v rules.Violations) map[string]string {
	out := make(map[string]string, len(v))
	for _, fe := range v {
		out[fe.Path] = fe.Message
	}
	return out
}

func TestDecodeRejectsNonObjectBody(t *testing.T) {
	for _, body := range []string{``, `null`, `[]`, `"plan"`, `{"unit_code":`} {
		p := DecodeWorkPlan([]byte(body))
		require.Len(t, p.Problems, 1, body)
		assert.Equal(t, "", p.Problems[0].Path)
		assert.Equal(t, msgBodyObject, p.Problems[0].Message)
		assert.True(t, p.Malformed, body)
	}
}

func TestFieldChecksStopAtNonObjectBody(t *testing.T) {
	wp := DecodeWorkPlan([]byte(`[]`))
	got := checkWorkPlanFields(wp)
	require.Len(t, got, 1)
	assert.Equal(t, msgBodyObject, got[0].Message)

	dp := DecodeDeliveryPlan([]byte(`42`))
	require.True(t, dp.Malformed)
	got = checkDeliveryPlanFields(dp)
	require.Len(t, got, 1)
	assert.Equal(t, msgBodyObject, got[0].Message)
}

func TestDecodeWorkPlanReportsEveryProblem(t *testing.T) {
	p := DecodeWorkPlan([]byte(`{
		"unit_code": "1",
		"registration_number": 12.5,
		"national_id": 52998224725,
		"participant_name": null,
		"execution_unit_code": 1,
		"execution_modality": 1,
		"weekly_workload": 40,
		"total_workload": "80",
		"start_date": "01/02/2023",
		"end_date": "2023-02-30",
		"delivered_on_time": "yes",
		"activities": [
			{"activity_id": 1, "name": "Draft", "complexity_tier": "low", "presential_time": 1, "remote_time": 1, "expected_count": 1},
			7
		]
	}`))

	got := problemPaths(p.Problems)
	for _, field := range []string{"activity_id", "name", "complexity_tier", "presential_time", "remote_time", "expected_count"} {
		assert.Equal(t, msgRequired, got["activities[1]."+field], field)
		delete(got, "activities[1]."+field)
	}
	assert.Equal(t, map[string]string{
		"unit_code":           msgNotInt,
		"plan_code":           msgRequired,
		"registration_number": msgNotInt,
		"national_id":         msgNotString,
		"participant_name":    msgRequired,
		"total_workload":      msgNotNumber,
		"start_date":          msgNotDate,
		"end_date":            msgNotDate,
		"delivered_on_time":   msgNotBool,
		"activities[1]":       msgNotObject,
	}, got)
	assert.False(t, p.UnitCode.Present())
	require.Len(t, p.Activities, 2)
	assert.Equal(t, int64(1), p.Activities[0].ActivityID.Value)
}

func TestDecodeActivitiesMustBeAList(t *testing.T) {
	p := DecodeWorkPlan([]byte(`{"activities": {"activity_id": 1}}`))
	assert.Equal(t, msgNotList, problemPaths(p.Problems)["activities"])

	p = DecodeWorkPlan([]byte(`{"activities": null}`))
	assert.Equal(t, msgRequired, problemPaths(p.Problems)["activities"])

	p = DecodeWorkPlan([]byte(`{"activities": []}`))
	_, reported := problemPaths(p.Problems)["activities"]
	assert.False(t, reported)
	assert.Empty(t, p.Activities)
}

func TestDecodeIntegralFloatIsAnInteger(t *testing.T) {
	p := DecodeDeliveryPlan([]byte(`{"instituting_org_code": 10.0, "delivery_plan_id": 1e2}`))
	assert.Equal(t, Some(int64(10)), p.InstitutingOrgCode)
	assert.Equal(t, Some(int64(100)), p.DeliveryPlanID)
}

func TestDecodeIntegerBounds(t *testing.T) {
	p := DecodeDeliveryPlan([]byte(`{"instituting_org_code": 9223372036854775807, "delivery_plan_id": -9223372036854775808.0}`))
	assert.Equal(t, Some(int64(math.MaxInt64)), p.InstitutingOrgCode)
	assert.Equal(t, Some(int64(math.MinInt64)), p.DeliveryPlanID)
	assert.NotContains(t, problemPaths(p.Problems), "instituting_org_code")
	assert.NotContains(t, problemPaths(p.Problems), "delivery_plan_id")

	p = DecodeDeliveryPlan([]byte(`{"instituting_org_code": 9223372036854775807.0, "delivery_plan_id": 1e19}`))
	got := problemPaths(p.Problems)
	assert.Equal(t, msgNotInt, got["instituting_org_code"])
	assert.Equal(t, msgNotInt, got["delivery_plan_id"])
	assert.False(t, p.InstitutingOrgCode.Present())
}

func TestDecodeDeliveryPlanChildPaths(t *testing.T) {
	p := DecodeDeliveryPlan([]byte(`{
		"instituting_org_code": 10,
		"delivery_plan_id": 1,
		"planning_unit_code": 7,
		"start_date": "2023-01-01",
		"end_date": "2023-06-30",
		"cancelled": null,
		"deliveries": [
			{"delivery_id": 5, "name": "Report", "goal_value": 100, "goal_type": 1, "delivery_date": "2023-02-01", "requester_name": "A", "recipient_name": "B", "actual_progress": null}
		]
	}`))

	assert.Equal(t, map[string]string{"deliveries[0].delivery_id": msgNotString}, problemPaths(p.Problems))
	assert.True(t, p.Cancelled.Set)
	assert.True(t, p.Cancelled.Null)
	assert.False(t, p.Cancelled.Present())
	require.Len(t, p.Deliveries, 1)
	assert.True(t, p.Deliveries[0].ActualProgress.Null)
	assert.False(t, p.Deliveries[0].ExpectedProgress.Set)
}

func TestOptionalMerge(t *testing.T) {
	stored := "kept"

	var absent Optional[string]
	assert.Same(t, &stored, absent.merge(&stored))

	null := Optional[string]{Set: true, Null: true}
	assert.Nil(t, null.merge(&stored))

	got := Some("new").merge(&stored)
	require.NotNil(t, got)
	assert.Equal(t, "new", *got)
	assert.Equal(t, "kept", stored)
}
