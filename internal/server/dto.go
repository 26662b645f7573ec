package server

import (
	"time"

	"github.com/shopspring/decimal"

	"pgdapi/internal/domain"
	"pgdapi/internal/rules"
)

// Request payloads. Plan bodies are decoded by the engine from the raw bytes;
// these types only describe them in the OpenAPI document.

type WorkPlanRequest struct {
	UnitCode           int64             `json:"unit_code" example:"1"`
	PlanCode           string            `json:"plan_code" example:"555"`
	Status             *string           `json:"status,omitempty"`
	RegistrationNumber int64             `json:"registration_number"`
	NationalID         string            `json:"national_id" example:"52998224725" doc:"11 digit CPF"`
	ParticipantName    string            `json:"participant_name" maxLength:"300"`
	ExecutionUnitCode  int64             `json:"execution_unit_code"`
	ExecutionUnitName  *string           `json:"execution_unit_name,omitempty" maxLength:"300"`
	ExecutionModality  int64             `json:"execution_modality" enum:"1,2,3"`
	WeeklyWorkload     int64             `json:"weekly_workload" minimum:"1" maximum:"40"`
	TotalWorkload      float64           `json:"total_workload" minimum:"0"`
	StartDate          string            `json:"start_date" format:"date"`
	EndDate            string            `json:"end_date" format:"date"`
	InterruptionDate   *string           `json:"interruption_date,omitempty" format:"date"`
	DeliveredOnTime    *bool             `json:"delivered_on_time,omitempty"`
	HomologatedHours   *float64          `json:"homologated_hours,omitempty" minimum:"0"`
	Activities         []ActivityRequest `json:"activities"`
}

type ActivityRequest struct {
	ActivityID       int64   `json:"activity_id"`
	GroupName        *string `json:"group_name,omitempty"`
	Name             string  `json:"name" maxLength:"300"`
	ComplexityTier   string  `json:"complexity_tier" maxLength:"300"`
	ComplexityParams *string `json:"complexity_params,omitempty"`
	PresentialTime   float64 `json:"presential_time" minimum:"0"`
	RemoteTime       float64 `json:"remote_time" minimum:"0"`
	ExpectedDelivery *string `json:"expected_delivery,omitempty"`
	ExpectedCount    int64   `json:"expected_count" minimum:"0"`
	ActualCount      *int64  `json:"actual_count,omitempty" minimum:"0"`
	Evaluation       *int64  `json:"evaluation,omitempty" minimum:"0"`
	EvaluationDate   *string `json:"evaluation_date,omitempty" format:"date"`
	Justification    *string `json:"justification,omitempty"`
}

type DeliveryPlanRequest struct {
	InstitutingOrgCode int64             `json:"instituting_org_code"`
	DeliveryPlanID     int64             `json:"delivery_plan_id"`
	PlanningUnitCode   int64             `json:"planning_unit_code" minimum:"1"`
	StartDate          string            `json:"start_date" format:"date"`
	EndDate            string            `json:"end_date" format:"date"`
	Cancelled          *bool             `json:"cancelled,omitempty"`
	Evaluation         *int64            `json:"evaluation,omitempty" minimum:"1" maximum:"5"`
	EvaluationDate     *string           `json:"evaluation_date,omitempty" format:"date"`
	Deliveries         []DeliveryRequest `json:"deliveries"`
}

type DeliveryRequest struct {
	DeliveryID       string  `json:"delivery_id"`
	Name             string  `json:"name" maxLength:"300"`
	GoalDescription  *string `json:"goal_description,omitempty"`
	GoalValue        int64   `json:"goal_value" minimum:"0" maximum:"100"`
	GoalType         int64   `json:"goal_type" enum:"1,2"`
	DeliveryDate     string  `json:"delivery_date" format:"date"`
	RequesterName    string  `json:"requester_name" maxLength:"300"`
	RecipientName    string  `json:"recipient_name" maxLength:"300"`
	ValueChainName   *string `json:"value_chain_name,omitempty"`
	PlanningLinkName *string `json:"planning_link_name,omitempty"`
	ExpectedProgress *int64  `json:"expected_progress,omitempty" minimum:"0" maximum:"100"`
	ActualProgress   *int64  `json:"actual_progress,omitempty" minimum:"0" maximum:"100"`
}

type LoginRequest struct {
	Email    string `json:"email" format:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email" format:"email"`
	Password string `json:"password" minLength:"8"`
	UnitCode int64  `json:"unit_code,omitempty"`
	OrgCode  int64  `json:"org_code,omitempty"`
	Admin    bool   `json:"admin,omitempty"`
}

// Responses

type WorkPlanResponse struct {
	UnitCode           int64              `json:"unit_code"`
	PlanCode           string             `json:"plan_code"`
	Status             *string            `json:"status"`
	RegistrationNumber int64              `json:"registration_number"`
	NationalID         string             `json:"national_id"`
	ParticipantName    string             `json:"participant_name"`
	ExecutionUnitCode  int64              `json:"execution_unit_code"`
	ExecutionUnitName  *string            `json:"execution_unit_name"`
	ExecutionModality  int64              `json:"execution_modality"`
	WeeklyWorkload     int64              `json:"weekly_workload"`
	TotalWorkload      float64            `json:"total_workload"`
	StartDate          string             `json:"start_date" format:"date"`
	EndDate            string             `json:"end_date" format:"date"`
	InterruptionDate   *string            `json:"interruption_date" format:"date"`
	DeliveredOnTime    *bool              `json:"delivered_on_time"`
	HomologatedHours   *float64           `json:"homologated_hours"`
	Activities         []ActivityResponse `json:"activities"`
}

type ActivityResponse struct {
	ActivityID       int64   `json:"activity_id"`
	GroupName        *string `json:"group_name"`
	Name             string  `json:"name"`
	ComplexityTier   string  `json:"complexity_tier"`
	ComplexityParams *string `json:"complexity_params"`
	PresentialTime   float64 `json:"presential_time"`
	RemoteTime       float64 `json:"remote_time"`
	ExpectedDelivery *string `json:"expected_delivery"`
	ExpectedCount    int64   `json:"expected_count"`
	ActualCount      *int64  `json:"actual_count"`
	Evaluation       *int64  `json:"evaluation"`
	EvaluationDate   *string `json:"evaluation_date" format:"date"`
	Justification    *string `json:"justification"`
}

type DeliveryPlanResponse struct {
	InstitutingOrgCode int64              `json:"instituting_org_code"`
	DeliveryPlanID     int64              `json:"delivery_plan_id"`
	PlanningUnitCode   int64              `json:"planning_unit_code"`
	StartDate          string             `json:"start_date" format:"date"`
	EndDate            string             `json:"end_date" format:"date"`
	Cancelled          *bool              `json:"cancelled"`
	Evaluation         *int64             `json:"evaluation"`
	EvaluationDate     *string            `json:"evaluation_date" format:"date"`
	Deliveries         []DeliveryResponse `json:"deliveries"`
}

type DeliveryResponse struct {
	DeliveryID       string  `json:"delivery_id"`
	Name             string  `json:"name"`
	GoalDescription  *string `json:"goal_description"`
	GoalValue        int64   `json:"goal_value"`
	GoalType         int64   `json:"goal_type"`
	DeliveryDate     string  `json:"delivery_date" format:"date"`
	RequesterName    string  `json:"requester_name"`
	RecipientName    string  `json:"recipient_name"`
	ValueChainName   *string `json:"value_chain_name"`
	PlanningLinkName *string `json:"planning_link_name"`
	ExpectedProgress *int64  `json:"expected_progress"`
	ActualProgress   *int64  `json:"actual_progress"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type" example:"bearer"`
	ExpiresIn   int64  `json:"expires_in" doc:"seconds until the token expires"`
}

type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	UnitCode  int64  `json:"unit_code"`
	OrgCode   int64  `json:"org_code"`
	IsAdmin   bool   `json:"is_admin"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type TruncateResponse struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload,omitempty"`
}

func workPlanResponse(wp domain.WorkPlan) WorkPlanResponse {
	res := WorkPlanResponse{
		UnitCode:           wp.UnitCode,
		PlanCode:           wp.PlanCode,
		Status:             wp.Status,
		RegistrationNumber: wp.RegistrationNumber,
		NationalID:         wp.NationalID,
		ParticipantName:    wp.ParticipantName,
		ExecutionUnitCode:  wp.ExecutionUnitCode,
		ExecutionUnitName:  wp.ExecutionUnitName,
		ExecutionModality:  wp.ExecutionModality,
		WeeklyWorkload:     wp.WeeklyWorkload,
		TotalWorkload:      wp.TotalWorkload.InexactFloat64(),
		StartDate:          formatDate(wp.StartDate),
		EndDate:            formatDate(wp.EndDate),
		InterruptionDate:   formatDatePtr(wp.InterruptionDate),
		DeliveredOnTime:    wp.DeliveredOnTime,
		HomologatedHours:   floatPtr(wp.HomologatedHours),
		Activities:         make([]ActivityResponse, 0, len(wp.Activities)),
	}
	for _, a := range wp.Activities {
		res.Activities = append(res.Activities, ActivityResponse{
			ActivityID:       a.ActivityID,
			GroupName:        a.GroupName,
			Name:             a.Name,
			ComplexityTier:   a.ComplexityTier,
			ComplexityParams: a.ComplexityParams,
			PresentialTime:   a.PresentialTime.InexactFloat64(),
			RemoteTime:       a.RemoteTime.InexactFloat64(),
			ExpectedDelivery: a.ExpectedDelivery,
			ExpectedCount:    a.ExpectedCount,
			ActualCount:      a.ActualCount,
			Evaluation:       a.Evaluation,
			EvaluationDate:   formatDatePtr(a.EvaluationDate),
			Justification:    a.Justification,
		})
	}
	return res
}

func deliveryPlanResponse(dp domain.DeliveryPlan) DeliveryPlanResponse {
	res := DeliveryPlanResponse{
		InstitutingOrgCode: dp.InstitutingOrgCode,
		DeliveryPlanID:     dp.DeliveryPlanID,
		PlanningUnitCode:   dp.PlanningUnitCode,
		StartDate:          formatDate(dp.StartDate),
		EndDate:            formatDate(dp.EndDate),
		Cancelled:          dp.Cancelled,
		Evaluation:         dp.Evaluation,
		EvaluationDate:     formatDatePtr(dp.EvaluationDate),
		Deliveries:         make([]DeliveryResponse, 0, len(dp.Deliveries)),
	}
	for _, d := range dp.Deliveries {
		res.Deliveries = append(res.Deliveries, DeliveryResponse{
			DeliveryID:       d.DeliveryID,
			Name:             d.Name,
			GoalDescription:  d.GoalDescription,
			GoalValue:        d.GoalValue,
			GoalType:         d.GoalType,
			DeliveryDate:     formatDate(d.DeliveryDate),
			RequesterName:    d.RequesterName,
			RecipientName:    d.RecipientName,
			ValueChainName:   d.ValueChainName,
			PlanningLinkName: d.PlanningLinkName,
			ExpectedProgress: d.ExpectedProgress,
			ActualProgress:   d.ActualProgress,
		})
	}
	return res
}

func userResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		UnitCode:  u.UnitCode,
		OrgCode:   u.OrgCode,
		IsAdmin:   u.IsAdmin,
		IsActive:  !u.Disabled,
		CreatedAt: u.CreatedAt,
	}
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    e.Payload,
	}
}

func formatDate(t time.Time) string {
	return t.Format(rules.DateLayout)
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatDate(*t)
	return &s
}

func floatPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}
