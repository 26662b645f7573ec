package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WorkPlanKey is the natural key of a work plan.
type WorkPlanKey struct {
	UnitCode int64
	PlanCode string
}

// DeliveryPlanKey is the natural key of a delivery plan.
type DeliveryPlanKey struct {
	OrgCode int64
	PlanID  int64
}

// WorkPlan (plano de trabalho) is a participant's work commitment for one unit.
type WorkPlan struct {
	ID                 int64
	UnitCode           int64
	PlanCode           string
	Status             *string
	RegistrationNumber int64
	NationalID         string
	ParticipantName    string
	ExecutionUnitCode  int64
	ExecutionUnitName  *string
	ExecutionModality  int64
	WeeklyWorkload     int64
	TotalWorkload      decimal.Decimal
	StartDate          time.Time
	EndDate            time.Time
	InterruptionDate   *time.Time
	DeliveredOnTime    *bool
	HomologatedHours   *decimal.Decimal
	InsertedAt         time.Time
	UpdatedAt          time.Time
	Activities         []Activity
}

func (w WorkPlan) Key() WorkPlanKey {
	return WorkPlanKey{UnitCode: w.UnitCode, PlanCode: w.PlanCode}
}

type Activity struct {
	ActivityID       int64
	GroupName        *string
	Name             string
	ComplexityTier   string
	ComplexityParams *string
	PresentialTime   decimal.Decimal
	RemoteTime       decimal.Decimal
	ExpectedDelivery *string
	ExpectedCount    int64
	ActualCount      *int64
	Evaluation       *int64
	EvaluationDate   *time.Time
	Justification    *string
}

// DeliveryPlan (plano de entregas) is an organization's delivery commitment
// for a planning unit.
type DeliveryPlan struct {
	ID                 int64
	InstitutingOrgCode int64
	DeliveryPlanID     int64
	PlanningUnitCode   int64
	StartDate          time.Time
	EndDate            time.Time
	Cancelled          *bool
	Evaluation         *int64
	EvaluationDate     *time.Time
	InsertedAt         time.Time
	UpdatedAt          time.Time
	Deliveries         []Delivery
}

func (d DeliveryPlan) Key() DeliveryPlanKey {
	return DeliveryPlanKey{OrgCode: d.InstitutingOrgCode, PlanID: d.DeliveryPlanID}
}

// IsCancelled treats a missing flag as not cancelled.
func (d DeliveryPlan) IsCancelled() bool {
	return d.Cancelled != nil && *d.Cancelled
}

type Delivery struct {
	DeliveryID       string
	Name             string
	GoalDescription  *string
	GoalValue        int64
	GoalType         int64
	DeliveryDate     time.Time
	RequesterName    string
	RecipientName    string
	ValueChainName   *string
	PlanningLinkName *string
	ExpectedProgress *int64
	ActualProgress   *int64
}

// User is an API account scoped to one unit and one instituting organization.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	UnitCode     int64  `json:"unit_code"`
	OrgCode      int64  `json:"org_code"`
	IsAdmin      bool   `json:"is_admin"`
	Disabled     bool   `json:"disabled"`
	CreatedAt    string `json:"created_at" format:"date-time"`
}

// Event is an append-only audit entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload,omitempty"`
}
