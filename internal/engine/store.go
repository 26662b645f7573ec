package engine

//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"

	"pgdapi/internal/domain"
	"pgdapi/internal/rules"
)

// Store is the persistence the engine needs. Lookups report repo.ErrNotFound
// when the natural key is unknown. RunInTx hands fn a context that carries the
// transaction; every call made with that context joins it.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error

	FindWorkPlan(ctx context.Context, key domain.WorkPlanKey) (domain.WorkPlan, error)
	InsertWorkPlan(ctx context.Context, wp domain.WorkPlan) error
	ReplaceWorkPlan(ctx context.Context, wp domain.WorkPlan) error

	FindDeliveryPlan(ctx context.Context, key domain.DeliveryPlanKey) (domain.DeliveryPlan, error)
	FindOverlappingDeliveryPlans(ctx context.Context, planningUnit int64, p rules.Period, exclude domain.DeliveryPlanKey) ([]domain.DeliveryPlan, error)
	InsertDeliveryPlan(ctx context.Context, dp domain.DeliveryPlan) error
	ReplaceDeliveryPlan(ctx context.Context, dp domain.DeliveryPlan) error

	CreateUser(ctx context.Context, u domain.User) error
	FindUserByEmail(ctx context.Context, email string) (domain.User, error)
	FindUserByID(ctx context.Context, id string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)

	Truncate(ctx context.Context, table string) (int64, error)
	AppendEvent(ctx context.Context, evt domain.Event) error
	ListEvents(ctx context.Context, limit int) ([]domain.Event, error)
	EventsAfter(ctx context.Context, afterID int64, limit int) ([]domain.Event, error)
	LatestEventID(ctx context.Context) (int64, error)
}
