package server

import (
	"context"
	"net/http"
	"reflect"

	"github.com/danielgtaylor/huma/v2"

	"pgdapi/internal/domain"
	"pgdapi/internal/engine"
)

type workPlanPath struct {
	UnitCode int64  `path:"unit_code" doc:"SIAPE code of the unit"`
	PlanCode string `path:"plan_code" maxLength:"300"`
}

type workPlanOutput struct {
	Status int
	Body   WorkPlanResponse
}

type deliveryPlanPath struct {
	OrgCode int64 `path:"org_code" doc:"SIAPE code of the instituting organization"`
	PlanID  int64 `path:"delivery_plan_id"`
}

type deliveryPlanOutput struct {
	Status int
	Body   DeliveryPlanResponse
}

// jsonRequestBody documents a body that the handler reads itself. Operations
// using it set SkipValidateBody so the plan decoder reports every problem,
// an empty body included.
func jsonRequestBody(api huma.API, example any) *huma.RequestBody {
	t := reflect.TypeOf(example)
	return &huma.RequestBody{
		Content: map[string]*huma.MediaType{
			"application/json": {Schema: api.OpenAPI().Components.Schemas.Schema(t, true, t.Name())},
		},
	}
}

func upsertStatus(outcome engine.Outcome) int {
	if outcome == engine.Created {
		return http.StatusCreated
	}
	return http.StatusOK
}

func (h handlers) registerWorkPlans(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:      "put-work-plan",
		Method:           http.MethodPut,
		Path:             "/unit/{unit_code}/work_plan/{plan_code}",
		Summary:          "Create or replace a work plan",
		Description:      "Answers 201 when the plan is new and 200 when an existing plan was replaced.",
		Tags:             []string{"work plans"},
		DefaultStatus:    http.StatusOK,
		RequestBody:      jsonRequestBody(api, WorkPlanRequest{}),
		SkipValidateBody: true,
		Errors: []int{
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, in *workPlanPath) (*workPlanOutput, error) {
		p, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		key := domain.WorkPlanKey{UnitCode: in.UnitCode, PlanCode: in.PlanCode}
		wp, outcome, err := h.engine.UpsertWorkPlan(ctx, p, key, engine.DecodeWorkPlan(bodyBytes(ctx)))
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &workPlanOutput{Status: upsertStatus(outcome), Body: workPlanResponse(wp)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-work-plan",
		Method:      http.MethodGet,
		Path:        "/unit/{unit_code}/work_plan/{plan_code}",
		Summary:     "Get a work plan",
		Tags:        []string{"work plans"},
		Errors: []int{
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, in *workPlanPath) (*workPlanOutput, error) {
		p, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		wp, err := h.engine.GetWorkPlan(ctx, p, domain.WorkPlanKey{UnitCode: in.UnitCode, PlanCode: in.PlanCode})
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &workPlanOutput{Status: http.StatusOK, Body: workPlanResponse(wp)}, nil
	})
}

func (h handlers) registerDeliveryPlans(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:      "put-delivery-plan",
		Method:           http.MethodPut,
		Path:             "/organization/{org_code}/delivery_plan/{delivery_plan_id}",
		Summary:          "Create or replace a delivery plan",
		Description:      "Answers 201 when the plan is new and 200 when an existing plan was replaced.",
		Tags:             []string{"delivery plans"},
		DefaultStatus:    http.StatusOK,
		RequestBody:      jsonRequestBody(api, DeliveryPlanRequest{}),
		SkipValidateBody: true,
		Errors: []int{
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, in *deliveryPlanPath) (*deliveryPlanOutput, error) {
		p, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		key := domain.DeliveryPlanKey{OrgCode: in.OrgCode, PlanID: in.PlanID}
		dp, outcome, err := h.engine.UpsertDeliveryPlan(ctx, p, key, engine.DecodeDeliveryPlan(bodyBytes(ctx)))
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &deliveryPlanOutput{Status: upsertStatus(outcome), Body: deliveryPlanResponse(dp)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-delivery-plan",
		Method:      http.MethodGet,
		Path:        "/organization/{org_code}/delivery_plan/{delivery_plan_id}",
		Summary:     "Get a delivery plan",
		Tags:        []string{"delivery plans"},
		Errors: []int{
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, in *deliveryPlanPath) (*deliveryPlanOutput, error) {
		p, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		dp, err := h.engine.GetDeliveryPlan(ctx, p, domain.DeliveryPlanKey{OrgCode: in.OrgCode, PlanID: in.PlanID})
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &deliveryPlanOutput{Status: http.StatusOK, Body: deliveryPlanResponse(dp)}, nil
	})
}
