package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"pgdapi/internal/engine"
	"pgdapi/internal/engine/auth"
)

func (h handlers) registerAuth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Exchange email and password for a bearer token",
		Tags:        []string{"auth"},
		Errors: []int{
			http.StatusUnauthorized,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, in *struct {
		Body LoginRequest `json:"body"`
	}) (*struct {
		Body TokenResponse `json:"body"`
	}, error) {
		u, err := h.engine.Authenticate(ctx, strings.TrimSpace(in.Body.Email), in.Body.Password)
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		token, ttl, err := issueToken(h.auth, u)
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		h.logger.InfoContext(ctx, "user logged in", "user_id", u.ID)
		return &struct {
			Body TokenResponse `json:"body"`
		}{Body: TokenResponse{
			AccessToken: token,
			TokenType:   "bearer",
			ExpiresIn:   int64(ttl.Seconds()),
		}}, nil
	})
}

func (h handlers) registerUsers(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "register-user",
		Method:        http.MethodPost,
		Path:          "/auth/register",
		Summary:       "Create a user (administrators only)",
		Tags:          []string{"auth"},
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, in *struct {
		Body RegisterRequest `json:"body"`
	}) (*struct {
		Body UserResponse `json:"body"`
	}, error) {
		p, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		u, err := h.engine.RegisterUser(ctx, p, engine.NewUser{
			Email:    in.Body.Email,
			Password: in.Body.Password,
			UnitCode: in.Body.UnitCode,
			OrgCode:  in.Body.OrgCode,
			Admin:    in.Body.Admin,
		})
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &struct {
			Body UserResponse `json:"body"`
		}{Body: userResponse(u)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/users/me",
		Summary:     "Current user",
		Tags:        []string{"users"},
		Errors: []int{
			http.StatusUnauthorized,
		},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body UserResponse `json:"body"`
	}, error) {
		p, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		u, err := h.engine.CurrentUser(ctx, p)
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &struct {
			Body UserResponse `json:"body"`
		}{Body: userResponse(u)}, nil
	})
}

func (h handlers) registerAdmin(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/admin/users",
		Summary:     "List users (administrators only)",
		Tags:        []string{"admin"},
		Errors: []int{
			http.StatusUnauthorized,
			http.StatusForbidden,
		},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []UserResponse `json:"body"`
	}, error) {
		p, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := auth.RequireAdmin(p); err != nil {
			return nil, h.handleError(ctx, err)
		}
		users, err := h.engine.ListUsers(ctx)
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		out := make([]UserResponse, 0, len(users))
		for _, u := range users {
			out = append(out, userResponse(u))
		}
		return &struct {
			Body []UserResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "truncate-table",
		Method:      http.MethodPost,
		Path:        "/admin/truncate/{table}",
		Summary:     "Empty a table (administrators only)",
		Description: "Truncating users keeps administrator accounts.",
		Tags:        []string{"admin"},
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
		},
	}, func(ctx context.Context, in *struct {
		Table string `path:"table" doc:"one of work_plans, delivery_plans, users, events"`
	}) (*struct {
		Body TruncateResponse `json:"body"`
	}, error) {
		p, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		n, err := h.engine.Truncate(ctx, p, in.Table)
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		return &struct {
			Body TruncateResponse `json:"body"`
		}{Body: TruncateResponse{Table: in.Table, Rows: n}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/admin/events",
		Summary:     "Latest audit events, newest first (administrators only)",
		Tags:        []string{"admin"},
		Errors: []int{
			http.StatusUnauthorized,
			http.StatusForbidden,
		},
	}, func(ctx context.Context, in *struct {
		Limit int `query:"limit" default:"50" minimum:"1" maximum:"500"`
	}) (*struct {
		Body []EventResponse `json:"body"`
	}, error) {
		p, authErr := principalFromRequest(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := auth.RequireAdmin(p); err != nil {
			return nil, h.handleError(ctx, err)
		}
		items, err := h.engine.Events(ctx, in.Limit)
		if err != nil {
			return nil, h.handleError(ctx, err)
		}
		out := make([]EventResponse, 0, len(items))
		for _, evt := range items {
			out = append(out, eventResponse(evt))
		}
		return &struct {
			Body []EventResponse `json:"body"`
		}{Body: out}, nil
	})
}
