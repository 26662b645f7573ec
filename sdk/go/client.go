package pgdsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal PGD HTTP API client. BaseURL includes the API base
// path, e.g. http://localhost:8080/api/v1.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Activity is one line of a work plan.
type Activity struct {
	ActivityID       int64   `json:"activity_id"`
	GroupName        *string `json:"group_name,omitempty"`
	Name             string  `json:"name"`
	ComplexityTier   string  `json:"complexity_tier"`
	ComplexityParams *string `json:"complexity_params,omitempty"`
	PresentialTime   float64 `json:"presential_time"`
	RemoteTime       float64 `json:"remote_time"`
	ExpectedDelivery *string `json:"expected_delivery,omitempty"`
	ExpectedCount    int64   `json:"expected_count"`
	ActualCount      *int64  `json:"actual_count,omitempty"`
	Evaluation       *int64  `json:"evaluation,omitempty"`
	EvaluationDate   *string `json:"evaluation_date,omitempty"`
	Justification    *string `json:"justification,omitempty"`
}

// WorkPlan is sent and received on /unit/{unit_code}/work_plan/{plan_code}.
// Dates use the YYYY-MM-DD layout. Nil optional fields are left out of a
// submission and keep their stored value.
type WorkPlan struct {
	UnitCode           int64      `json:"unit_code"`
	PlanCode           string     `json:"plan_code"`
	Status             *string    `json:"status,omitempty"`
	RegistrationNumber int64      `json:"registration_number"`
	NationalID         string     `json:"national_id"`
	ParticipantName    string     `json:"participant_name"`
	ExecutionUnitCode  int64      `json:"execution_unit_code"`
	ExecutionUnitName  *string    `json:"execution_unit_name,omitempty"`
	ExecutionModality  int64      `json:"execution_modality"`
	WeeklyWorkload     int64      `json:"weekly_workload"`
	TotalWorkload      float64    `json:"total_workload"`
	StartDate          string     `json:"start_date"`
	EndDate            string     `json:"end_date"`
	InterruptionDate   *string    `json:"interruption_date,omitempty"`
	DeliveredOnTime    *bool      `json:"delivered_on_time,omitempty"`
	HomologatedHours   *float64   `json:"homologated_hours,omitempty"`
	Activities         []Activity `json:"activities"`
}

type Delivery struct {
	DeliveryID       string  `json:"delivery_id"`
	Name             string  `json:"name"`
	GoalDescription  *string `json:"goal_description,omitempty"`
	GoalValue        int64   `json:"goal_value"`
	GoalType         int64   `json:"goal_type"`
	DeliveryDate     string  `json:"delivery_date"`
	RequesterName    string  `json:"requester_name"`
	RecipientName    string  `json:"recipient_name"`
	ValueChainName   *string `json:"value_chain_name,omitempty"`
	PlanningLinkName *string `json:"planning_link_name,omitempty"`
	ExpectedProgress *int64  `json:"expected_progress,omitempty"`
	ActualProgress   *int64  `json:"actual_progress,omitempty"`
}

// DeliveryPlan is sent and received on
// /organization/{org_code}/delivery_plan/{delivery_plan_id}.
type DeliveryPlan struct {
	InstitutingOrgCode int64      `json:"instituting_org_code"`
	DeliveryPlanID     int64      `json:"delivery_plan_id"`
	PlanningUnitCode   int64      `json:"planning_unit_code"`
	StartDate          string     `json:"start_date"`
	EndDate            string     `json:"end_date"`
	Cancelled          *bool      `json:"cancelled,omitempty"`
	Evaluation         *int64     `json:"evaluation,omitempty"`
	EvaluationDate     *string    `json:"evaluation_date,omitempty"`
	Deliveries         []Delivery `json:"deliveries"`
}

type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	UnitCode int64  `json:"unit_code"`
	OrgCode  int64  `json:"org_code"`
	IsAdmin  bool   `json:"is_admin"`
	IsActive bool   `json:"is_active"`
}

// Event represents an audit log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

type FieldError struct {
	FieldPath string `json:"field_path"`
	Message   string `json:"message"`
}

// APIError wraps non-2xx responses. Code and Errors are filled from the
// error envelope when the body carries one.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Errors     []FieldError
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Login exchanges credentials for a bearer token and keeps it on the client.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	body := map[string]string{"email": email, "password": password}
	if _, err := c.do(ctx, http.MethodPost, "auth/login", body, &resp); err != nil {
		return err
	}
	c.BearerToken = resp.AccessToken
	return nil
}

// Me returns the authenticated account.
func (c *Client) Me(ctx context.Context) (User, error) {
	var resp User
	_, err := c.do(ctx, http.MethodGet, "users/me", nil, &resp)
	return resp, err
}

// PutWorkPlan creates or replaces a work plan. created reports a 201 answer.
func (c *Client) PutWorkPlan(ctx context.Context, wp WorkPlan) (stored WorkPlan, created bool, err error) {
	status, err := c.do(ctx, http.MethodPut, workPlanPath(wp.UnitCode, wp.PlanCode), wp, &stored)
	return stored, status == http.StatusCreated, err
}

func (c *Client) GetWorkPlan(ctx context.Context, unitCode int64, planCode string) (WorkPlan, error) {
	var resp WorkPlan
	_, err := c.do(ctx, http.MethodGet, workPlanPath(unitCode, planCode), nil, &resp)
	return resp, err
}

// PutDeliveryPlan creates or replaces a delivery plan. created reports a 201
// answer.
func (c *Client) PutDeliveryPlan(ctx context.Context, dp DeliveryPlan) (stored DeliveryPlan, created bool, err error) {
	status, err := c.do(ctx, http.MethodPut, deliveryPlanPath(dp.InstitutingOrgCode, dp.DeliveryPlanID), dp, &stored)
	return stored, status == http.StatusCreated, err
}

func (c *Client) GetDeliveryPlan(ctx context.Context, orgCode, planID int64) (DeliveryPlan, error) {
	var resp DeliveryPlan
	_, err := c.do(ctx, http.MethodGet, deliveryPlanPath(orgCode, planID), nil, &resp)
	return resp, err
}

// Events returns recent audit events; administrators only.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := "admin/events"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []Event
	_, err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func workPlanPath(unitCode int64, planCode string) string {
	return fmt.Sprintf("unit/%d/work_plan/%s", unitCode, url.PathEscape(planCode))
}

func deliveryPlanPath(orgCode, planID int64) string {
	return fmt.Sprintf("organization/%d/delivery_plan/%d", orgCode, planID)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) (int, error) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, newAPIError(resp.StatusCode, b)
	}
	if out != nil {
		return resp.StatusCode, json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode, nil
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: string(body)}
	var env struct {
		Error struct {
			Code    string       `json:"code"`
			Message string       `json:"message"`
			Errors  []FieldError `json:"errors"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &env) == nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.Errors = env.Error.Errors
	}
	return apiErr
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
