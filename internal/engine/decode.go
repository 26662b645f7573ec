package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"pgdapi/internal/rules"
)

const (
	msgRequired   = "field required"
	msgNotInt     = "value is not a valid integer"
	msgNotString  = "value is not a valid string"
	msgNotNumber  = "value is not a valid number"
	msgNotBool    = "value is not a valid boolean"
	msgNotDate    = "invalid date format, expected YYYY-MM-DD"
	msgNotList    = "value is not a valid list"
	msgNotObject  = "value is not a valid object"
	msgBodyObject = "body must be a JSON object"
)

// Optional is a payload field that may be absent. Set reports the key was
// present; Null reports it was present as JSON null.
type Optional[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Some returns a present, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Present reports whether the field carries a value.
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}

// merge resolves the value to store: an absent field keeps current, null
// clears it.
func (o Optional[T]) merge(current *T) *T {
	if !o.Set {
		return current
	}
	if o.Null {
		return nil
	}
	v := o.Value
	return &v
}

// WorkPlanPayload is a decoded work plan submission. Identifiers stay
// Optional so a mismatch with the path or a repeated child id can be told
// apart from a missing value; decoding problems are kept in Problems.
type WorkPlanPayload struct {
	UnitCode           Optional[int64]
	PlanCode           Optional[string]
	Status             Optional[string]
	RegistrationNumber int64
	NationalID         string
	ParticipantName    string
	ExecutionUnitCode  int64
	ExecutionUnitName  Optional[string]
	ExecutionModality  int64
	WeeklyWorkload     int64
	TotalWorkload      decimal.Decimal
	StartDate          time.Time
	EndDate            time.Time
	InterruptionDate   Optional[time.Time]
	DeliveredOnTime    Optional[bool]
	HomologatedHours   Optional[decimal.Decimal]
	Activities         []ActivityPayload

	Problems rules.Violations
	// Malformed is set when the body is not a JSON object; Problems then
	// holds that single failure and no field was read.
	Malformed bool
}

type ActivityPayload struct {
	ActivityID       Optional[int64]
	GroupName        Optional[string]
	Name             string
	ComplexityTier   string
	ComplexityParams Optional[string]
	PresentialTime   decimal.Decimal
	RemoteTime       decimal.Decimal
	ExpectedDelivery Optional[string]
	ExpectedCount    int64
	ActualCount      Optional[int64]
	Evaluation       Optional[int64]
	EvaluationDate   Optional[time.Time]
	Justification    Optional[string]
}

type DeliveryPlanPayload struct {
	InstitutingOrgCode Optional[int64]
	DeliveryPlanID     Optional[int64]
	PlanningUnitCode   int64
	StartDate          time.Time
	EndDate            time.Time
	Cancelled          Optional[bool]
	Evaluation         Optional[int64]
	EvaluationDate     Optional[time.Time]
	Deliveries         []DeliveryPayload

	Problems  rules.Violations
	Malformed bool
}

type DeliveryPayload struct {
	DeliveryID       Optional[string]
	Name             string
	GoalDescription  Optional[string]
	GoalValue        int64
	GoalType         int64
	DeliveryDate     time.Time
	RequesterName    string
	RecipientName    string
	ValueChainName   Optional[string]
	PlanningLinkName Optional[string]
	ExpectedProgress Optional[int64]
	ActualProgress   Optional[int64]
}

// DecodeWorkPlan reads a work plan body. It never fails outright: shape and
// type problems end up in the payload's Problems, keyed by field path.
func DecodeWorkPlan(data []byte) WorkPlanPayload {
	var p WorkPlanPayload
	d, ok := newDecoder(data, &p.Problems)
	if !ok {
		p.Malformed = true
		return p
	}
	p.UnitCode = requiredOptional(d, "unit_code", parseInt)
	p.PlanCode = requiredOptional(d, "plan_code", parseString)
	p.Status = optional(d, "status", parseString)
	p.RegistrationNumber = required(d, "registration_number", parseInt)
	p.NationalID = required(d, "national_id", parseString)
	p.ParticipantName = required(d, "participant_name", parseString)
	p.ExecutionUnitCode = required(d, "execution_unit_code", parseInt)
	p.ExecutionUnitName = optional(d, "execution_unit_name", parseString)
	p.ExecutionModality = required(d, "execution_modality", parseInt)
	p.WeeklyWorkload = required(d, "weekly_workload", parseInt)
	p.TotalWorkload = required(d, "total_workload", parseDecimal)
	p.StartDate = required(d, "start_date", parseDate)
	p.EndDate = required(d, "end_date", parseDate)
	p.InterruptionDate = optional(d, "interruption_date", parseDate)
	p.DeliveredOnTime = optional(d, "delivered_on_time", parseBool)
	p.HomologatedHours = optional(d, "homologated_hours", parseDecimal)
	for _, child := range d.list("activities") {
		p.Activities = append(p.Activities, ActivityPayload{
			ActivityID:       requiredOptional(child, "activity_id", parseInt),
			GroupName:        optional(child, "group_name", parseString),
			Name:             required(child, "name", parseString),
			ComplexityTier:   required(child, "complexity_tier", parseString),
			ComplexityParams: optional(child, "complexity_params", parseString),
			PresentialTime:   required(child, "presential_time", parseDecimal),
			RemoteTime:       required(child, "remote_time", parseDecimal),
			ExpectedDelivery: optional(child, "expected_delivery", parseString),
			ExpectedCount:    required(child, "expected_count", parseInt),
			ActualCount:      optional(child, "actual_count", parseInt),
			Evaluation:       optional(child, "evaluation", parseInt),
			EvaluationDate:   optional(child, "evaluation_date", parseDate),
			Justification:    optional(child, "justification", parseString),
		})
	}
	return p
}

// DecodeDeliveryPlan reads a delivery plan body the same way DecodeWorkPlan
// does.
func DecodeDeliveryPlan(data []byte) DeliveryPlanPayload {
	var p DeliveryPlanPayload
	d, ok := newDecoder(data, &p.Problems)
	if !ok {
		p.Malformed = true
		return p
	}
	p.InstitutingOrgCode = requiredOptional(d, "instituting_org_code", parseInt)
	p.DeliveryPlanID = requiredOptional(d, "delivery_plan_id", parseInt)
	p.PlanningUnitCode = required(d, "planning_unit_code", parseInt)
	p.StartDate = required(d, "start_date", parseDate)
	p.EndDate = required(d, "end_date", parseDate)
	p.Cancelled = optional(d, "cancelled", parseBool)
	p.Evaluation = optional(d, "evaluation", parseInt)
	p.EvaluationDate = optional(d, "evaluation_date", parseDate)
	for _, child := range d.list("deliveries") {
		p.Deliveries = append(p.Deliveries, DeliveryPayload{
			DeliveryID:       requiredOptional(child, "delivery_id", parseString),
			Name:             required(child, "name", parseString),
			GoalDescription:  optional(child, "goal_description", parseString),
			GoalValue:        required(child, "goal_value", parseInt),
			GoalType:         required(child, "goal_type", parseInt),
			DeliveryDate:     required(child, "delivery_date", parseDate),
			RequesterName:    required(child, "requester_name", parseString),
			RecipientName:    required(child, "recipient_name", parseString),
			ValueChainName:   optional(child, "value_chain_name", parseString),
			PlanningLinkName: optional(child, "planning_link_name", parseString),
			ExpectedProgress: optional(child, "expected_progress", parseInt),
			ActualProgress:   optional(child, "actual_progress", parseInt),
		})
	}
	return p
}

type decoder struct {
	fields map[string]json.RawMessage
	prefix string
	errs   *rules.Violations
}

func newDecoder(data []byte, errs *rules.Violations) (decoder, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		*errs = append(*errs, rules.FieldError{Kind: rules.KindInvalidFormat, Message: msgBodyObject})
		return decoder{}, false
	}
	return decoder{fields: fields, errs: errs}, true
}

func (d decoder) path(name string) string {
	if d.prefix == "" {
		return name
	}
	return d.prefix + "." + name
}

func (d decoder) fail(name string, kind rules.Kind, message string) {
	*d.errs = append(*d.errs, rules.FieldError{Path: d.path(name), Kind: kind, Message: message})
}

// raw returns the value under name and whether it was present and null.
func (d decoder) raw(name string) (json.RawMessage, bool, bool) {
	v, ok := d.fields[name]
	if !ok {
		return nil, false, false
	}
	return v, true, bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// list decodes an array of objects under name into child decoders.
func (d decoder) list(name string) []decoder {
	v, present, null := d.raw(name)
	if !present || null {
		d.fail(name, rules.KindMissingField, msgRequired)
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		d.fail(name, rules.KindInvalidFormat, msgNotList)
		return nil
	}
	children := make([]decoder, 0, len(items))
	for i, item := range items {
		itemPath := fmt.Sprintf("%s[%d]", d.path(name), i)
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
			*d.errs = append(*d.errs, rules.FieldError{Path: itemPath, Kind: rules.KindInvalidFormat, Message: msgNotObject})
			fields = map[string]json.RawMessage{}
		}
		children = append(children, decoder{fields: fields, prefix: itemPath, errs: d.errs})
	}
	return children
}

type parser[T any] func(json.RawMessage) (T, string)

func required[T any](d decoder, name string, parse parser[T]) T {
	var zero T
	v, present, null := d.raw(name)
	if !present || null {
		d.fail(name, rules.KindMissingField, msgRequired)
		return zero
	}
	val, problem := parse(v)
	if problem != "" {
		d.fail(name, rules.KindInvalidFormat, problem)
		return zero
	}
	return val
}

func optional[T any](d decoder, name string, parse parser[T]) Optional[T] {
	v, present, null := d.raw(name)
	switch {
	case !present:
		return Optional[T]{}
	case null:
		return Optional[T]{Set: true, Null: true}
	}
	val, problem := parse(v)
	if problem != "" {
		d.fail(name, rules.KindInvalidFormat, problem)
		return Optional[T]{}
	}
	return Some(val)
}

// requiredOptional is a mandatory field kept as Optional: it is reported as
// missing, yet callers can still see whether a usable value arrived.
func requiredOptional[T any](d decoder, name string, parse parser[T]) Optional[T] {
	o := optional(d, name, parse)
	if !o.Set || o.Null {
		if !d.errs.Has(d.path(name)) {
			d.fail(name, rules.KindMissingField, msgRequired)
		}
		return Optional[T]{}
	}
	return o
}

func isString(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '"'
}

func parseInt(v json.RawMessage) (int64, string) {
	if isString(v) {
		return 0, msgNotInt
	}
	s := string(bytes.TrimSpace(v))
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, ""
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f >= 0x1p63 || f < -0x1p63 {
		return 0, msgNotInt
	}
	return int64(f), ""
}

func parseString(v json.RawMessage) (string, string) {
	if !isString(v) {
		return "", msgNotString
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", msgNotString
	}
	return s, ""
}

func parseBool(v json.RawMessage) (bool, string) {
	switch string(bytes.TrimSpace(v)) {
	case "true":
		return true, ""
	case "false":
		return false, ""
	}
	return false, msgNotBool
}

func parseDecimal(v json.RawMessage) (decimal.Decimal, string) {
	if isString(v) {
		return decimal.Decimal{}, msgNotNumber
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		return decimal.Decimal{}, msgNotNumber
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Decimal{}, msgNotNumber
	}
	return d, ""
}

func parseDate(v json.RawMessage) (time.Time, string) {
	s, problem := parseString(v)
	if problem != "" {
		return time.Time{}, msgNotDate
	}
	t, err := rules.ParseDate(s)
	if err != nil {
		return time.Time{}, msgNotDate
	}
	return t, ""
}
