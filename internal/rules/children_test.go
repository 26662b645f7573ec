package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type child struct {
	id  string
	has bool
}

func childKey(c child) (string, bool) { return c.id, c.has }

func TestFirstDuplicate(t *testing.T) {
	idx, dup := FirstDuplicate([]child{{"a", true}, {"b", true}, {"a", true}}, childKey)
	require.True(t, dup)
	assert.Equal(t, 2, idx)

	_, dup = FirstDuplicate([]child{{"a", true}, {"b", true}}, childKey)
	assert.False(t, dup)

	_, dup = FirstDuplicate([]child{{"", false}, {"", false}}, childKey)
	assert.False(t, dup, "children without identifiers are not compared")

	_, dup = FirstDuplicate[child, string](nil, childKey)
	assert.False(t, dup)
}

func TestCheckerBounds(t *testing.T) {
	c := NewChecker(nil)
	c.MaxLen("deliveries[0].name", strings.Repeat("x", MaxTextLength))
	c.MaxLen("deliveries[1].name", strings.Repeat("x", MaxTextLength+1))
	c.MaxLen("deliveries[2].name", strings.Repeat("é", MaxTextLength))
	c.Percent("deliveries[0].goal_value", 100)
	c.Percent("deliveries[1].goal_value", 101)
	c.Percent("deliveries[2].goal_value", -1)
	c.Range("weekly_workload", 41, 1, 40, "weekly workload must be between 1 and 40")
	c.Enum("deliveries[0].goal_type", 3, []int64{1, 2}, "invalid goal type")
	c.Positive("planning_unit_code", 0, "invalid planning unit code")
	c.NationalID("national_id", "04811556435")

	got := c.Violations()
	require.Len(t, got, 7)
	assert.Equal(t, FieldError{Path: "deliveries[1].name", Kind: KindTooLong, Message: "must have at most 300 characters"}, got[0])
	assert.Equal(t, FieldError{Path: "deliveries[1].goal_value", Kind: KindOutOfRange, Message: "invalid percentage value"}, got[1])
	assert.Equal(t, "deliveries[2].goal_value", got[2].Path)
	assert.Equal(t, "weekly workload must be between 1 and 40", got[3].Message)
	assert.Equal(t, FieldError{Path: "deliveries[0].goal_type", Kind: KindInvalidEnumValue, Message: "invalid goal type; permitted: 1, 2"}, got[4])
	assert.Equal(t, KindOutOfRange, got[5].Kind)
	assert.Equal(t, FieldError{Path: "national_id", Kind: KindInvalidChecksum, Message: "national ID check digits are invalid"}, got[6])
}

func TestCheckerSkipsPathsThatAlreadyFailed(t *testing.T) {
	prior := Violations{{Path: "weekly_workload", Kind: KindMissingField, Message: "field required"}}
	c := NewChecker(prior)
	c.Range("weekly_workload", 0, 1, 40, "weekly workload must be between 1 and 40")
	got := c.Violations()
	require.Len(t, got, 1)
	assert.Equal(t, KindMissingField, got[0].Kind)
}

func TestViolationsErr(t *testing.T) {
	var v Violations
	assert.NoError(t, v.Err())
	v = append(v, FieldError{Path: "name", Kind: KindMissingField, Message: "field required"})
	require.Error(t, v.Err())
	assert.Contains(t, v.Error(), "name: field required")
}
