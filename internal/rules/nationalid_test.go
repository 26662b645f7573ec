package rules

import (
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ruleKind(t *testing.T, err error) Kind {
	t.Helper()
	var re *RuleError
	require.True(t, errors.As(err, &re), "expected *RuleError, got %T", err)
	return re.Kind
}

func TestValidateNationalIDAcceptsValidNumbers(t *testing.T) {
	for _, id := range []string{"04811556437", "99160773120"} {
		got, err := ValidateNationalID(id)
		require.NoError(t, err, id)
		assert.Equal(t, id, got)
	}
}

func TestValidateNationalIDRejections(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		kind    Kind
		message string
	}{
		{"repeated ones", "11111111111", KindInvalidFormat, "invalid national ID"},
		{"repeated fours", "44444444444", KindInvalidFormat, "invalid national ID"},
		{"bad check digit", "04811556435", KindInvalidChecksum, "national ID check digits are invalid"},
		{"separators", "444-444-444.44", KindInvalidFormat, "national ID must have 11 digits"},
		{"negative sign", "-44444444444", KindInvalidFormat, "national ID must have 11 digits"},
		{"too short", "444444444", KindInvalidFormat, "national ID must have 11 digits"},
		{"embedded space", "-444 4444444", KindInvalidFormat, "national ID must have 11 digits"},
		{"ten digits", "4811556437", KindInvalidFormat, "national ID must have 11 digits"},
		{"embedded dash", "048115564-37", KindInvalidFormat, "national ID must have 11 digits"},
		{"trailing padding", "04811556437     ", KindInvalidFormat, "national ID must contain only digits"},
		{"both sides padded", "    04811556437     ", KindInvalidFormat, "national ID must contain only digits"},
		{"letter inside", "0481155643a", KindInvalidFormat, "national ID must contain only digits"},
		{"empty", "", KindInvalidFormat, "national ID must have 11 digits"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateNationalID(tc.input)
			require.Error(t, err)
			assert.Equal(t, tc.kind, ruleKind(t, err))
			assert.Equal(t, tc.message, err.Error())
		})
	}
}

func TestValidateNationalIDMatchesModulo11(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		prefix := make([]int, 9)
		var b strings.Builder
		for j := range prefix {
			prefix[j] = rng.Intn(10)
			b.WriteString(strconv.Itoa(prefix[j]))
		}
		d10 := checkDigit(prefix)
		d11 := checkDigit(append(append([]int{}, prefix...), d10))
		valid := b.String() + strconv.Itoa(d10) + strconv.Itoa(d11)
		if strings.Count(valid, valid[:1]) == len(valid) {
			_, err := ValidateNationalID(valid)
			require.Error(t, err)
			continue
		}
		_, err := ValidateNationalID(valid)
		require.NoError(t, err, valid)

		tampered := valid[:10] + strconv.Itoa((d11+1)%10)
		if strings.Count(tampered, tampered[:1]) == len(tampered) {
			continue
		}
		_, err = ValidateNationalID(tampered)
		require.Error(t, err, tampered)
		assert.Equal(t, KindInvalidChecksum, ruleKind(t, err))
	}
}

func TestValidateNationalIDRejectsAllRepeatedDigits(t *testing.T) {
	for d := 0; d <= 9; d++ {
		_, err := ValidateNationalID(strings.Repeat(strconv.Itoa(d), 11))
		require.Error(t, err)
		assert.Equal(t, KindInvalidFormat, ruleKind(t, err))
	}
}
