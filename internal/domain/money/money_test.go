package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("valid formats", func(t *testing.T) {
		cases := map[string]string{
			"100.00": "100.00",
			"50.5":   "50.50",
			"7":      "7.00",
			"0":      "0.00",
			"0.01":   "0.01",
		}
		for input, expected := range cases {
			m, err := Parse(input)
			require.NoError(t, err, "input %q", input)
			assert.Equal(t, expected, m.String(), "input %q", input)
		}
	})

	t.Run("invalid formats", func(t *testing.T) {
		for _, input := range []string{"", "-1", "1.234", "1,00", "abc", "1.", ".50", "1e2", " 1"} {
			_, err := Parse(input)
			assert.ErrorIs(t, err, ErrInvalidFormat, "input %q", input)
		}
	})
}

func TestParsePositive(t *testing.T) {
	_, err := ParsePositive("0.00")
	assert.ErrorIs(t, err, ErrNonPositiveValue)

	m, err := ParsePositive("0.01")
	require.NoError(t, err)
	assert.True(t, m.IsPositive())
}

func TestArithmetic(t *testing.T) {
	a, _ := Parse("100.00")
	b, _ := Parse("40.00")

	assert.Equal(t, "140.00", a.Add(b).String())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, "60.00", diff.String())

	_, err = b.Sub(a)
	assert.ErrorIs(t, err, ErrNegativeAmount)

	assert.True(t, b.LessThan(a))
	assert.False(t, a.LessThan(b))

	c, _ := Parse("40")
	assert.True(t, b.Equal(c))
}

func TestZeroValue(t *testing.T) {
	var m Money
	assert.True(t, m.IsZero())
	assert.Equal(t, "0.00", m.String())
	assert.True(t, m.Equal(Zero()))
}

func TestJSONRoundTrip(t *testing.T) {
	m, _ := Parse("1500.75")

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `"1500.75"`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, m.Equal(decoded))

	var bad Money
	assert.Error(t, json.Unmarshal([]byte(`"not-money"`), &bad))
}
