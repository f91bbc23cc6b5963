package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMinorKeepsCents(t *testing.T) {
	assert.Equal(t, "123.45", FromMinor(12345))
	assert.Equal(t, "42.00", FromMinor(4200))
	assert.Equal(t, "0.05", FromMinor(5))
	assert.Equal(t, "0.00", FromMinor(0))
}

func TestToMinorRoundsToNearestUnit(t *testing.T) {
	cases := map[string]int64{
		"12.50":  1250,
		"42":     4200,
		"$1,250": 125000,
		"10.005": 1001,
		"19.994": 1999,
		" 7.1 ":  710,
		"123.45": 12345,
	}
	for input, want := range cases {
		got, err := ToMinor(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}

func TestToMinorRejectsGarbage(t *testing.T) {
	_, err := ToMinor("")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ToMinor("twelve")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestNormalizeAndSum(t *testing.T) {
	assert.Equal(t, "10.00", Normalize("10"))
	assert.Equal(t, "0.00", Normalize("n/a"))
	assert.True(t, Sum("10.00", "32", "bad").Equal(Sum("42")))
}

func TestToMinorRejectsOutOfRange(t *testing.T) {
	for _, input := range []string{
		"184467440737095516.17",
		"92233720368547758.08",
		"-92233720368547758.09",
	} {
		_, err := ToMinor(input)
		assert.ErrorIs(t, err, ErrInvalidAmount, input)
	}

	got, err := ToMinor("92233720368547758.07")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), got)
}
