package units

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEther(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "1000000000000000000"},
		{"0.001", "1000000000000000"},
		{"1.5", "1500000000000000000"},
		{"0", "0"},
		{" 2 ", "2000000000000000000"},
		{"0.000000000000000001", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEther(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseGwei(t *testing.T) {
	got, err := ParseGwei("20")
	require.NoError(t, err)
	assert.Equal(t, "20000000000", got.String())

	got, err = ParseGwei("1.5")
	require.NoError(t, err)
	assert.Equal(t, "1500000000", got.String())
}

func TestParseUnits_Errors(t *testing.T) {
	_, err := ParseEther("")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ParseEther("abc")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ParseEther("-1")
	assert.ErrorIs(t, err, ErrNegative)

	_, err = ParseEther("0.0000000000000000001")
	assert.ErrorIs(t, err, ErrPrecision)

	_, err = ParseUnits("1.5", 0)
	assert.ErrorIs(t, err, ErrPrecision)
}

func TestFormat(t *testing.T) {
	wei, _ := new(big.Int).SetString("1500000000000000000", 10)
	assert.Equal(t, "1.5", FormatEther(wei))
	assert.Equal(t, "0.000000000000000001", FormatEther(big.NewInt(1)))
	assert.Equal(t, "0", FormatEther(big.NewInt(0)))
	assert.Equal(t, "0", FormatEther(nil))
	assert.Equal(t, "20", FormatGwei(big.NewInt(20_000_000_000)))
	assert.Equal(t, "1.23", FormatUnits(big.NewInt(123), 2))
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []string{"1", "0.5", "123.456789", "0.000000001"} {
		wei, err := ParseEther(s)
		require.NoError(t, err)
		assert.Equal(t, s, FormatEther(wei))
	}
}
