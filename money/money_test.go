package money_test

import (
	"encoding/json"
	"testing"

	"fairshare-backend/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFloat(t *testing.T) {
	tests := []struct {
		name      string
		amount    float64
		currency  money.Code
		wantMinor int64
		wantErr   bool
	}{
		{"whole dollars", 10.0, money.USD, 1000, false},
		{"with cents", 12.34, money.USD, 1234, false},
		{"rounds half up", 0.005, money.USD, 1, false},
		{"rounds half away from zero when negative", -0.005, money.USD, -1, false},
		{"sub-cent noise from float math", 19.999999999999996, money.USD, 2000, false},
		{"invalid currency", 1.0, money.Code("usd"), 0, true},
		{"empty currency", 1.0, money.Code(""), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := money.FromFloat(tt.amount, tt.currency)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMinor, m.Minor())
			assert.Equal(t, tt.currency, m.Currency())
		})
	}
}

func TestAddSub(t *testing.T) {
	a := money.MustMinor(1050, money.USD)
	b := money.MustMinor(2575, money.USD)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(3625), sum.Minor())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, int64(-1525), diff.Minor())
	assert.True(t, diff.IsNegative())

	_, err = a.Add(money.MustMinor(100, money.EUR))
	require.ErrorIs(t, err, money.ErrCurrencyMismatch)

	_, err = a.Sub(money.MustMinor(100, money.EUR))
	require.ErrorIs(t, err, money.ErrCurrencyMismatch)
}

func TestNegAbs(t *testing.T) {
	m := money.MustMinor(-250, money.INR)
	assert.Equal(t, int64(250), m.Neg().Minor())
	assert.Equal(t, int64(250), m.Abs().Minor())
	assert.Equal(t, int64(250), m.Abs().Abs().Minor())
	assert.True(t, money.Zero(money.INR).IsZero())
}

func TestString(t *testing.T) {
	assert.Equal(t, "12.34 USD", money.MustMinor(1234, money.USD).String())
	assert.Equal(t, "0.05 EUR", money.MustMinor(5, money.EUR).String())
	assert.Equal(t, "-3.00 INR", money.MustMinor(-300, money.INR).String())
}

func TestJSONRoundTrip(t *testing.T) {
	original := money.MustMinor(999, money.USD)

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":999,"currency":"USD"}`, string(data))

	var decoded money.Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, original, decoded)

	var bad money.Money
	require.Error(t, json.Unmarshal([]byte(`{"amount":1,"currency":"x"}`), &bad))
}
