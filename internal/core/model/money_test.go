package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "$0.00", Money{}.String())
	assert.Equal(t, "$1,234.56", FromCents(123456).String())
	assert.Equal(t, "$180,000.00", FromCents(18000000).String())
	assert.Equal(t, "$999.99", FromCents(99999).String())
	assert.Equal(t, "$1,000,000.05", FromCents(100000005).String())
	assert.Equal(t, "-$42.50", FromCents(-4250).String())
}

func TestMoneyFromDollars(t *testing.T) {
	assert.Equal(t, int64(12550), FromDollars(125.50).Cents)
	assert.Equal(t, int64(100), FromDollars(0.999).Cents)
	assert.InDelta(t, 125.50, FromDollars(125.50).Dollars(), 0.0001)
}

// Money fields must accept both a bare integer (cents) and the object form.
func TestMoneyUnmarshalJSON(t *testing.T) {
	var income Income
	err := json.Unmarshal([]byte(`{"total_income": 18000000, "w2_count": 1}`), &income)
	assert.NoError(t, err)
	assert.Equal(t, int64(18000000), income.TotalIncome.Cents)

	err = json.Unmarshal([]byte(`{"total_income": {"cents": 5000}, "w2_count": 1}`), &income)
	assert.NoError(t, err)
	assert.Equal(t, int64(5000), income.TotalIncome.Cents)

	var m Money
	assert.NoError(t, json.Unmarshal([]byte(`null`), &m))
	assert.True(t, m.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &m))
}

func TestMoneyMarshalJSON(t *testing.T) {
	data, err := json.Marshal(FromCents(4250))
	assert.NoError(t, err)
	assert.JSONEq(t, `{"cents": 4250}`, string(data))
}

func TestMoneyAdd(t *testing.T) {
	total := FromCents(100).Add(FromCents(250))
	assert.Equal(t, int64(350), total.Cents)
	assert.True(t, total.IsPositive())
}
