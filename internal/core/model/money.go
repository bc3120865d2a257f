package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is an exact dollar amount stored as integer cents.
type Money struct {
	Cents int64 `json:"cents"`
}

func FromCents(cents int64) Money {
	return Money{Cents: cents}
}

func FromDollars(dollars float64) Money {
	return Money{Cents: int64(math.Round(dollars * 100))}
}

func (m Money) Dollars() float64 {
	return float64(m.Cents) / 100
}

func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}

func (m Money) IsPositive() bool {
	return m.Cents > 0
}

// String renders "$1,234.56"; negative amounts render "-$1,234.56".
func (m Money) String() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := strconv.FormatInt(cents/100, 10)
	var groups []string
	for len(whole) > 3 {
		groups = append([]string{whole[len(whole)-3:]}, groups...)
		whole = whole[:len(whole)-3]
	}
	groups = append([]string{whole}, groups...)
	return fmt.Sprintf("%s$%s.%02d", sign, strings.Join(groups, ","), cents%100)
}

// UnmarshalJSON accepts either a bare integer (cents) or {"cents": N}.
func (m *Money) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		m.Cents = 0
		return nil
	}
	if !strings.HasPrefix(trimmed, "{") {
		cents, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			// LLMs occasionally emit fractional cents
			f, ferr := strconv.ParseFloat(trimmed, 64)
			if ferr != nil {
				return fmt.Errorf("invalid money value %q: %w", trimmed, err)
			}
			m.Cents = int64(math.Round(f))
			return nil
		}
		m.Cents = cents
		return nil
	}
	var obj struct {
		Cents int64 `json:"cents"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid money object: %w", err)
	}
	m.Cents = obj.Cents
	return nil
}
