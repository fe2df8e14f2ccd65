package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// FromFloat converts a decimal amount to Money, rounding half away from zero.
func FromFloat(v float64) Money {
	return Money{Cents: int64(math.Round(v * 100))}
}

// Float returns the decimal value for display and JSON.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) Neg() Money { return Money{Cents: -m.Cents} }

func (m Money) Abs() Money {
	if m.Cents < 0 {
		return m.Neg()
	}
	return m
}

func (m Money) IsZero() bool { return m.Cents == 0 }

func (m Money) String() string {
	return strconv.FormatFloat(m.Float(), 'f', 2, 64)
}

// MarshalJSON writes the amount as a plain decimal number (85.5).
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(m.Float(), 'f', -1, 64)), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("amount must be a number: %w", err)
	}
	*m = FromFloat(v)
	return nil
}

// UnmarshalJSON normalizes legacy signed amounts to their magnitude.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type plain Transaction
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	p.Amount = p.Amount.Abs()
	*t = Transaction(p)
	return nil
}
