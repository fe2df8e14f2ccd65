package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && !errors.Is(err, ErrEmptyDate) {
			t.Fatalf("case %d expected ErrEmptyDate, got %v", i, err)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-01-15", "2024-01-15", true},
		{"2024-01-15T10:30:00.000Z", "2024-01-15", true},
		{"", "", true},
		{"15/01/2024", "", false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok && (err != nil || got.String() != tc.want) {
			t.Fatalf("%q expected %q, got %q (err=%v)", tc.in, tc.want, got.String(), err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestTransactionInputValidate(t *testing.T) {
	good := TransactionInput{
		Date:        NewDate(2025, 1, 1),
		Description: "ok",
		Amount:      Money{Cents: 100},
		Type:        Expense,
		Category:    "Food",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []TransactionInput{
		{Date: Date{}, Description: "a", Amount: Money{Cents: 1}, Type: Expense, Category: "c"},
		{Date: NewDate(2025, 1, 1), Description: "", Amount: Money{Cents: 1}, Type: Expense, Category: "c"},
		{Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 0}, Type: Expense, Category: "c"},
		{Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 1}, Type: "refund", Category: "c"},
		{Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 1}, Type: Income, Category: " "},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestTransactionJSONNormalizesLegacySign(t *testing.T) {
	raw := `{"id":"2","description":"Grocery Store","amount":-85.50,"type":"expense","category":"Food","date":"2024-01-15","notes":"Weekly groceries"}`
	var tx Transaction
	if err := json.Unmarshal([]byte(raw), &tx); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tx.Amount.Cents != 8550 {
		t.Fatalf("expected magnitude 8550, got %d", tx.Amount.Cents)
	}
	if tx.Signed().Cents != -8550 {
		t.Fatalf("expected signed -8550, got %d", tx.Signed().Cents)
	}

	out, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":"2","description":"Grocery Store","amount":85.5,"type":"expense","category":"Food","date":"2024-01-15","notes":"Weekly groceries"}`
	if string(out) != want {
		t.Fatalf("unexpected json:\n got %s\nwant %s", out, want)
	}
}
