package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

type (
	TransactionType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a ledger entry. Amount is always a non-negative magnitude;
	// Type decides the sign.
	Transaction struct {
		ID          string          `json:"id"`
		Description string          `json:"description"`
		Amount      Money           `json:"amount"`
		Type        TransactionType `json:"type"`
		Category    string          `json:"category"`
		Date        Date            `json:"date"`
		Notes       string          `json:"notes,omitempty"`
	}

	// TransactionInput carries the fields of a transaction before an id is assigned.
	TransactionInput struct {
		Description string          `json:"description"`
		Amount      Money           `json:"amount"`
		Type        TransactionType `json:"type"`
		Category    string          `json:"category"`
		Date        Date            `json:"date"`
		Notes       string          `json:"notes,omitempty"`
	}
)

var (
	ErrEmptyDate        = errors.New("date cannot be zero")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
)

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrEmptyDate
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location and returns it as UTC midnight.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (in TransactionInput) Validate() error {
	if err := in.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(in.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(in.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := in.Amount.Validate(); err != nil {
		return err
	}
	if !in.Type.IsValid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(in.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("empty id")
	}
	return t.Input().Validate()
}

// Input strips the id.
func (t Transaction) Input() TransactionInput {
	return TransactionInput{
		Description: t.Description,
		Amount:      t.Amount,
		Type:        t.Type,
		Category:    t.Category,
		Date:        t.Date,
		Notes:       t.Notes,
	}
}

// WithID builds a transaction from the input.
func (in TransactionInput) WithID(id string) Transaction {
	return Transaction{
		ID:          id,
		Description: in.Description,
		Amount:      in.Amount,
		Type:        in.Type,
		Category:    in.Category,
		Date:        in.Date,
		Notes:       in.Notes,
	}
}

// Signed returns the amount with expenses negative.
func (t Transaction) Signed() Money {
	if t.Type == Expense {
		return Money{Cents: -t.Amount.Cents}
	}
	return t.Amount
}
