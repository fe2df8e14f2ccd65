package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

const (
	StatusGood    BudgetStatus = "good"
	StatusWarning BudgetStatus = "warning"
	StatusOver    BudgetStatus = "over"
)

type (
	Period string

	BudgetStatus string

	// Budget is a spending cap for one category over one period.
	Budget struct {
		ID             string  `json:"id"`
		Category       string  `json:"category"`
		BudgetAmount   Money   `json:"budgetAmount"`
		SpentAmount    Money   `json:"spentAmount"`
		Period         Period  `json:"period"`
		StartDate      Date    `json:"startDate"`
		EndDate        Date    `json:"endDate"`
		AlertThreshold float64 `json:"alertThreshold"`
	}

	BudgetInput struct {
		Category       string  `json:"category"`
		BudgetAmount   Money   `json:"budgetAmount"`
		Period         Period  `json:"period"`
		StartDate      Date    `json:"startDate"`
		EndDate        Date    `json:"endDate"`
		AlertThreshold float64 `json:"alertThreshold"`
	}
)

var (
	ErrInvalidPeriod    = errors.New("invalid period")
	ErrInvalidThreshold = errors.New("alert threshold must be between 0 and 100")
	ErrDuplicateBudget  = errors.New("a budget for this category and period already exists")
)

func (p Period) IsValid() bool {
	_, ok := periodEnds[p]
	return ok
}

// ReportRetention is how many generated reports are kept for the period.
func (p Period) ReportRetention() int {
	if p == Yearly {
		return 5
	}
	return 12
}

// EndFrom returns the end date of a period starting on start.
func (p Period) EndFrom(start Date) (Date, error) {
	calc, ok := periodEnds[p]
	if !ok {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, p)
	}
	return calc.End(start), nil
}

// PeriodEnd computes the end date of a budget period.
type PeriodEnd interface {
	End(start Date) Date
}

// WeeklyEnd ends seven days after the start.
type WeeklyEnd struct{}

func (WeeklyEnd) End(start Date) Date {
	return start.AddDays(7)
}

// MonthlyEnd ends on the last day of the start's month. A period started on the
// last day of a month runs to the end of the following month instead, so the end
// always lies after the start.
type MonthlyEnd struct{}

func (MonthlyEnd) End(start Date) Date {
	last := lastDayOfMonth(start.Year(), start.Month())
	if start.Day() >= last {
		next := start.AddDays(1)
		return NewDate(next.Year(), int(next.Month()), lastDayOfMonth(next.Year(), next.Month()))
	}
	return NewDate(start.Year(), int(start.Month()), last)
}

// YearlyEnd ends on the same day one year later.
type YearlyEnd struct{}

func (YearlyEnd) End(start Date) Date {
	return Date{Time: start.Time.AddDate(1, 0, 0)}
}

var periodEnds = map[Period]PeriodEnd{
	Weekly:  WeeklyEnd{},
	Monthly: MonthlyEnd{},
	Yearly:  YearlyEnd{},
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (in BudgetInput) Validate() error {
	if strings.TrimSpace(in.Category) == "" {
		return ErrEmptyCategory
	}
	if err := in.BudgetAmount.Validate(); err != nil {
		return err
	}
	if !in.Period.IsValid() {
		return ErrInvalidPeriod
	}
	if in.AlertThreshold < 0 || in.AlertThreshold > 100 {
		return ErrInvalidThreshold
	}
	if !in.StartDate.IsZero() && !in.EndDate.IsZero() && !in.EndDate.After(in.StartDate.Time) {
		return errors.New("end date must be after start date")
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return errors.New("empty id")
	}
	return BudgetInput{
		Category:       b.Category,
		BudgetAmount:   b.BudgetAmount,
		Period:         b.Period,
		StartDate:      b.StartDate,
		EndDate:        b.EndDate,
		AlertThreshold: b.AlertThreshold,
	}.Validate()
}

// Percentage is spent as a share of the cap, in percent.
func (b Budget) Percentage() float64 {
	if b.BudgetAmount.Cents == 0 {
		return 0
	}
	return float64(b.SpentAmount.Cents) / float64(b.BudgetAmount.Cents) * 100
}

// Remaining is negative when the budget is exceeded.
func (b Budget) Remaining() Money {
	return b.BudgetAmount.Sub(b.SpentAmount)
}

// IsOver reports spent strictly above the cap.
func (b Budget) IsOver() bool {
	return b.SpentAmount.Cents > b.BudgetAmount.Cents
}

// ReachedThreshold reports spent at or above the alert threshold.
func (b Budget) ReachedThreshold() bool {
	// compared in cents to keep 80 of 100 exactly at 80%
	return float64(b.SpentAmount.Cents)*100 >= b.AlertThreshold*float64(b.BudgetAmount.Cents)
}

func (b Budget) Status() BudgetStatus {
	switch {
	case b.SpentAmount.Cents >= b.BudgetAmount.Cents:
		return StatusOver
	case b.ReachedThreshold():
		return StatusWarning
	default:
		return StatusGood
	}
}
