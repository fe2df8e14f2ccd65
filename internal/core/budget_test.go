package core

import "testing"

func TestBudgetStatus(t *testing.T) {
	tests := []struct {
		name  string
		spent int64
		want  BudgetStatus
	}{
		{"below threshold", 79, StatusGood},
		{"at threshold", 80, StatusWarning},
		{"between threshold and cap", 99, StatusWarning},
		{"at cap", 100, StatusOver},
		{"above cap", 130, StatusOver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Budget{
				BudgetAmount:   Money{Cents: 100 * 100},
				SpentAmount:    Money{Cents: tt.spent * 100},
				AlertThreshold: 80,
			}
			if got := b.Status(); got != tt.want {
				t.Errorf("Status() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBudgetOverAndThreshold(t *testing.T) {
	b := Budget{BudgetAmount: Money{Cents: 30000}, SpentAmount: Money{Cents: 30000}, AlertThreshold: 80}
	if b.IsOver() {
		t.Errorf("spent equal to cap is not over budget")
	}
	if !b.ReachedThreshold() {
		t.Errorf("expected threshold reached")
	}
	b.SpentAmount = Money{Cents: 42000}
	if !b.IsOver() {
		t.Errorf("expected over budget")
	}
	if got := b.Remaining().Cents; got != -12000 {
		t.Errorf("Remaining() = %d, want -12000", got)
	}
	if got := b.Percentage(); got != 140 {
		t.Errorf("Percentage() = %v, want 140", got)
	}
}

func TestPeriodEndFrom(t *testing.T) {
	tests := []struct {
		name   string
		period Period
		start  Date
		want   Date
	}{
		{"weekly adds seven days", Weekly, NewDate(2024, 1, 29), NewDate(2024, 2, 5)},
		{"monthly ends on last day", Monthly, NewDate(2024, 2, 10), NewDate(2024, 2, 29)},
		{"monthly on last day rolls into next month", Monthly, NewDate(2024, 1, 31), NewDate(2024, 2, 29)},
		{"monthly on last day of december", Monthly, NewDate(2024, 12, 31), NewDate(2025, 1, 31)},
		{"yearly same day next year", Yearly, NewDate(2024, 3, 15), NewDate(2025, 3, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.period.EndFrom(tt.start)
			if err != nil {
				t.Fatalf("EndFrom() error = %v", err)
			}
			if !got.Equal(tt.want.Time) {
				t.Errorf("EndFrom() = %v, want %v", got, tt.want)
			}
			if !got.After(tt.start.Time) {
				t.Errorf("end %v not after start %v", got, tt.start)
			}
		})
	}

	if _, err := Period("daily").EndFrom(NewDate(2024, 1, 1)); err == nil {
		t.Errorf("expected error for unknown period")
	}
}

func TestReportRetention(t *testing.T) {
	if Weekly.ReportRetention() != 12 || Monthly.ReportRetention() != 12 || Yearly.ReportRetention() != 5 {
		t.Fatalf("unexpected retention caps")
	}
}

func TestSettingsApply(t *testing.T) {
	off := false
	before := DefaultSettings().Notifications
	after := before.Apply(NotificationsPatch{BudgetAlerts: &off})

	if after.BudgetAlerts {
		t.Fatalf("expected budgetAlerts false")
	}
	after.BudgetAlerts = before.BudgetAlerts
	if after != before {
		t.Fatalf("other fields changed: %+v vs %+v", after, before)
	}
}
