package core

import "time"

const (
	InsightWarning InsightType = "warning"
	InsightSuccess InsightType = "success"
	InsightInfo    InsightType = "info"
	InsightError   InsightType = "error"
)

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

type (
	InsightType string

	RiskLevel string

	// Insight is a dismissable observation about the user's finances.
	Insight struct {
		ID          string      `json:"id"`
		Type        InsightType `json:"type"`
		Title       string      `json:"title"`
		Description string      `json:"description"`
		Action      string      `json:"action,omitempty"`
		Category    string      `json:"category,omitempty"`
		Date        time.Time   `json:"date"`
		Dismissed   bool        `json:"dismissed"`
	}

	InsightInput struct {
		Type        InsightType `json:"type"`
		Title       string      `json:"title"`
		Description string      `json:"description"`
		Action      string      `json:"action,omitempty"`
		Category    string      `json:"category,omitempty"`
	}

	WeekAmount struct {
		Week   string `json:"week"`
		Amount Money  `json:"amount"`
	}

	MonthAmount struct {
		Month  string `json:"month"`
		Amount Money  `json:"amount"`
	}

	CategoryShare struct {
		Category   string `json:"category"`
		Amount     Money  `json:"amount"`
		Percentage int    `json:"percentage"`
	}

	SpendingPattern struct {
		WeeklyTrends   []WeekAmount    `json:"weeklyTrends"`
		MonthlyTrends  []MonthAmount   `json:"monthlyTrends"`
		CategoryTrends []CategoryShare `json:"categoryTrends"`
		LastUpdated    *time.Time      `json:"lastUpdated"`
	}

	SpendingPatternPatch struct {
		WeeklyTrends   *[]WeekAmount    `json:"weeklyTrends,omitempty"`
		MonthlyTrends  *[]MonthAmount   `json:"monthlyTrends,omitempty"`
		CategoryTrends *[]CategoryShare `json:"categoryTrends,omitempty"`
	}

	BudgetRisk struct {
		Category  string    `json:"category"`
		RiskLevel RiskLevel `json:"riskLevel"`
	}

	Prediction struct {
		NextMonthSpending Money        `json:"nextMonthSpending"`
		BudgetRisk        []BudgetRisk `json:"budgetRisk"`
		SavingsProjection Money        `json:"savingsProjection"`
		LastUpdated       *time.Time   `json:"lastUpdated"`
	}

	PredictionPatch struct {
		NextMonthSpending *Money        `json:"nextMonthSpending,omitempty"`
		BudgetRisk        *[]BudgetRisk `json:"budgetRisk,omitempty"`
		SavingsProjection *Money        `json:"savingsProjection,omitempty"`
	}

	CategoryAmount struct {
		Category string `json:"category"`
		Amount   Money  `json:"amount"`
	}

	Report struct {
		ID            string           `json:"id"`
		Period        Period           `json:"period"`
		StartDate     Date             `json:"startDate"`
		EndDate       Date             `json:"endDate"`
		TotalIncome   Money            `json:"totalIncome"`
		TotalExpenses Money            `json:"totalExpenses"`
		NetAmount     Money            `json:"netAmount"`
		TopCategories []CategoryAmount `json:"topCategories"`
		GeneratedAt   time.Time        `json:"generatedAt"`
	}

	ReportInput struct {
		Period        Period           `json:"period"`
		StartDate     Date             `json:"startDate"`
		EndDate       Date             `json:"endDate"`
		TotalIncome   Money            `json:"totalIncome"`
		TotalExpenses Money            `json:"totalExpenses"`
		NetAmount     Money            `json:"netAmount"`
		TopCategories []CategoryAmount `json:"topCategories"`
	}

	// ReportHistory keeps generated reports per period, newest first.
	ReportHistory struct {
		Weekly  []Report `json:"weekly"`
		Monthly []Report `json:"monthly"`
		Yearly  []Report `json:"yearly"`
	}
)

func (t InsightType) IsValid() bool {
	switch t {
	case InsightWarning, InsightSuccess, InsightInfo, InsightError:
		return true
	}
	return false
}

func (p SpendingPattern) Apply(patch SpendingPatternPatch) SpendingPattern {
	set(&p.WeeklyTrends, patch.WeeklyTrends)
	set(&p.MonthlyTrends, patch.MonthlyTrends)
	set(&p.CategoryTrends, patch.CategoryTrends)
	return p
}

func (p Prediction) Apply(patch PredictionPatch) Prediction {
	set(&p.NextMonthSpending, patch.NextMonthSpending)
	set(&p.BudgetRisk, patch.BudgetRisk)
	set(&p.SavingsProjection, patch.SavingsProjection)
	return p
}

// List returns the history slice for a period, or nil for an unknown period.
func (h *ReportHistory) List(p Period) *[]Report {
	switch p {
	case Weekly:
		return &h.Weekly
	case Monthly:
		return &h.Monthly
	case Yearly:
		return &h.Yearly
	}
	return nil
}

// WithID stamps the input as a report.
func (in ReportInput) WithID(id string, generatedAt time.Time) Report {
	return Report{
		ID:            id,
		Period:        in.Period,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		TotalIncome:   in.TotalIncome,
		TotalExpenses: in.TotalExpenses,
		NetAmount:     in.NetAmount,
		TopCategories: in.TopCategories,
		GeneratedAt:   generatedAt,
	}
}
