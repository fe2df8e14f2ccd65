package sheets

import (
	"context"

	"budgetwise/internal/core"
)

// Ports for outbound adapters.
type (
	// ReportExporter publishes a generated report and returns where it landed.
	ReportExporter interface {
		ExportReport(ctx context.Context, r core.Report) (ref string, err error)
	}
)
