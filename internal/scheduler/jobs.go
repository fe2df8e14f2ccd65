package scheduler

import (
	"context"
	"fmt"

	"budgetwise/internal/core"
	"budgetwise/internal/services"
)

// Schedules holds the cron specs of the finance jobs.
type Schedules struct {
	Daily   string
	Weekly  string
	Monthly string
	Yearly  string
}

// MaintenanceJob rolls over expired budgets and refreshes analytics.
func MaintenanceJob(svc *services.FinanceService) Job {
	return Job{
		Name: "maintenance",
		Run: func(ctx context.Context) error {
			svc.RolloverExpired(ctx)
			svc.RefreshAnalytics(ctx)
			return nil
		},
	}
}

// ReportJob generates the period's report when notifications allow it.
func ReportJob(svc *services.FinanceService, period core.Period) Job {
	return Job{
		Name: string(period) + "-report",
		Run: func(ctx context.Context) error {
			_, _, err := svc.ScheduledReport(ctx, period)
			return err
		},
	}
}

// RegisterFinanceJobs adds the maintenance and report jobs.
func RegisterFinanceJobs(s *Scheduler, svc *services.FinanceService, sched Schedules) error {
	entries := []struct {
		spec string
		job  Job
	}{
		{sched.Daily, MaintenanceJob(svc)},
		{sched.Weekly, ReportJob(svc, core.Weekly)},
		{sched.Monthly, ReportJob(svc, core.Monthly)},
		{sched.Yearly, ReportJob(svc, core.Yearly)},
	}
	for _, e := range entries {
		if err := s.AddJob(e.spec, e.job); err != nil {
			return fmt.Errorf("register %s: %w", e.job.Name, err)
		}
	}
	return nil
}
