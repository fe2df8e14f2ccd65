package memory

import (
	"context"
	"testing"

	"budgetwise/internal/core"
)

func TestMemoryStoreExportReport(t *testing.T) {
	s := New()

	ref, err := s.ExportReport(context.Background(), core.Report{ID: "a", Period: core.Weekly})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected export: ref=%q err=%v", ref, err)
	}
	ref, err = s.ExportReport(context.Background(), core.Report{ID: "b", Period: core.Monthly})
	if err != nil || ref != "mem:2" {
		t.Fatalf("unexpected export: ref=%q err=%v", ref, err)
	}

	got := s.Reports()
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("unexpected reports: %+v", got)
	}
}

func TestMemoryStoreRejectsReportWithoutID(t *testing.T) {
	s := New()
	if _, err := s.ExportReport(context.Background(), core.Report{}); err == nil {
		t.Fatal("expected error")
	}
	if len(s.Reports()) != 0 {
		t.Fatal("nothing should be recorded")
	}
}
