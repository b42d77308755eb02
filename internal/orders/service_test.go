package orders

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/orders-tracker/constants"
	"github.com/joseph-ayodele/orders-tracker/internal/analyzer"
	"github.com/joseph-ayodele/orders-tracker/internal/async"
	"github.com/joseph-ayodele/orders-tracker/internal/entity"
	"github.com/joseph-ayodele/orders-tracker/internal/repository"
)

type fixture struct {
	svc      *Service
	runs     repository.AnalysisRunRepository
	contacts repository.ContactRepository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repository.OpenMemory(context.Background(), logger)
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(db.Close)

	runs := repository.NewAnalysisRunRepository(db, logger)
	contacts := repository.NewContactRepository(db, logger)
	svc := NewService(
		repository.NewOrderRepository(db, logger),
		contacts,
		logger,
		WithAnalysisRuns(runs),
		WithAnalyzer(analyzer.New(analyzer.WithClock(analyzer.FixedDate(2025, time.March, 10, nil)))),
	)
	return fixture{svc: svc, runs: runs, contacts: contacts}
}

func TestAnalyze_UsesStoredDirectory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.contacts.Create(ctx, &entity.Contact{Name: "王五"}); err != nil {
		t.Fatalf("create contact: %v", err)
	}

	rec, err := f.svc.Analyze(ctx, "A1 找王五 800元", nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if rec.Contact != "王五" {
		t.Errorf("Contact = %q, want directory hit 王五", rec.Contact)
	}

	// an explicit empty directory disables the lookup
	rec, err = f.svc.Analyze(ctx, "A1 找王五 800元", []string{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if rec.Contact == "王五" {
		t.Error("explicit empty directory still matched the stored contact")
	}
}

func TestAnalyze_FinishesRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, text := range []string{"A1 800元 3月20日", "B2 开发费500", "C3 下周交"} {
		if _, err := f.svc.Analyze(ctx, text, nil); err != nil {
			t.Fatalf("Analyze(%q): %v", text, err)
		}
	}
	if _, err := f.svc.Analyze(ctx, "\ufeff", nil); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("Analyze(BOM) err = %v", err)
	}

	counts, err := f.runs.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if n := counts[string(constants.RunStatusRunning)]; n != 0 {
		t.Errorf("%d runs left RUNNING after Analyze", n)
	}
	if n := counts[string(constants.RunStatusAnalyzed)]; n != 3 {
		t.Errorf("ANALYZED runs = %d, want 3", n)
	}
	if n := counts[string(constants.RunStatusEmpty)]; n != 1 {
		t.Errorf("EMPTY runs = %d, want 1", n)
	}
}

func TestAnalyze_EmptyText(t *testing.T) {
	f := newFixture(t)
	for _, text := range []string{"", "  \n", "\ufeff"} {
		_, err := f.svc.Analyze(context.Background(), text, nil)
		if status.Code(err) != codes.InvalidArgument {
			t.Errorf("Analyze(%q) code = %v, want InvalidArgument", text, status.Code(err))
		}
	}
}

func TestAnalyzeAndCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	o, err := f.svc.AnalyzeAndCreate(ctx, "项目编号A123，开发费500，4月15日前，张老师", "notes.txt", "TEXT")
	if err != nil {
		t.Fatalf("AnalyzeAndCreate: %v", err)
	}
	if o.OrderNo != "A123" || o.EndDate != "2025-04-15" || o.StartDate != "2025-03-10" {
		t.Errorf("order = %+v", o)
	}
	if o.SourceText != "项目编号A123，开发费500，4月15日前，张老师" {
		t.Errorf("SourceText = %q", o.SourceText)
	}

	got, err := f.svc.GetOrder(ctx, o.ID.String())
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if got.Fee == nil || *got.Fee != 500 {
		t.Errorf("stored fee = %v", got.Fee)
	}
}

func TestProcess_ThroughQueue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	q := async.NewProcessorQueue(f.svc, slog.New(slog.NewTextHandler(io.Discard, nil)), async.WithWorkers(2))
	notes := []string{"A1 300元 4月1日", "B2 500元 5月2日", "   "}
	for i, text := range notes {
		if err := q.Enqueue(ctx, async.Job{Source: "notes.txt", Index: i, Text: text, Format: "TEXT"}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	q.Shutdown(ctx)

	st := q.Stats()
	if st.Processed != 2 || st.Failed != 1 {
		t.Errorf("queue stats = %+v, want 2 processed, 1 failed", st)
	}
	stats, err := f.svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("Total = %d, want 2", stats.Total)
	}
}

func TestUpdateOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	o, err := f.svc.AnalyzeAndCreate(ctx, "B77 300元 四月下旬", "", "")
	if err != nil {
		t.Fatalf("AnalyzeAndCreate: %v", err)
	}

	done := "已完成"
	contact := "李工"
	updated, err := f.svc.UpdateOrder(ctx, o.ID.String(), OrderPatch{Status: &done, Contact: &contact, ClearFee: true})
	if err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}
	if updated.Status != constants.OrderStatusCompleted || updated.Contact != "李工" || updated.Fee != nil {
		t.Errorf("updated = %+v", updated)
	}

	tests := []struct {
		name  string
		id    string
		patch OrderPatch
		want  codes.Code
	}{
		{"bad status", o.ID.String(), OrderPatch{Status: strPtr("pending")}, codes.InvalidArgument},
		{"fee out of range", o.ID.String(), OrderPatch{Fee: intPtr(20)}, codes.InvalidArgument},
		{"bad date", o.ID.String(), OrderPatch{EndDate: strPtr("2025-13-01")}, codes.InvalidArgument},
		{"bad id", "nope", OrderPatch{}, codes.InvalidArgument},
		{"missing", "6f1c2a8e-0000-4000-8000-000000000000", OrderPatch{}, codes.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UpdateOrder(ctx, tt.id, tt.patch)
			if status.Code(err) != tt.want {
				t.Fatalf("code = %v (%v), want %v", status.Code(err), err, tt.want)
			}
		})
	}
}

func TestListStatsSweep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, text := range []string{
		"A1 300元 3月1日",  // overdue on 2025-03-10
		"A2 300元 3月20日", // not yet due
		"A3 300元 4月1日",
	} {
		if _, err := f.svc.AnalyzeAndCreate(ctx, text, "", ""); err != nil {
			t.Fatalf("AnalyzeAndCreate(%q): %v", text, err)
		}
	}

	list, err := f.svc.ListOrders(ctx, ListOrdersRequest{FromDate: "2025-03-01", ToDate: "2025-03-31"})
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("ListOrders window = %d orders, want 2", len(list))
	}
	if _, err := f.svc.ListOrders(ctx, ListOrdersRequest{FromDate: "03/01"}); status.Code(err) != codes.InvalidArgument {
		t.Errorf("bad from_date code = %v", status.Code(err))
	}

	n, err := f.svc.SweepOverdue(ctx)
	if err != nil || n != 1 {
		t.Fatalf("SweepOverdue = %d, %v; want 1", n, err)
	}

	st, err := f.svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st != (entity.OrderStats{Total: 3, InProgress: 2, Abnormal: 1}) {
		t.Errorf("Stats = %+v", st)
	}

	abnormal, err := f.svc.ListOrders(ctx, ListOrdersRequest{Status: "异常"})
	if err != nil || len(abnormal) != 1 || abnormal[0].OrderNo != "A1" {
		t.Errorf("abnormal list = %v, %v", abnormal, err)
	}
}

func TestCreateOrderAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	o, err := f.svc.CreateOrder(ctx, &analyzer.Record{ID: "C5", EndDate: "2025-05-01"}, "manual")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if o.StartDate != "2025-03-10" || o.Status != constants.OrderStatusInProgress {
		t.Errorf("defaults not applied: %+v", o)
	}
	if _, err := f.svc.CreateOrder(ctx, &analyzer.Record{ID: "c5", EndDate: "2025-05-01"}, ""); status.Code(err) != codes.InvalidArgument {
		t.Errorf("lower-case id code = %v", status.Code(err))
	}

	if err := f.svc.DeleteOrder(ctx, o.ID.String()); err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}
	if _, err := f.svc.GetOrder(ctx, o.ID.String()); status.Code(err) != codes.NotFound {
		t.Errorf("GetOrder after delete code = %v", status.Code(err))
	}
}

func TestSweeper(t *testing.T) {
	f := newFixture(t)
	if _, err := NewSweeper(f.svc, "not a schedule", nil, nil); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
	sw, err := NewSweeper(f.svc, "@every 1h", time.UTC, nil)
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}
	sw.Start()
	if n := sw.RunOnce(context.Background()); n != 0 {
		t.Errorf("RunOnce on empty store = %d", n)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sw.Stop(ctx)
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
