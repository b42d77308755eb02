package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/orders-tracker/constants"
	"github.com/joseph-ayodele/orders-tracker/internal/analyzer"
	"github.com/joseph-ayodele/orders-tracker/internal/async"
	"github.com/joseph-ayodele/orders-tracker/internal/common"
	"github.com/joseph-ayodele/orders-tracker/internal/entity"
	"github.com/joseph-ayodele/orders-tracker/internal/repository"
)

// Service handles order business logic.
type Service struct {
	orderRepo   repository.OrderRepository
	contactRepo repository.ContactRepository
	runRepo     repository.AnalysisRunRepository
	analyzer    *analyzer.Analyzer
	logger      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithAnalysisRuns records every analysis in the analysis_runs table.
func WithAnalysisRuns(runs repository.AnalysisRunRepository) Option {
	return func(s *Service) { s.runRepo = runs }
}

// WithAnalyzer replaces the default system-clock analyzer.
func WithAnalyzer(a *analyzer.Analyzer) Option {
	return func(s *Service) {
		if a != nil {
			s.analyzer = a
		}
	}
}

// NewService creates a new order service.
func NewService(orderRepo repository.OrderRepository, contactRepo repository.ContactRepository, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		orderRepo:   orderRepo,
		contactRepo: contactRepo,
		analyzer:    analyzer.New(),
		logger:      logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Today is the analyzer's current date, YYYY-MM-DD.
func (s *Service) Today() string { return s.analyzer.Today() }

// Analyze extracts a record from text without storing an order. A nil
// contacts slice means "use the stored directory". The analysis run is
// finished as analyzed with no order attached.
func (s *Service) Analyze(ctx context.Context, text string, contacts []string) (*analyzer.Record, error) {
	rec, run, err := s.analyze(ctx, text, contacts, "inline", "INLINE")
	if err != nil {
		return nil, err
	}
	s.finishOK(ctx, run, rec, nil)
	return rec, nil
}

func (s *Service) analyze(ctx context.Context, text string, contacts []string, source, format string) (*analyzer.Record, *entity.AnalysisRun, error) {
	if strings.TrimSpace(text) == "" {
		s.logger.Warn("orders.analyze.empty", "source", source)
		return nil, nil, status.Error(codes.InvalidArgument, "text is required")
	}

	if contacts == nil && s.contactRepo != nil {
		names, err := s.contactRepo.Names(ctx)
		if err != nil {
			s.logger.Error("failed to load contact directory", "error", err)
			return nil, nil, status.Errorf(codes.Internal, "load contacts: %v", err)
		}
		contacts = names
	}

	var run *entity.AnalysisRun
	if s.runRepo != nil {
		r, err := s.runRepo.Start(ctx, source, format, text)
		if err != nil {
			return nil, nil, status.Errorf(codes.Internal, "start analysis run: %v", err)
		}
		run = r
	}

	rec, tr := s.analyzer.Explain(text, contacts)
	if rec == nil {
		// whitespace the trim above did not catch, e.g. a lone BOM
		s.finishEmpty(ctx, run)
		return nil, nil, status.Error(codes.InvalidArgument, "text has no content")
	}
	if err := analyzer.ValidateRecord(rec); err != nil {
		s.logger.Error("orders.analyze.invalid", "source", source, "error", err)
		s.finishFailure(ctx, run, err.Error())
		return nil, nil, status.Errorf(codes.Internal, "analyzed record invalid: %v", err)
	}

	s.logger.Info("orders.analyze.ok",
		"source", source,
		"order_no", rec.ID,
		"id_rule", tr.IDRule,
		"date_rule", tr.DateRule,
		"fee_rule", tr.FeeRule,
		"contact_rule", tr.ContactRule,
	)
	return rec, run, nil
}

// AnalyzeAndCreate analyzes text and stores the result as a new order.
func (s *Service) AnalyzeAndCreate(ctx context.Context, text, source, format string) (*entity.Order, error) {
	if source == "" {
		source = "inline"
	}
	if format == "" {
		format = "INLINE"
	}
	rec, run, err := s.analyze(ctx, text, nil, source, format)
	if err != nil {
		return nil, err
	}

	o, err := s.orderRepo.Create(ctx, entity.OrderFromRecord(rec, text))
	if err != nil {
		s.finishFailure(ctx, run, err.Error())
		return nil, status.Errorf(codes.Internal, "create order: %v", err)
	}
	s.finishOK(ctx, run, rec, &o.ID)
	s.logger.Info("orders.create.ok", "id", o.ID, "order_no", o.OrderNo, "source", source)
	return o, nil
}

// Process stores one queued note as an order. It satisfies async.Processor.
func (s *Service) Process(ctx context.Context, job async.Job) error {
	if job.TraceID != "" {
		ctx = common.WithRequestID(ctx, job.TraceID)
	}
	source := job.Source
	if job.Index > 0 {
		source = fmt.Sprintf("%s#%d", job.Source, job.Index)
	}
	_, err := s.AnalyzeAndCreate(ctx, job.Text, source, job.Format)
	return err
}

func (s *Service) finishOK(ctx context.Context, run *entity.AnalysisRun, rec *analyzer.Record, orderID *uuid.UUID) {
	if run == nil {
		return
	}
	if err := s.runRepo.FinishOK(ctx, run.ID, rec, orderID); err != nil {
		s.logger.Warn("failed to finish analysis run", "run_id", run.ID, "error", err)
	}
}

func (s *Service) finishEmpty(ctx context.Context, run *entity.AnalysisRun) {
	if run == nil {
		return
	}
	if err := s.runRepo.FinishEmpty(ctx, run.ID); err != nil {
		s.logger.Warn("failed to finish analysis run", "run_id", run.ID, "error", err)
	}
}

func (s *Service) finishFailure(ctx context.Context, run *entity.AnalysisRun, msg string) {
	if run == nil {
		return
	}
	if err := s.runRepo.FinishFailure(ctx, run.ID, msg); err != nil {
		s.logger.Warn("failed to finish analysis run", "run_id", run.ID, "error", err)
	}
}

// CreateOrder stores a caller-supplied record, e.g. one reviewed after Analyze.
func (s *Service) CreateOrder(ctx context.Context, rec *analyzer.Record, source string) (*entity.Order, error) {
	if rec == nil {
		return nil, status.Error(codes.InvalidArgument, "record is required")
	}
	o := entity.OrderFromRecord(rec, source)
	if o.StartDate == "" {
		o.StartDate = s.Today()
	}
	if o.Status == "" {
		o.Status = constants.OrderStatusInProgress
	}
	if err := validateOrder(o); err != nil {
		return nil, err
	}
	created, err := s.orderRepo.Create(ctx, o)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "create order: %v", err)
	}
	s.logger.Info("orders.create.ok", "id", created.ID, "order_no", created.OrderNo, "source", "record")
	return created, nil
}

// GetOrder returns one order by UUID.
func (s *Service) GetOrder(ctx context.Context, id string) (*entity.Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	o, err := s.orderRepo.Get(ctx, oid)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return o, nil
}

// OrderPatch is a partial update; nil fields are left unchanged.
type OrderPatch struct {
	OrderNo   *string
	Fee       *int
	ClearFee  bool
	StartDate *string
	EndDate   *string
	Contact   *string
	Status    *string
	Remarks   *string
}

// UpdateOrder applies patch to the stored order.
func (s *Service) UpdateOrder(ctx context.Context, id string, patch OrderPatch) (*entity.Order, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	o, err := s.orderRepo.Get(ctx, oid)
	if err != nil {
		return nil, common.ToStatus(err)
	}

	if patch.OrderNo != nil {
		o.OrderNo = strings.ToUpper(strings.TrimSpace(*patch.OrderNo))
	}
	switch {
	case patch.ClearFee:
		o.Fee = nil
	case patch.Fee != nil:
		fee := *patch.Fee
		o.Fee = &fee
	}
	if patch.StartDate != nil {
		o.StartDate = strings.TrimSpace(*patch.StartDate)
	}
	if patch.EndDate != nil {
		o.EndDate = strings.TrimSpace(*patch.EndDate)
	}
	if patch.Contact != nil {
		o.Contact = strings.TrimSpace(*patch.Contact)
	}
	if patch.Remarks != nil {
		o.Remarks = *patch.Remarks
	}
	if patch.Status != nil {
		st, ok := constants.CanonicalizeStatus(*patch.Status)
		if !ok {
			return nil, status.Errorf(codes.InvalidArgument, "unknown status %q", *patch.Status)
		}
		o.Status = st
	}

	if err := validateOrder(o); err != nil {
		return nil, err
	}
	updated, err := s.orderRepo.Update(ctx, o)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	s.logger.Info("orders.update.ok", "id", updated.ID, "status", updated.Status)
	return updated, nil
}

// DeleteOrder removes an order.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.orderRepo.Delete(ctx, oid); err != nil {
		return common.ToStatus(err)
	}
	s.logger.Info("orders.delete.ok", "id", oid)
	return nil
}

// ListOrdersRequest represents order listing parameters.
type ListOrdersRequest struct {
	Status   string
	FromDate string
	ToDate   string
	Contact  string
	Limit    int
	Offset   int
}

// ListOrders returns orders matching req, by due date.
func (s *Service) ListOrders(ctx context.Context, req ListOrdersRequest) ([]*entity.Order, error) {
	f, err := req.Filter()
	if err != nil {
		return nil, err
	}
	list, err := s.orderRepo.List(ctx, f)
	if err != nil {
		s.logger.Error("failed to list orders", "error", err)
		return nil, status.Errorf(codes.Internal, "list orders: %v", err)
	}
	s.logger.Info("orders listed successfully", "status", f.Status, "count", len(list))
	return list, nil
}

// Filter validates req and converts it to a repository filter.
func (req ListOrdersRequest) Filter() (repository.ListFilter, error) {
	v := common.NewValidator().
		Field("from_date", req.FromDate, common.ISODate).
		Field("to_date", req.ToDate, common.ISODate)
	if v.HasErrors() {
		return repository.ListFilter{}, status.Error(codes.InvalidArgument, v.ErrorMessage())
	}
	f := repository.ListFilter{
		FromDue: req.FromDate,
		ToDue:   req.ToDate,
		Contact: strings.TrimSpace(req.Contact),
		Limit:   req.Limit,
		Offset:  req.Offset,
	}
	if strings.TrimSpace(req.Status) != "" {
		st, ok := constants.CanonicalizeStatus(req.Status)
		if !ok {
			return repository.ListFilter{}, status.Errorf(codes.InvalidArgument, "unknown status %q", req.Status)
		}
		f.Status = st
	}
	return f, nil
}

// Stats counts orders per status.
func (s *Service) Stats(ctx context.Context) (entity.OrderStats, error) {
	counts, err := s.orderRepo.CountByStatus(ctx)
	if err != nil {
		return entity.OrderStats{}, status.Errorf(codes.Internal, "count orders: %v", err)
	}
	st := entity.OrderStats{
		InProgress: counts[constants.OrderStatusInProgress],
		Completed:  counts[constants.OrderStatusCompleted],
		Abnormal:   counts[constants.OrderStatusAbnormal],
	}
	for _, n := range counts {
		st.Total += n
	}
	return st, nil
}

// SweepOverdue marks in-progress orders past their end date as abnormal.
func (s *Service) SweepOverdue(ctx context.Context) (int64, error) {
	today := s.Today()
	n, err := s.orderRepo.MarkOverdue(ctx, today)
	if err != nil {
		return 0, status.Errorf(codes.Internal, "sweep overdue: %v", err)
	}
	s.logger.Info("orders.sweep.ok", "today", today, "marked", n)
	return n, nil
}

func parseID(id string) (uuid.UUID, error) {
	if strings.TrimSpace(id) == "" {
		return uuid.Nil, status.Error(codes.InvalidArgument, "id is required")
	}
	oid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, status.Error(codes.InvalidArgument, "id must be a UUID")
	}
	return oid, nil
}

func validateOrder(o *entity.Order) error {
	v := common.NewValidator().
		Field("start_date", o.StartDate, common.Required, common.ISODate).
		Field("end_date", o.EndDate, common.Required, common.ISODate).
		Field("fee", o.Fee, common.FeeRange(analyzer.MinFee, analyzer.MaxFee)).
		Field("order_no", o.OrderNo, common.MaxLength(64)).
		Field("contact", o.Contact, common.MaxLength(64)).
		Field("status", string(o.Status), common.OneOf(constants.OrderStatusStrings()...))
	if err := v.Error(); err != nil {
		return status.Error(codes.InvalidArgument, v.ErrorMessage())
	}
	if err := analyzer.ValidateRecord(o.Record()); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}
