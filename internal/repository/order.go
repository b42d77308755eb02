package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/orders-tracker/constants"
	"github.com/joseph-ayodele/orders-tracker/internal/common"
	"github.com/joseph-ayodele/orders-tracker/internal/entity"
)

// ListFilter narrows ListOrders. Zero values mean "no constraint".
type ListFilter struct {
	Status  constants.OrderStatus
	FromDue string // inclusive, YYYY-MM-DD
	ToDue   string // inclusive, YYYY-MM-DD
	Contact string // substring match
	Limit   int
	Offset  int
}

type OrderRepository interface {
	Create(ctx context.Context, o *entity.Order) (*entity.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	GetByOrderNo(ctx context.Context, orderNo string) (*entity.Order, error)
	Update(ctx context.Context, o *entity.Order) (*entity.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ListFilter) ([]*entity.Order, error)
	CountByStatus(ctx context.Context) (map[constants.OrderStatus]int, error)
	MarkOverdue(ctx context.Context, today string) (int64, error)
}

var orderColumns = []string{
	"id", "order_no", "fee", "start_date", "end_date", "contact",
	"status", "remarks", "source_text", "created_at", "updated_at",
}

type orderRepository struct {
	db     *DB
	logger *slog.Logger
	now    func() time.Time
}

func NewOrderRepository(db *DB, logger *slog.Logger) OrderRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &orderRepository{db: db, logger: logger, now: time.Now}
}

func (r *orderRepository) Create(ctx context.Context, o *entity.Order) (*entity.Order, error) {
	out := *o
	if out.ID == uuid.Nil {
		out.ID = uuid.New()
	}
	if out.Status == "" {
		out.Status = constants.OrderStatusInProgress
	}
	now := r.now().UTC()
	out.CreatedAt, out.UpdatedAt = now, now

	q, args := r.db.builder().Insert(ordersTable).
		Columns(orderColumns...).
		Values(
			out.ID.String(), out.OrderNo, feeValue(out.Fee), out.StartDate, out.EndDate, out.Contact,
			string(out.Status), out.Remarks, out.SourceText, formatTime(out.CreatedAt), formatTime(out.UpdatedAt),
		).
		Query()
	if _, err := r.db.exec(ctx, q, args); err != nil {
		r.logger.Error("failed to create order", "order_no", out.OrderNo, "error", err)
		return nil, fmt.Errorf("create order: %w", err)
	}
	r.logger.Debug("order created", "id", out.ID, "order_no", out.OrderNo)
	return &out, nil
}

func (r *orderRepository) Get(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	return r.one(ctx, entsql.EQ("id", id.String()), "order "+id.String())
}

// GetByOrderNo returns the most recently created order with that number.
func (r *orderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*entity.Order, error) {
	return r.one(ctx, entsql.EQ("order_no", orderNo), "order "+orderNo)
}

func (r *orderRepository) one(ctx context.Context, p *entsql.Predicate, what string) (*entity.Order, error) {
	q, args := r.db.builder().Select(orderColumns...).
		From(entsql.Table(ordersTable)).
		Where(p).
		OrderBy(entsql.Desc("created_at")).
		Limit(1).
		Query()
	orders, err := r.scan(ctx, q, args)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%s: %w", what, common.ErrNotFound)
	}
	return orders[0], nil
}

func (r *orderRepository) Update(ctx context.Context, o *entity.Order) (*entity.Order, error) {
	out := *o
	out.UpdatedAt = r.now().UTC()
	q, args := r.db.builder().Update(ordersTable).
		Set("order_no", out.OrderNo).
		Set("fee", feeValue(out.Fee)).
		Set("start_date", out.StartDate).
		Set("end_date", out.EndDate).
		Set("contact", out.Contact).
		Set("status", string(out.Status)).
		Set("remarks", out.Remarks).
		Set("updated_at", formatTime(out.UpdatedAt)).
		Where(entsql.EQ("id", out.ID.String())).
		Query()
	n, err := r.db.exec(ctx, q, args)
	if err != nil {
		r.logger.Error("failed to update order", "id", out.ID, "error", err)
		return nil, fmt.Errorf("update order: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("order %s: %w", out.ID, common.ErrNotFound)
	}
	return &out, nil
}

func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	q, args := r.db.builder().Delete(ordersTable).Where(entsql.EQ("id", id.String())).Query()
	n, err := r.db.exec(ctx, q, args)
	if err != nil {
		r.logger.Error("failed to delete order", "id", id, "error", err)
		return fmt.Errorf("delete order: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("order %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// List returns orders by due date, then creation time.
func (r *orderRepository) List(ctx context.Context, f ListFilter) ([]*entity.Order, error) {
	sel := r.db.builder().Select(orderColumns...).From(entsql.Table(ordersTable))
	if f.Status != "" {
		sel.Where(entsql.EQ("status", string(f.Status)))
	}
	if f.FromDue != "" {
		sel.Where(entsql.GTE("end_date", f.FromDue))
	}
	if f.ToDue != "" {
		sel.Where(entsql.LTE("end_date", f.ToDue))
	}
	if f.Contact != "" {
		sel.Where(entsql.Contains("contact", f.Contact))
	}
	sel.OrderBy("end_date", "created_at")
	if f.Limit > 0 {
		sel.Limit(f.Limit)
	}
	if f.Offset > 0 {
		sel.Offset(f.Offset)
	}
	q, args := sel.Query()
	orders, err := r.scan(ctx, q, args)
	if err != nil {
		r.logger.Error("failed to list orders", "status", f.Status, "error", err)
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) CountByStatus(ctx context.Context) (map[constants.OrderStatus]int, error) {
	q, args := r.db.builder().Select("status", entsql.Count("*")).
		From(entsql.Table(ordersTable)).
		GroupBy("status").
		Query()
	rows, err := r.db.query(ctx, q, args)
	if err != nil {
		r.logger.Error("failed to count orders", "error", err)
		return nil, err
	}
	defer rows.Close()

	counts := make(map[constants.OrderStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[constants.OrderStatus(status)] = n
	}
	return counts, rows.Err()
}

// MarkOverdue flips in-progress orders whose end date is before today to abnormal.
func (r *orderRepository) MarkOverdue(ctx context.Context, today string) (int64, error) {
	q, args := r.db.builder().Update(ordersTable).
		Set("status", string(constants.OrderStatusAbnormal)).
		Set("updated_at", formatTime(r.now())).
		Where(entsql.And(
			entsql.EQ("status", string(constants.OrderStatusInProgress)),
			entsql.LT("end_date", today),
			entsql.NEQ("end_date", ""),
		)).
		Query()
	n, err := r.db.exec(ctx, q, args)
	if err != nil {
		r.logger.Error("failed to mark overdue orders", "today", today, "error", err)
		return 0, fmt.Errorf("mark overdue: %w", err)
	}
	return n, nil
}

func (r *orderRepository) scan(ctx context.Context, q string, args []any) ([]*entity.Order, error) {
	rows, err := r.db.query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Order
	for rows.Next() {
		var (
			o                    entity.Order
			id, status           string
			fee                  sql.NullInt64
			createdAt, updatedAt string
		)
		if err := rows.Scan(&id, &o.OrderNo, &fee, &o.StartDate, &o.EndDate, &o.Contact,
			&status, &o.Remarks, &o.SourceText, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("order id %q: %w", id, err)
		}
		o.ID = parsed
		o.Status = constants.OrderStatus(status)
		if fee.Valid {
			v := int(fee.Int64)
			o.Fee = &v
		}
		o.CreatedAt = parseTime(createdAt)
		o.UpdatedAt = parseTime(updatedAt)
		out = append(out, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return out, nil
}

func feeValue(fee *int) any {
	if fee == nil {
		return nil
	}
	return *fee
}
