package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/orders-tracker/constants"
	"github.com/joseph-ayodele/orders-tracker/internal/analyzer"
)

// Order represents a stored order for data transfer between layers.
type Order struct {
	ID         uuid.UUID             `json:"id"`
	OrderNo    string                `json:"order_no"`
	Fee        *int                  `json:"fee"`
	StartDate  string                `json:"start_date"`
	EndDate    string                `json:"end_date"`
	Contact    string                `json:"contact"`
	Status     constants.OrderStatus `json:"status"`
	Remarks    string                `json:"remarks"`
	SourceText string                `json:"source_text,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// OrderFromRecord builds an unsaved Order from an analyzed record.
func OrderFromRecord(rec *analyzer.Record, source string) *Order {
	if rec == nil {
		return nil
	}
	o := &Order{
		OrderNo:    rec.ID,
		StartDate:  rec.StartDate,
		EndDate:    rec.EndDate,
		Contact:    rec.Contact,
		Status:     rec.Status,
		Remarks:    rec.Remarks,
		SourceText: source,
	}
	if rec.Fee != nil {
		fee := *rec.Fee
		o.Fee = &fee
	}
	return o
}

// Record returns the analyzer view of the order.
func (o *Order) Record() *analyzer.Record {
	rec := &analyzer.Record{
		ID:        o.OrderNo,
		StartDate: o.StartDate,
		EndDate:   o.EndDate,
		Contact:   o.Contact,
		Status:    o.Status,
		Remarks:   o.Remarks,
	}
	if o.Fee != nil {
		fee := *o.Fee
		rec.Fee = &fee
	}
	return rec
}

// Overdue reports whether an in-progress order is past its end date.
// today is YYYY-MM-DD; string order equals date order for that layout.
func (o *Order) Overdue(today string) bool {
	return o.Status == constants.OrderStatusInProgress && o.EndDate != "" && o.EndDate < today
}

// OrderStats counts orders per status.
type OrderStats struct {
	Total      int `json:"total"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Abnormal   int `json:"abnormal"`
}
