package utils

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/orders-tracker/internal/analyzer"
	"github.com/joseph-ayodele/orders-tracker/internal/entity"
)

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func feeValue(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

// RecordMap is the wire form of an analyzed record, keyed as the JSON output.
func RecordMap(r *analyzer.Record) map[string]any {
	return map[string]any{
		"id":        r.ID,
		"fee":       feeValue(r.Fee),
		"startDate": r.StartDate,
		"endDate":   r.EndDate,
		"contact":   r.Contact,
		"status":    string(r.Status),
		"remarks":   r.Remarks,
	}
}

func OrderMap(o *entity.Order) map[string]any {
	return map[string]any{
		"id":           o.ID.String(),
		"order_no":     o.OrderNo,
		"fee":          feeValue(o.Fee),
		"start_date":   o.StartDate,
		"end_date":     o.EndDate,
		"contact":      o.Contact,
		"status":       string(o.Status),
		"status_label": o.Status.Label(),
		"remarks":      o.Remarks,
		"source_text":  o.SourceText,
		"created_at":   o.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":   o.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func ContactMap(c *entity.Contact) map[string]any {
	return map[string]any{
		"id":         c.ID.String(),
		"name":       c.Name,
		"phone":      strOrEmpty(c.Phone),
		"note":       strOrEmpty(c.Note),
		"priority":   c.Priority,
		"created_at": c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func StatsMap(s entity.OrderStats) map[string]any {
	return map[string]any{
		"total":       s.Total,
		"in_progress": s.InProgress,
		"completed":   s.Completed,
		"abnormal":    s.Abnormal,
	}
}

func ToPBRecord(r *analyzer.Record) (*structpb.Struct, error) {
	return structpb.NewStruct(RecordMap(r))
}

func ToPBOrder(o *entity.Order) (*structpb.Struct, error) {
	return structpb.NewStruct(OrderMap(o))
}

func ToPBContact(c *entity.Contact) (*structpb.Struct, error) {
	return structpb.NewStruct(ContactMap(c))
}

// ToRecord decodes a record sent as a struct, using the record's JSON keys.
func ToRecord(s *structpb.Struct) (*analyzer.Record, error) {
	if s == nil {
		return nil, fmt.Errorf("record is required")
	}
	raw, err := json.Marshal(s.AsMap())
	if err != nil {
		return nil, err
	}
	var rec analyzer.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}
