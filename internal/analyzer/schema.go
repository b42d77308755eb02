package analyzer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/orders-tracker/constants"
)

// RecordSchema returns the JSON Schema a Record must satisfy, as a generic map.
func RecordSchema() map[string]any {
	date := map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"id":        map[string]any{"type": "string", "pattern": `^[A-Z0-9]*$`},
			"fee":       map[string]any{"type": []any{"integer", "null"}, "minimum": MinFee, "maximum": MaxFee},
			"startDate": date,
			"endDate":   date,
			"contact":   map[string]any{"type": "string"},
			"status":    map[string]any{"type": "string", "enum": constants.OrderStatusStrings()},
			"remarks":   map[string]any{"type": "string"},
		},
		"required": []string{"id", "fee", "startDate", "endDate", "contact", "status", "remarks"},
	}
}

var compiledRecordSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	b, err := json.Marshal(RecordSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("record.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("record.json")
})

// ValidateRecord checks rec against RecordSchema. Dates are additionally
// required to be real calendar days.
func ValidateRecord(rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record is nil")
	}
	schema, err := compiledRecordSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("record does not match schema: %w", err)
	}
	for _, d := range []string{rec.StartDate, rec.EndDate} {
		if _, err := ParseDate(d, nil); err != nil {
			return fmt.Errorf("invalid date %q: %w", d, err)
		}
	}
	return nil
}
