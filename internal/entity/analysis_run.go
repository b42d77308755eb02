package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AnalysisRun records one pass of the analyzer over a piece of text.
type AnalysisRun struct {
	ID           uuid.UUID       `json:"id"`
	OrderID      *uuid.UUID      `json:"order_id,omitempty"`
	Source       string          `json:"source"`
	Format       string          `json:"format"`
	InputText    string          `json:"input_text"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
	Status       string          `json:"status"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	ResultJSON   json.RawMessage `json:"result_json,omitempty"`
}
