// Package analyzer turns short free-form order notes, mixed Chinese and English,
// into structured order records. Extraction is deterministic and best effort:
// every field has ordered fallbacks and a default.
package analyzer

import (
	"strings"
	"time"

	"github.com/joseph-ayodele/orders-tracker/constants"
)

// Record is the structured view of one order note.
type Record struct {
	ID        string                `json:"id"`
	Fee       *int                  `json:"fee"`
	StartDate string                `json:"startDate"`
	EndDate   string                `json:"endDate"`
	Contact   string                `json:"contact"`
	Status    constants.OrderStatus `json:"status"`
	Remarks   string                `json:"remarks"`
}

// Trace names the rule that produced each field. An empty name means the
// field fell through every rule.
type Trace struct {
	Normalized  string `json:"normalized"`
	IDRule      string `json:"idRule"`
	DateRule    string `json:"dateRule"`
	FeeRule     string `json:"feeRule"`
	ContactRule string `json:"contactRule"`
}

// Analyzer extracts records. The zero value is not usable; call New.
type Analyzer struct {
	clock Clock
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithClock sets the time source used for start dates and date defaults.
func WithClock(c Clock) Option {
	return func(a *Analyzer) {
		if c != nil {
			a.clock = c
		}
	}
}

// New creates an Analyzer using the system clock unless overridden.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{clock: SystemClock{}}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze extracts a record from raw. contacts is the known-contact directory,
// consulted in order. It returns nil when raw is empty or only whitespace.
func (a *Analyzer) Analyze(raw string, contacts []string) *Record {
	rec, _ := a.Explain(raw, contacts)
	return rec
}

// Explain is Analyze plus the names of the rules that fired.
func (a *Analyzer) Explain(raw string, contacts []string) (*Record, Trace) {
	if strings.TrimFunc(raw, isSpace) == "" {
		return nil, Trace{}
	}
	now := a.clock.Now()
	text := Normalize(raw)

	tr := Trace{Normalized: text}
	rec := &Record{
		StartDate: now.Format(isoDate),
		Status:    constants.OrderStatusInProgress,
	}
	rec.ID, tr.IDRule = extractID(text)
	rec.EndDate, tr.DateRule = extractEndDate(text, now)
	rec.Fee, tr.FeeRule = extractFee(text)
	rec.Contact, tr.ContactRule = extractContact(text, contacts)
	rec.Remarks = ExtractRemarks(text, rec)
	return rec, tr
}

var defaultAnalyzer = New()

// AnalyzeOrderText analyzes raw with the system clock.
func AnalyzeOrderText(raw string, contacts ...string) *Record {
	return defaultAnalyzer.Analyze(raw, contacts)
}

// Today returns the analyzer's current date as YYYY-MM-DD.
func (a *Analyzer) Today() string {
	return a.clock.Now().Format(isoDate)
}

// ParseDate parses a YYYY-MM-DD date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(isoDate, s, loc)
}
