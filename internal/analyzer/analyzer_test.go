package analyzer

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joseph-ayodele/orders-tracker/constants"
)

func newTestAnalyzer() *Analyzer {
	return New(WithClock(FixedDate(2025, time.March, 10, nil)))
}

func TestAnalyze_BlankInput(t *testing.T) {
	a := newTestAnalyzer()
	for _, in := range []string{"", "   ", "\t\n", "\u3000", "\ufeff \ufeff"} {
		if rec := a.Analyze(in, nil); rec != nil {
			t.Errorf("Analyze(%q) = %+v, want nil", in, rec)
		}
	}
	if rec := AnalyzeOrderText(""); rec != nil {
		t.Errorf("AnalyzeOrderText(\"\") = %+v, want nil", rec)
	}
}

func TestAnalyze_Scenarios(t *testing.T) {
	a := newTestAnalyzer()

	tests := []struct {
		name     string
		text     string
		contacts []string
		want     Record
	}{
		{
			name: "fully labeled",
			text: "项目编号A123，开发费500，4月15日前，张老师",
			want: Record{
				ID: "A123", Fee: intPtr(500), StartDate: "2025-03-10", EndDate: "2025-04-15",
				Contact: "张老师", Status: constants.OrderStatusInProgress, Remarks: "前",
			},
		},
		{
			name: "month period with currency",
			text: "四月下旬完成，B77，300元",
			want: Record{
				ID: "B77", Fee: intPtr(300), StartDate: "2025-03-10", EndDate: "2025-04-25",
				Contact: "300元", Status: constants.OrderStatusInProgress, Remarks: "完成",
			},
		},
		{
			name:     "directory contact",
			text:     "A1 找王五 800元",
			contacts: []string{"王五"},
			want: Record{
				ID: "A1", Fee: intPtr(800), StartDate: "2025-03-10", EndDate: "2025-03-25",
				Contact: "王五", Status: constants.OrderStatusInProgress, Remarks: "找",
			},
		},
		{
			name: "short token becomes the contact",
			text: "尽快",
			want: Record{
				StartDate: "2025-03-10", EndDate: "2025-03-25",
				Contact: "尽快", Status: constants.OrderStatusInProgress,
			},
		},
		{
			name: "nothing extractable",
			text: "急",
			want: Record{
				StartDate: "2025-03-10", EndDate: "2025-03-25",
				Status: constants.OrderStatusInProgress, Remarks: "急",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.text, tt.contacts)
			if got == nil {
				t.Fatal("Analyze returned nil")
			}
			gotJSON, _ := json.Marshal(got)
			wantJSON, _ := json.Marshal(tt.want)
			if string(gotJSON) != string(wantJSON) {
				t.Errorf("Analyze(%q)\n got  %s\n want %s", tt.text, gotJSON, wantJSON)
			}
		})
	}
}

func TestExplain_RuleNames(t *testing.T) {
	_, tr := newTestAnalyzer().Explain("项目编号A123，开发费500，4月15日前，张老师", nil)

	if tr.Normalized != "项目编号A123 开发费500 4月15日前 张老师" {
		t.Errorf("Normalized = %q", tr.Normalized)
	}
	if tr.IDRule != "labeled" || tr.FeeRule != "labeled" {
		t.Errorf("id/fee rules = %q/%q, want labeled/labeled", tr.IDRule, tr.FeeRule)
	}
	if tr.DateRule != "chinese_month_day" {
		t.Errorf("DateRule = %q", tr.DateRule)
	}
	if tr.ContactRule != "titled_name" {
		t.Errorf("ContactRule = %q", tr.ContactRule)
	}
}

func TestRecord_JSONShape(t *testing.T) {
	rec := newTestAnalyzer().Analyze("急", nil)
	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, key := range []string{`"id":""`, `"fee":null`, `"startDate":"2025-03-10"`, `"endDate":"2025-03-25"`, `"contact":""`, `"status":"in-progress"`, `"remarks":`} {
		if !strings.Contains(s, key) {
			t.Errorf("JSON %s missing %s", s, key)
		}
	}
}

func TestAnalyze_Concurrent(t *testing.T) {
	a := newTestAnalyzer()
	want := a.Analyze("项目编号A123，开发费500，4月15日前，张老师", nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := a.Analyze("项目编号A123，开发费500，4月15日前，张老师", nil)
			if got.ID != want.ID || got.EndDate != want.EndDate || *got.Fee != *want.Fee {
				t.Errorf("concurrent Analyze = %+v, want %+v", got, want)
			}
		}()
	}
	wg.Wait()
}

func TestAnalyze_ClockLocation(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	// 2025-03-31 20:00 UTC is already April 1st in UTC+8
	clock := FixedClock{T: time.Date(2025, time.March, 31, 20, 0, 0, 0, time.UTC).In(loc)}
	rec := New(WithClock(clock)).Analyze("A1", nil)
	if rec.StartDate != "2025-04-01" {
		t.Errorf("StartDate = %q, want 2025-04-01", rec.StartDate)
	}
}
