package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		stdin    string
		contacts string
		want     []string
	}{
		{
			name: "flag text",
			text: "项目编号A123，开发费500，4月15日前，张老师",
			want: []string{`"id": "A123"`, `"fee": 500`, `"endDate": "2025-04-15"`, `"contact": "张老师"`, `"startDate": "2025-03-10"`},
		},
		{
			name:     "stdin with directory",
			stdin:    "B7 找王五\n",
			contacts: "李四,王五",
			want:     []string{`"id": "B7"`, `"fee": null`, `"contact": "王五"`, `"endDate": "2025-03-25"`},
		},
		{
			name:  "blank input",
			stdin: "  \n",
			want:  []string{"null"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(tt.text, tt.contacts, "2025-03-10", "", true, strings.NewReader(tt.stdin), &stdout, &stderr)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(stdout.String(), w) {
					t.Errorf("output missing %s:\n%s", w, stdout.String())
				}
			}
			if !strings.Contains(stderr.String(), "normalized=") {
				t.Errorf("trace not printed: %q", stderr.String())
			}
		})
	}
}

func TestRun_BadFlags(t *testing.T) {
	var out bytes.Buffer
	if err := run("A1", "", "2025/03/10", "", false, nil, &out, &out); err == nil {
		t.Error("expected error for bad -today")
	}
	if err := run("A1", "", "", "Mars/Olympus", false, nil, &out, &out); err == nil {
		t.Error("expected error for bad -tz")
	}
}
