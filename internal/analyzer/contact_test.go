package analyzer

import "testing"

func TestExtractContact(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		known    []string
		want     string
		wantRule string
	}{
		{"directory", "找李四确认 A1", []string{"王五", "李四"}, "李四", "directory"},
		{"directory order wins", "王五和李四", []string{"李四", "王五"}, "李四", "directory"},
		{"blank directory entries skipped", "A1 王工", []string{"", "  "}, "王工", "titled_name"},
		{"title suffix", "A123 500 张老师", nil, "张老师", "titled_name"},
		{"directory miss falls back", "张老师", []string{"李四"}, "张老师", "titled_name"},
		{"professor", "陈教授 下周", nil, "陈教授", "titled_name"},
		{"trailing token", "A1 500 alice", nil, "alice", "trailing_word"},
		{"trailing token keeps last five", "A1 bob_smith", nil, "smith", "trailing_word"},
		{"han run", "设计 王小明 x", nil, "王小明", "han_run"},
		{"nothing", "a", nil, "", ""},
		{"empty", "", []string{"李四"}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rule := extractContact(tt.text, tt.known)
			if got != tt.want {
				t.Errorf("extractContact(%q) = %q, want %q", tt.text, got, tt.want)
			}
			if rule != tt.wantRule {
				t.Errorf("extractContact(%q) rule = %q, want %q", tt.text, rule, tt.wantRule)
			}
		})
	}
}
