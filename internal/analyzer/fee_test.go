package analyzer

import "testing"

func TestExtractFee(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		want     int // 0 means nil
		wantRule string
	}{
		{"labeled", "开发费500", 500, "labeled"},
		{"labeled with colon", "价格:1200 尽快", 1200, "labeled"},
		{"labeled out of range falls through", "价格:30 然后 800元", 800, "currency_suffix"},
		{"kuai suffix", "给300块", 300, "currency_suffix"},
		{"standalone", "预算 300 左右", 300, "standalone"},
		{"lower bound", "50元", 50, "currency_suffix"},
		{"upper bound", "10000元", 10000, "currency_suffix"},
		{"below range", "49元", 0, ""},
		{"above range", "10001元", 0, ""},
		{"labeled above range, no other number", "开发费 20000", 0, ""},
		{"huge number", "99999999999999999999999元", 0, ""},
		{"no number", "A123 张老师", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rule := extractFee(tt.text)
			switch {
			case tt.want == 0 && got != nil:
				t.Fatalf("extractFee(%q) = %d, want nil", tt.text, *got)
			case tt.want != 0 && got == nil:
				t.Fatalf("extractFee(%q) = nil, want %d", tt.text, tt.want)
			case tt.want != 0 && *got != tt.want:
				t.Fatalf("extractFee(%q) = %d, want %d", tt.text, *got, tt.want)
			}
			if rule != tt.wantRule {
				t.Errorf("extractFee(%q) rule = %q, want %q", tt.text, rule, tt.wantRule)
			}
		})
	}
}
