package ingest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSplitSnippets(t *testing.T) {
	tests := []struct {
		name    string
		content string
		format  string
		want    []string
	}{
		{
			name:    "paragraphs",
			content: "项目编号A123，开发费500\n张老师\n\n\nB77 300元\r\n\r\n  \n",
			format:  "TEXT",
			want:    []string{"项目编号A123，开发费500\n张老师", "B77 300元"},
		},
		{
			name:    "byte order mark",
			content: "\ufeffA1 尽快",
			format:  "TEXT",
			want:    []string{"A1 尽快"},
		},
		{
			name:    "markdown",
			content: "# 三月订单\n\n- A1 300元\n\n1. B2 500元 张老师\n\n```\n",
			format:  "MARKDOWN",
			want:    []string{"A1 300元", "B2 500元 张老师"},
		},
		{
			name:    "ideographic blank line",
			content: "A1\n\u3000\nB2",
			format:  "TEXT",
			want:    []string{"A1", "B2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSnippets(tt.content, tt.format)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("SplitSnippets = %q, want %q", got, tt.want)
			}
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestIngestDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "A1 300元\n\nB2 500元")
	writeFile(t, filepath.Join(root, "sub", "b.md"), "# notes\n\n- C3 800元\n\nA1 300元")
	writeFile(t, filepath.Join(root, ".hidden", "c.txt"), "D4 100元")
	writeFile(t, filepath.Join(root, "image.png"), "not text")

	ing := NewFSIngestor(slog.New(slog.NewTextHandler(io.Discard, nil)))
	snippets, results, stats, err := ing.IngestDirectory(context.Background(), root, true)
	if err != nil {
		t.Fatalf("IngestDirectory: %v", err)
	}

	if stats.Matched != 2 || stats.Succeeded != 2 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}
	// "A1 300元" appears in both files
	if stats.Snippets != 3 || stats.Deduplicated != 1 {
		t.Errorf("snippet stats = %+v", stats)
	}
	if len(snippets) != 3 || len(results) != 2 {
		t.Fatalf("snippets = %d, results = %d", len(snippets), len(results))
	}
	for _, s := range snippets {
		if strings.Contains(s.Text, "D4") {
			t.Error("hidden directory was not skipped")
		}
		if len(s.HashHex) != 64 {
			t.Errorf("HashHex = %q", s.HashHex)
		}
		if strings.HasSuffix(s.SourcePath, ".md") && s.Format != "MARKDOWN" {
			t.Errorf("format = %q for %s", s.Format, s.SourcePath)
		}
	}

	// re-ingesting with the same ingestor yields nothing new
	again, _, stats, _ := ing.IngestDirectory(context.Background(), root, true)
	if len(again) != 0 || stats.Deduplicated != 4 {
		t.Errorf("second pass = %d snippets, stats %+v", len(again), stats)
	}
}

func TestIngestPath_Rejects(t *testing.T) {
	root := t.TempDir()
	png := filepath.Join(root, "x.png")
	writeFile(t, png, "x")

	ing := NewFSIngestor(nil)
	if _, _, err := ing.IngestPath(context.Background(), png); err == nil {
		t.Error("expected unsupported extension error")
	}
	if _, _, err := ing.IngestPath(context.Background(), filepath.Join(root, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, _, _, err := ing.IngestDirectory(context.Background(), " ", false); err == nil {
		t.Error("expected error for blank root")
	}
}

func TestStartWatcher(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "existing.txt"), "A1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{root},
		InitialScan: true,
		Debounce:    20 * time.Millisecond,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("StartWatcher: %v", err)
	}

	expect := func(suffix string) {
		t.Helper()
		timeout := time.After(3 * time.Second)
		for {
			select {
			case p := <-events:
				if strings.HasSuffix(p, suffix) {
					return
				}
			case <-timeout:
				t.Fatalf("no event for %s", suffix)
			}
		}
	}
	expect("existing.txt")

	writeFile(t, filepath.Join(root, "new.md"), "B2")
	writeFile(t, filepath.Join(root, "ignored.png"), "x")
	expect("new.md")

	cancel()
	for range events {
	}
}
