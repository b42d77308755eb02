package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/joseph-ayodele/orders-tracker/internal/analyzer"
	"github.com/joseph-ayodele/orders-tracker/internal/orders"
	"github.com/joseph-ayodele/orders-tracker/internal/repository"
)

func setupServer(t *testing.T) *server.MCPServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repository.OpenMemory(context.Background(), logger)
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(db.Close)

	svc := orders.NewService(
		repository.NewOrderRepository(db, logger),
		repository.NewContactRepository(db, logger),
		logger,
		orders.WithAnalyzer(analyzer.New(analyzer.WithClock(analyzer.FixedDate(2025, time.March, 10, nil)))),
	)
	return NewServer(ServerConfig{Orders: svc, Version: "test"})
}

type toolResult struct {
	Text    string
	IsError bool
}

func callTool(t *testing.T, srv *server.MCPServer, name string, args map[string]any) toolResult {
	t.Helper()
	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	respBytes, err := json.Marshal(srv.HandleMessage(context.Background(), msg))
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	var resp struct {
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("unmarshal response: %v\nraw: %s", err, respBytes)
	}
	if resp.Error != nil {
		t.Fatalf("JSON-RPC error: %d %s", resp.Error.Code, resp.Error.Message)
	}
	if len(resp.Result.Content) == 0 {
		t.Fatal("no content in result")
	}
	return toolResult{Text: resp.Result.Content[0].Text, IsError: resp.Result.IsError}
}

func TestAnalyzeOrderText(t *testing.T) {
	srv := setupServer(t)

	res := callTool(t, srv, "analyze_order_text", map[string]any{"text": "项目编号A123，开发费500，4月15日前，张老师"})
	if res.IsError {
		t.Fatalf("tool error: %s", res.Text)
	}
	var rec analyzer.Record
	if err := json.Unmarshal([]byte(res.Text), &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if rec.ID != "A123" || rec.Fee == nil || *rec.Fee != 500 || rec.EndDate != "2025-04-15" || rec.Contact != "张老师" {
		t.Errorf("record = %+v", rec)
	}

	res = callTool(t, srv, "analyze_order_text", map[string]any{"text": "B7 找王五", "contacts": "李四, 王五"})
	if !strings.Contains(res.Text, `"contact": "王五"`) {
		t.Errorf("directory contact not used: %s", res.Text)
	}

	res = callTool(t, srv, "analyze_order_text", map[string]any{"text": " "})
	if !res.IsError {
		t.Errorf("blank text should be a tool error, got %s", res.Text)
	}
}

func TestCreateListStats(t *testing.T) {
	srv := setupServer(t)

	for _, text := range []string{"A1 300元 4月1日", "B2 600元 5月2日 张老师"} {
		res := callTool(t, srv, "create_order_from_text", map[string]any{"text": text})
		if res.IsError {
			t.Fatalf("create %q: %s", text, res.Text)
		}
	}

	res := callTool(t, srv, "list_orders", map[string]any{"contact": "张老师"})
	var listed struct {
		Orders []map[string]any `json:"orders"`
		Count  int              `json:"count"`
	}
	if err := json.Unmarshal([]byte(res.Text), &listed); err != nil {
		t.Fatalf("decode list: %v (%s)", err, res.Text)
	}
	if listed.Count != 1 || listed.Orders[0]["order_no"] != "B2" {
		t.Errorf("list = %+v", listed)
	}

	res = callTool(t, srv, "list_orders", map[string]any{"status": "bogus"})
	if !res.IsError {
		t.Errorf("unknown status should be a tool error, got %s", res.Text)
	}

	res = callTool(t, srv, "order_stats", map[string]any{})
	if !strings.Contains(res.Text, `"total": 2`) || !strings.Contains(res.Text, `"in_progress": 2`) {
		t.Errorf("stats = %s", res.Text)
	}
}

func TestStatsResource(t *testing.T) {
	srv := setupServer(t)
	msg, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      2,
		"method":  "resources/read",
		"params":  map[string]any{"uri": "orders://stats"},
	})
	respBytes, _ := json.Marshal(srv.HandleMessage(context.Background(), msg))

	var raw struct {
		Result struct {
			Contents []struct {
				URI  string `json:"uri"`
				Text string `json:"text"`
			} `json:"contents"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBytes, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(raw.Result.Contents) != 1 || !strings.Contains(raw.Result.Contents[0].Text, `"today": "2025-03-10"`) {
		t.Errorf("resource = %s", respBytes)
	}
}
