// Package mcp exposes order analysis and the order store as Model Context
// Protocol tools, served over stdio by cmd/orders-mcp.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/orders-tracker/constants"
	"github.com/joseph-ayodele/orders-tracker/internal/common"
	"github.com/joseph-ayodele/orders-tracker/internal/orders"
	"github.com/joseph-ayodele/orders-tracker/internal/utils"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Orders  *orders.Service
	Version string // version string for MCP server info
}

// NewServer creates an MCP server with the order tools and the stats resource.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"orders-tracker",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	registerAnalyzeTool(s, cfg.Orders)
	registerCreateTool(s, cfg.Orders)
	registerListTool(s, cfg.Orders)
	registerStatsTool(s, cfg.Orders)

	registerStatsResource(s, cfg.Orders)
	return s
}

// Serve runs the server on stdin/stdout until the input closes.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func toolError(prefix string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %s", prefix, status.Convert(err).Message()))
}

func jsonResult(v any) *mcp.CallToolResult {
	data, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(data))
}

// --- Tools ---

func registerAnalyzeTool(s *server.MCPServer, svc *orders.Service) {
	tool := mcp.NewTool("analyze_order_text",
		mcp.WithDescription("Extract an order record (id, fee, startDate, endDate, contact, status, remarks) from a short mixed Chinese/English order note. Nothing is stored."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The order note, e.g. 项目编号A123，开发费500，4月15日前，张老师"),
		),
		mcp.WithString("contacts",
			mcp.Description("Comma-separated known contact names, checked before the fallback rules. Empty = use the stored directory."),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}

		rec, err := svc.Analyze(ctx, text, common.SplitList(req.GetString("contacts", "")))
		if err != nil {
			return toolError("analyze", err), nil
		}
		return jsonResult(rec), nil
	})
}

func registerCreateTool(s *server.MCPServer, svc *orders.Service) {
	tool := mcp.NewTool("create_order_from_text",
		mcp.WithDescription("Analyze an order note and store the result as a new in-progress order."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The order note to analyze and store"),
		),
		mcp.WithString("source",
			mcp.Description("Where the note came from (chat, file name, ...). Defaults to 'mcp'."),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}

		o, err := svc.AnalyzeAndCreate(ctx, text, req.GetString("source", "mcp"), "INLINE")
		if err != nil {
			return toolError("create order", err), nil
		}
		return jsonResult(utils.OrderMap(o)), nil
	})
}

func registerListTool(s *server.MCPServer, svc *orders.Service) {
	tool := mcp.NewTool("list_orders",
		mcp.WithDescription("List stored orders by due date, optionally filtered by status, due-date range and contact."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("status",
			mcp.Description("Order status"),
			mcp.Enum(constants.OrderStatusStrings()...),
		),
		mcp.WithString("from_date",
			mcp.Description("Earliest due date, YYYY-MM-DD"),
		),
		mcp.WithString("to_date",
			mcp.Description("Latest due date, YYYY-MM-DD"),
		),
		mcp.WithString("contact",
			mcp.Description("Exact contact name"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of orders (default: 50, max: 500)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := int(req.GetFloat("limit", 50))
		if limit <= 0 {
			limit = 50
		}
		if limit > 500 {
			limit = 500
		}

		list, err := svc.ListOrders(ctx, orders.ListOrdersRequest{
			Status:   req.GetString("status", ""),
			FromDate: req.GetString("from_date", ""),
			ToDate:   req.GetString("to_date", ""),
			Contact:  req.GetString("contact", ""),
			Limit:    limit,
		})
		if err != nil {
			return toolError("list orders", err), nil
		}

		out := make([]map[string]any, 0, len(list))
		for _, o := range list {
			out = append(out, utils.OrderMap(o))
		}
		return jsonResult(map[string]any{"orders": out, "count": len(out)}), nil
	})
}

func registerStatsTool(s *server.MCPServer, svc *orders.Service) {
	tool := mcp.NewTool("order_stats",
		mcp.WithDescription("Count stored orders per status."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		st, err := svc.Stats(ctx)
		if err != nil {
			return toolError("stats", err), nil
		}
		return jsonResult(st), nil
	})
}

// --- Resources ---

func registerStatsResource(s *server.MCPServer, svc *orders.Service) {
	resource := mcp.NewResource(
		"orders://stats",
		"Order Statistics",
		mcp.WithResourceDescription("Per-status order counts and today's date."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		st, err := svc.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading stats: %w", err)
		}
		payload := map[string]any{"stats": st, "today": svc.Today()}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}
