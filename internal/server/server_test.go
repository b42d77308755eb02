package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/orders-tracker/internal/analyzer"
	"github.com/joseph-ayodele/orders-tracker/internal/contacts"
	"github.com/joseph-ayodele/orders-tracker/internal/export"
	"github.com/joseph-ayodele/orders-tracker/internal/orders"
	"github.com/joseph-ayodele/orders-tracker/internal/repository"
)

func startServer(t *testing.T) *grpc.ClientConn {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := repository.OpenMemory(ctx, logger)
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(db.Close)

	orderRepo := repository.NewOrderRepository(db, logger)
	contactRepo := repository.NewContactRepository(db, logger)
	orderSvc := orders.NewService(orderRepo, contactRepo, logger,
		orders.WithAnalysisRuns(repository.NewAnalysisRunRepository(db, logger)),
		orders.WithAnalyzer(analyzer.New(analyzer.WithClock(analyzer.FixedDate(2025, time.March, 10, nil)))),
	)
	srv := NewOrderServer(orderSvc, contacts.NewService(contactRepo, logger), export.NewService(orderRepo, logger), logger)

	gs, _ := NewGRPCServer(srv, logger, Options{Reflection: true})
	lis := bufconn.Listen(1 << 20)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestAnalyzeText(t *testing.T) {
	c := NewClient(startServer(t))
	ctx := context.Background()

	out, err := c.Call(ctx, "AnalyzeText", map[string]any{"text": "项目编号A123，开发费500，4月15日前，张老师"})
	if err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}
	rec := out.GetFields()["record"].GetStructValue().AsMap()
	want := map[string]any{
		"id":        "A123",
		"fee":       float64(500),
		"startDate": "2025-03-10",
		"endDate":   "2025-04-15",
		"contact":   "张老师",
		"status":    "in-progress",
		"remarks":   "前",
	}
	for k, v := range want {
		if rec[k] != v {
			t.Errorf("record[%q] = %v, want %v", k, rec[k], v)
		}
	}
	if out.GetFields()["today"].GetStringValue() != "2025-03-10" {
		t.Errorf("today = %v", out.GetFields()["today"])
	}

	out, err = c.Call(ctx, "AnalyzeText", map[string]any{"text": "B7 找王五", "contacts": []any{"王五"}})
	if err != nil {
		t.Fatalf("AnalyzeText with contacts: %v", err)
	}
	if got := out.GetFields()["record"].GetStructValue().GetFields()["contact"].GetStringValue(); got != "王五" {
		t.Errorf("contact = %q, want 王五", got)
	}
	if _, isNull := out.GetFields()["record"].GetStructValue().GetFields()["fee"].GetKind().(*structpb.Value_NullValue); !isNull {
		t.Error("fee should be null")
	}

	_, err = c.Call(ctx, "AnalyzeText", map[string]any{"text": "   "})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("empty text code = %v, want InvalidArgument", status.Code(err))
	}
	_, err = c.Call(ctx, "AnalyzeText", map[string]any{"text": "A1", "contacts": "王五"})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("non-list contacts code = %v, want InvalidArgument", status.Code(err))
	}
}

func TestOrderLifecycle(t *testing.T) {
	c := NewClient(startServer(t))
	ctx := context.Background()

	var header metadata.MD
	out, err := c.Call(ctx, "CreateOrder", map[string]any{"text": "四月下旬完成，B77，300元", "source": "chat"}, grpc.Header(&header))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if len(header.Get(requestIDHeader)) != 1 {
		t.Errorf("missing %s header", requestIDHeader)
	}
	order := out.GetFields()["order"].GetStructValue().GetFields()
	id := order["id"].GetStringValue()
	if order["order_no"].GetStringValue() != "B77" || order["end_date"].GetStringValue() != "2025-04-25" {
		t.Errorf("created order = %v", order)
	}

	_, err = c.Call(ctx, "CreateOrder", map[string]any{"record": map[string]any{
		"id": "C9", "fee": 900, "startDate": "2025-03-01", "endDate": "2025-03-05",
		"contact": "李四", "status": "in-progress", "remarks": "",
	}})
	if err != nil {
		t.Fatalf("CreateOrder from record: %v", err)
	}
	if _, err := c.Call(ctx, "CreateOrder", map[string]any{}); status.Code(err) != codes.InvalidArgument {
		t.Errorf("empty CreateOrder code = %v", status.Code(err))
	}

	out, err = c.Call(ctx, "UpdateOrder", map[string]any{
		"id":    id,
		"patch": map[string]any{"fee": nil, "status": "completed", "remarks": "done"},
	})
	if err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}
	order = out.GetFields()["order"].GetStructValue().GetFields()
	if order["status"].GetStringValue() != "completed" || order["remarks"].GetStringValue() != "done" {
		t.Errorf("updated order = %v", order)
	}
	if _, isNull := order["fee"].GetKind().(*structpb.Value_NullValue); !isNull {
		t.Errorf("fee = %v, want null", order["fee"])
	}

	out, err = c.Call(ctx, "ListOrders", map[string]any{"status": "completed"})
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if n := out.GetFields()["count"].GetNumberValue(); n != 1 {
		t.Errorf("completed count = %v, want 1", n)
	}
	if _, err := c.Call(ctx, "ListOrders", map[string]any{"from_date": "2025/01/01"}); status.Code(err) != codes.InvalidArgument {
		t.Errorf("bad from_date code = %v", status.Code(err))
	}

	out, err = c.Call(ctx, "OrderStats", map[string]any{})
	if err != nil {
		t.Fatalf("OrderStats: %v", err)
	}
	st := out.AsMap()
	if st["total"] != float64(2) || st["completed"] != float64(1) || st["in_progress"] != float64(1) {
		t.Errorf("stats = %v", st)
	}

	out, err = c.Call(ctx, "ExportOrders", map[string]any{})
	if err != nil {
		t.Fatalf("ExportOrders: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(out.GetFields()["xlsx"].GetStringValue())
	if err != nil {
		t.Fatalf("decode xlsx: %v", err)
	}
	x, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	rows, _ := x.GetRows(export.OrdersSheet)
	_ = x.Close()
	if len(rows) != 3 {
		t.Errorf("exported rows = %d, want header + 2", len(rows))
	}

	if _, err := c.Call(ctx, "DeleteOrder", map[string]any{"id": id}); err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}
	if _, err := c.Call(ctx, "GetOrder", map[string]any{"id": id}); status.Code(err) != codes.NotFound {
		t.Errorf("GetOrder after delete code = %v, want NotFound", status.Code(err))
	}
	if _, err := c.Call(ctx, "GetOrder", map[string]any{"id": "nope"}); status.Code(err) != codes.InvalidArgument {
		t.Errorf("GetOrder bad id code = %v, want InvalidArgument", status.Code(err))
	}
}

func TestContacts(t *testing.T) {
	c := NewClient(startServer(t))
	ctx := context.Background()

	if _, err := c.Call(ctx, "CreateContact", map[string]any{"name": "王五", "priority": 2}); err != nil {
		t.Fatalf("CreateContact: %v", err)
	}
	if _, err := c.Call(ctx, "CreateContact", map[string]any{"name": "赵六", "phone": "13800000000"}); err != nil {
		t.Fatalf("CreateContact: %v", err)
	}
	_, err := c.Call(ctx, "CreateContact", map[string]any{"name": "王五"})
	if status.Code(err) != codes.AlreadyExists {
		t.Errorf("duplicate contact code = %v, want AlreadyExists", status.Code(err))
	}
	if _, err := c.Call(ctx, "CreateContact", map[string]any{"name": "x", "priority": 1.5}); status.Code(err) != codes.InvalidArgument {
		t.Errorf("fractional priority code = %v, want InvalidArgument", status.Code(err))
	}

	out, err := c.Call(ctx, "ListContacts", map[string]any{})
	if err != nil {
		t.Fatalf("ListContacts: %v", err)
	}
	list := out.GetFields()["contacts"].GetListValue().GetValues()
	if len(list) != 2 || list[0].GetStructValue().GetFields()["name"].GetStringValue() != "王五" {
		t.Errorf("contacts = %v", out.AsMap()["contacts"])
	}

	// the stored directory now feeds analysis
	out, err = c.Call(ctx, "AnalyzeText", map[string]any{"text": "A2 找赵六 600元"})
	if err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}
	if got := out.GetFields()["record"].GetStructValue().GetFields()["contact"].GetStringValue(); got != "赵六" {
		t.Errorf("contact = %q, want 赵六", got)
	}
}

func TestHealth(t *testing.T) {
	conn := startServer(t)
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v", resp.GetStatus())
	}
}

func TestRedactDSN(t *testing.T) {
	tests := map[string]string{
		"postgres://u:secret@db:5432/orders": "postgres://u:***@db:5432/orders",
		"postgres://db/orders":               "postgres://db/orders",
		"file:orders.db":                     "file:orders.db",
	}
	for in, want := range tests {
		if got := redactDSN(in); got != want {
			t.Errorf("redactDSN(%q) = %q, want %q", in, got, want)
		}
	}
}
