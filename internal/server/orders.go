package server

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/orders-tracker/internal/entity"
	"github.com/joseph-ayodele/orders-tracker/internal/orders"
	"github.com/joseph-ayodele/orders-tracker/internal/utils"
)

// AnalyzeText runs the analyzer without storing anything. An explicit
// "contacts" list replaces the stored directory, even when empty.
func (s *OrderServer) AnalyzeText(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	contactList, _, err := strList(req, "contacts")
	if err != nil {
		return nil, err
	}

	rec, err := s.orders.Analyze(ctx, req.GetFields()["text"].GetStringValue(), contactList)
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]any{
		"record": utils.RecordMap(rec),
		"today":  s.orders.Today(),
	})
}

// CreateOrder stores an order either from free text or from a ready record.
func (s *OrderServer) CreateOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var (
		o   *entity.Order
		err error
	)
	source := str(req, "source")
	switch {
	case has(req, "record"):
		rec, derr := utils.ToRecord(object(req, "record"))
		if derr != nil {
			return nil, status.Error(codes.InvalidArgument, derr.Error())
		}
		o, err = s.orders.CreateOrder(ctx, rec, source)
	case has(req, "text"):
		o, err = s.orders.AnalyzeAndCreate(ctx, req.GetFields()["text"].GetStringValue(), source, str(req, "format"))
	default:
		return nil, status.Error(codes.InvalidArgument, "text or record is required")
	}
	if err != nil {
		return nil, err
	}
	return orderResponse(o)
}

func (s *OrderServer) GetOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	o, err := s.orders.GetOrder(ctx, str(req, "id"))
	if err != nil {
		return nil, err
	}
	return orderResponse(o)
}

// UpdateOrder applies "patch". A null fee clears the stored fee.
func (s *OrderServer) UpdateOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p := object(req, "patch")
	if p == nil {
		return nil, status.Error(codes.InvalidArgument, "patch is required")
	}

	patch := orders.OrderPatch{
		OrderNo:   optStr(p, "order_no"),
		StartDate: optStr(p, "start_date"),
		EndDate:   optStr(p, "end_date"),
		Contact:   optStr(p, "contact"),
		Status:    optStr(p, "status"),
		Remarks:   optStr(p, "remarks"),
	}
	switch {
	case isNull(p, "fee"):
		patch.ClearFee = true
	case has(p, "fee"):
		fee, err := integer(p, "fee")
		if err != nil {
			return nil, err
		}
		patch.Fee = &fee
	}

	o, err := s.orders.UpdateOrder(ctx, str(req, "id"), patch)
	if err != nil {
		return nil, err
	}
	return orderResponse(o)
}

func (s *OrderServer) DeleteOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := str(req, "id")
	if err := s.orders.DeleteOrder(ctx, id); err != nil {
		return nil, err
	}
	return newStruct(map[string]any{"id": id, "deleted": true})
}

func listRequest(req *structpb.Struct) (orders.ListOrdersRequest, error) {
	limit, err := integer(req, "limit")
	if err != nil {
		return orders.ListOrdersRequest{}, err
	}
	offset, err := integer(req, "offset")
	if err != nil {
		return orders.ListOrdersRequest{}, err
	}
	return orders.ListOrdersRequest{
		Status:   str(req, "status"),
		FromDate: str(req, "from_date"),
		ToDate:   str(req, "to_date"),
		Contact:  str(req, "contact"),
		Limit:    limit,
		Offset:   offset,
	}, nil
}

func (s *OrderServer) ListOrders(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	lr, err := listRequest(req)
	if err != nil {
		return nil, err
	}
	list, err := s.orders.ListOrders(ctx, lr)
	if err != nil {
		return nil, err
	}

	out := make([]any, 0, len(list))
	for _, o := range list {
		out = append(out, utils.OrderMap(o))
	}
	return newStruct(map[string]any{"orders": out, "count": len(out)})
}

func (s *OrderServer) OrderStats(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	st, err := s.orders.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return newStruct(utils.StatsMap(st))
}

// ExportOrders returns the workbook base64-encoded under "xlsx".
func (s *OrderServer) ExportOrders(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.export == nil {
		return nil, status.Error(codes.Unimplemented, "export is not configured")
	}
	lr, err := listRequest(req)
	if err != nil {
		return nil, err
	}
	filter, err := lr.Filter()
	if err != nil {
		return nil, err
	}

	xlsx, err := s.export.ExportOrdersXLSX(ctx, filter)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "err", err)
		return nil, status.Errorf(codes.Internal, "export: %v", err)
	}
	return newStruct(map[string]any{
		"xlsx":     base64.StdEncoding.EncodeToString(xlsx),
		"filename": fmt.Sprintf("orders-%s.xlsx", s.orders.Today()),
		"size":     len(xlsx),
	})
}

func orderResponse(o *entity.Order) (*structpb.Struct, error) {
	return newStruct(map[string]any{"order": utils.OrderMap(o)})
}
