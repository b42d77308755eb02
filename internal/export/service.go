package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/orders-tracker/constants"
	"github.com/joseph-ayodele/orders-tracker/internal/repository"
)

const (
	OrdersSheet  = "Orders"
	SummarySheet = "Summary"
)

// OrderHeaders are the column titles of the Orders sheet.
var OrderHeaders = []string{"编号", "开发费", "开始日期", "截止日期", "联系人", "状态", "备注"}

// Service is a tiny façade over the order repository that produces XLSX bytes for exports.
type Service struct {
	orderRepo repository.OrderRepository
	logger    *slog.Logger
}

func NewService(repo repository.OrderRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{orderRepo: repo, logger: logger}
}

// ExportOrdersXLSX returns an XLSX workbook (as bytes) with the orders matching f,
// ordered by due date, plus a per-status summary sheet.
func (s *Service) ExportOrdersXLSX(ctx context.Context, f repository.ListFilter) ([]byte, error) {
	start := time.Now()

	orders, err := s.orderRepo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}

	x := excelize.NewFile()
	defer x.Close()

	if _, err := x.NewSheet(OrdersSheet); err != nil {
		return nil, err
	}
	if _, err := x.NewSheet(SummarySheet); err != nil {
		return nil, err
	}
	_ = x.DeleteSheet("Sheet1")
	activeIndex, _ := x.GetSheetIndex(OrdersSheet)
	x.SetActiveSheet(activeIndex)

	for i, h := range OrderHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = x.SetCellValue(OrdersSheet, cell, h)
	}
	if style, err := x.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = x.SetCellStyle(OrdersSheet, "A1", "G1", style)
	}

	counts := make(map[constants.OrderStatus]int)
	row := 2
	for _, o := range orders {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = x.SetCellValue(OrdersSheet, cell, v)
		}

		write(1, o.OrderNo)
		// an unknown fee stays blank rather than 0
		if o.Fee != nil {
			write(2, *o.Fee)
		}
		write(3, o.StartDate)
		write(4, o.EndDate)
		write(5, o.Contact)
		write(6, o.Status.Label())
		write(7, truncate(o.Remarks, 140))

		counts[o.Status]++
		row++
	}

	_ = x.SetColWidth(OrdersSheet, "A", "A", 12) // order no
	_ = x.SetColWidth(OrdersSheet, "B", "B", 10) // fee
	_ = x.SetColWidth(OrdersSheet, "C", "D", 14) // dates
	_ = x.SetColWidth(OrdersSheet, "E", "E", 16) // contact
	_ = x.SetColWidth(OrdersSheet, "F", "F", 10) // status
	_ = x.SetColWidth(OrdersSheet, "G", "G", 48) // remarks
	_ = x.SetPanes(OrdersSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	writeSummary(x, counts, len(orders))

	buf, err := x.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"status", f.Status,
		"rows", len(orders),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeSummary(x *excelize.File, counts map[constants.OrderStatus]int, total int) {
	_ = x.SetCellValue(SummarySheet, "A1", "状态")
	_ = x.SetCellValue(SummarySheet, "B1", "数量")
	row := 2
	for _, st := range constants.AllOrderStatuses() {
		_ = x.SetCellValue(SummarySheet, fmt.Sprintf("A%d", row), st.Label())
		_ = x.SetCellValue(SummarySheet, fmt.Sprintf("B%d", row), counts[st])
		row++
	}
	_ = x.SetCellValue(SummarySheet, fmt.Sprintf("A%d", row), "合计")
	_ = x.SetCellValue(SummarySheet, fmt.Sprintf("B%d", row), total)
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
