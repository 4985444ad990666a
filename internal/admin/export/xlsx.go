// Package export renders purchase orders as xlsx workbooks for the gateway's
// quick download. Bulk exports remain backend-rendered and are only proxied.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/songviet/po-admin/internal/admin/orders"
)

// ContentType is the media type for xlsx downloads.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var orderSheetHeaders = []string{
	"Số đơn hàng",
	"Nhà cung cấp",
	"Trạng thái",
	"Ngày đặt",
	"Mã sản phẩm",
	"Tên sản phẩm",
	"Số lượng",
	"Đơn giá",
	"Thành tiền",
}

// Workbook renders the orders into a single-sheet workbook: one row per line
// item, followed by a subtotal row per order.
func Workbook(orderList []*orders.Order) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Đơn hàng"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("export: build header style: %w", err)
	}

	for i, h := range orderSheetHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("export: write header: %w", err)
		}
		_ = f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	summaryStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, fmt.Errorf("export: build summary style: %w", err)
	}

	row := 2
	for _, order := range orderList {
		for _, item := range order.Items {
			_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), order.Number)
			_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), order.SupplierName)
			_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), order.StatusName)
			_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), order.OrderDate)
			_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), item.ProductCode)
			_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), item.ProductName)
			_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), item.Quantity)
			_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", row), item.Price.InexactFloat64())
			_ = f.SetCellValue(sheet, fmt.Sprintf("I%d", row), item.LineTotal().InexactFloat64())
			row++
		}

		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), order.Number)
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), fmt.Sprintf("Tổng cộng (%d dòng)", len(order.Items)))
		_ = f.SetCellValue(sheet, fmt.Sprintf("I%d", row), order.Total.InexactFloat64())
		_ = f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("I%d", row), summaryStyle)
		row++
	}

	colWidths := []float64{18, 24, 14, 12, 14, 30, 10, 12, 14}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, col, col, w)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("export: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename builds the quick-export download name for the given moment.
func Filename(now time.Time) string {
	return fmt.Sprintf("don-hang-%s.xlsx", now.Format("20060102-150405"))
}
