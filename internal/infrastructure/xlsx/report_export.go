// Package xlsx reads style sheets and writes reconciliation reports as
// Excel workbooks.
package xlsx

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/ticketcheck/backend/internal/domain"
)

// Sheet names of an exported report, in workbook order
const (
	SheetSummary   = "Summary"
	SheetAddress   = "Address"
	SheetCodes     = "Product Codes"
	SheetMatched   = "Matched"
	SheetUnmatched = "Unmatched"
	SheetWOItems   = "WO Items"
	SheetPOItems   = "PO Items"
)

// ContentType is the MIME type of an exported workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	resultHeaders = []string{
		"Style", "Style 2", "WO Size", "PO Size", "WO Color Code", "PO Color Code",
		"WO Qty", "PO Qty", "Qty Match", "Size Match", "Color Match", "Style Match",
		"Diff", "Status", "PO Item Code",
	}
	itemHeaders = []string{"Style", "Color Code", "Size", "Size 2", "Quantity", "Product Code", "Item Code"}
)

// ReportExporter renders reports into XLSX workbooks
type ReportExporter struct {
	logger logrus.FieldLogger
}

// NewReportExporter creates a report exporter
func NewReportExporter(logger logrus.FieldLogger) *ReportExporter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ReportExporter{logger: logger}
}

// Export writes the report into a new workbook and returns its bytes
func (e *ReportExporter) Export(ctx context.Context, report *domain.Report) ([]byte, error) {
	if report == nil {
		return nil, domain.ErrInvalidRequest
	}
	start := time.Now()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.logger.WithError(err).Warn("Failed to close workbook")
		}
	}()

	w := &workbook{file: f}
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("xlsx rename sheet: %w", err)
	}
	for _, name := range []string{SheetAddress, SheetCodes, SheetMatched, SheetUnmatched, SheetWOItems, SheetPOItems} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("xlsx new sheet %s: %w", name, err)
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}
	w.header = bold

	steps := []func(*domain.Report){
		w.writeSummary,
		w.writeAddress,
		w.writeCodes,
		func(r *domain.Report) { w.writeResults(SheetMatched, r.Matched) },
		func(r *domain.Report) { w.writeResults(SheetUnmatched, r.Unmatched) },
		func(r *domain.Report) { w.writeItems(SheetWOItems, r.WOItems) },
		func(r *domain.Report) { w.writeItems(SheetPOItems, r.POItems) },
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		step(report)
		if w.err != nil {
			return nil, fmt.Errorf("xlsx write: %w", w.err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	e.logger.WithFields(logrus.Fields{
		"report_id":  report.ID,
		"matched":    len(report.Matched),
		"unmatched":  len(report.Unmatched),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("Report exported")
	return buf.Bytes(), nil
}

// workbook keeps the first cell error so writers don't check every call
type workbook struct {
	file   *excelize.File
	header int
	err    error
}

func (w *workbook) set(sheet string, col, row int, value any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.file.SetCellValue(sheet, cell, value)
}

func (w *workbook) headerRow(sheet string, row int, headers []string) {
	for i, h := range headers {
		w.set(sheet, i+1, row, h)
	}
	if w.err != nil || len(headers) == 0 {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(headers), row)
	w.err = w.file.SetCellStyle(sheet, first, last, w.header)
}

func (w *workbook) keyValues(sheet string, rows [][2]any) {
	for i, kv := range rows {
		w.set(sheet, 1, i+1, kv[0])
		w.set(sheet, 2, i+1, kv[1])
	}
	if w.err == nil {
		last := fmt.Sprintf("A%d", max(len(rows), 1))
		w.err = w.file.SetCellStyle(sheet, "A1", last, w.header)
	}
	if w.err == nil {
		w.err = w.file.SetColWidth(sheet, "A", "A", 24)
	}
	if w.err == nil {
		w.err = w.file.SetColWidth(sheet, "B", "B", 60)
	}
}

func (w *workbook) writeSummary(r *domain.Report) {
	w.keyValues(SheetSummary, [][2]any{
		{"Report ID", r.ID},
		{"Created", r.CreatedAt.UTC().Format(time.RFC3339)},
		{"WO Document", r.WODocument},
		{"PO Document", r.PODocument},
		{"PO Format", string(r.POFormat)},
		{"PO Number", r.References.PONumber},
		{"Product Code", r.References.ProductCode},
		{"Reference", r.References.Reference},
		{"WO Items", r.Summary.WOItemCount},
		{"PO Items", r.Summary.POItemCount},
		{"Full Matches", r.Summary.FullMatchCount},
		{"Mismatches", r.Summary.MismatchCount},
		{"Verdict", r.Verdict},
		{"Warnings", strings.Join(append(append([]string{}, r.WOFields.Warnings...), r.POFields.Warnings...), "\n")},
	})
}

func (w *workbook) writeAddress(r *domain.Report) {
	a := r.Address
	w.keyValues(SheetAddress, [][2]any{
		{"WO Customer Name", a.WOName},
		{"WO Delivery Address", a.WOAddress},
		{"PO Delivery Location", a.POAddress},
		{"Name Score", a.NameScore},
		{"Address Score", a.AddressScore},
		{"Overall Score", a.OverallScore},
		{"Threshold", a.Threshold},
		{"Match", yesNo(a.Match)},
	})
}

// writeCodes lists the set comparison and, below it, the positional one
func (w *workbook) writeCodes(r *domain.Report) {
	headers := []string{"Comparison", "PO Code", "WO Code", "Status"}
	w.headerRow(SheetCodes, 1, headers)

	row := 2
	write := func(kind string, rows []domain.CodeComparison) {
		for _, c := range rows {
			w.set(SheetCodes, 1, row, kind)
			w.set(SheetCodes, 2, row, c.POCode)
			w.set(SheetCodes, 3, row, c.WOCode)
			w.set(SheetCodes, 4, row, string(c.Status))
			row++
		}
	}
	write("Set", r.Codes)
	write("Positional", r.PositionalCodes)

	if w.err == nil {
		w.err = w.file.SetColWidth(SheetCodes, "A", "D", 20)
	}
}

func (w *workbook) writeResults(sheet string, results []domain.MatchResult) {
	w.headerRow(sheet, 1, resultHeaders)

	for i, m := range results {
		row := i + 2
		values := []any{
			m.Style, m.Style2, m.WOSize, m.POSize, m.WOColorCode, m.POColorCode,
			nullable(m.WOQty), nullable(m.POQty),
			yesNo(m.QtyMatch), yesNo(m.SizeMatch), yesNo(m.ColorMatch), yesNo(m.StyleMatch),
			nullable(m.Diff), string(m.Status), m.POItemCode,
		}
		for col, v := range values {
			w.set(sheet, col+1, row, v)
		}
	}
}

func (w *workbook) writeItems(sheet string, items []domain.LineItem) {
	w.headerRow(sheet, 1, itemHeaders)

	for i, it := range items {
		row := i + 2
		values := []any{
			it.Style, it.ColorCode, it.Size, it.Size2,
			it.Quantity.InexactFloat64(), it.ProductCode, it.ItemCode,
		}
		for col, v := range values {
			w.set(sheet, col+1, row, v)
		}
	}
	if w.err == nil {
		w.err = w.file.SetColWidth(sheet, "A", "G", 16)
	}
}

// nullable renders an absent decimal as an empty cell
func nullable(d decimal.NullDecimal) any {
	if !d.Valid {
		return ""
	}
	return d.Decimal.InexactFloat64()
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
