package expense

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type ReportRenderer interface {
	Render(dashboard Dashboard) ([]byte, error)
	ContentType() string
	FileExtension() string
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

func recordsHeader() []string {
	return append([]string{"Month", "Total Expenses"}, CategoryNames...)
}

type CsvReportRenderer struct{}

func NewCsvReportRenderer() *CsvReportRenderer {
	return &CsvReportRenderer{}
}

func (r *CsvReportRenderer) ContentType() string   { return "text/csv" }
func (r *CsvReportRenderer) FileExtension() string { return "csv" }

// Render writes one line per month followed by a Total line summing every column.
func (r *CsvReportRenderer) Render(dashboard Dashboard) ([]byte, error) {
	data := make([][]string, 0, len(dashboard.Records)+2)
	data = append(data, recordsHeader())
	for _, record := range dashboard.Records {
		row := make([]string, 0, len(CategoryNames)+2)
		row = append(row, record.Month, formatAmount(record.TotalExpenses))
		for _, name := range CategoryNames {
			row = append(row, formatAmount(record.Category(name)))
		}
		data = append(data, row)
	}

	totals := make([]string, 0, len(CategoryNames)+2)
	totals = append(totals, "Total", formatAmount(dashboard.Summary.TotalExpenses))
	for _, name := range CategoryNames {
		totals = append(totals, formatAmount(categoryAmount(dashboard.Breakdown, name)))
	}
	data = append(data, totals)

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	if err := writer.WriteAll(data); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return nil, err
	}
	return b.Bytes(), nil
}

func categoryAmount(breakdown []CategoryBreakdown, name string) float64 {
	for _, b := range breakdown {
		if b.Name == name {
			return b.Amount
		}
	}
	return 0
}

const (
	summarySheet   = "Summary"
	expensesSheet  = "Expenses"
	breakdownSheet = "Breakdown"
)

type XlsxReportRenderer struct {
	printer *message.Printer
}

// NewXlsxReportRenderer formats the human-readable amounts with Indian digit grouping.
func NewXlsxReportRenderer() *XlsxReportRenderer {
	return &XlsxReportRenderer{printer: message.NewPrinter(language.MustParse("en-IN"))}
}

func (r *XlsxReportRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (r *XlsxReportRenderer) FileExtension() string { return "xlsx" }

func (r *XlsxReportRenderer) Render(dashboard Dashboard) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Warnf("failed to close workbook: %v", err)
		}
	}()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if err := r.writeSummary(f, dashboard); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(expensesSheet); err != nil {
		return nil, err
	}
	if err := r.writeRecords(f, dashboard.Records, headerStyle); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(breakdownSheet); err != nil {
		return nil, err
	}
	if err := r.writeBreakdown(f, dashboard.Breakdown, headerStyle); err != nil {
		return nil, err
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		log.Errorf("Error writing xlsx: %v", err)
		return nil, err
	}
	return buffer.Bytes(), nil
}

func (r *XlsxReportRenderer) writeSummary(f *excelize.File, dashboard Dashboard) error {
	summary := dashboard.Summary
	currentMonth := ""
	if summary.Current != nil {
		currentMonth = summary.Current.Month
	}
	rows := [][]any{
		{"Spreadsheet", dashboard.SpreadsheetUrl},
		{"As on", dashboard.AsOnDate},
		{"Period", dashboard.Period},
		{"Total Expenses", summary.TotalExpenses, r.rupees(summary.TotalExpenses)},
		{"Current Month", currentMonth},
		{"Current Month Expenses", summary.CurrentMonthExpenses, r.rupees(summary.CurrentMonthExpenses)},
		{"Month over Month Change %", summary.MonthOverMonthChangePercent, string(summary.Trend)},
		{"Top Category", summary.TopCategory.Name, r.rupees(summary.TopCategory.Amount)},
	}
	if err := setRows(f, summarySheet, rows); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "A", "A", 28)
}

func (r *XlsxReportRenderer) writeRecords(f *excelize.File, records []ExpenseRecord, headerStyle int) error {
	header := recordsHeader()
	rows := make([][]any, 0, len(records)+1)
	rows = append(rows, toAny(header))
	for _, record := range records {
		row := make([]any, 0, len(header))
		row = append(row, record.Month, record.TotalExpenses)
		for _, name := range CategoryNames {
			row = append(row, record.Category(name))
		}
		rows = append(rows, row)
	}
	if err := setRows(f, expensesSheet, rows); err != nil {
		return err
	}
	lastCell, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(expensesSheet, "A1", lastCell, headerStyle)
}

func (r *XlsxReportRenderer) writeBreakdown(f *excelize.File, breakdown []CategoryBreakdown, headerStyle int) error {
	rows := make([][]any, 0, len(breakdown)+1)
	rows = append(rows, []any{"Category", "Percentage", "Amount"})
	for _, b := range breakdown {
		rows = append(rows, []any{b.Name, b.Percentage, b.Amount})
	}
	if err := setRows(f, breakdownSheet, rows); err != nil {
		return err
	}
	if err := f.SetColWidth(breakdownSheet, "A", "A", 36); err != nil {
		return err
	}
	return f.SetCellStyle(breakdownSheet, "A1", "C1", headerStyle)
}

func (r *XlsxReportRenderer) rupees(amount float64) string {
	return r.printer.Sprintf("₹%.2f", amount)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d of %s: %w", i+1, sheet, err)
		}
	}
	return nil
}

func toAny(values []string) []any {
	result := make([]any, len(values))
	for i, v := range values {
		result[i] = v
	}
	return result
}
