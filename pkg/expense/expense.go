package expense

import "time"

// CategoryNames is the fixed, ordered list of expense categories. Column 2 of a sheet
// row holds the first category, column 11 the last.
var CategoryNames = []string{
	"Dep.on Motor Car",
	"Dep.on Plank Machinery-1",
	"Dep.on Building",
	"Assembling Charges",
	"Transportation & Packaging",
	"Interest on Bank Loan",
	"Troughs & Conveyance",
	"Dep.on Computers & Printers",
	"Professional & Consultancy Charges",
	"Others",
}

// MonthNames is the canonical month order used to sort records.
var MonthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

const (
	monthColumn          = 0
	totalColumn          = 1
	firstCategoryColumn  = 2
	NoDataCategory       = "No data"
	spreadsheetURLPrefix = "https://docs.google.com/spreadsheets/d/"
)

type CategoryAmount struct {
	Name   string
	Amount float64
}

type ExpenseRecord struct {
	Month         string
	TotalExpenses float64
	// Categories keeps the CategoryNames order.
	Categories []CategoryAmount
}

// Category returns the amount booked under name, 0 when the record does not carry it.
func (r ExpenseRecord) Category(name string) float64 {
	for _, c := range r.Categories {
		if c.Name == name {
			return c.Amount
		}
	}
	return 0
}

type CategoryBreakdown struct {
	Name       string
	Percentage float64
	Amount     float64
}

type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
)

type Summary struct {
	TotalExpenses        float64
	Current              *ExpenseRecord
	CurrentMonthExpenses float64
	Previous             *ExpenseRecord
	// MonthOverMonthChangePercent is negative for a decrease.
	MonthOverMonthChangePercent float64
	Trend                       Trend
	TopCategory                 CategoryBreakdown
}

type Dashboard struct {
	StoreId        string
	SpreadsheetUrl string
	AsOnDate       string
	Period         string
	GeneratedAt    time.Time
	Records        []ExpenseRecord
	Breakdown      []CategoryBreakdown
	Summary        Summary
}

func SpreadsheetURL(storeId string) string {
	return spreadsheetURLPrefix + storeId
}
