package expense

import (
	"math"
	"slices"
	"strings"
)

// Normalize converts the raw sheet grid into monthly expense records.
//
// Rows without a month label or total cell are dropped, as are rows whose total is
// not a positive number. Category columns are read by position and default to 0.
// When every surviving month label is a canonical month name the records are
// ordered January..December, otherwise the sheet order is kept untouched.
func Normalize(grid [][]string) []ExpenseRecord {
	records := make([]ExpenseRecord, 0, len(grid))
	for _, row := range grid {
		if len(row) <= totalColumn || strings.TrimSpace(row[monthColumn]) == "" || row[totalColumn] == "" {
			continue
		}

		total := ParseCell(row[totalColumn])
		if math.IsNaN(total) || total <= 0 {
			continue
		}

		categories := make([]CategoryAmount, 0, len(CategoryNames))
		for i, name := range CategoryNames {
			categories = append(categories, CategoryAmount{
				Name:   name,
				Amount: ParseCell(cellAt(row, firstCategoryColumn+i)),
			})
		}

		records = append(records, ExpenseRecord{
			Month:         strings.TrimSpace(row[monthColumn]),
			TotalExpenses: total,
			Categories:    categories,
		})
	}

	if allCanonicalMonths(records) {
		slices.SortStableFunc(records, func(a, b ExpenseRecord) int {
			return monthIndex(a.Month) - monthIndex(b.Month)
		})
	}
	return records
}

func monthIndex(month string) int {
	return slices.Index(MonthNames, month)
}

func allCanonicalMonths(records []ExpenseRecord) bool {
	for _, r := range records {
		if monthIndex(r.Month) == -1 {
			return false
		}
	}
	return true
}

// Breakdown sums every category across records and reports each sum as a share of
// the grand total, highest share first. Equal shares keep first-seen order.
func Breakdown(records []ExpenseRecord) []CategoryBreakdown {
	var order []string
	sums := make(map[string]float64)
	for _, record := range records {
		for _, c := range record.Categories {
			if _, seen := sums[c.Name]; !seen {
				order = append(order, c.Name)
			}
			sums[c.Name] += c.Amount
		}
	}

	var grandTotal float64
	for _, name := range order {
		grandTotal += sums[name]
	}

	breakdown := make([]CategoryBreakdown, 0, len(order))
	for _, name := range order {
		percentage := 0.0
		if grandTotal > 0 {
			percentage = 100 * sums[name] / grandTotal
		}
		breakdown = append(breakdown, CategoryBreakdown{
			Name:       name,
			Percentage: percentage,
			Amount:     sums[name],
		})
	}

	slices.SortStableFunc(breakdown, func(a, b CategoryBreakdown) int {
		switch {
		case a.Percentage > b.Percentage:
			return -1
		case a.Percentage < b.Percentage:
			return 1
		}
		return 0
	})
	return breakdown
}

// Summarize derives the headline numbers of the dashboard. The last record is the
// current month and the one before it the previous month.
func Summarize(records []ExpenseRecord, breakdown []CategoryBreakdown) Summary {
	summary := Summary{
		Trend:       TrendUp,
		TopCategory: CategoryBreakdown{Name: NoDataCategory},
	}

	for _, r := range records {
		summary.TotalExpenses += r.TotalExpenses
	}

	if n := len(records); n > 0 {
		current := records[n-1]
		summary.Current = &current
		summary.CurrentMonthExpenses = current.TotalExpenses
		if n > 1 {
			previous := records[n-2]
			summary.Previous = &previous
		}
	}

	if summary.Previous != nil && summary.Previous.TotalExpenses != 0 {
		previousTotal := summary.Previous.TotalExpenses
		summary.MonthOverMonthChangePercent = 100 * (summary.CurrentMonthExpenses - previousTotal) / previousTotal
	}
	if summary.MonthOverMonthChangePercent < 0 {
		summary.Trend = TrendDown
	}

	if len(breakdown) > 0 {
		summary.TopCategory = breakdown[0]
	}
	return summary
}
