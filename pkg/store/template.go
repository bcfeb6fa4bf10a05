package store

import (
	"github.com/klokku/expensesheets/pkg/expense"
	"github.com/klokku/expensesheets/pkg/sheets"
)

// templateRange is where a new store's template starts.
const templateRange = "Sheet1!A1"

const notesColumn = "Notes"

// Template returns the rows written into a freshly created store: the header,
// an instructions row, a blank row and a filled-in example month.
func Template() sheets.Grid {
	header := append([]string{"Month", "Total Expenses"}, expense.CategoryNames...)
	header = append(header, notesColumn)

	instructions := make([]string, len(header))
	instructions[0] = "INSTRUCTIONS:"
	instructions[1] = "Enter actual expense amounts in respective columns"

	example := []string{
		"Format Example:",
		"1500000", "350000", "300000", "180000", "120000",
		"90000", "70000", "50000", "35000", "25000", "120000",
		"May 2024 expenses",
	}

	return sheets.Grid{
		header,
		instructions,
		{""},
		example,
	}
}
