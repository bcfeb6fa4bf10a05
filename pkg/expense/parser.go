package expense

import (
	"regexp"
	"strconv"
	"strings"
)

// leadingNumber matches the longest numeric prefix a decimal parser would accept.
var leadingNumber = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)

// ParseCell turns a loosely formatted sheet cell ("₹1,50,000", "$ 200", "12.5abc")
// into a number. Anything that has no numeric prefix after cleanup yields 0.
// A leading minus survives cleanup, so "-$50" parses to -50.
func ParseCell(cell string) float64 {
	// currency symbols, thousands separators and whitespace all fall out here
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, cell)

	match := leadingNumber.FindString(cleaned)
	if match == "" {
		return 0
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return value
}

// cellAt returns the cell at index i, treating a missing cell as "0".
func cellAt(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return "0"
	}
	return row[i]
}
