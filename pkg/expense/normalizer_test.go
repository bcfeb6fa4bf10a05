package expense

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(month, total string, categories ...string) []string {
	return append([]string{month, total}, categories...)
}

func months(records []ExpenseRecord) []string {
	result := make([]string, 0, len(records))
	for _, r := range records {
		result = append(result, r.Month)
	}
	return result
}

func TestNormalize(t *testing.T) {
	t.Run("should keep positive totals and drop zero totals", func(t *testing.T) {
		// given
		grid := [][]string{
			row("March", "0", "100"),
			row("March", "1500000", "100"),
		}

		// when
		records := Normalize(grid)

		// then
		require.Len(t, records, 1)
		assert.Equal(t, 1500000.0, records[0].TotalExpenses)
	})

	t.Run("should drop rows without month or total", func(t *testing.T) {
		// given
		grid := [][]string{
			{},
			{"January"},
			row("", "100"),
			row("   ", "100"),
			row("February", ""),
			row("March", "abc"),
			row("April", "-$50"),
		}

		// when
		records := Normalize(grid)

		// then
		assert.Empty(t, records)
		assert.NotNil(t, records)
	})

	t.Run("should sort canonical months", func(t *testing.T) {
		// given
		grid := [][]string{row("March", "3"), row("January", "1"), row("February", "2")}

		// when
		records := Normalize(grid)

		// then
		assert.Equal(t, []string{"January", "February", "March"}, months(records))
	})

	t.Run("should keep sheet order when any month is not canonical", func(t *testing.T) {
		// given
		grid := [][]string{row("Q2", "2"), row("Q1", "1")}
		mixed := [][]string{row("March", "3"), row("jan", "1")}

		// when
		records := Normalize(grid)
		mixedRecords := Normalize(mixed)

		// then
		assert.Equal(t, []string{"Q2", "Q1"}, months(records))
		assert.Equal(t, []string{"March", "jan"}, months(mixedRecords))
	})

	t.Run("should trim month labels", func(t *testing.T) {
		// when
		records := Normalize([][]string{row("  May ", "10")})

		// then
		require.Len(t, records, 1)
		assert.Equal(t, "May", records[0].Month)
	})

	t.Run("should read categories by position and default missing ones to zero", func(t *testing.T) {
		// given
		grid := [][]string{row("June", "1000", "₹100", "oops", "300")}

		// when
		records := Normalize(grid)

		// then
		require.Len(t, records, 1)
		categories := records[0].Categories
		require.Len(t, categories, len(CategoryNames))
		for i, name := range CategoryNames {
			assert.Equal(t, name, categories[i].Name)
		}
		assert.Equal(t, 100.0, records[0].Category("Dep.on Motor Car"))
		assert.Equal(t, 0.0, records[0].Category("Dep.on Plank Machinery-1"))
		assert.Equal(t, 300.0, records[0].Category("Dep.on Building"))
		assert.Equal(t, 0.0, records[0].Category("Others"))
	})

	t.Run("should ignore columns past the last category", func(t *testing.T) {
		// given
		grid := [][]string{row("July", "10", "1", "1", "1", "1", "1", "1", "1", "1", "1", "1", "999", "note")}

		// when
		records := Normalize(grid)

		// then
		require.Len(t, records, 1)
		assert.Len(t, records[0].Categories, len(CategoryNames))
		assert.Equal(t, 1.0, records[0].Category("Others"))
	})

	t.Run("should return empty slice for empty grid", func(t *testing.T) {
		assert.Equal(t, []ExpenseRecord{}, Normalize(nil))
	})
}

func TestBreakdown(t *testing.T) {
	t.Run("should sum to 100 percent and sort descending", func(t *testing.T) {
		// given
		records := Normalize([][]string{
			row("January", "600", "100", "200", "300"),
			row("February", "400", "0", "100", "300"),
		})

		// when
		breakdown := Breakdown(records)

		// then
		require.Len(t, breakdown, len(CategoryNames))
		assert.Equal(t, "Dep.on Building", breakdown[0].Name)
		assert.Equal(t, 600.0, breakdown[0].Amount)
		assert.InDelta(t, 60.0, breakdown[0].Percentage, 1e-9)
		assert.Equal(t, "Dep.on Plank Machinery-1", breakdown[1].Name)
		assert.Equal(t, "Dep.on Motor Car", breakdown[2].Name)

		var sum float64
		for _, b := range breakdown {
			sum += b.Percentage
		}
		assert.InDelta(t, 100.0, sum, 1e-9)
	})

	t.Run("should keep first-seen order for equal shares", func(t *testing.T) {
		// given
		records := Normalize([][]string{row("January", "100")})

		// when
		breakdown := Breakdown(records)

		// then
		for i, b := range breakdown {
			assert.Equal(t, CategoryNames[i], b.Name)
			assert.Zero(t, b.Percentage)
		}
	})

	t.Run("should be empty without records", func(t *testing.T) {
		assert.Empty(t, Breakdown(nil))
	})
}

func TestSummarize(t *testing.T) {
	t.Run("should compute month over month change", func(t *testing.T) {
		// given
		records := Normalize([][]string{row("January", "100"), row("February", "150")})

		// when
		summary := Summarize(records, Breakdown(records))

		// then
		assert.Equal(t, 250.0, summary.TotalExpenses)
		assert.Equal(t, "February", summary.Current.Month)
		assert.Equal(t, "January", summary.Previous.Month)
		assert.Equal(t, 150.0, summary.CurrentMonthExpenses)
		assert.InDelta(t, 50.0, summary.MonthOverMonthChangePercent, 1e-9)
		assert.Equal(t, TrendUp, summary.Trend)
	})

	t.Run("should report decrease as down trend", func(t *testing.T) {
		// given
		records := Normalize([][]string{row("January", "200"), row("February", "150")})

		// when
		summary := Summarize(records, Breakdown(records))

		// then
		assert.InDelta(t, -25.0, summary.MonthOverMonthChangePercent, 1e-9)
		assert.Equal(t, TrendDown, summary.Trend)
	})

	t.Run("should report no change for a single month", func(t *testing.T) {
		// given
		records := Normalize([][]string{row("January", "100"), row("February", "0")})

		// when
		summary := Summarize(records, Breakdown(records))

		// then
		assert.Nil(t, summary.Previous)
		assert.Zero(t, summary.MonthOverMonthChangePercent)
		assert.Equal(t, TrendUp, summary.Trend)
	})

	t.Run("should fall back to no data", func(t *testing.T) {
		// when
		summary := Summarize(nil, nil)

		// then
		assert.Nil(t, summary.Current)
		assert.Zero(t, summary.CurrentMonthExpenses)
		assert.Equal(t, CategoryBreakdown{Name: NoDataCategory}, summary.TopCategory)
		assert.False(t, math.IsNaN(summary.MonthOverMonthChangePercent))
	})
}

func TestPipeline(t *testing.T) {
	// given
	grid := [][]string{{"April", "1000000", "200000", "0", "0", "0", "0", "0", "0", "0", "0", "0", ""}}

	// when
	records := Normalize(grid)
	breakdown := Breakdown(records)
	summary := Summarize(records, breakdown)

	// then
	require.Len(t, records, 1)
	assert.Equal(t, 1000000.0, records[0].TotalExpenses)
	assert.Equal(t, 200000.0, records[0].Category("Dep.on Motor Car"))
	for _, name := range CategoryNames[1:] {
		assert.Zero(t, records[0].Category(name))
	}
	assert.Equal(t, "Dep.on Motor Car", breakdown[0].Name)
	assert.InDelta(t, 100.0, breakdown[0].Percentage, 1e-9)
	assert.Equal(t, breakdown[0], summary.TopCategory)
}
