package expense

import (
	"context"
	"fmt"
	"time"

	"github.com/klokku/expensesheets/internal/utils"
	"github.com/klokku/expensesheets/pkg/sheets"
	log "github.com/sirupsen/logrus"
)

const asOnDateLayout = "02/01/2006"

type RangeReader interface {
	ReadRange(ctx context.Context, storeId string, rangeSpec string) (sheets.Grid, error)
}

type Service interface {
	// GetDashboard reads the store and recomputes every aggregate. Nothing is cached.
	GetDashboard(ctx context.Context, storeId string) (Dashboard, error)
}

type ServiceImpl struct {
	reader    RangeReader
	dataRange string
	clock     utils.Clock
}

func NewService(reader RangeReader, dataRange string, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{reader: reader, dataRange: dataRange, clock: clock}
}

func (s *ServiceImpl) GetDashboard(ctx context.Context, storeId string) (Dashboard, error) {
	if storeId == "" {
		return Dashboard{}, sheets.ErrValidation
	}
	grid, err := s.reader.ReadRange(ctx, storeId, s.dataRange)
	if err != nil {
		return Dashboard{}, err
	}
	dashboard := BuildDashboard(storeId, grid, s.clock.Now())
	log.Tracef("Dashboard of %s: %d of %d rows kept", storeId, len(dashboard.Records), len(grid))
	return dashboard, nil
}

// BuildDashboard runs the whole normalization pipeline over one read of the store.
func BuildDashboard(storeId string, grid [][]string, now time.Time) Dashboard {
	records := Normalize(grid)
	breakdown := Breakdown(records)
	return Dashboard{
		StoreId:        storeId,
		SpreadsheetUrl: SpreadsheetURL(storeId),
		AsOnDate:       now.Format(asOnDateLayout),
		Period:         FinancialYearPeriod(now),
		GeneratedAt:    now,
		Records:        records,
		Breakdown:      breakdown,
		Summary:        Summarize(records, breakdown),
	}
}

// FinancialYearPeriod labels the April to March year that ends in now's calendar year.
func FinancialYearPeriod(now time.Time) string {
	year := now.Year()
	return fmt.Sprintf("01.04.%d to 31.03.%d", year-1, year)
}
