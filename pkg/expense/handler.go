package expense

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/expensesheets/internal/rest"
	"github.com/klokku/expensesheets/pkg/sheets"
	log "github.com/sirupsen/logrus"
)

type CategoryAmountDTO struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

type ExpenseRecordDTO struct {
	Month         string              `json:"month"`
	TotalExpenses float64             `json:"totalExpenses"`
	Categories    []CategoryAmountDTO `json:"categories"`
}

type CategoryBreakdownDTO struct {
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
	Amount     float64 `json:"amount"`
}

type SummaryDTO struct {
	TotalExpenses               float64              `json:"totalExpenses"`
	CurrentMonth                *ExpenseRecordDTO    `json:"currentMonth,omitempty"`
	CurrentMonthExpenses        float64              `json:"currentMonthExpenses"`
	PreviousMonth               *ExpenseRecordDTO    `json:"previousMonth,omitempty"`
	MonthOverMonthChangePercent float64              `json:"monthOverMonthChangePercent"`
	Trend                       Trend                `json:"trend"`
	TopCategory                 CategoryBreakdownDTO `json:"topCategory"`
}

type DashboardDTO struct {
	StoreId        string                 `json:"storeId"`
	SpreadsheetUrl string                 `json:"spreadsheetUrl"`
	AsOnDate       string                 `json:"asOnDate"`
	Period         string                 `json:"period"`
	GeneratedAt    time.Time              `json:"generatedAt"`
	Records        []ExpenseRecordDTO     `json:"records"`
	Breakdown      []CategoryBreakdownDTO `json:"breakdown"`
	Summary        SummaryDTO             `json:"summary"`
}

type Handler struct {
	service         Service
	refreshInterval time.Duration
	renderers       map[string]ReportRenderer
}

func NewHandler(service Service, refreshInterval time.Duration) *Handler {
	return &Handler{
		service:         service,
		refreshInterval: refreshInterval,
		renderers: map[string]ReportRenderer{
			"csv":  NewCsvReportRenderer(),
			"xlsx": NewXlsxReportRenderer(),
		},
	}
}

// GetDashboard godoc
// @Summary Get expense dashboard
// @Description Reads the store and returns monthly records, category breakdown and summary
// @Tags Dashboard
// @Produce json
// @Param storeId path string true "Store id"
// @Success 200 {object} DashboardDTO
// @Failure 401 {object} rest.ErrorResponse "Unauthorized"
// @Failure 404 {object} rest.ErrorResponse "Spreadsheet not found"
// @Failure 500 {object} rest.ErrorResponse "Provider error"
// @Router /api/dashboard/{storeId} [get]
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	storeId := mux.Vars(r)["storeId"]
	log.Tracef("Getting dashboard of %s", storeId)

	dashboard, err := h.service.GetDashboard(r.Context(), storeId)
	if err != nil {
		sheets.WriteGatewayError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	rest.WriteJSON(w, http.StatusOK, dashboardToDTO(dashboard))
}

// StreamDashboard godoc
// @Summary Stream dashboard refreshes
// @Description Server-sent events: a "dashboard" event per refresh, an "error" event when a refresh fails
// @Tags Dashboard
// @Produce text/event-stream
// @Param storeId path string true "Store id"
// @Success 200
// @Router /api/dashboard/{storeId}/stream [get]
func (h *Handler) StreamDashboard(w http.ResponseWriter, r *http.Request) {
	storeId := mux.Vars(r)["storeId"]
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	controller := http.NewResponseController(w)
	// the stream outlives the server's write timeout
	_ = controller.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	poller := NewPoller(func(ctx context.Context) (Dashboard, error) {
		return h.service.GetDashboard(ctx, storeId)
	}, h.refreshInterval)
	go poller.Run(ctx)

	for update := range poller.Updates() {
		if err := writeEvent(w, update); err != nil {
			log.Debugf("Dashboard stream of %s closed: %v", storeId, err)
			return
		}
		if err := controller.Flush(); err != nil {
			log.Debugf("Dashboard stream of %s cannot flush: %v", storeId, err)
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, update Update) error {
	name := "dashboard"
	var payload any = dashboardToDTO(update.Dashboard)
	if update.Err != nil {
		name = "error"
		payload = rest.ErrorResponse{Error: update.Err.Error()}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", update.Seq, name, data)
	return err
}

// ExportDashboard godoc
// @Summary Export expense report
// @Tags Dashboard
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param storeId path string true "Store id"
// @Param format query string false "csv (default) or xlsx"
// @Success 200 {file} file
// @Failure 400 {object} rest.ErrorResponse "Unknown format"
// @Router /api/dashboard/{storeId}/export [get]
func (h *Handler) ExportDashboard(w http.ResponseWriter, r *http.Request) {
	storeId := mux.Vars(r)["storeId"]
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	renderer, ok := h.renderers[format]
	if !ok {
		rest.WriteError(w, http.StatusBadRequest, "Unsupported export format: "+format)
		return
	}

	dashboard, err := h.service.GetDashboard(r.Context(), storeId)
	if err != nil {
		sheets.WriteGatewayError(w, err)
		return
	}
	report, err := renderer.Render(dashboard)
	if err != nil {
		rest.WriteError(w, http.StatusInternalServerError, "Failed to render report")
		return
	}

	filename := fmt.Sprintf("expense-report-%s.%s", dashboard.GeneratedAt.Format("2006-01-02"), renderer.FileExtension())
	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(report); err != nil {
		log.Errorf("failed to write report: %v", err)
	}
}

func recordToDTO(record ExpenseRecord) ExpenseRecordDTO {
	categories := make([]CategoryAmountDTO, 0, len(record.Categories))
	for _, c := range record.Categories {
		categories = append(categories, CategoryAmountDTO{Name: c.Name, Amount: c.Amount})
	}
	return ExpenseRecordDTO{
		Month:         record.Month,
		TotalExpenses: record.TotalExpenses,
		Categories:    categories,
	}
}

func breakdownToDTO(b CategoryBreakdown) CategoryBreakdownDTO {
	return CategoryBreakdownDTO{Name: b.Name, Percentage: b.Percentage, Amount: b.Amount}
}

func dashboardToDTO(dashboard Dashboard) DashboardDTO {
	records := make([]ExpenseRecordDTO, 0, len(dashboard.Records))
	for _, record := range dashboard.Records {
		records = append(records, recordToDTO(record))
	}
	breakdown := make([]CategoryBreakdownDTO, 0, len(dashboard.Breakdown))
	for _, b := range dashboard.Breakdown {
		breakdown = append(breakdown, breakdownToDTO(b))
	}

	summary := SummaryDTO{
		TotalExpenses:               dashboard.Summary.TotalExpenses,
		CurrentMonthExpenses:        dashboard.Summary.CurrentMonthExpenses,
		MonthOverMonthChangePercent: dashboard.Summary.MonthOverMonthChangePercent,
		Trend:                       dashboard.Summary.Trend,
		TopCategory:                 breakdownToDTO(dashboard.Summary.TopCategory),
	}
	if dashboard.Summary.Current != nil {
		current := recordToDTO(*dashboard.Summary.Current)
		summary.CurrentMonth = &current
	}
	if dashboard.Summary.Previous != nil {
		previous := recordToDTO(*dashboard.Summary.Previous)
		summary.PreviousMonth = &previous
	}

	return DashboardDTO{
		StoreId:        dashboard.StoreId,
		SpreadsheetUrl: dashboard.SpreadsheetUrl,
		AsOnDate:       dashboard.AsOnDate,
		Period:         dashboard.Period,
		GeneratedAt:    dashboard.GeneratedAt,
		Records:        records,
		Breakdown:      breakdown,
		Summary:        summary,
	}
}
