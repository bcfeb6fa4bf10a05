package sheets

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/klokku/expensesheets/internal/event_bus"
	"github.com/klokku/expensesheets/internal/rest"
	"github.com/klokku/expensesheets/pkg/user"
	log "github.com/sirupsen/logrus"
)

type ReadRequestDTO struct {
	SpreadsheetId string `json:"spreadsheetId"`
	Range         string `json:"range"`
}

type ReadResponseDTO struct {
	Values Grid `json:"values"`
}

type AppendRequestDTO struct {
	SpreadsheetId string `json:"spreadsheetId"`
	Range         string `json:"range"`
	Values        Grid   `json:"values"`
}

type AppendResultDTO struct {
	UpdatedRange string `json:"updatedRange"`
	UpdatedRows  int64  `json:"updatedRows"`
}

type AppendResponseDTO struct {
	Result AppendResultDTO `json:"result"`
}

type CreateRequestDTO struct {
	Name string `json:"name"`
}

type CreateResponseDTO struct {
	Id string `json:"id"`
}

type Handler struct {
	gateway Gateway
	bus     *event_bus.EventBus
}

func NewHandler(gateway Gateway, bus *event_bus.EventBus) *Handler {
	return &Handler{gateway: gateway, bus: bus}
}

// Read godoc
// @Summary Read a range
// @Tags Sheets
// @Accept json
// @Produce json
// @Param request body ReadRequestDTO true "Spreadsheet and range"
// @Success 200 {object} ReadResponseDTO
// @Failure 400 {object} rest.ErrorResponse "Missing fields or invalid range"
// @Failure 401 {object} rest.ErrorResponse "Unauthorized"
// @Failure 404 {object} rest.ErrorResponse "Spreadsheet not found"
// @Failure 500 {object} rest.ErrorResponse "Provider error"
// @Router /api/sheets/read [post]
func (h *Handler) Read(w http.ResponseWriter, r *http.Request) {
	var request ReadRequestDTO
	if !decode(w, r, &request) {
		return
	}
	if request.SpreadsheetId == "" || request.Range == "" {
		rest.WriteError(w, http.StatusBadRequest, "Missing spreadsheetId or range")
		return
	}

	values, err := h.gateway.ReadRange(r.Context(), request.SpreadsheetId, request.Range)
	if err != nil {
		WriteGatewayError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	rest.WriteJSON(w, http.StatusOK, ReadResponseDTO{Values: values})
}

// Append godoc
// @Summary Append rows
// @Tags Sheets
// @Accept json
// @Produce json
// @Param request body AppendRequestDTO true "Spreadsheet, range and rows"
// @Success 200 {object} AppendResponseDTO
// @Failure 400 {object} rest.ErrorResponse "Missing fields or invalid range"
// @Failure 401 {object} rest.ErrorResponse "Unauthorized"
// @Failure 500 {object} rest.ErrorResponse "Provider error"
// @Router /api/sheets/append [post]
func (h *Handler) Append(w http.ResponseWriter, r *http.Request) {
	var request AppendRequestDTO
	if !decode(w, r, &request) {
		return
	}
	if request.SpreadsheetId == "" || request.Range == "" || len(request.Values) == 0 {
		rest.WriteError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	result, err := h.gateway.AppendRows(r.Context(), request.SpreadsheetId, request.Range, request.Values)
	if err != nil {
		WriteGatewayError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	rest.WriteJSON(w, http.StatusOK, AppendResponseDTO{Result: AppendResultDTO{
		UpdatedRange: result.UpdatedRange,
		UpdatedRows:  result.UpdatedRows,
	}})
}

// Create godoc
// @Summary Create a spreadsheet
// @Description Creates an empty spreadsheet. The name defaults to "My New Sheet".
// @Tags Sheets
// @Accept json
// @Produce json
// @Param request body CreateRequestDTO false "Spreadsheet name"
// @Success 200 {object} CreateResponseDTO
// @Failure 401 {object} rest.ErrorResponse "Unauthorized"
// @Failure 500 {object} rest.ErrorResponse "Provider error"
// @Router /api/sheets/create [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var request CreateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil && !errors.Is(err, io.EOF) {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format")
		return
	}
	name := request.Name
	if name == "" {
		name = DefaultStoreName
	}

	id, err := h.gateway.CreateStore(r.Context(), name)
	if err != nil {
		WriteGatewayError(w, err)
		return
	}

	if current, err := user.CurrentUser(r.Context()); err == nil {
		event := event_bus.NewEvent(r.Context(), event_bus.StoreCreatedEvent, event_bus.StoreCreated{
			UserEmail:   current.Email,
			StoreId:     id,
			DisplayName: name,
		})
		if err := h.bus.Publish(event); err != nil {
			log.Warnf("store.created handlers failed for %s: %v", id, err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	rest.WriteJSON(w, http.StatusOK, CreateResponseDTO{Id: id})
}

func decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format")
		return false
	}
	return true
}

// WriteGatewayError maps a gateway failure to its HTTP status.
func WriteGatewayError(w http.ResponseWriter, err error) {
	var remoteErr *RemoteError
	switch {
	case errors.Is(err, ErrUnauthorized):
		rest.WriteError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, ErrValidation):
		rest.WriteError(w, http.StatusBadRequest, "Missing required fields")
	case errors.Is(err, ErrInvalidRange):
		rest.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		rest.WriteError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &remoteErr):
		rest.WriteError(w, http.StatusInternalServerError, remoteErr.Message)
	default:
		log.Errorf("unexpected gateway error: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
