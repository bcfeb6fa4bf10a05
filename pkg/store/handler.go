package store

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/expensesheets/internal/rest"
	"github.com/klokku/expensesheets/pkg/expense"
	"github.com/klokku/expensesheets/pkg/sheets"
	"github.com/klokku/expensesheets/pkg/user"
	log "github.com/sirupsen/logrus"
)

type StoreDTO struct {
	StoreId        string    `json:"storeId"`
	DisplayName    string    `json:"displayName"`
	CreatedAt      time.Time `json:"createdAt"`
	SpreadsheetUrl string    `json:"spreadsheetUrl"`
}

type CreateStoreRequestDTO struct {
	Name string `json:"name"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// List godoc
// @Summary List stores
// @Description Stores the current user created, newest first
// @Tags Store
// @Produce json
// @Success 200 {array} StoreDTO
// @Failure 401 {object} rest.ErrorResponse "Unauthorized"
// @Router /api/stores [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	refs, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dtos := make([]StoreDTO, 0, len(refs))
	for _, ref := range refs {
		dtos = append(dtos, toDTO(ref))
	}
	w.Header().Set("Content-Type", "application/json")
	rest.WriteJSON(w, http.StatusOK, dtos)
}

// Create godoc
// @Summary Create a store
// @Description Creates a spreadsheet with the expense template and remembers it
// @Tags Store
// @Accept json
// @Produce json
// @Param request body CreateStoreRequestDTO true "Store name"
// @Success 201 {object} StoreDTO
// @Failure 400 {object} rest.ErrorResponse "Name is required"
// @Failure 401 {object} rest.ErrorResponse "Unauthorized"
// @Failure 500 {object} rest.ErrorResponse "Provider error"
// @Router /api/stores [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var request CreateStoreRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format")
		return
	}

	ref, err := h.service.Create(r.Context(), request.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	rest.WriteJSON(w, http.StatusCreated, toDTO(ref))
}

// Remove godoc
// @Summary Forget a store
// @Description Removes the store from the list. The spreadsheet is not deleted.
// @Tags Store
// @Param storeId path string true "Store id"
// @Success 204
// @Failure 401 {object} rest.ErrorResponse "Unauthorized"
// @Router /api/stores/{storeId} [delete]
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	storeId := mux.Vars(r)["storeId"]
	if err := h.service.Remove(r.Context(), storeId); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		rest.WriteError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, ErrValidation):
		rest.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		log.Errorf("store request failed: %v", err)
		sheets.WriteGatewayError(w, err)
	}
}

func toDTO(ref StoreRef) StoreDTO {
	return StoreDTO{
		StoreId:        ref.StoreId,
		DisplayName:    ref.DisplayName,
		CreatedAt:      ref.CreatedAt,
		SpreadsheetUrl: expense.SpreadsheetURL(ref.StoreId),
	}
}
