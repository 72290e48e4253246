package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/facility-scheduler/internal/application"
)

type equipmentService interface {
	Create(ctx context.Context, input application.EquipmentInput) (application.EquipmentItem, error)
	Get(ctx context.Context, id string) (application.EquipmentItem, error)
	List(ctx context.Context) ([]application.EquipmentItem, error)
	Delete(ctx context.Context, id string) error
}

// EquipmentHandler serves the /equipment endpoints.
type EquipmentHandler struct {
	service   equipmentService
	responder responder
}

// NewEquipmentHandler wires the equipment service into HTTP handlers.
func NewEquipmentHandler(service equipmentService, logger *slog.Logger) *EquipmentHandler {
	return &EquipmentHandler{service: service, responder: newResponder(logger)}
}

// Create handles POST /equipment.
func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req equipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	item, err := h.service.Create(r.Context(), application.EquipmentInput{Name: req.Name})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toEquipmentDTO(item))
}

// Get handles GET /equipment/{id}.
func (h *EquipmentHandler) Get(w http.ResponseWriter, r *http.Request, id string) {
	if strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEquipmentID)
		return
	}

	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEquipmentDTO(item))
}

// List handles GET /equipment.
func (h *EquipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]equipmentDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, toEquipmentDTO(item))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, equipmentListResponse{Equipment: dtos})
}

// Delete handles DELETE /equipment/{id}.
func (h *EquipmentHandler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	if strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEquipmentID)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type equipmentRequest struct {
	Name string `json:"name"`
}

type equipmentDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type equipmentListResponse struct {
	Equipment []equipmentDTO `json:"equipment"`
}

func toEquipmentDTO(item application.EquipmentItem) equipmentDTO {
	return equipmentDTO{
		ID:        item.ID,
		Name:      item.Name,
		CreatedAt: item.CreatedAt.Format(time.RFC3339),
		UpdatedAt: item.UpdatedAt.Format(time.RFC3339),
	}
}
