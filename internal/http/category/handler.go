package category

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/finny/internal/category"
)

type Handler struct {
	svc *category.Service
}

func NewHandler(svc *category.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
}

type categoryResponse struct {
	ID    uuid.UUID     `json:"id"`
	Name  string        `json:"name"`
	Type  category.Type `json:"type"`
	Icon  string        `json:"icon,omitempty"`
	Color string        `json:"color,omitempty"`
}

func toResponse(c *category.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Type: c.Type, Icon: c.Icon, Color: c.Color}
}

type createCategoryRequest struct {
	Name  string        `json:"name"`
	Type  category.Type `json:"type"`
	Icon  string        `json:"icon"`
	Color string        `json:"color"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c := &category.Category{Name: req.Name, Type: req.Type, Icon: req.Icon, Color: req.Color}
	if err := h.svc.Create(r.Context(), c); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(c)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := make([]categoryResponse, len(cats))
	for i, c := range cats {
		resp[i] = toResponse(c)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
