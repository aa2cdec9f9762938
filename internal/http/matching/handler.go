package matching

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/finny/internal/matching"
)

type Handler struct {
	svc *matching.Service
}

func NewHandler(svc *matching.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/suggest", h.suggest)
	r.Post("/", h.learn)
}

type suggestResponse struct {
	Description string     `json:"description"`
	CategoryID  *uuid.UUID `json:"category_id"`
}

func (h *Handler) suggest(w http.ResponseWriter, r *http.Request) {
	desc := r.URL.Query().Get("description")
	if desc == "" {
		http.Error(w, "description query parameter is required", http.StatusBadRequest)
		return
	}

	id, ok, err := h.svc.Suggest(r.Context(), desc)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := suggestResponse{Description: desc}
	if ok {
		resp.CategoryID = &id
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type learnRequest struct {
	Pattern    string    `json:"pattern"`
	CategoryID uuid.UUID `json:"category_id"`
}

func (h *Handler) learn(w http.ResponseWriter, r *http.Request) {
	var req learnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Pattern == "" || req.CategoryID == uuid.Nil {
		http.Error(w, "pattern and category_id are required", http.StatusBadRequest)
		return
	}

	if err := h.svc.Learn(r.Context(), req.Pattern, req.CategoryID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
}
