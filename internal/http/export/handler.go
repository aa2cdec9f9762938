package export

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/finny/internal/bill"
	"github.com/MrJamesThe3rd/finny/internal/calendar"
	"github.com/MrJamesThe3rd/finny/internal/export"
)

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.metadata)
	r.Post("/download", h.download)
}

type exportRequest struct {
	Status    *bill.Status `json:"status,omitempty"`
	StartDate string       `json:"start_date,omitempty"`
	EndDate   string       `json:"end_date,omitempty"`
}

func (req exportRequest) filter() (export.Filter, error) {
	f := export.Filter{Status: req.Status}

	if req.StartDate != "" {
		d, err := calendar.Parse(req.StartDate)
		if err != nil {
			return f, err
		}

		f.From = d
	}

	if req.EndDate != "" {
		d, err := calendar.Parse(req.EndDate)
		if err != nil {
			return f, err
		}

		f.To = d
	}

	return f, nil
}

type billResponse struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     civil.Date      `json:"due_date"`
	Category    string          `json:"category"`
	Status      bill.Status     `json:"status"`
}

type exportMetadataResponse struct {
	Bills     []billResponse `json:"bills"`
	Statement string         `json:"statement"`
}

func (h *Handler) items(w http.ResponseWriter, r *http.Request) ([]export.Item, bool) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	filter, err := req.filter()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	items, err := h.svc.Items(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list bills for export", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return nil, false
	}

	return items, true
}

func (h *Handler) metadata(w http.ResponseWriter, r *http.Request) {
	items, ok := h.items(w, r)
	if !ok {
		return
	}

	resp := exportMetadataResponse{
		Bills:     make([]billResponse, 0, len(items)),
		Statement: h.svc.Statement(items),
	}

	for _, item := range items {
		resp.Bills = append(resp.Bills, billResponse{
			ID:          item.Bill.ID,
			Description: item.Bill.Description,
			Amount:      item.Bill.Amount,
			DueDate:     item.Bill.DueDate,
			Category:    item.Category,
			Status:      item.Bill.Status,
		})
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	items, ok := h.items(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"bills_%s.zip\"", time.Now().Format("20060102")))

	zipWriter := zip.NewWriter(w)
	defer zipWriter.Close()

	sheet, err := zipWriter.Create("bills.csv")
	if err != nil {
		slog.Error("failed to create zip", "error", err)
		return
	}

	if err := h.svc.WriteCSV(sheet, items); err != nil {
		slog.Error("failed to write bill sheet", "error", err)
		return
	}

	statement, err := zipWriter.Create("statement.txt")
	if err != nil {
		slog.Error("failed to create zip", "error", err)
		return
	}

	if _, err := statement.Write([]byte(h.svc.Statement(items))); err != nil {
		slog.Error("failed to write statement", "error", err)
	}
}
