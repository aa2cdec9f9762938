package importcsv

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/finny/internal/bill"
	"github.com/MrJamesThe3rd/finny/internal/importer"
	"github.com/MrJamesThe3rd/finny/internal/metrics"
)

const maxUploadSize = 10 << 20

type Handler struct {
	importSvc *importer.Service
}

func NewHandler(importSvc *importer.Service) *Handler {
	return &Handler{importSvc: importSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importSheet)
}

type billResponse struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     civil.Date      `json:"due_date"`
	CategoryID  uuid.UUID       `json:"category_id"`
	Status      bill.Status     `json:"status"`
}

type rowErrorResponse struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

type importResponse struct {
	Imported int                `json:"imported"`
	Bills    []billResponse     `json:"bills"`
	Failed   []rowErrorResponse `json:"failed"`
}

func (h *Handler) importSheet(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	res, err := h.importSvc.Import(r.Context(), file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := importResponse{
		Imported: len(res.Created),
		Bills:    make([]billResponse, 0, len(res.Created)),
		Failed:   make([]rowErrorResponse, 0, len(res.Failed)),
	}

	for _, b := range res.Created {
		resp.Bills = append(resp.Bills, billResponse{
			ID:          b.ID,
			Description: b.Description,
			Amount:      b.Amount,
			DueDate:     b.DueDate,
			CategoryID:  b.CategoryID,
			Status:      b.Status,
		})

		metrics.BillsCreated(kindName(b), 1)
	}

	for _, f := range res.Failed {
		resp.Failed = append(resp.Failed, rowErrorResponse{Line: f.Line, Error: f.Err.Error()})
	}

	status := http.StatusCreated
	if len(res.Created) == 0 && len(res.Failed) > 0 {
		status = http.StatusUnprocessableEntity
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func kindName(b *bill.Bill) string {
	switch {
	case b.IsInstallment():
		return "installment"
	case b.IsRecurring():
		return "recurring"
	}

	return "plain"
}
