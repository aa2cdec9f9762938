package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/finny/internal/app"
	"github.com/MrJamesThe3rd/finny/internal/config"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	t.Setenv("STORE", config.StoreMemory)

	cfg, err := config.Load()
	require.NoError(t, err)

	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)

	return New(NewHandlers(a), Options{CORSOrigins: []string{"http://localhost:5173"}})
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name        string
		method      string
		path        string
		body        string
		contentType string
		wantStatus  int
	}{
		{name: "Board", method: http.MethodGet, path: "/api/v1/bills", wantStatus: http.StatusOK},
		{name: "Summary", method: http.MethodGet, path: "/api/v1/bills/summary", wantStatus: http.StatusOK},
		{name: "Accounts", method: http.MethodGet, path: "/api/v1/accounts", wantStatus: http.StatusOK},
		{name: "Transactions", method: http.MethodGet, path: "/api/v1/transactions", wantStatus: http.StatusOK},
		{name: "Categories", method: http.MethodGet, path: "/api/v1/categories", wantStatus: http.StatusOK},
		{name: "Dashboard", method: http.MethodGet, path: "/api/v1/dashboard", wantStatus: http.StatusOK},
		{name: "ImportNeedsMultipart", method: http.MethodPost, path: "/api/v1/bills/import", wantStatus: http.StatusBadRequest},
		{
			name: "ExportPreview", method: http.MethodPost, path: "/api/v1/bills/export",
			body: `{}`, contentType: "application/json", wantStatus: http.StatusOK,
		},
		{
			name: "BillsRejectForm", method: http.MethodPost, path: "/api/v1/bills",
			body: "a=b", contentType: "application/x-www-form-urlencoded", wantStatus: http.StatusUnsupportedMediaType,
		},
		{name: "Unknown", method: http.MethodGet, path: "/api/v1/budgets", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/bills", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Metrics(t *testing.T) {
	router := newTestRouter(t)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/bills/summary", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `finny_http_requests_total{method="GET",route="/api/v1/bills/summary",status="200"}`)
}
