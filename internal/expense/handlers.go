package expense

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zombor/snapbudget/internal/scanning"
)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// jsonError writes a JSON error payload with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// storeStatus maps a classified store failure to an HTTP status
func storeStatus(serr *StoreError) int {
	if serr.Kind == StoreNotFound {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

// writeServiceError renders service-layer failures. Store faults carry their
// actionable message; anything else is a plain bad request.
func writeServiceError(w http.ResponseWriter, err error) {
	var serr *StoreError
	if errors.As(err, &serr) {
		jsonError(w, serr.Message(), storeStatus(serr))
		return
	}
	jsonError(w, err.Error(), http.StatusBadRequest)
}

// handleScanReceipt runs an uploaded receipt image through the extraction
// pipeline and returns the reviewable result. Nothing is persisted here.
func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	// Parse multipart form (max 50MB to handle high-resolution phone photos)
	maxFormSize := int64(50 << 20) // 50MB
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if err.Error() == "http: no such file" {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxFormSize {
		jsonError(w, "File is too large. Maximum size is 50MB. Please compress or resize your image.", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		switch ext {
		case ".jpg", ".jpeg":
			contentType = "image/jpeg"
		case ".png":
			contentType = "image/png"
		case ".pdf":
			contentType = "application/pdf"
		case ".heic":
			contentType = "image/heic"
		case ".heif":
			contentType = "image/heif"
		default:
			contentType = "application/octet-stream"
		}
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	extraction, err := s.service.ExtractFromImage(r.Context(), data, contentType)
	if err != nil {
		if errors.Is(err, scanning.ErrEngineMissing) {
			// Distinct payload so the UI can show an install-required
			// message instead of a generic failure
			setCORSHeaders(w)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":          "Text recognition engine not found. Install tesseract and try again.",
				"engine_missing": true,
			})
			return
		}
		slog.Error("Error extracting receipt", "filename", header.Filename, "error", err)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(extraction); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleCreateExpense records a reviewed expense as a new ledger row
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date    string  `json:"date"`
		Amount  float64 `json:"amount"`
		RawText string  `json:"raw_text"`
		Notes   string  `json:"notes"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := s.service.CreateExpense(r.Context(), req.Date, req.Amount, req.RawText, req.Notes)
	if err != nil {
		slog.Error("Error creating expense", "error", err)
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(created); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleListExpenses returns every ledger row with its current row address
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.service.ListExpenses(r.Context())
	if err != nil {
		slog.Error("Error listing expenses", "error", err)
		writeServiceError(w, err)
		return
	}

	// Ensure we always return an array, not nil
	if expenses == nil {
		expenses = []Expense{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(expenses); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// rowAddress parses the {row} path value
func rowAddress(r *http.Request) (int, error) {
	return strconv.Atoi(r.PathValue("row"))
}

// handleUpdateExpense overwrites the addressed row
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	row, err := rowAddress(r)
	if err != nil {
		jsonError(w, "Invalid row address", http.StatusBadRequest)
		return
	}

	var req struct {
		Date     string  `json:"date"`
		Amount   float64 `json:"amount"`
		Category string  `json:"category"`
		RawText  string  `json:"raw_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.service.UpdateExpense(r.Context(), row, req.Date, req.Amount, Category(req.Category), req.RawText); err != nil {
		slog.Error("Error updating expense", "row", row, "error", err)
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteExpense removes the addressed row; later rows shift up
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	row, err := rowAddress(r)
	if err != nil {
		jsonError(w, "Invalid row address", http.StatusBadRequest)
		return
	}

	if err := s.service.DeleteExpense(r.Context(), row); err != nil {
		slog.Error("Error deleting expense", "row", row, "error", err)
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleMonthlySummary returns the spend total for one month, defaulting to
// the current one
func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request) {
	now := s.service.Now()
	year := now.Year()
	month := now.Month()

	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, "Invalid year", http.StatusBadRequest)
			return
		}
		year = y
	}
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			jsonError(w, "Invalid month", http.StatusBadRequest)
			return
		}
		month = time.Month(m)
	}

	total, err := s.service.MonthlyTotal(r.Context(), year, month)
	if err != nil {
		slog.Error("Error computing monthly total", "year", year, "month", month, "error", err)
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"year":  year,
		"month": int(month),
		"total": total,
	}); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleListCategories returns the fixed category set for UI dropdowns
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(Categories); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}
