package scan_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-scanner/internal/logger"
	"ms-scanner/internal/models"
	scans "ms-scanner/internal/scans/service"
	"ms-scanner/internal/utils"
)

type ScanService interface {
	RecordScan(userID int64, req models.ScanRequest) (*models.ScanView, error)
	Aggregate(filter models.AggregateFilter) ([]models.ActivityFrequency, error)
}

type Handler struct {
	ScanService ScanService
	Logger      *logger.Logger
}

func NewHandler(scanService ScanService, log *logger.Logger) *Handler {
	return &Handler{ScanService: scanService, Logger: log}
}

func (h *Handler) RecordScan(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	h.Logger.Info("API", fmt.Sprintf("RecordScan: userId=%d", userID))

	// Empty bodies fall through to field validation so the user lookup
	// still decides between 404 and 400.
	var req models.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.Logger.Error("API", fmt.Sprintf("RecordScan: failed to decode request body: %v", err))
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := h.ScanService.RecordScan(userID, req)
	if err != nil {
		switch {
		case errors.Is(err, scans.ErrUserNotFound):
			utils.WriteError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, scans.ErrMissingActivityFields):
			utils.WriteError(w, http.StatusBadRequest, "Missing activity_name or activity_category")
		default:
			h.Logger.Error("API", fmt.Sprintf("RecordScan: %v", err))
			utils.WriteError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	h.Logger.LogScan("RECORDED", strconv.FormatInt(userID, 10),
		fmt.Sprintf("%s/%s", view.ActivityName, view.ActivityCategory))
	if err := utils.WriteJSON(w, http.StatusOK, view); err != nil {
		h.Logger.Error("API", fmt.Sprintf("RecordScan: failed to encode response: %v", err))
	}
}

func (h *Handler) GetScanFrequencies(w http.ResponseWriter, r *http.Request) {
	filter := models.AggregateFilter{
		MinFrequency: queryInt(r, "min_frequency"),
		MaxFrequency: queryInt(r, "max_frequency"),
		Category:     r.URL.Query().Get("activity_category"),
	}
	h.Logger.Info("API", fmt.Sprintf("GetScanFrequencies: min=%d max=%d category=%q",
		filter.MinFrequency, filter.MaxFrequency, filter.Category))

	rows, err := h.ScanService.Aggregate(filter)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetScanFrequencies: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, rows); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetScanFrequencies: failed to encode response: %v", err))
	}
}

// queryInt parses an optional integer query param. Absent, malformed, and
// zero values all mean "filter not supplied".
func queryInt(r *http.Request, name string) int {
	value := r.URL.Query().Get(name)
	if value == "" {
		return 0
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return parsed
}
