package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"tankwatch/backend/services/ingest-service/internal/models"
	"tankwatch/backend/services/ingest-service/internal/repository"
	"tankwatch/backend/services/ingest-service/internal/service"
)

// WeldingIngester stores welding samples and evaluates thresholds.
type WeldingIngester interface {
	Ingest(ctx context.Context, sample service.WeldingSample) ([]models.WeldingAlert, error)
}

// NewWeldingDataHandler handles POST /api/data/{id}.
func NewWeldingDataHandler(ingester WeldingIngester, logger *zap.Logger) http.HandlerFunc {
	type request struct {
		Voltage *float64 `json:"voltage"`
		Current *float64 `json:"current"`
	}
	type response struct {
		Success bool                  `json:"success"`
		Alerts  []models.WeldingAlert `json:"alerts"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		deviceID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil || deviceID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid device id")
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Voltage == nil || req.Current == nil {
			writeError(w, http.StatusBadRequest, "voltage and current are required")
			return
		}

		alerts, err := ingester.Ingest(r.Context(), service.WeldingSample{
			DeviceID: deviceID,
			Voltage:  *req.Voltage,
			Current:  *req.Current,
		})
		if err != nil {
			if errors.Is(err, repository.ErrThresholdsNotFound) {
				writeError(w, http.StatusNotFound, "thresholds not found for device")
				return
			}
			logger.Error("failed to ingest welding data", zap.Int64("device_id", deviceID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to store data")
			return
		}

		writeJSON(w, http.StatusOK, response{Success: true, Alerts: alerts})
	}
}
