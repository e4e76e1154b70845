package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"tankwatch/backend/services/dashboard-service/internal/models"
	"tankwatch/backend/services/dashboard-service/internal/repository"
	"tankwatch/backend/services/dashboard-service/internal/service"
)

// Dashboard is the read and admin API over welding machines.
type Dashboard interface {
	Devices(ctx context.Context) ([]models.Device, error)
	DeviceConfigs(ctx context.Context) ([]models.DeviceConfig, error)
	WidgetData(ctx context.Context, deviceID int64, rangeName string) ([]models.WidgetPoint, error)
	Records(ctx context.Context, deviceID int64) ([]models.AlertRecord, error)
	UpdateDevice(ctx context.Context, u models.DeviceUpdate) error
}

// DashboardHandler serves the dashboard endpoints.
type DashboardHandler struct {
	svc    Dashboard
	logger *zap.Logger
}

// NewDashboardHandler returns handler.
func NewDashboardHandler(svc Dashboard, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, logger: logger}
}

// Devices handles GET /.
func (h *DashboardHandler) Devices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.svc.Devices(r.Context())
	if err != nil {
		h.logger.Error("failed to list devices", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch machines")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"devices": devices})
}

// Widgets handles GET /widgets/data?range=&deviceId=.
func (h *DashboardHandler) Widgets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	deviceID, err := strconv.ParseInt(q.Get("deviceId"), 10, 64)
	if err != nil || deviceID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid deviceId")
		return
	}

	points, err := h.svc.WidgetData(r.Context(), deviceID, q.Get("range"))
	switch {
	case errors.Is(err, service.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, "range must be one of minute, hour, day, week, month, year")
		return
	case errors.Is(err, service.ErrNoData):
		writeError(w, http.StatusNotFound, "no data for this device in this range")
		return
	case err != nil:
		h.logger.Error("failed to load widget data", zap.Int64("device_id", deviceID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to retrieve data")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": points})
}

// Records handles GET /records/data?device=all|<id>.
func (h *DashboardHandler) Records(w http.ResponseWriter, r *http.Request) {
	var deviceID int64
	if raw := strings.TrimSpace(r.URL.Query().Get("device")); raw != "" && raw != "all" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "device must be all or a numeric id")
			return
		}
		deviceID = id
	}

	records, err := h.svc.Records(r.Context(), deviceID)
	if err != nil {
		h.logger.Error("failed to load records", zap.Int64("device_id", deviceID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to retrieve records")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// AdminPanel handles GET /admin.
func (h *DashboardHandler) AdminPanel(w http.ResponseWriter, r *http.Request) {
	configs, err := h.svc.DeviceConfigs(r.Context())
	if err != nil {
		h.logger.Error("failed to load device configs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch admin data")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"configs": configs})
}

// UpdateDevice handles PATCH /admin.
func (h *DashboardHandler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	var req models.DeviceUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	err := h.svc.UpdateDevice(r.Context(), req)
	switch {
	case errors.Is(err, service.ErrInvalidUpdate):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, repository.ErrDeviceNotFound):
		writeError(w, http.StatusNotFound, "device not found")
		return
	case err != nil:
		h.logger.Error("failed to update device", zap.Int64("device_id", req.DeviceID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update device")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Device data updated successfully"})
}
