package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"tankwatch/backend/services/ingest-service/internal/fuel"
	"tankwatch/backend/services/ingest-service/internal/service"
)

// TankerIngester runs the tanker reading pipeline.
type TankerIngester interface {
	Ingest(ctx context.Context, in service.TankerReading) (*service.TankerResult, error)
}

// NewTankerDataHandler handles POST /api/tanker/data.
func NewTankerDataHandler(ingester TankerIngester, logger *zap.Logger) http.HandlerFunc {
	type request struct {
		NumberPlate string   `json:"number_plate"`
		Fuel        *float64 `json:"fuel"`
		Latitude    *float64 `json:"latitude"`
		Longitude   *float64 `json:"longitude"`
	}
	type response struct {
		Status       string      `json:"status"`
		TankerStatus fuel.Status `json:"tanker_status"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		req.NumberPlate = strings.TrimSpace(req.NumberPlate)
		if req.NumberPlate == "" || req.Fuel == nil || req.Latitude == nil || req.Longitude == nil {
			writeError(w, http.StatusBadRequest, "number_plate, fuel, latitude and longitude are required")
			return
		}

		res, err := ingester.Ingest(r.Context(), service.TankerReading{
			NumberPlate: req.NumberPlate,
			Fuel:        *req.Fuel,
			Point:       fuel.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude},
		})
		if err != nil {
			if errors.Is(err, service.ErrInvalidReading) {
				writeError(w, http.StatusBadRequest, "invalid reading")
				return
			}
			logger.Error("failed to ingest tanker reading", zap.String("device", req.NumberPlate), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to store reading")
			return
		}

		writeJSON(w, http.StatusCreated, response{Status: "ok", TankerStatus: res.Status})
	}
}
