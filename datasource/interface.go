package datasource

import (
	"context"
	"time"

	"agri-forecast-service/models"
)

// HistoryRequest describes a daily window of observations for a point
type HistoryRequest struct {
	Point models.GeoPoint
	Start time.Time
	End   time.Time
}

// HistoryProvider defines the interface for any upstream source of daily history
type HistoryProvider interface {
	Name() string
	FetchHistory(ctx context.Context, req HistoryRequest) (*PowerResponse, error)
}
