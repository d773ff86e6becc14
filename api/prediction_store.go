package api

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"agri-forecast-service/models"
)

// PredictionStore holds the latest prediction per location and crop
type PredictionStore struct {
	data  map[string]*models.PredictionResponse // key is rounded location:crop
	mutex sync.RWMutex
}

// NewPredictionStore creates a new in-memory prediction store
func NewPredictionStore() *PredictionStore {
	return &PredictionStore{
		data: make(map[string]*models.PredictionResponse),
	}
}

// StoreKey builds the key for a location and crop
func StoreKey(point models.GeoPoint, cropType string) string {
	return fmt.Sprintf("%.3f,%.3f:%s", point.Latitude, point.Longitude, strings.ToLower(strings.TrimSpace(cropType)))
}

// UpdatePrediction adds or replaces the stored prediction for each crop in resp
func (s *PredictionStore) UpdatePrediction(resp *models.PredictionResponse) {
	if resp == nil {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, crop := range resp.CropHealth {
		s.data[StoreKey(resp.Location, crop.CropType)] = resp
	}
}

// GetPrediction retrieves the latest prediction for a location and crop
func (s *PredictionStore) GetPrediction(point models.GeoPoint, cropType string) (*models.PredictionResponse, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	resp, exists := s.data[StoreKey(point, cropType)]
	return resp, exists
}

// Keys returns all stored keys in sorted order
func (s *PredictionStore) Keys() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	keys := make([]string, 0, len(s.data))
	for key := range s.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// PruneOldPredictions removes predictions generated before now-maxAge
func (s *PredictionStore) PruneOldPredictions(maxAge time.Duration) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cutoff := time.Now().Add(-maxAge)
	prunedCount := 0

	for key, resp := range s.data {
		if resp.GeneratedAt.Before(cutoff) {
			delete(s.data, key)
			prunedCount++
		}
	}

	return prunedCount
}
