package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"agri-forecast-service/forecast"
	"agri-forecast-service/models"
	"agri-forecast-service/prediction"
)

// Predictor generates predictions
type Predictor interface {
	Generate(ctx context.Context, req prediction.Request) (*models.PredictionResponse, error)
}

// CropCatalog exposes the crop parameter table
type CropCatalog interface {
	CropTable() map[string]models.CropParameters
}

// Server represents the API server
type Server struct {
	app       *fiber.App
	predictor Predictor
	recent    *PredictionStore
	crops     CropCatalog
	port      int
	logger    *zap.Logger
}

// predictionRequest is the JSON body of POST /api/predictions
type predictionRequest struct {
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	CropType    string   `json:"cropType"`
	CurrentNDVI *float64 `json:"currentNdvi"`
}

// NewServer creates a new API server. metricsHandler may be nil.
func NewServer(predictor Predictor, recent *PredictionStore, crops CropCatalog, metricsHandler http.Handler, port int, readTimeout time.Duration, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "agricast",
		ReadTimeout:           readTimeout,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	server := &Server{
		app:       app,
		predictor: predictor,
		recent:    recent,
		crops:     crops,
		port:      port,
		logger:    logger,
	}

	// Predictions
	app.Post("/api/predictions", server.handleCreatePrediction)
	app.Get("/api/predictions/latest", server.handleGetLatestPrediction)
	app.Get("/api/predictions/keys", server.handleGetPredictionKeys)

	// Crop parameter table
	app.Get("/api/crops", server.handleGetCrops)

	// Health check
	app.Get("/api/health", server.handleHealthCheck)

	if metricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metricsHandler))
	}

	return server
}

// App returns the underlying fiber application
func (s *Server) App() *fiber.App {
	return s.app
}

// Start begins the API server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("Starting API server", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the API server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// handleCreatePrediction generates a prediction for the posted location and crop
func (s *Server) handleCreatePrediction(c *fiber.Ctx) error {
	var body predictionRequest
	if err := c.BodyParser(&body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if body.Latitude == nil || body.Longitude == nil {
		return jsonError(c, fiber.StatusBadRequest, "latitude and longitude are required")
	}
	if body.CropType == "" {
		return jsonError(c, fiber.StatusBadRequest, "cropType is required")
	}

	req := prediction.Request{
		Location:    models.GeoPoint{Latitude: *body.Latitude, Longitude: *body.Longitude},
		CropType:    body.CropType,
		CurrentNDVI: body.CurrentNDVI,
	}

	resp, err := s.predictor.Generate(c.UserContext(), req)
	switch {
	case errors.Is(err, prediction.ErrInvalidRequest):
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, forecast.ErrInsufficientHistory):
		return jsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	case err != nil:
		s.logger.Error("Prediction failed", zap.Error(err))
		return jsonError(c, fiber.StatusInternalServerError, "Failed to generate prediction")
	}

	s.recent.UpdatePrediction(resp)
	return c.Status(fiber.StatusOK).JSON(resp)
}

// handleGetLatestPrediction returns the most recent stored prediction
func (s *Server) handleGetLatestPrediction(c *fiber.Ctx) error {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	crop := c.Query("crop")
	if latErr != nil || lonErr != nil || crop == "" {
		return jsonError(c, fiber.StatusBadRequest, "lat, lon and crop query parameters are required")
	}

	point := models.GeoPoint{Latitude: lat, Longitude: lon}
	resp, exists := s.recent.GetPrediction(point, crop)
	if !exists {
		return jsonError(c, fiber.StatusNotFound,
			fmt.Sprintf("No prediction found for %s", StoreKey(point, crop)))
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// handleGetPredictionKeys lists the locations and crops with stored predictions
func (s *Server) handleGetPredictionKeys(c *fiber.Ctx) error {
	keys := s.recent.Keys()
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"keys":  keys,
		"count": len(keys),
	})
}

// handleGetCrops returns the crop parameter table
func (s *Server) handleGetCrops(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"crops": s.crops.CropTable(),
	})
}

// handleHealthCheck provides a simple health check endpoint
func (s *Server) handleHealthCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}
