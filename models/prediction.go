package models

import (
	"time"
)

// RiskLevel classifies crop risk, from low to critical
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// CropParameters holds the physiological constants of a crop type
type CropParameters struct {
	BaseTempC    float64 `json:"baseTemp" mapstructure:"base_temp_c"`
	OptimalTempC float64 `json:"optimalTemp" mapstructure:"optimal_temp_c"`
	MaxTempC     float64 `json:"maxTemp" mapstructure:"max_temp_c"`
	WaterNeedsMm float64 `json:"waterNeeds" mapstructure:"water_needs_mm"` // daily demand
	OptimalNDVI  float64 `json:"optimalNdvi" mapstructure:"optimal_ndvi"`
}

// CropHealthPrediction is the agronomic outlook for one crop
type CropHealthPrediction struct {
	CropType           string    `json:"cropType"`
	CurrentNDVI        float64   `json:"currentNDVI"`
	PredictedNDVI      []float64 `json:"predictedNDVI"`
	HealthScore        int       `json:"healthScore"`
	RiskLevel          RiskLevel `json:"riskLevel"`
	Recommendations    []string  `json:"recommendations"`
	DaysAhead          int       `json:"daysAhead"`
	ParametersFallback bool      `json:"parametersFallback,omitempty"`
}

// LivestockRiskPrediction is the livestock outlook for the forecast window
type LivestockRiskPrediction struct {
	HeatStressRisk  float64  `json:"heatStressRisk"`
	DiseaseRisk     float64  `json:"diseaseRisk"`
	WaterStressRisk float64  `json:"waterStressRisk"`
	Recommendations []string `json:"recommendations"`
	AffectedAnimals int      `json:"affectedAnimals"`
}

// ClimateRiskType names a class of climate hazard
type ClimateRiskType string

const (
	ClimateDrought   ClimateRiskType = "drought"
	ClimateFlood     ClimateRiskType = "flood"
	ClimateFrost     ClimateRiskType = "frost"
	ClimateHeatwave  ClimateRiskType = "heatwave"
	ClimateHeavyRain ClimateRiskType = "heavyrain"
)

// ClimateRisk describes a detected climate hazard
type ClimateRisk struct {
	Type              ClimateRiskType `json:"type"`
	Severity          RiskLevel       `json:"severity"`
	Probability       float64         `json:"probability"`
	StartDate         time.Time       `json:"startDate"`
	DurationDays      int             `json:"duration"`
	AffectedAreaPct   float64         `json:"affectedArea"`
	MitigationActions []string        `json:"mitigationActions"`
}

// ModelMetadata describes how a prediction was produced
type ModelMetadata struct {
	RequestID        string  `json:"requestId"`
	Accuracy         float64 `json:"accuracy"`
	Confidence       float64 `json:"confidence"`
	DataPoints       int     `json:"dataPoints"`
	ModelVersion     string  `json:"modelVersion"`
	ProcessingTimeMs int64   `json:"processingTime"`
	DataSource       string  `json:"dataSource"`
	FallbackReason   string  `json:"fallbackReason,omitempty"`
}

// PredictionResponse aggregates everything the engine produces for one request
type PredictionResponse struct {
	WeatherForecast []WeatherForecastDay    `json:"weatherForecast"`
	CropHealth      []CropHealthPrediction  `json:"cropHealth"`
	LivestockRisk   LivestockRiskPrediction `json:"livestockRisk"`
	ClimateRisks    []ClimateRisk           `json:"climateRisks"`
	GeneratedAt     time.Time               `json:"generatedAt"`
	Location        GeoPoint                `json:"location"`
	ModelMetadata   ModelMetadata           `json:"modelMetadata"`
}
