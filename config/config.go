package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"agri-forecast-service/models"
)

// EnvPrefix is the prefix for environment variable overrides, e.g. AGRICAST_SERVER_PORT
const EnvPrefix = "AGRICAST"

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Warmup    WarmupConfig    `mapstructure:"warmup"`
	Log       LogConfig       `mapstructure:"log"`
	History   HistoryConfig   `mapstructure:"history"`
	Fallback  FallbackConfig  `mapstructure:"fallback"`
	Forecast  ForecastConfig  `mapstructure:"forecast"`
	Agronomy  AgronomyConfig  `mapstructure:"agronomy"`
	Livestock LivestockConfig `mapstructure:"livestock"`
	Metadata  MetadataConfig  `mapstructure:"metadata"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	RecentRetention time.Duration `mapstructure:"recent_retention"`
}

// UpstreamConfig configures the historical weather provider
type UpstreamConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base_url"`
	Community string        `mapstructure:"community"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"` // requests per second, 0 disables limiting
	Burst     int           `mapstructure:"burst"`
}

// CacheConfig configures the historical series cache
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// WarmupConfig configures the background cache warmer
type WarmupConfig struct {
	Enabled     bool              `mapstructure:"enabled"`
	Interval    time.Duration     `mapstructure:"interval"`
	Concurrency int               `mapstructure:"concurrency"`
	Locations   []models.GeoPoint `mapstructure:"locations"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// FieldDefaults are substituted for individual sentinel or NaN provider values
type FieldDefaults struct {
	Temperature    float64 `mapstructure:"temperature"`
	Precipitation  float64 `mapstructure:"precipitation"`
	Humidity       float64 `mapstructure:"humidity"`
	WindSpeed      float64 `mapstructure:"wind_speed"`
	SolarRadiation float64 `mapstructure:"solar_radiation"`
	Pressure       float64 `mapstructure:"pressure"`
}

// HistoryConfig configures acquisition and validation of the historical series
type HistoryConfig struct {
	LookbackDays     int           `mapstructure:"lookback_days"`
	FillValue        float64       `mapstructure:"fill_value"` // used when the response header omits one
	MinPlausibleTemp float64       `mapstructure:"min_plausible_temp"`
	MaxPlausibleTemp float64       `mapstructure:"max_plausible_temp"`
	Defaults         FieldDefaults `mapstructure:"defaults"`
}

// FallbackConfig shapes the synthetic series used when the provider fails
type FallbackConfig struct {
	BaseTempC       float64 `mapstructure:"base_temp_c"`
	LatitudeFactor  float64 `mapstructure:"latitude_factor"`
	AnnualAmplitude float64 `mapstructure:"annual_amplitude"`
	NoiseC          float64 `mapstructure:"noise_c"`
	RainChance      float64 `mapstructure:"rain_chance"`
	MaxRainMm       float64 `mapstructure:"max_rain_mm"`
	HumidityMin     float64 `mapstructure:"humidity_min"`
	HumidityMax     float64 `mapstructure:"humidity_max"`
	WindMin         float64 `mapstructure:"wind_min"`
	WindMax         float64 `mapstructure:"wind_max"`
	SolarMin        float64 `mapstructure:"solar_min"`
	SolarMax        float64 `mapstructure:"solar_max"`
	PressureMean    float64 `mapstructure:"pressure_mean"`
	PressureSpread  float64 `mapstructure:"pressure_spread"`
}

// ForecastConfig holds the extrapolation policy
type ForecastConfig struct {
	HorizonDays int `mapstructure:"horizon_days"`
	Period      int `mapstructure:"period"`
	TrendWindow int `mapstructure:"trend_window"`
	MinHistory  int `mapstructure:"min_history"`

	TempMin           float64 `mapstructure:"temp_min"`
	TempMax           float64 `mapstructure:"temp_max"`
	UncertaintyBase   float64 `mapstructure:"uncertainty_base"`
	UncertaintyPerDay float64 `mapstructure:"uncertainty_per_day"`
	UncertaintyCap    float64 `mapstructure:"uncertainty_cap"`

	PrecipWindow         int     `mapstructure:"precip_window"`
	WetDayThresholdMm    float64 `mapstructure:"wet_day_threshold_mm"`
	WarmTempC            float64 `mapstructure:"warm_temp_c"`
	WarmMultiplier       float64 `mapstructure:"warm_multiplier"`
	CoolTempC            float64 `mapstructure:"cool_temp_c"`
	CoolMultiplier       float64 `mapstructure:"cool_multiplier"`
	JitterMin            float64 `mapstructure:"jitter_min"`
	JitterMax            float64 `mapstructure:"jitter_max"`
	ProbabilityThreshold float64 `mapstructure:"probability_threshold"`
	WetScaleBase         float64 `mapstructure:"wet_scale_base"`
	WetScaleDecay        float64 `mapstructure:"wet_scale_decay"`
	DryScale             float64 `mapstructure:"dry_scale"`

	HumidityRefTempC     float64 `mapstructure:"humidity_ref_temp_c"`
	HumidityTempFactor   float64 `mapstructure:"humidity_temp_factor"`
	HumidityPrecipFactor float64 `mapstructure:"humidity_precip_factor"`
	HumidityMin          float64 `mapstructure:"humidity_min"`
	HumidityMax          float64 `mapstructure:"humidity_max"`

	WindWindow      int     `mapstructure:"wind_window"`
	WindValidMax    float64 `mapstructure:"wind_valid_max"`
	WindNoiseFactor float64 `mapstructure:"wind_noise_factor"`
	WindMax         float64 `mapstructure:"wind_max"`
	WindDefault     float64 `mapstructure:"wind_default"`

	ConfidenceStart float64 `mapstructure:"confidence_start"`
	ConfidenceStep  float64 `mapstructure:"confidence_step"`
	ConfidenceFloor float64 `mapstructure:"confidence_floor"`
}

// RiskThresholds classify crop risk. Evaluated critical, high, medium in that order.
type RiskThresholds struct {
	CriticalHealth   float64 `mapstructure:"critical_health"`
	CriticalTempC    float64 `mapstructure:"critical_temp_c"`
	CriticalPrecipMm float64 `mapstructure:"critical_precip_mm"`
	HighHealth       float64 `mapstructure:"high_health"`
	HighTempC        float64 `mapstructure:"high_temp_c"`
	HighPrecipMm     float64 `mapstructure:"high_precip_mm"`
	MediumHealth     float64 `mapstructure:"medium_health"`
}

// RecommendationThresholds trigger the advisory messages
type RecommendationThresholds struct {
	NDVIDeficit      float64 `mapstructure:"ndvi_deficit"`
	IrrigationMm     float64 `mapstructure:"irrigation_mm"`
	HeatTempC        float64 `mapstructure:"heat_temp_c"`
	InspectionHealth float64 `mapstructure:"inspection_health"`
}

// AgronomyConfig holds the crop model policy
type AgronomyConfig struct {
	DefaultNDVI      float64 `mapstructure:"default_ndvi"`
	CurrentNDVIMin   float64 `mapstructure:"current_ndvi_min"`
	CurrentNDVIMax   float64 `mapstructure:"current_ndvi_max"`
	PredictedNDVIMin float64 `mapstructure:"predicted_ndvi_min"`
	PredictedNDVIMax float64 `mapstructure:"predicted_ndvi_max"`

	GDDScale           float64 `mapstructure:"gdd_scale"`
	GDDGain            float64 `mapstructure:"gdd_gain"`
	WaterStressPenalty float64 `mapstructure:"water_stress_penalty"`
	HeatStressPenalty  float64 `mapstructure:"heat_stress_penalty"`

	// DefaultCrop names the parameter set used for unknown crop types.
	DefaultCrop string                           `mapstructure:"default_crop"`
	Crops       map[string]models.CropParameters `mapstructure:"crops"`

	Risk            RiskThresholds           `mapstructure:"risk"`
	Recommendations RecommendationThresholds `mapstructure:"recommendations"`
}

// LivestockConfig holds the simplified livestock model. DiseaseRisk and
// WaterStressRisk are fixed estimates until a real model replaces them.
type LivestockConfig struct {
	HeatTempThresholdC float64 `mapstructure:"heat_temp_threshold_c"`
	HeatRiskHigh       float64 `mapstructure:"heat_risk_high"`
	HeatRiskLow        float64 `mapstructure:"heat_risk_low"`
	DiseaseRisk        float64 `mapstructure:"disease_risk"`
	WaterStressRisk    float64 `mapstructure:"water_stress_risk"`
	ElevatedRisk       float64 `mapstructure:"elevated_risk"`
	HerdSize           int     `mapstructure:"herd_size"`
}

// MetadataConfig holds the figures reported alongside every prediction
type MetadataConfig struct {
	Accuracy     float64 `mapstructure:"accuracy"`
	Confidence   float64 `mapstructure:"confidence"`
	ModelVersion string  `mapstructure:"model_version"`
}

// Default creates the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			RecentRetention: 24 * time.Hour,
		},
		Upstream: UpstreamConfig{
			Enabled:   true,
			BaseURL:   "https://power.larc.nasa.gov/api/temporal/daily/point",
			Community: "AG",
			Timeout:   10 * time.Second,
			RateLimit: 1.0,
			Burst:     3,
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
		Warmup: WarmupConfig{
			Enabled:     false,
			Interval:    4 * time.Minute,
			Concurrency: 4,
		},
		Log: LogConfig{
			Level: "info",
		},
		History: HistoryConfig{
			LookbackDays:     365,
			FillValue:        -999,
			MinPlausibleTemp: -50,
			MaxPlausibleTemp: 60,
			Defaults: FieldDefaults{
				Temperature:    25,
				Precipitation:  0,
				Humidity:       60,
				WindSpeed:      2,
				SolarRadiation: 15,
				Pressure:       101,
			},
		},
		Fallback: FallbackConfig{
			BaseTempC:       30,
			LatitudeFactor:  0.5,
			AnnualAmplitude: 8,
			NoiseC:          2,
			RainChance:      0.25,
			MaxRainMm:       20,
			HumidityMin:     50,
			HumidityMax:     85,
			WindMin:         1,
			WindMax:         6,
			SolarMin:        12,
			SolarMax:        22,
			PressureMean:    100,
			PressureSpread:  1.5,
		},
		Forecast: ForecastConfig{
			HorizonDays: 7,
			Period:      7,
			TrendWindow: 30,
			MinHistory:  30,

			TempMin:           -30,
			TempMax:           50,
			UncertaintyBase:   1.5,
			UncertaintyPerDay: 0.4,
			UncertaintyCap:    5,

			PrecipWindow:         30,
			WetDayThresholdMm:    1,
			WarmTempC:            25,
			WarmMultiplier:       1.15,
			CoolTempC:            15,
			CoolMultiplier:       0.85,
			JitterMin:            0.85,
			JitterMax:            1.15,
			ProbabilityThreshold: 50,
			WetScaleBase:         1.4,
			WetScaleDecay:        0.05,
			DryScale:             0.4,

			HumidityRefTempC:     25,
			HumidityTempFactor:   0.6,
			HumidityPrecipFactor: 1.8,
			HumidityMin:          20,
			HumidityMax:          100,

			WindWindow:      14,
			WindValidMax:    30,
			WindNoiseFactor: 0.4,
			WindMax:         20,
			WindDefault:     3,

			ConfidenceStart: 95,
			ConfidenceStep:  4,
			ConfidenceFloor: 60,
		},
		Agronomy: AgronomyConfig{
			DefaultNDVI:      0.65,
			CurrentNDVIMin:   0.1,
			CurrentNDVIMax:   0.95,
			PredictedNDVIMin: 0.2,
			PredictedNDVIMax: 0.9,

			GDDScale:           100,
			GDDGain:            0.02,
			WaterStressPenalty: 0.03,
			HeatStressPenalty:  0.04,

			DefaultCrop: "wheat",
			Crops: map[string]models.CropParameters{
				"wheat":   {BaseTempC: 0, OptimalTempC: 20, MaxTempC: 32, WaterNeedsMm: 4.5, OptimalNDVI: 0.80},
				"corn":    {BaseTempC: 10, OptimalTempC: 25, MaxTempC: 35, WaterNeedsMm: 6.0, OptimalNDVI: 0.85},
				"rice":    {BaseTempC: 10, OptimalTempC: 27, MaxTempC: 38, WaterNeedsMm: 8.0, OptimalNDVI: 0.82},
				"soybean": {BaseTempC: 10, OptimalTempC: 25, MaxTempC: 35, WaterNeedsMm: 5.0, OptimalNDVI: 0.80},
				"cotton":  {BaseTempC: 15.5, OptimalTempC: 28, MaxTempC: 38, WaterNeedsMm: 6.5, OptimalNDVI: 0.75},
			},

			Risk: RiskThresholds{
				CriticalHealth:   40,
				CriticalTempC:    35,
				CriticalPrecipMm: 10,
				HighHealth:       60,
				HighTempC:        30,
				HighPrecipMm:     20,
				MediumHealth:     75,
			},
			Recommendations: RecommendationThresholds{
				NDVIDeficit:      0.10,
				IrrigationMm:     20,
				HeatTempC:        30,
				InspectionHealth: 70,
			},
		},
		Livestock: LivestockConfig{
			HeatTempThresholdC: 30,
			HeatRiskHigh:       65,
			HeatRiskLow:        25,
			DiseaseRisk:        35,
			WaterStressRisk:    20,
			ElevatedRisk:       50,
			HerdSize:           50,
		},
		Metadata: MetadataConfig{
			Accuracy:     88,
			Confidence:   89,
			ModelVersion: "seasonal-trend-1.0",
		},
	}
}

// Load loads configuration in priority order: defaults, the optional
// configuration file, then AGRICAST_* environment variables.
func Load(filename string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	setDefaults(v, cfg)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if filename != "" {
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers the operational keys so environment variables can override them
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.recent_retention", cfg.Server.RecentRetention)
	v.SetDefault("upstream.enabled", cfg.Upstream.Enabled)
	v.SetDefault("upstream.base_url", cfg.Upstream.BaseURL)
	v.SetDefault("upstream.community", cfg.Upstream.Community)
	v.SetDefault("upstream.timeout", cfg.Upstream.Timeout)
	v.SetDefault("upstream.rate_limit", cfg.Upstream.RateLimit)
	v.SetDefault("upstream.burst", cfg.Upstream.Burst)
	v.SetDefault("cache.ttl", cfg.Cache.TTL)
	v.SetDefault("warmup.enabled", cfg.Warmup.Enabled)
	v.SetDefault("warmup.interval", cfg.Warmup.Interval)
	v.SetDefault("warmup.concurrency", cfg.Warmup.Concurrency)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("history.lookback_days", cfg.History.LookbackDays)
	v.SetDefault("forecast.horizon_days", cfg.Forecast.HorizonDays)
	v.SetDefault("agronomy.default_crop", cfg.Agronomy.DefaultCrop)
}

// Validate checks the configuration for values the engine cannot work with
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Upstream.Enabled && c.Upstream.BaseURL == "" {
		errs = append(errs, errors.New("upstream.base_url is required when upstream is enabled"))
	}
	if c.Upstream.RateLimit < 0 {
		errs = append(errs, errors.New("upstream.rate_limit must not be negative"))
	}
	if c.Upstream.RateLimit > 0 && c.Upstream.Burst < 1 {
		errs = append(errs, errors.New("upstream.burst must be at least 1 when rate limiting"))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive"))
	}
	if c.Warmup.Enabled && c.Warmup.Interval <= 0 {
		errs = append(errs, errors.New("warmup.interval must be positive"))
	}
	if c.Forecast.HorizonDays < 1 || c.Forecast.HorizonDays > 14 {
		errs = append(errs, fmt.Errorf("forecast.horizon_days %d must be between 1 and 14", c.Forecast.HorizonDays))
	}
	if c.Forecast.Period < 1 {
		errs = append(errs, errors.New("forecast.period must be at least 1"))
	}
	if c.History.LookbackDays < c.Forecast.MinHistory {
		errs = append(errs, fmt.Errorf("history.lookback_days %d is below forecast.min_history %d",
			c.History.LookbackDays, c.Forecast.MinHistory))
	}
	if _, ok := c.Agronomy.Crops[c.Agronomy.DefaultCrop]; !ok {
		errs = append(errs, fmt.Errorf("agronomy.default_crop %q is not in the crop table", c.Agronomy.DefaultCrop))
	}
	for name, crop := range c.Agronomy.Crops {
		if crop.OptimalNDVI <= 0 {
			errs = append(errs, fmt.Errorf("agronomy.crops.%s.optimal_ndvi must be positive", name))
		}
		if crop.WaterNeedsMm <= 0 {
			errs = append(errs, fmt.Errorf("agronomy.crops.%s.water_needs_mm must be positive", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
