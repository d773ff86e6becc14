package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agri-forecast-service/api"
	"agri-forecast-service/collector"
	"agri-forecast-service/config"
	"agri-forecast-service/models"
	"agri-forecast-service/prediction"
)

const version = "1.0.0"

var (
	configFile string
	logLevel   string
	envErr     error
)

func main() {
	// Load environment variables from .env file
	envErr = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "agricast",
		Short: "Crop and livestock risk forecasting engine",
		Long: `agricast forecasts short-term weather from a year of daily history
and turns it into crop health, livestock risk and recommendations.

Configuration is read from the optional --config file and AGRICAST_*
environment variables, e.g. AGRICAST_SERVER_PORT=9090.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to configuration file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newPredictCommand())
	rootCmd.AddCommand(newCropsCommand())
	return rootCmd
}

// loadConfig loads configuration and builds the logger for a command
func loadConfig(development bool) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if development {
		cfg.Log.Development = true
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		logger.Warn("Error loading .env file", zap.Error(envErr))
	}
	return cfg, logger, nil
}

func newServeCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the prediction HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(false)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			return runServe(cfg, logger)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "Port to run the server on")
	return cmd
}

func runServe(cfg *config.Config, logger *zap.Logger) error {
	eng := buildEngine(cfg, logger)
	recent := api.NewPredictionStore()
	server := api.NewServer(eng.orchestrator, recent, eng.model, eng.metrics.Handler(),
		cfg.Server.Port, cfg.Server.ReadTimeout, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Keep configured locations warm in the history cache
	if cfg.Warmup.Enabled && len(cfg.Warmup.Locations) > 0 {
		warmer := collector.NewWarmer(eng.store, eng.cache, cfg.Warmup.Locations,
			cfg.History.LookbackDays, cfg.Warmup.Interval, cfg.Warmup.Concurrency, logger)
		warmer.SetObserver(eng.metrics)
		stopWarmer := warmer.Start(ctx)
		defer stopWarmer()
	}

	// Periodically clean up old predictions
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if pruned := recent.PruneOldPredictions(cfg.Server.RecentRetention); pruned > 0 {
					logger.Info("Pruned old predictions", zap.Int("count", pruned))
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	logger.Info("Shutdown complete")
	return nil
}

func newPredictCommand() *cobra.Command {
	var (
		lat, lon, ndvi float64
		crop           string
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Generate one prediction and print it as JSON",
		Long: `Generate one prediction and print it as JSON.

Examples:
  agricast predict --lat 41.88 --lon -93.1 --crop corn
  agricast predict --lat 28.61 --lon 77.21 --crop rice --ndvi 0.55`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(true)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			req := prediction.Request{
				Location: models.GeoPoint{Latitude: lat, Longitude: lon},
				CropType: crop,
			}
			if cmd.Flags().Changed("ndvi") {
				req.CurrentNDVI = &ndvi
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Upstream.Timeout+5*time.Second)
			defer cancel()

			resp, err := buildEngine(cfg, logger).orchestrator.Generate(ctx, req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude in decimal degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude in decimal degrees")
	cmd.Flags().StringVar(&crop, "crop", "wheat", "Crop type")
	cmd.Flags().Float64Var(&ndvi, "ndvi", 0, "Current NDVI (default from configuration)")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}

func newCropsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "crops",
		Short: "List the crop parameter table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(true)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			model := buildEngine(cfg, logger).model
			table := model.CropTable()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CROP\tBASE °C\tOPTIMAL °C\tMAX °C\tWATER mm/day\tOPTIMAL NDVI")
			for _, name := range model.CropTypes() {
				p := table[name]
				marker := ""
				if name == cfg.Agronomy.DefaultCrop {
					marker = " (default)"
				}
				fmt.Fprintf(w, "%s%s\t%.1f\t%.1f\t%.1f\t%.1f\t%.2f\n",
					name, marker, p.BaseTempC, p.OptimalTempC, p.MaxTempC, p.WaterNeedsMm, p.OptimalNDVI)
			}
			return w.Flush()
		},
	}
}
