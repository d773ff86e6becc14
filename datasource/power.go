package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Parameter codes requested from the daily point API
const (
	ParamTemperature    = "T2M"
	ParamPrecipitation  = "PRECTOTCORR"
	ParamHumidity       = "RH2M"
	ParamWindSpeed      = "WS2M"
	ParamSolarRadiation = "ALLSKY_SFC_SW_DWN"
	ParamPressure       = "PS"
)

// DateLayout is the compact date format used for keys and query ranges
const DateLayout = "20060102"

var powerParameters = []string{
	ParamTemperature,
	ParamPrecipitation,
	ParamHumidity,
	ParamWindSpeed,
	ParamSolarRadiation,
	ParamPressure,
}

// PowerResponse represents the daily point API response structure. Values are
// pointers so that JSON nulls can be told apart from zero readings.
type PowerResponse struct {
	Properties *PowerProperties `json:"properties"`
	Header     *PowerHeader     `json:"header"`
}

// PowerProperties holds the per-parameter series keyed by YYYYMMDD date
type PowerProperties struct {
	Parameter map[string]map[string]*float64 `json:"parameter"`
}

// PowerHeader carries the sentinel used for missing values
type PowerHeader struct {
	FillValue *float64 `json:"fill_value"`
}

// PowerProvider fetches daily history from a NASA POWER compatible endpoint
type PowerProvider struct {
	baseURL    string
	community  string
	httpClient *http.Client
}

// Ensure PowerProvider implements HistoryProvider
var _ HistoryProvider = (*PowerProvider)(nil)

// NewPowerProvider creates a new provider for the given endpoint
func NewPowerProvider(baseURL, community string, timeout time.Duration) *PowerProvider {
	return &PowerProvider{
		baseURL:   baseURL,
		community: community,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name returns the provider name
func (p *PowerProvider) Name() string {
	return "NASA POWER"
}

// FetchHistory fetches the daily series for the requested window
func (p *PowerProvider) FetchHistory(ctx context.Context, req HistoryRequest) (*PowerResponse, error) {
	params := url.Values{}
	params.Add("parameters", strings.Join(powerParameters, ","))
	params.Add("community", p.community)
	params.Add("longitude", fmt.Sprintf("%.4f", req.Point.Longitude))
	params.Add("latitude", fmt.Sprintf("%.4f", req.Point.Latitude))
	params.Add("start", req.Start.Format(DateLayout))
	params.Add("end", req.End.Format(DateLayout))
	params.Add("format", "JSON")

	// Create request
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrTransport, err)
	}

	// Execute request
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	// Read response body
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", ErrTransport, err)
	}

	// Check for error status code
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: API error (status %d): %s", ErrTransport, resp.StatusCode, truncate(string(body), 256))
	}

	var response PowerResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %w", ErrSchema, err)
	}

	return &response, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
