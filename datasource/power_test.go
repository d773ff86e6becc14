package datasource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agri-forecast-service/models"
)

func testRequest() HistoryRequest {
	return HistoryRequest{
		Point: models.GeoPoint{Latitude: 41.8781, Longitude: -93.0977},
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC),
	}
}

// TestPowerProviderQuery tests the request parameters and response decoding
func TestPowerProviderQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "T2M,PRECTOTCORR,RH2M,WS2M,ALLSKY_SFC_SW_DWN,PS", q.Get("parameters"))
		assert.Equal(t, "AG", q.Get("community"))
		assert.Equal(t, "41.8781", q.Get("latitude"))
		assert.Equal(t, "-93.0977", q.Get("longitude"))
		assert.Equal(t, "20240101", q.Get("start"))
		assert.Equal(t, "20241230", q.Get("end"))
		assert.Equal(t, "JSON", q.Get("format"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"header": {"fill_value": -999.0},
			"properties": {"parameter": {
				"T2M": {"20240101": 1.5, "20240102": -999.0, "20240103": null}
			}}
		}`))
	}))
	defer server.Close()

	provider := NewPowerProvider(server.URL, "AG", 5*time.Second)
	resp, err := provider.FetchHistory(context.Background(), testRequest())
	require.NoError(t, err)

	require.NotNil(t, resp.Header)
	require.NotNil(t, resp.Header.FillValue)
	assert.Equal(t, -999.0, *resp.Header.FillValue)

	temps := resp.Properties.Parameter[ParamTemperature]
	require.Len(t, temps, 3)
	assert.Equal(t, 1.5, *temps["20240101"])
	assert.Nil(t, temps["20240103"], "JSON null must stay distinguishable from zero")
	assert.Equal(t, "NASA POWER", provider.Name())
}

// TestPowerProviderErrors tests classification of failed requests
func TestPowerProviderErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "maintenance", http.StatusServiceUnavailable)
			},
			want: ErrTransport,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"properties": [`))
			},
			want: ErrSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			provider := NewPowerProvider(server.URL, "AG", 5*time.Second)
			_, err := provider.FetchHistory(context.Background(), testRequest())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// TestPowerProviderUnreachable tests that connection failures are transport errors
func TestPowerProviderUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	provider := NewPowerProvider(url, "AG", time.Second)
	_, err := provider.FetchHistory(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, "transport", FailureKind(err))
}

// TestFailureKind tests error classification labels
func TestFailureKind(t *testing.T) {
	assert.Equal(t, "", FailureKind(nil))
	assert.Equal(t, "schema", FailureKind(ErrSchema))
	assert.Equal(t, "data_quality", FailureKind(ErrDataQuality))
	assert.Equal(t, "unknown", FailureKind(context.Canceled))
}
