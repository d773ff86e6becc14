package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

func main() {
	fmt.Println("Prediction API Client Example")
	fmt.Println("=============================")

	// Base URL for the API
	baseURL := "http://localhost:8080"
	if env := os.Getenv("AGRICAST_URL"); env != "" {
		baseURL = env
	}
	client := &http.Client{Timeout: 30 * time.Second}

	// List the crops the engine knows about
	fmt.Println("\nFetching crop table...")
	cropsBody, err := get(client, baseURL+"/api/crops")
	if err != nil {
		fmt.Printf("Error fetching crops: %v\n", err)
		os.Exit(1)
	}
	var cropsData map[string]map[string]any
	if err := json.Unmarshal(cropsBody, &cropsData); err != nil {
		fmt.Printf("Error decoding crops: %v\n", err)
		os.Exit(1)
	}
	for name := range cropsData["crops"] {
		fmt.Printf("- %s\n", name)
	}

	// Request a prediction for a corn field in Iowa
	payload, _ := json.Marshal(map[string]any{
		"latitude":    41.88,
		"longitude":   -93.10,
		"cropType":    "corn",
		"currentNdvi": 0.62,
	})

	fmt.Println("\nRequesting prediction for corn at 41.88,-93.10...")
	resp, err := client.Post(baseURL+"/api/predictions", "application/json", bytes.NewReader(payload))
	if err != nil {
		fmt.Printf("Error requesting prediction: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	predictionBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Prediction failed (status %d): %s\n", resp.StatusCode, predictionBody)
		os.Exit(1)
	}

	var predictionData map[string]any
	json.Unmarshal(predictionBody, &predictionData)

	healthList, _ := predictionData["cropHealth"].([]any)
	for _, item := range healthList {
		health, ok := item.(map[string]any)
		if !ok {
			continue
		}
		fmt.Printf("%v: health score %v, risk level %v\n", health["cropType"], health["healthScore"], health["riskLevel"])
		if recs, ok := health["recommendations"].([]any); ok {
			for _, rec := range recs {
				fmt.Printf("  * %v\n", rec)
			}
		}
	}

	// The server keeps the latest prediction per location and crop
	query := url.Values{}
	query.Set("lat", "41.88")
	query.Set("lon", "-93.10")
	query.Set("crop", "corn")

	fmt.Println("\nFetching stored prediction...")
	latestBody, err := get(client, baseURL+"/api/predictions/latest?"+query.Encode())
	if err != nil {
		fmt.Printf("Error fetching latest prediction: %v\n", err)
		os.Exit(1)
	}

	var latestData map[string]any
	json.Unmarshal(latestBody, &latestData)

	// Pretty print the result
	prettyJSON, _ := json.MarshalIndent(latestData["weatherForecast"], "", "  ")
	fmt.Printf("\nWeather forecast:\n%s\n", string(prettyJSON))
}

func get(client *http.Client, target string) ([]byte, error) {
	resp, err := client.Get(target)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}
