package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
)

// Raw probe against the backend API, bypassing the caching layer.
// Useful for checking what the backend actually returns for a tenant.

func makeRequest(httpClient *http.Client, requestURL string, apiKey string) ([]byte, int, error) {
	req, err := http.NewRequest("GET", requestURL, nil)
	if err != nil {
		return []byte{}, -1, fmt.Errorf("constructing request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))

	resp, err := httpClient.Do(req)
	if err != nil {
		return []byte{}, -1, fmt.Errorf("making request: %w", err)
	}

	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return []byte{}, -1, fmt.Errorf("reading body: %w", err)
	}

	return data, resp.StatusCode, nil
}

func main() {
	apiKey := os.Getenv("UPSTREAM_API_KEY")
	if apiKey == "" {
		log.Fatal("No upstream API key provided")
	}

	baseURL := os.Getenv("UPSTREAM_BASE_URL")
	if baseURL == "" {
		log.Fatal("No upstream base URL provided")
	}

	if len(os.Args) < 3 {
		log.Fatalf("Usage: %s <tenant-id> <guests|vendors|settings|summary>", os.Args[0])
	}

	tenant := os.Args[1]
	resource := os.Args[2]

	switch resource {
	case "guests", "vendors", "settings", "summary":
	default:
		log.Fatalf("Unknown resource %q", resource)
	}

	parsedBase, err := url.Parse(baseURL)
	if err != nil {
		log.Fatalf("Invalid base URL: %v", err)
	}

	requestURL := parsedBase.JoinPath("tenants", tenant, resource).String()

	httpClient := &http.Client{}
	data, statusCode, err := makeRequest(httpClient, requestURL, apiKey)
	if err != nil {
		log.Fatalf("Failed making request to backend API: %v", err)
	}

	if statusCode != 200 {
		log.Printf("Backend API returned non-200 status code: %d - %s\n", statusCode, string(data))
	}

	fmt.Println(string(data))
	fmt.Println(statusCode)
}
