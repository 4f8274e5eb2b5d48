// workers/catalog_source_http.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"rework-vault/utils"
)

// HTTPCatalogSource polls the sync service for catalog changes.
type HTTPCatalogSource struct {
	BaseURL      string // e.g., "http://localhost:8500"
	EndpointPath string // e.g., "/api/v1/public/catalog"
	ServiceToken string
	HTTPClient   *http.Client
}

func NewHTTPCatalogSource(baseURL, endpointPath, serviceToken string) *HTTPCatalogSource {
	return &HTTPCatalogSource{
		BaseURL:      baseURL,
		EndpointPath: endpointPath,
		ServiceToken: serviceToken,
		HTTPClient:   utils.HTTPClient,
	}
}

func (s *HTTPCatalogSource) Name() string { return "sync-service" }

func (s *HTTPCatalogSource) Fetch(ctx context.Context, since time.Time) (*CatalogManifest, error) {
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base sync service URL '%s': %w", s.BaseURL, err)
	}

	// Safely join base URL and endpoint path (handles trailing/leading slashes)
	endpointURL := base.JoinPath(s.EndpointPath)
	if !since.IsZero() {
		q := endpointURL.Query()
		q.Set("since", since.UTC().Format(time.RFC3339))
		endpointURL.RawQuery = q.Encode()
	}
	finalURL := endpointURL.String()

	log.Printf("[CATALOG_SYNC] ➡️  GET %s", finalURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", s.ServiceToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request to sync service failed: %w", err)
	}
	defer func() {
		// Always drain & close to prevent connection leaks
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("sync service returned status %d: %s", resp.StatusCode, string(body))
	}

	var manifest CatalogManifest
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("failed to decode sync service response: %w", err)
	}
	return &manifest, nil
}
