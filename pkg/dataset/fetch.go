package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Fetch retrieves a dataset served as JSON from url.
func Fetch(ctx context.Context, client *http.Client, url string) (*Dataset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dataset: request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("dataset: %s: unexpected status %s", url, resp.Status)
	}

	var f fileDataset
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return nil, fmt.Errorf("dataset: decode %s: %w", url, err)
	}
	return New(f.Times, f.Variables), nil
}
