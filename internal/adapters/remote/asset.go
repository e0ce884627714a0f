package remote

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// ProbeAsset checks that an image is retrievable with a HEAD request.
// Images are hosted apart from the endpoint, so this does not use a Client.
func ProbeAsset(ctx context.Context, assetURL string, timeout time.Duration) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, assetURL, nil)
	if err != nil {
		return fmt.Errorf("probe asset: %w", err)
	}
	hc := &http.Client{Timeout: timeout}
	defer hc.CloseIdleConnections()

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("probe asset: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: "probe asset", Status: resp.StatusCode}
	}
	return nil
}
