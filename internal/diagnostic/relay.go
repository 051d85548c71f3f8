package diagnostic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// responseFields are the alternately-named keys relay endpoints have been
// seen returning the generated text under. First present wins.
var responseFields = []string{"reply", "response", "text", "result", "output", "message", "content"}

// RelayProvider posts the prompt to a generic text-generation endpoint.
type RelayProvider struct {
	url        string
	httpClient *http.Client
}

func NewRelayProvider(url string, timeoutSec int) *RelayProvider {
	return &RelayProvider{
		url:        url,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

func (p *RelayProvider) Name() string {
	return "relay"
}

func (p *RelayProvider) Generate(ctx context.Context, prompt, userID string) (*Result, error) {
	payload, err := json.Marshal(map[string]string{
		"prompt": prompt,
		"userId": userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("relay returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read relay response: %w", err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse relay response: %w", err)
	}

	for _, field := range responseFields {
		if text, ok := fields[field].(string); ok && text != "" {
			return &Result{Text: text}, nil
		}
	}

	return nil, fmt.Errorf("relay response contained no recognized text field")
}
