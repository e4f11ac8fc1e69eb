package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// CheckoutProvider creates hosted checkout sessions with the external
// payment provider. The provider is a collaborator: this service only
// authorizes the request and delegates.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, familyID int64, key PriceKey) (string, error)
}

// HTTPProvider delegates session creation to the payment gateway over
// HTTP.
type HTTPProvider struct {
	endpoint string
	client   *http.Client
}

// NewHTTPProvider creates a checkout provider pointed at the gateway
// endpoint.
func NewHTTPProvider(endpoint string) *HTTPProvider {
	return &HTTPProvider{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type sessionRequest struct {
	FamilyID int64  `json:"family_id"`
	PriceKey string `json:"price_key"`
}

type sessionResponse struct {
	URL string `json:"url"`
}

// CreateSession asks the gateway for a hosted checkout URL.
func (p *HTTPProvider) CreateSession(ctx context.Context, familyID int64, key PriceKey) (string, error) {
	body, err := json.Marshal(sessionRequest{FamilyID: familyID, PriceKey: string(key)})
	if err != nil {
		return "", fmt.Errorf("failed to encode checkout request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build checkout request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call checkout gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("checkout gateway returned status %d", resp.StatusCode)
	}

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", fmt.Errorf("failed to decode checkout response: %w", err)
	}
	if session.URL == "" {
		return "", fmt.Errorf("checkout gateway returned no session URL")
	}

	return session.URL, nil
}
