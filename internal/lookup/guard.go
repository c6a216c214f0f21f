package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// FallbackName is the placeholder identity returned when the client service
// cannot be reached.
const FallbackName = "client unavailable"

// ClientInfo is the identity view exposed to reporting callers.
type ClientInfo struct {
	ClientID       string `json:"client_id"`
	Name           string `json:"name"`
	Identification string `json:"identification,omitempty"`
	Active         bool   `json:"active"`
}

// Guard performs on-demand client lookups against the client service and
// degrades to a safe placeholder when the service is unreachable, slow, or
// failing. It never surfaces a transport error to its caller and never
// caches a result.
type Guard struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewGuard builds a guard with a bounded per-call timeout.
func NewGuard(baseURL string, timeout time.Duration, logger *slog.Logger) *Guard {
	return &Guard{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type clientPayload struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Identification string `json:"identification"`
	Active         bool   `json:"active"`
}

// GetClient fetches a client's identity, or the degraded placeholder.
func (g *Guard) GetClient(ctx context.Context, clientID string) ClientInfo {
	url := fmt.Sprintf("%s/api/v1/clients/%s", g.baseURL, clientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		g.logger.Warn("build client lookup request", slog.String("client_id", clientID), slog.Any("error", err))
		return g.fallback(clientID)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("client service unreachable, using fallback",
			slog.String("client_id", clientID), slog.Any("error", err))
		return g.fallback(clientID)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("client lookup failed, using fallback",
			slog.String("client_id", clientID), slog.Int("status", resp.StatusCode))
		return g.fallback(clientID)
	}

	var payload clientPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		g.logger.Warn("decode client lookup response, using fallback",
			slog.String("client_id", clientID), slog.Any("error", err))
		return g.fallback(clientID)
	}

	return ClientInfo{
		ClientID:       payload.ID,
		Name:           payload.Name,
		Identification: payload.Identification,
		Active:         payload.Active,
	}
}

func (g *Guard) fallback(clientID string) ClientInfo {
	return ClientInfo{ClientID: clientID, Name: FallbackName, Active: false}
}
