// Package api implements the HTTP client for the shiori server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tabitabi/shiori/pkg/api"
)

// Client is the HTTP client for the shiori API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates an API client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Keep the bearer token across redirects.
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// ServerError is a non-2xx response decoded from the error envelope.
type ServerError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d %s): %s", e.StatusCode, e.Code, e.Message)
}

// Authenticate exchanges an itinerary password for a capability token.
func (c *Client) Authenticate(ctx context.Context, shioriID, password string) (string, error) {
	req := api.PasswordAuthRequest{ShioriID: shioriID, Password: password}
	var resp api.PasswordAuthResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/password", "", req, &resp); err != nil {
		return "", fmt.Errorf("password auth failed: %w", err)
	}
	return resp.Token, nil
}

// GetItinerary fetches one itinerary by id.
func (c *Client) GetItinerary(ctx context.Context, id string) (*api.Itinerary, error) {
	var resp api.Itinerary
	path := "/api/v1/itineraries/" + url.PathEscape(id)
	if err := c.doRequest(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, fmt.Errorf("get itinerary failed: %w", err)
	}
	return &resp, nil
}

// ListSteps fetches the steps of an itinerary. With a token bound to the
// itinerary the server returns full content; without one, steps still gated
// by secret mode come back redacted.
func (c *Client) ListSteps(ctx context.Context, itineraryID, token string) ([]api.Step, error) {
	var resp []api.Step
	path := "/api/v1/steps?itinerary_id=" + url.QueryEscape(itineraryID)
	if err := c.doRequest(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return nil, fmt.Errorf("list steps failed: %w", err)
	}
	return resp, nil
}

// ListTimelineSteps fetches the ordered timeline of an itinerary.
func (c *Client) ListTimelineSteps(ctx context.Context, itineraryID string) ([]api.TimelineStep, error) {
	var resp []api.TimelineStep
	path := "/api/v1/itineraries/" + url.PathEscape(itineraryID) + "/timeline"
	if err := c.doRequest(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, fmt.Errorf("list timeline steps failed: %w", err)
	}
	return resp, nil
}

// doRequest performs one request and unwraps the response envelope into
// result.
func (c *Client) doRequest(ctx context.Context, method, path, token string, body, result any) error {
	reqURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			return &ServerError{
				StatusCode: resp.StatusCode,
				Code:       errResp.Error.Code,
				Message:    errResp.Error.Message,
			}
		}
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		var envelope struct {
			Success bool            `json:"success"`
			Data    json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(respBody, &envelope); err != nil {
			return fmt.Errorf("failed to decode response envelope: %w", err)
		}
		if err := json.Unmarshal(envelope.Data, result); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}

	return nil
}
