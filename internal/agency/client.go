package agency

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"travel_backoffice_backend/platform/apperr"
	"travel_backoffice_backend/platform/config"
	"travel_backoffice_backend/platform/logger"
)

// Client talks to the agency REST API. Methods take the caller's bearer
// token per call; the client holds no credentials of its own.
type Client struct {
	httpClient   *http.Client
	uploadClient *http.Client
	baseURL      string
	log          *logger.Logger
}

// New creates a new agency API client from config.
func New(cfg config.AgencyAPIConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: cfg.GetAgencyAPITimeout()},
		uploadClient: &http.Client{Timeout: cfg.GetAgencyUploadTimeout()},
		baseURL:      cfg.GetAgencyAPIBaseURL(),
		log:          log,
	}
}

// Ping checks if the agency API is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("ping failed: status %d", resp.StatusCode)
	}
	return nil
}

// SearchMainClients searches titular client records by free text.
func (c *Client) SearchMainClients(ctx context.Context, token, search string) ([]Passenger, error) {
	params := url.Values{}
	params.Set("search", search)
	params.Set("isMainClient", "true")

	var out []Passenger
	err := c.getJSON(ctx, token, "/api/clients?"+params.Encode(), &out)
	return out, err
}

// GetClient fetches the full record for one client. Unlike the list
// endpoints this projection always carries the DNI when the agency has one.
func (c *Client) GetClient(ctx context.Context, token, clientID string) (*Passenger, error) {
	var out Passenger
	if err := c.getJSON(ctx, token, "/api/clients/"+url.PathEscape(clientID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchCompanions searches within a titular client's registered companions.
func (c *Client) SearchCompanions(ctx context.Context, token, clientID, search string) ([]Passenger, error) {
	params := url.Values{}
	if search != "" {
		params.Set("search", search)
	}
	path := "/api/clients/" + url.PathEscape(clientID) + "/companions"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var out []Passenger
	err := c.getJSON(ctx, token, path, &out)
	return out, err
}

// AllForSelection searches the whole client base, excluding one record.
func (c *Client) AllForSelection(ctx context.Context, token, search, excludeClientID string) ([]Passenger, error) {
	params := url.Values{}
	params.Set("search", search)
	if excludeClientID != "" {
		params.Set("excludeClientId", excludeClientID)
	}

	var out []Passenger
	err := c.getJSON(ctx, token, "/api/clients/all-for-selection?"+params.Encode(), &out)
	return out, err
}

// SearchProviders searches the provider catalog.
func (c *Client) SearchProviders(ctx context.Context, token, search string, limit int) ([]Provider, error) {
	params := url.Values{}
	if search != "" {
		params.Set("search", search)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/providers"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var out []Provider
	err := c.getJSON(ctx, token, path, &out)
	return out, err
}

// ListSaleWizardTemplates fetches the service templates offered in the wizard.
func (c *Client) ListSaleWizardTemplates(ctx context.Context, token string) ([]ServiceTemplate, error) {
	var out []ServiceTemplate
	err := c.getJSON(ctx, token, "/api/service-templates/sale-wizard", &out)
	return out, err
}

// SearchCities autocompletes destination cities.
func (c *Client) SearchCities(ctx context.Context, token, query string) ([]City, error) {
	var out []City
	err := c.postJSON(ctx, token, "/api/destinations/search-cities", map[string]string{"query": query}, &out)
	return out, err
}

// SearchCountries autocompletes destination countries.
func (c *Client) SearchCountries(ctx context.Context, token, query string) ([]Country, error) {
	var out []Country
	err := c.postJSON(ctx, token, "/api/destinations/search-countries", map[string]string{"query": query}, &out)
	return out, err
}

// GetCupo fetches the current state of one inventory block.
func (c *Client) GetCupo(ctx context.Context, token, cupoID string) (*Cupo, error) {
	var out Cupo
	if err := c.getJSON(ctx, token, "/api/cupos/"+url.PathEscape(cupoID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, token, path string, out any) error {
	return c.do(ctx, c.httpClient, token, http.MethodGet, path, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, token, path string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, c.httpClient, token, http.MethodPost, path, bytes.NewReader(encoded), "application/json", out)
}

func (c *Client) do(ctx context.Context, hc *http.Client, token, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.log.UpstreamError(method+" "+path, err)
		return fmt.Errorf("agency request: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, method, path); err != nil {
		return err
	}

	c.log.Debug("agency request", "method", method, "path", path, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.log.Error("agency decode failed", "path", path, "error", err)
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) checkStatus(resp *http.Response, method, path string) error {
	switch {
	case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperr.Unauthorized("agency rejected the credentials")
	case resp.StatusCode == http.StatusNotFound:
		return apperr.NotFound(fmt.Sprintf("agency resource %s not found", path))
	default:
		msg := readErrorMessage(resp.Body)
		c.log.Error("agency upstream error", "method", method, "path", path, "status", resp.StatusCode, "message", msg)
		if msg != "" {
			return fmt.Errorf("agency error: status %d: %s", resp.StatusCode, msg)
		}
		return fmt.Errorf("agency error: status %d", resp.StatusCode)
	}
}

// readErrorMessage extracts a human-readable message from an error body.
// Bodies are capped; a sale submission failure must surface the agency's
// reason, not a truncated JSON blob.
func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	return string(bytes.TrimSpace(raw))
}
