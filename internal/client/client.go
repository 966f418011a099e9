package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	httpmiddleware "github.com/wolfeidau/orgregistry/internal/http"
	"github.com/wolfeidau/orgregistry/internal/models"
	"github.com/wolfeidau/orgregistry/internal/server"
)

// maxErrorBody bounds how much of an unexpected response is kept in the error.
const maxErrorBody = 4 * 1024

// Config holds common client configuration
type Config struct {
	ServerURL string
	Timeout   time.Duration
	Debug     bool
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		ServerURL: "http://localhost:8080",
		Timeout:   30 * time.Second,
		Debug:     false,
	}
}

// Client calls the organization registry HTTP API. Error responses are mapped
// back onto the server's sentinel errors so callers can use errors.Is.
type Client struct {
	baseURL    string
	httpClient *http.Client
	debug      bool
}

// New creates a client for the server at config.ServerURL
func New(config Config) *Client {
	return &Client{
		baseURL:    strings.TrimRight(config.ServerURL, "/"),
		httpClient: &http.Client{Timeout: config.Timeout},
		debug:      config.Debug,
	}
}

// CreateOrganization registers a new organization and returns it with its assigned id.
func (c *Client) CreateOrganization(ctx context.Context, in models.OrganizationInput) (*models.Organization, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("failed to encode organization: %w", err)
	}

	var org models.Organization
	if err := c.do(ctx, http.MethodPost, "/organization", bytes.NewReader(body), &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// GetOrganization fetches the organization stored under id.
func (c *Client) GetOrganization(ctx context.Context, id int64) (*models.Organization, error) {
	var org models.Organization
	if err := c.do(ctx, http.MethodGet, "/organization/"+strconv.FormatInt(id, 10), nil, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

// Health reports whether the server and its store are up.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if c.debug {
		log.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Str("request_id", resp.Header.Get(httpmiddleware.RequestIDHeader)).
			Dur("duration", time.Since(started)).
			Msg("api call")
	}

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError turns a non 200 response into an error matching the server sentinels.
func decodeError(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("failed to read error response (status %d): %w", resp.StatusCode, err)
	}

	var errResp server.ErrorResponse
	if err := json.Unmarshal(data, &errResp); err != nil || errResp.Error == "" {
		errResp.Error = strings.TrimSpace(string(data))
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", server.ErrNotFound, errResp.Error)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", server.ErrDuplicateOrConflict, errResp.Error)
	case http.StatusUnprocessableEntity:
		if len(errResp.Fields) > 0 {
			return &models.ValidationError{Fields: errResp.Fields}
		}
		return fmt.Errorf("%w: %s", server.ErrValidation, errResp.Error)
	default:
		return &StatusError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}
}

// StatusError is returned for responses that have no sentinel, such as 500 or 503.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}
