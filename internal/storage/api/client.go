// Package api is the storage backend that talks to a remote registrations REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aura-webinar/workshops/internal/models"
	"github.com/aura-webinar/workshops/internal/storage"
)

const codeDuplicate = "DUPLICATE"

// ErrAPI is returned for unexpected HTTP statuses.
var ErrAPI = errors.New("API error")

// Config holds the remote API location.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client implements storage.Port over HTTP.
type Client struct {
	base   string
	apiKey string
	http   *http.Client
}

// New validates cfg and creates a client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: api base url required", storage.ErrNotInitialized)
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("%w: invalid api base url: %v", storage.ErrNotInitialized, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey: cfg.APIKey,
		http:   &http.Client{Timeout: timeout},
	}, nil
}

type checkRequest struct {
	StudentEmail string `json:"studentEmail"`
	EventID      string `json:"eventId"`
}

type registrationEnvelope struct {
	Registration *models.Registration `json:"registration"`
	Code         string               `json:"code,omitempty"`
}

// CheckExistingRegistration treats 404 as "not registered".
func (c *Client) CheckExistingRegistration(ctx context.Context, studentEmail, eventID string) (*models.Registration, error) {
	var out registrationEnvelope
	status, err := c.do(ctx, http.MethodPost, "/registrations/check", checkRequest{studentEmail, eventID}, &out)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out.Registration, nil
}

func (c *Client) GetRegistrationCount(ctx context.Context, eventID string) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/registrations/count?eventId="+url.QueryEscape(eventID), nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// InsertRegistration maps 409 or a DUPLICATE code to storage.ErrDuplicate.
func (c *Client) InsertRegistration(ctx context.Context, rec models.Registration) (*models.Registration, error) {
	var out registrationEnvelope
	status, err := c.do(ctx, http.MethodPost, "/registrations", rec, &out)
	if status == http.StatusConflict || out.Code == codeDuplicate {
		return nil, storage.ErrDuplicate
	}
	if err != nil {
		return nil, err
	}
	if out.Registration == nil {
		// the API may answer with an empty body; echo back what was sent
		return &rec, nil
	}
	return out.Registration, nil
}

func (c *Client) GetRegistrations(ctx context.Context, eventID string) ([]models.Registration, error) {
	var out struct {
		Registrations []models.Registration `json:"registrations"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/registrations?eventId="+url.QueryEscape(eventID), nil, &out); err != nil {
		return nil, err
	}
	return out.Registrations, nil
}

// do sends a JSON request and decodes the JSON response into out. The HTTP
// status is returned even on error so callers can special-case it. Error bodies
// are decoded into out when possible.
func (c *Client) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", storage.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("%w: read body: %w", storage.ErrTransport, err)
	}
	if len(bytes.TrimSpace(raw)) > 0 && out != nil {
		if jerr := json.Unmarshal(raw, out); jerr != nil && resp.StatusCode < 300 {
			return resp.StatusCode, fmt.Errorf("decode response: %w", jerr)
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return resp.StatusCode, fmt.Errorf("%w: %s %s: %d", storage.ErrPermissionDenied, method, path, resp.StatusCode)
	case resp.StatusCode >= 300:
		return resp.StatusCode, fmt.Errorf("%w: %d", ErrAPI, resp.StatusCode)
	}
	return resp.StatusCode, nil
}
