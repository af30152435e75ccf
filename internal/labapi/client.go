// Package labapi is a client for the lab store REST API.
package labapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tphummel/lab_templates/internal/models"
)

// Client talks to the lab store. It is safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// APIError is returned for any non-2xx response. Message is the body's
// "error" field, or an operation-specific fallback when the body has none.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e APIError) Error() string {
	return fmt.Sprintf("lab API returned status %d: %s", e.StatusCode, e.Message)
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends token as a Bearer credential on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default HTTP client (15s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient returns a client for the API rooted at endpoint, e.g.
// "http://localhost:8080/api".
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}

	c := &Client{
		baseURL: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListLabs returns every lab, or only active/inactive ones when active is set.
func (c *Client) ListLabs(ctx context.Context, active *bool) ([]models.Lab, error) {
	path := "/lab"
	if active != nil {
		path += "?isActivate=" + strconv.FormatBool(*active)
	}
	var out []models.Lab
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, "failed to fetch labs"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetLab(ctx context.Context, id string) (*models.Lab, error) {
	var out models.Lab
	if err := c.doJSON(ctx, http.MethodGet, "/lab/"+url.PathEscape(id), nil, &out, "failed to fetch lab"); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateLab validates req locally before sending it.
func (c *Client) CreateLab(ctx context.Context, req models.CreateLabRequest) (*models.Lab, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out models.Lab
	if err := c.doJSON(ctx, http.MethodPost, "/lab", req, &out, "failed to create lab"); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateLab validates req locally before sending it.
func (c *Client) UpdateLab(ctx context.Context, id string, req models.UpdateLabRequest) (*models.Lab, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out models.Lab
	if err := c.doJSON(ctx, http.MethodPut, "/lab/"+url.PathEscape(id), req, &out, "failed to update lab"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteLab(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/lab/"+url.PathEscape(id), nil, nil, "failed to delete lab")
}

// ToggleLabStatus flips the lab's active flag and returns the lab as stored.
func (c *Client) ToggleLabStatus(ctx context.Context, id string) (*models.Lab, error) {
	var out struct {
		Lab *models.Lab `json:"lab"`
	}
	path := "/lab/" + url.PathEscape(id) + "/toggle-status"
	if err := c.doJSON(ctx, http.MethodPut, path, nil, &out, "failed to toggle lab status"); err != nil {
		return nil, err
	}
	if out.Lab == nil {
		return nil, fmt.Errorf("toggle lab status: response has no lab")
	}
	return out.Lab, nil
}

// ListSetupSteps returns the lab's steps as the server orders them.
func (c *Client) ListSetupSteps(ctx context.Context, labID string) ([]models.SetupStep, error) {
	var out []models.SetupStep
	path := "/lab/" + url.PathEscape(labID) + "/setup-steps"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, "failed to fetch setup steps"); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSetupStep validates req locally before sending it.
func (c *Client) CreateSetupStep(ctx context.Context, labID string, req models.CreateSetupStepRequest) (*models.SetupStep, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out models.SetupStep
	if err := c.doJSON(ctx, http.MethodPost, "/setup-step/"+url.PathEscape(labID), req, &out, "failed to create setup step"); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSetupSteps creates every step in reqs in one request. The server
// applies all of them or none.
func (c *Client) CreateSetupSteps(ctx context.Context, labID string, reqs []models.CreateSetupStepRequest) ([]models.SetupStep, error) {
	for i, req := range reqs {
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	var out struct {
		SetupSteps []models.SetupStep `json:"setupSteps"`
	}
	path := "/setup-step/batch/" + url.PathEscape(labID)
	if err := c.doJSON(ctx, http.MethodPost, path, reqs, &out, "failed to create batch setup steps"); err != nil {
		return nil, err
	}
	return out.SetupSteps, nil
}

// UpdateSetupStep sends the full record; the id travels in the body.
func (c *Client) UpdateSetupStep(ctx context.Context, req models.UpdateSetupStepRequest) (*models.SetupStep, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out models.SetupStep
	if err := c.doJSON(ctx, http.MethodPut, "/setup-step", req, &out, "failed to update setup step"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSetupStep(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/setup-step/"+url.PathEscape(id), nil, nil, "failed to delete setup step")
}

// DeleteSetupSteps removes the steps with the given ids and reports how many
// the server deleted.
func (c *Client) DeleteSetupSteps(ctx context.Context, ids []string) (int, error) {
	var out struct {
		DeletedCount int `json:"deletedCount"`
	}
	if err := c.doJSON(ctx, http.MethodDelete, "/setup-step/batch", ids, &out, "failed to delete batch setup steps"); err != nil {
		return 0, err
	}
	return out.DeletedCount, nil
}

// ReorderSetupSteps renumbers the lab's steps 1..n following ids in one
// server-side transaction. ids must list every step of the lab once.
func (c *Client) ReorderSetupSteps(ctx context.Context, labID string, ids []string) ([]models.SetupStep, error) {
	var out struct {
		SetupSteps []models.SetupStep `json:"setupSteps"`
	}
	path := "/setup-step/reorder/" + url.PathEscape(labID)
	if err := c.doJSON(ctx, http.MethodPut, path, ids, &out, "failed to reorder setup steps"); err != nil {
		return nil, err
	}
	return out.SetupSteps, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any, fallback string) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, payload, fallback)
	}

	if out == nil || len(payload) == 0 {
		return nil
	}

	return json.Unmarshal(payload, out)
}

func newAPIError(status int, payload []byte, fallback string) APIError {
	e := APIError{StatusCode: status, Message: fallback, Body: string(payload)}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(payload, &body) == nil && strings.TrimSpace(body.Error) != "" {
		e.Message = body.Error
	}
	return e
}
