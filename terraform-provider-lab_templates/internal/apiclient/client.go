package apiclient

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
)

// Client is an HTTP client for the lab_templates REST API.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// NewClient creates a Client targeting endpoint, the API root such as
// https://labs.example.com/api. An empty token sends no Authorization header.
func NewClient(endpoint, token string) *Client {
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Lab mirrors the JSON shape of a lab template.
type Lab struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	BaseImage     string `json:"baseImage"`
	EstimatedTime int64  `json:"estimatedTime"`
	IsActive      bool   `json:"isActive"`
	CreatedAt     string `json:"createdAt,omitempty"`
}

// SetupStep mirrors the JSON shape of a lab's setup step. A zero StepOrder on
// create lets the server append the step.
type SetupStep struct {
	ID                string `json:"id,omitempty"`
	LabID             string `json:"labId,omitempty"`
	StepOrder         int64  `json:"stepOrder,omitempty"`
	Title             string `json:"title"`
	Description       string `json:"description,omitempty"`
	SetupCommand      string `json:"setupCommand"`
	ExpectedExitCode  int64  `json:"expectedExitCode"`
	RetryCount        int64  `json:"retryCount"`
	TimeoutSeconds    int64  `json:"timeoutSeconds"`
	ContinueOnFailure bool   `json:"continueOnFailure"`
}

// StatusError is a non-2xx response. Message comes from the body's error
// field when present.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.StatusCode)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

// do sends the request and decodes a response with status want into out.
// A 404 is reported as found == false with no error when allowMissing is set.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any, want int, allowMissing bool) (found bool, err error) {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if allowMissing && resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != want {
		return false, statusError(op, resp)
	}
	if out == nil {
		return true, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("%s: decode response: %w", op, err)
	}
	return true, nil
}

func statusError(op string, resp *http.Response) error {
	e := &StatusError{Op: op, StatusCode: resp.StatusCode}
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(payload, &body) == nil {
		e.Message = body.Error
	}
	return e
}

// ListLabs returns every lab, or only active or inactive ones when active is
// set.
func (c *Client) ListLabs(ctx context.Context, active *bool) ([]Lab, error) {
	path := "/lab"
	if active != nil {
		path += "?isActivate=" + strconv.FormatBool(*active)
	}
	var out []Lab
	if _, err := c.do(ctx, "list labs", http.MethodGet, path, nil, &out, http.StatusOK, false); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateLab POSTs a new lab and returns the server-assigned record. New labs
// start active.
func (c *Client) CreateLab(ctx context.Context, l Lab) (*Lab, error) {
	var out Lab
	if _, err := c.do(ctx, "create lab", http.MethodPost, "/lab", l, &out, http.StatusCreated, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetLab fetches a single lab by ID. Returns nil, nil when the server
// responds 404 so callers can treat a missing lab as removed externally.
func (c *Client) GetLab(ctx context.Context, id string) (*Lab, error) {
	var out Lab
	found, err := c.do(ctx, fmt.Sprintf("get lab %q", id), http.MethodGet, "/lab/"+url.PathEscape(id), nil, &out, http.StatusOK, true)
	if err != nil || !found {
		return nil, err
	}
	return &out, nil
}

// UpdateLab PUTs the editable fields of l to the lab with l.ID. The active
// flag is not changed; use ToggleLab.
func (c *Client) UpdateLab(ctx context.Context, l Lab) (*Lab, error) {
	var out Lab
	if _, err := c.do(ctx, fmt.Sprintf("update lab %q", l.ID), http.MethodPut, "/lab/"+url.PathEscape(l.ID), l, &out, http.StatusOK, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// ToggleLab flips the lab's active flag and returns the lab as stored.
func (c *Client) ToggleLab(ctx context.Context, id string) (*Lab, error) {
	var out struct {
		Lab *Lab `json:"lab"`
	}
	op := fmt.Sprintf("toggle lab %q", id)
	if _, err := c.do(ctx, op, http.MethodPut, "/lab/"+url.PathEscape(id)+"/toggle-status", nil, &out, http.StatusOK, false); err != nil {
		return nil, err
	}
	if out.Lab == nil {
		return nil, fmt.Errorf("%s: response has no lab", op)
	}
	return out.Lab, nil
}

// DeleteLab removes the lab and its setup steps. A lab that is already gone
// is not an error.
func (c *Client) DeleteLab(ctx context.Context, id string) error {
	_, err := c.do(ctx, fmt.Sprintf("delete lab %q", id), http.MethodDelete, "/lab/"+url.PathEscape(id), nil, nil, http.StatusNoContent, true)
	return err
}

// ListSetupSteps returns the lab's steps. Returns nil, nil when the lab does
// not exist.
func (c *Client) ListSetupSteps(ctx context.Context, labID string) ([]SetupStep, error) {
	var out []SetupStep
	path := "/lab/" + url.PathEscape(labID) + "/setup-steps"
	found, err := c.do(ctx, fmt.Sprintf("list setup steps of lab %q", labID), http.MethodGet, path, nil, &out, http.StatusOK, true)
	if err != nil || !found {
		return nil, err
	}
	return out, nil
}

// GetSetupStep finds step id among the lab's steps. Returns nil, nil when
// either is missing.
func (c *Client) GetSetupStep(ctx context.Context, labID, id string) (*SetupStep, error) {
	steps, err := c.ListSetupSteps(ctx, labID)
	if err != nil {
		return nil, err
	}
	for i := range steps {
		if steps[i].ID == id {
			return &steps[i], nil
		}
	}
	return nil, nil
}

// CreateSetupStep appends s to the lab, or inserts it at s.StepOrder when set.
func (c *Client) CreateSetupStep(ctx context.Context, labID string, s SetupStep) (*SetupStep, error) {
	var out SetupStep
	path := "/setup-step/" + url.PathEscape(labID)
	if _, err := c.do(ctx, "create setup step", http.MethodPost, path, s, &out, http.StatusCreated, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSetupStep PUTs the full record of s; the id travels in the body.
func (c *Client) UpdateSetupStep(ctx context.Context, s SetupStep) (*SetupStep, error) {
	var out SetupStep
	if _, err := c.do(ctx, fmt.Sprintf("update setup step %q", s.ID), http.MethodPut, "/setup-step", s, &out, http.StatusOK, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSetupStep removes one step. A step that is already gone is not an
// error.
func (c *Client) DeleteSetupStep(ctx context.Context, id string) error {
	_, err := c.do(ctx, fmt.Sprintf("delete setup step %q", id), http.MethodDelete, "/setup-step/"+url.PathEscape(id), nil, nil, http.StatusNoContent, true)
	return err
}
