package models

import (
	"fmt"
	"slices"
	"strings"
)

// SetupStep is one ordered, retryable shell command executed while
// provisioning a lab's environment.
type SetupStep struct {
	ID                string `json:"id"`
	LabID             string `json:"labId,omitempty"`
	StepOrder         int    `json:"stepOrder"`
	Title             string `json:"title"`
	Description       string `json:"description,omitempty"`
	SetupCommand      string `json:"setupCommand"`
	ExpectedExitCode  int    `json:"expectedExitCode"`
	RetryCount        int    `json:"retryCount"`
	TimeoutSeconds    int    `json:"timeoutSeconds"`
	ContinueOnFailure bool   `json:"continueOnFailure"`
}

// Bounds and form defaults for setup step fields.
const (
	MinExitCode = 0
	MaxExitCode = 255
	MinRetries  = 1
	MaxRetries  = 10
	MinTimeout  = 1
	MaxTimeout  = 3600

	DefaultExitCode = 0
	DefaultRetries  = 1
	DefaultTimeout  = 300
)

// CreateSetupStepRequest is the body of POST /setup-step/{labId}. Optional
// fields left nil are filled by the server.
type CreateSetupStepRequest struct {
	StepOrder         *int   `json:"stepOrder,omitempty" yaml:"stepOrder,omitempty"`
	Title             string `json:"title" yaml:"title"`
	Description       string `json:"description,omitempty" yaml:"description,omitempty"`
	SetupCommand      string `json:"setupCommand" yaml:"setupCommand"`
	ExpectedExitCode  *int   `json:"expectedExitCode,omitempty" yaml:"expectedExitCode,omitempty"`
	RetryCount        *int   `json:"retryCount,omitempty" yaml:"retryCount,omitempty"`
	TimeoutSeconds    *int   `json:"timeoutSeconds,omitempty" yaml:"timeoutSeconds,omitempty"`
	ContinueOnFailure *bool  `json:"continueOnFailure,omitempty" yaml:"continueOnFailure,omitempty"`
}

// UpdateSetupStepRequest is the body of PUT /setup-step. The step id travels
// in the body.
type UpdateSetupStepRequest struct {
	ID string `json:"id"`
	CreateSetupStepRequest
}

// Validate checks required fields and the ranges of any values that are set.
func (r CreateSetupStepRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return &ValidationError{Field: "title", Message: "is required"}
	}
	if strings.TrimSpace(r.SetupCommand) == "" {
		return &ValidationError{Field: "setupCommand", Message: "is required"}
	}
	if err := checkRange("expectedExitCode", r.ExpectedExitCode, MinExitCode, MaxExitCode); err != nil {
		return err
	}
	if err := checkRange("retryCount", r.RetryCount, MinRetries, MaxRetries); err != nil {
		return err
	}
	return checkRange("timeoutSeconds", r.TimeoutSeconds, MinTimeout, MaxTimeout)
}

// Validate also requires the step id.
func (r UpdateSetupStepRequest) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return &ValidationError{Field: "id", Message: "is required"}
	}
	return r.CreateSetupStepRequest.Validate()
}

func checkRange(field string, v *int, lo, hi int) error {
	if v == nil {
		return nil
	}
	if *v < lo || *v > hi {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be between %d and %d", lo, hi)}
	}
	return nil
}

// NewStep builds a step from the request, filling unset fields with the form
// defaults. order is used when the request carries no stepOrder.
func (r CreateSetupStepRequest) NewStep(id, labID string, order int) SetupStep {
	s := SetupStep{
		ID:               id,
		LabID:            labID,
		StepOrder:        order,
		Title:            r.Title,
		Description:      r.Description,
		SetupCommand:     r.SetupCommand,
		ExpectedExitCode: DefaultExitCode,
		RetryCount:       DefaultRetries,
		TimeoutSeconds:   DefaultTimeout,
	}
	if r.StepOrder != nil {
		s.StepOrder = *r.StepOrder
	}
	if r.ExpectedExitCode != nil {
		s.ExpectedExitCode = *r.ExpectedExitCode
	}
	if r.RetryCount != nil {
		s.RetryCount = *r.RetryCount
	}
	if r.TimeoutSeconds != nil {
		s.TimeoutSeconds = *r.TimeoutSeconds
	}
	if r.ContinueOnFailure != nil {
		s.ContinueOnFailure = *r.ContinueOnFailure
	}
	return s
}

// UpdateRequest returns the full record of s as an update request, which is
// what the client sends for both edits and reorders.
func (s SetupStep) UpdateRequest() UpdateSetupStepRequest {
	order, exit, retries, timeout, cont := s.StepOrder, s.ExpectedExitCode, s.RetryCount, s.TimeoutSeconds, s.ContinueOnFailure
	return UpdateSetupStepRequest{
		ID: s.ID,
		CreateSetupStepRequest: CreateSetupStepRequest{
			StepOrder:         &order,
			Title:             s.Title,
			Description:       s.Description,
			SetupCommand:      s.SetupCommand,
			ExpectedExitCode:  &exit,
			RetryCount:        &retries,
			TimeoutSeconds:    &timeout,
			ContinueOnFailure: &cont,
		},
	}
}

// SortSteps returns a copy of steps ordered by ascending StepOrder. Steps
// sharing an order keep their relative input order.
func SortSteps(steps []SetupStep) []SetupStep {
	out := slices.Clone(steps)
	slices.SortStableFunc(out, func(a, b SetupStep) int {
		return a.StepOrder - b.StepOrder
	})
	return out
}

// IndexOf returns the position of the step with id in steps, or -1.
func IndexOf(steps []SetupStep, id string) int {
	return slices.IndexFunc(steps, func(s SetupStep) bool { return s.ID == id })
}

// Apply overwrites the fields of s that r sets and returns the result. Id and
// lab are never changed.
func (r CreateSetupStepRequest) Apply(s SetupStep) SetupStep {
	s.Title = r.Title
	s.Description = r.Description
	s.SetupCommand = r.SetupCommand
	if r.StepOrder != nil {
		s.StepOrder = *r.StepOrder
	}
	if r.ExpectedExitCode != nil {
		s.ExpectedExitCode = *r.ExpectedExitCode
	}
	if r.RetryCount != nil {
		s.RetryCount = *r.RetryCount
	}
	if r.TimeoutSeconds != nil {
		s.TimeoutSeconds = *r.TimeoutSeconds
	}
	if r.ContinueOnFailure != nil {
		s.ContinueOnFailure = *r.ContinueOnFailure
	}
	return s
}
