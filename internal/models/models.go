package models

import (
	"fmt"
	"strings"
	"time"
)

// Lab is a template describing a container-based exercise environment.
type Lab struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	BaseImage     string    `json:"baseImage"`
	EstimatedTime int       `json:"estimatedTime"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CreateLabRequest is the body of POST /lab.
type CreateLabRequest struct {
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	BaseImage     string `json:"baseImage"`
	EstimatedTime int    `json:"estimatedTime"`
}

// UpdateLabRequest is the body of PUT /lab/{id}. It carries the same fields
// as a create request; the lab id travels in the path.
type UpdateLabRequest = CreateLabRequest

// Estimated time bounds accepted by the lab form, in minutes.
const (
	MinEstimatedTime = 1
	MaxEstimatedTime = 600
)

// ValidationError reports a single field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks required fields and numeric ranges.
func (r CreateLabRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if strings.TrimSpace(r.BaseImage) == "" {
		return &ValidationError{Field: "baseImage", Message: "is required"}
	}
	if r.EstimatedTime < MinEstimatedTime || r.EstimatedTime > MaxEstimatedTime {
		return &ValidationError{
			Field:   "estimatedTime",
			Message: fmt.Sprintf("must be between %d and %d minutes", MinEstimatedTime, MaxEstimatedTime),
		}
	}
	return nil
}

// ToRequest returns the editable fields of l as an update request.
func (l Lab) ToRequest() UpdateLabRequest {
	return UpdateLabRequest{
		Name:          l.Name,
		Description:   l.Description,
		BaseImage:     l.BaseImage,
		EstimatedTime: l.EstimatedTime,
	}
}
