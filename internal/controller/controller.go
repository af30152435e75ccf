// Package controller holds the client-side state of the lab views and
// reconciles it against the lab store. Local state changes only after the
// store accepted the corresponding request.
package controller

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tphummel/lab_templates/internal/models"
)

// LabService is the part of the lab store the lab views need.
// *labapi.Client satisfies it.
type LabService interface {
	ListLabs(ctx context.Context, active *bool) ([]models.Lab, error)
	GetLab(ctx context.Context, id string) (*models.Lab, error)
	CreateLab(ctx context.Context, req models.CreateLabRequest) (*models.Lab, error)
	UpdateLab(ctx context.Context, id string, req models.UpdateLabRequest) (*models.Lab, error)
	DeleteLab(ctx context.Context, id string) error
	ToggleLabStatus(ctx context.Context, id string) (*models.Lab, error)
	ListSetupSteps(ctx context.Context, labID string) ([]models.SetupStep, error)
}

// StepService is the part of the lab store the setup step list needs.
// *labapi.Client satisfies it.
type StepService interface {
	CreateSetupStep(ctx context.Context, labID string, req models.CreateSetupStepRequest) (*models.SetupStep, error)
	CreateSetupSteps(ctx context.Context, labID string, reqs []models.CreateSetupStepRequest) ([]models.SetupStep, error)
	UpdateSetupStep(ctx context.Context, req models.UpdateSetupStepRequest) (*models.SetupStep, error)
	DeleteSetupStep(ctx context.Context, id string) error
	DeleteSetupSteps(ctx context.Context, ids []string) (int, error)
	ReorderSetupSteps(ctx context.Context, labID string, ids []string) ([]models.SetupStep, error)
}

// Notifier shows a transient message to the user. key is a message catalog
// key; args fill its named placeholders.
type Notifier interface {
	Success(key string, args map[string]string)
	Error(key string, args map[string]string)
}

// Navigator moves the user between views.
type Navigator interface {
	ToList()
}

type nopNotifier struct{}

func (nopNotifier) Success(string, map[string]string) {}
func (nopNotifier) Error(string, map[string]string)   {}

type nopNavigator struct{}

func (nopNavigator) ToList() {}

// lifecycle tracks in-flight operations and whether the owning view is still
// alive. Results that arrive after close are dropped.
type lifecycle struct {
	mu       sync.Mutex
	inFlight int
	closed   bool
}

func (l *lifecycle) begin() {
	l.mu.Lock()
	l.inFlight++
	l.mu.Unlock()
}

func (l *lifecycle) end() {
	l.mu.Lock()
	l.inFlight--
	l.mu.Unlock()
}

func (l *lifecycle) busy() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight > 0
}

func (l *lifecycle) close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

func (l *lifecycle) alive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.closed
}

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
