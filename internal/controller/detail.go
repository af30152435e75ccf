package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tphummel/lab_templates/internal/models"
)

// DetailState is the lifecycle of a lab detail view.
type DetailState int

const (
	// Loading is the state until Load returns.
	Loading DetailState = iota
	// Ready means the lab and its steps are loaded.
	Ready
	// Redirected means loading failed and the user was sent back to the list.
	Redirected
)

func (s DetailState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Redirected:
		return "redirected"
	default:
		return fmt.Sprintf("DetailState(%d)", int(s))
	}
}

// ErrNotReady is returned by lab mutations issued before Load succeeded.
var ErrNotReady = errors.New("lab detail is not loaded")

// LabDetail is the state behind a single lab's page: the lab itself and,
// through Steps, its ordered setup steps.
type LabDetail struct {
	labs     LabService
	stepsSvc StepService
	notify   Notifier
	nav      Navigator
	log      *slog.Logger
	life     lifecycle

	mu    sync.Mutex
	state DetailState
	lab   models.Lab
	steps *StepController
}

// NewLabDetail returns a detail controller in the Loading state. notify, nav
// and logger may be nil.
func NewLabDetail(labs LabService, steps StepService, notify Notifier, nav Navigator, logger *slog.Logger) *LabDetail {
	if nav == nil {
		nav = nopNavigator{}
	}
	return &LabDetail{
		labs:     labs,
		stepsSvc: steps,
		notify:   orNop(notify),
		nav:      nav,
		log:      orDiscard(logger),
	}
}

// Load fetches the lab and its steps concurrently. If either request fails
// the user is sent back to the list and the view ends in Redirected.
func (d *LabDetail) Load(ctx context.Context, id string) error {
	d.life.begin()
	defer d.life.end()

	var (
		lab   *models.Lab
		steps []models.SetupStep
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lab, err = d.labs.GetLab(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		steps, err = d.labs.ListSetupSteps(gctx, id)
		return err
	})

	if err := g.Wait(); err != nil {
		if !d.life.alive() {
			return fmt.Errorf("load lab %s: %w", id, err)
		}
		d.log.Error("load lab failed", "lab_id", id, "error", err)
		d.notify.Error("labs.loadError", nil)
		d.mu.Lock()
		d.state = Redirected
		d.mu.Unlock()
		d.nav.ToList()
		return fmt.Errorf("load lab %s: %w", id, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.life.alive() {
		return nil
	}
	if d.steps != nil {
		d.steps.Close()
	}
	d.lab = *lab
	d.steps = NewStepController(lab.ID, steps, d.stepsSvc, d.notify, d.log)
	d.state = Ready
	return nil
}

// State returns where the view is in its lifecycle.
func (d *LabDetail) State() DetailState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Lab returns the loaded lab. ok is false until Load succeeded.
func (d *LabDetail) Lab() (lab models.Lab, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lab, d.state == Ready
}

// Steps returns the step controller of the loaded lab, or nil before Load
// succeeded.
func (d *LabDetail) Steps() *StepController {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.steps
}

// Busy reports whether a lab or step request is in flight.
func (d *LabDetail) Busy() bool {
	if d.life.busy() {
		return true
	}
	s := d.Steps()
	return s != nil && s.Busy()
}

// Close detaches the view. Pending responses are dropped.
func (d *LabDetail) Close() {
	d.life.close()
	if s := d.Steps(); s != nil {
		s.Close()
	}
}

// UpdateLab saves req as the lab's new fields and returns the stored lab.
func (d *LabDetail) UpdateLab(ctx context.Context, req models.UpdateLabRequest) (models.Lab, error) {
	cur, ok := d.Lab()
	if !ok {
		return models.Lab{}, ErrNotReady
	}

	d.life.begin()
	defer d.life.end()

	updated, err := d.labs.UpdateLab(ctx, cur.ID, req)
	if err != nil {
		d.fail("update lab", "labs.updateError", cur.ID, err)
		return models.Lab{}, fmt.Errorf("update lab: %w", err)
	}
	if d.setLab(*updated) {
		d.notify.Success("labs.updateSuccess", map[string]string{"name": updated.Name})
	}
	return *updated, nil
}

// DeleteLab deletes the lab and returns to the list. The store removes the
// lab's steps with it.
func (d *LabDetail) DeleteLab(ctx context.Context) error {
	cur, ok := d.Lab()
	if !ok {
		return ErrNotReady
	}

	d.life.begin()
	defer d.life.end()

	if err := d.labs.DeleteLab(ctx, cur.ID); err != nil {
		d.fail("delete lab", "labs.deleteError", cur.ID, err)
		return fmt.Errorf("delete lab: %w", err)
	}
	if !d.life.alive() {
		return nil
	}
	d.notify.Success("labs.deleteSuccess", map[string]string{"name": cur.Name})
	d.nav.ToList()
	return nil
}

// ToggleStatus flips the lab between active and inactive and reports whether
// the store accepted it.
func (d *LabDetail) ToggleStatus(ctx context.Context) bool {
	cur, ok := d.Lab()
	if !ok {
		return false
	}

	d.life.begin()
	defer d.life.end()

	toggled, err := d.labs.ToggleLabStatus(ctx, cur.ID)
	if err != nil {
		d.fail("toggle lab status", "labs.toggleStatusError", cur.ID, err)
		return false
	}
	if !d.setLab(*toggled) {
		return false
	}
	d.notify.Success(toggleKey(toggled.IsActive), map[string]string{"name": toggled.Name})
	return true
}

func (d *LabDetail) setLab(lab models.Lab) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.life.alive() {
		return false
	}
	d.lab = lab
	return true
}

func (d *LabDetail) fail(op, key, labID string, err error) {
	if !d.life.alive() {
		return
	}
	d.log.Error(op+" failed", "lab_id", labID, "error", err)
	d.notify.Error(key, nil)
}

func toggleKey(active bool) string {
	if active {
		return "labs.toggleStatusActivated"
	}
	return "labs.toggleStatusDeactivated"
}
