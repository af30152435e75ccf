package controller

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tphummel/lab_templates/internal/models"
)

// StepController keeps the ordered setup steps of one lab in sync with the
// store. It is safe for concurrent use; requests are never sent while the
// state lock is held.
type StepController struct {
	labID  string
	svc    StepService
	notify Notifier
	log    *slog.Logger
	life   lifecycle

	mu    sync.Mutex
	steps []models.SetupStep
}

// NewStepController returns a controller for labID seeded with steps as
// loaded from the store. notify and logger may be nil.
func NewStepController(labID string, steps []models.SetupStep, svc StepService, notify Notifier, logger *slog.Logger) *StepController {
	return &StepController{
		labID:  labID,
		svc:    svc,
		notify: orNop(notify),
		log:    orDiscard(logger).With("lab_id", labID),
		steps:  models.SortSteps(steps),
	}
}

// LabID returns the lab the steps belong to.
func (c *StepController) LabID() string { return c.labID }

// Steps returns the steps ordered by stepOrder. Steps sharing an order keep
// their relative position.
func (c *StepController) Steps() []models.SetupStep {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.SortSteps(c.steps)
}

// Busy reports whether a request is in flight.
func (c *StepController) Busy() bool { return c.life.busy() }

// Close detaches the controller from its view. Responses arriving later no
// longer change state or notify.
func (c *StepController) Close() { c.life.close() }

// Create adds a step. On failure the local list is left untouched and the
// error is returned so the form can stay open.
func (c *StepController) Create(ctx context.Context, draft models.CreateSetupStepRequest) (models.SetupStep, error) {
	c.life.begin()
	defer c.life.end()

	created, err := c.svc.CreateSetupStep(ctx, c.labID, draft)
	if err != nil {
		c.fail("create setup step", "labs.setupStepCreateError", err)
		return models.SetupStep{}, fmt.Errorf("create setup step: %w", err)
	}

	if !c.apply(func() {
		c.steps = models.SortSteps(append(slices.Clone(c.steps), *created))
	}) {
		return *created, nil
	}
	c.notify.Success("labs.setupStepCreateSuccess", map[string]string{"title": created.Title})
	return *created, nil
}

// Update replaces a step with req. Other steps keep their positions.
func (c *StepController) Update(ctx context.Context, req models.UpdateSetupStepRequest) (models.SetupStep, error) {
	c.life.begin()
	defer c.life.end()

	updated, err := c.svc.UpdateSetupStep(ctx, req)
	if err != nil {
		c.fail("update setup step", "labs.setupStepUpdateError", err, "step_id", req.ID)
		return models.SetupStep{}, fmt.Errorf("update setup step: %w", err)
	}

	if !c.apply(func() { c.replace(*updated) }) {
		return *updated, nil
	}
	c.notify.Success("labs.setupStepUpdateSuccess", map[string]string{"title": updated.Title})
	return *updated, nil
}

// Delete removes step. It reports whether the store accepted the delete;
// failures are notified, not returned.
func (c *StepController) Delete(ctx context.Context, step models.SetupStep) bool {
	c.life.begin()
	defer c.life.end()

	if err := c.svc.DeleteSetupStep(ctx, step.ID); err != nil {
		c.fail("delete setup step", "labs.setupStepDeleteError", err, "step_id", step.ID)
		return false
	}

	if !c.apply(func() { c.remove(step.ID) }) {
		return false
	}
	c.notify.Success("labs.setupStepDeleteSuccess", map[string]string{"title": step.Title})
	return true
}

// MoveUp swaps step with the one ordered before it. It is a no-op for the
// first step.
func (c *StepController) MoveUp(ctx context.Context, step models.SetupStep) bool {
	return c.move(ctx, step, -1, "labs.moveStepUpSuccess")
}

// MoveDown swaps step with the one ordered after it. It is a no-op for the
// last step.
func (c *StepController) MoveDown(ctx context.Context, step models.SetupStep) bool {
	return c.move(ctx, step, +1, "labs.moveStepDownSuccess")
}

// move swaps the stepOrder values of step and its neighbour with two
// concurrent updates. Local orders change only when both were accepted. If
// one update fails the store may hold a half-applied swap; Renumber repairs
// it. A neighbour with the same order is refused without any request.
func (c *StepController) move(ctx context.Context, step models.SetupStep, dir int, successKey string) bool {
	c.mu.Lock()
	sorted := models.SortSteps(c.steps)
	c.mu.Unlock()

	i := models.IndexOf(sorted, step.ID)
	j := i + dir
	if i < 0 || j < 0 || j >= len(sorted) {
		return false
	}
	cur, neighbour := sorted[i], sorted[j]
	if cur.StepOrder == neighbour.StepOrder {
		// Swapping equal orders changes nothing; only Renumber separates them.
		c.log.Warn("move setup step skipped: order shared with neighbour",
			"step_id", step.ID, "neighbour_id", neighbour.ID, "step_order", cur.StepOrder)
		if c.life.alive() {
			c.notify.Error("labs.moveStepTied", nil)
		}
		return false
	}
	cur.StepOrder, neighbour.StepOrder = neighbour.StepOrder, cur.StepOrder

	c.life.begin()
	defer c.life.end()

	var g errgroup.Group
	for _, s := range []models.SetupStep{cur, neighbour} {
		g.Go(func() error {
			_, err := c.svc.UpdateSetupStep(ctx, s.UpdateRequest())
			return err
		})
	}
	if err := g.Wait(); err != nil {
		c.fail("move setup step", "labs.moveStepError", err, "step_id", step.ID)
		return false
	}

	if !c.apply(func() {
		c.setOrder(cur.ID, cur.StepOrder)
		c.setOrder(neighbour.ID, neighbour.StepOrder)
	}) {
		return false
	}
	c.notify.Success(successKey, nil)
	return true
}

// Import appends several steps in one request. The store creates all of them
// or none.
func (c *StepController) Import(ctx context.Context, drafts []models.CreateSetupStepRequest) ([]models.SetupStep, error) {
	c.life.begin()
	defer c.life.end()

	created, err := c.svc.CreateSetupSteps(ctx, c.labID, drafts)
	if err != nil {
		c.fail("import setup steps", "labs.setupStepImportError", err)
		return nil, fmt.Errorf("import setup steps: %w", err)
	}

	if !c.apply(func() {
		c.steps = models.SortSteps(append(slices.Clone(c.steps), created...))
	}) {
		return created, nil
	}
	c.notify.Success("labs.setupStepImportSuccess", map[string]string{"count": strconv.Itoa(len(created))})
	return created, nil
}

// Prune deletes the steps with the given ids in one request and returns how
// many the store removed.
func (c *StepController) Prune(ctx context.Context, ids []string) (int, error) {
	c.life.begin()
	defer c.life.end()

	n, err := c.svc.DeleteSetupSteps(ctx, ids)
	if err != nil {
		c.fail("prune setup steps", "labs.setupStepPruneError", err)
		return 0, fmt.Errorf("prune setup steps: %w", err)
	}

	if !c.apply(func() {
		for _, id := range ids {
			c.remove(id)
		}
	}) {
		return n, nil
	}
	c.notify.Success("labs.setupStepPruneSuccess", map[string]string{"count": strconv.Itoa(n)})
	return n, nil
}

// Renumber rewrites the orders to 1..n in the current display order in a
// single store transaction. It closes gaps and repairs duplicate orders left
// by an interrupted move.
func (c *StepController) Renumber(ctx context.Context) bool {
	c.mu.Lock()
	sorted := models.SortSteps(c.steps)
	c.mu.Unlock()

	ids := make([]string, len(sorted))
	for i, s := range sorted {
		ids[i] = s.ID
	}

	c.life.begin()
	defer c.life.end()

	renumbered, err := c.svc.ReorderSetupSteps(ctx, c.labID, ids)
	if err != nil {
		c.fail("renumber setup steps", "labs.renumberError", err)
		return false
	}

	if !c.apply(func() { c.steps = renumbered }) {
		return false
	}
	c.notify.Success("labs.renumberSuccess", nil)
	return true
}

// apply runs fn under the state lock unless the controller was closed, and
// reports whether it ran.
func (c *StepController) apply(fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.life.alive() {
		return false
	}
	fn()
	return true
}

func (c *StepController) fail(op, key string, err error, attrs ...any) {
	if !c.life.alive() {
		return
	}
	c.log.Error(op+" failed", append(attrs, "error", err)...)
	c.notify.Error(key, nil)
}

// replace, remove and setOrder copy on write so slices handed out earlier
// never change underneath their holder. Callers hold c.mu.

func (c *StepController) replace(s models.SetupStep) {
	i := models.IndexOf(c.steps, s.ID)
	if i < 0 {
		return
	}
	next := slices.Clone(c.steps)
	next[i] = s
	c.steps = next
}

func (c *StepController) remove(id string) {
	if models.IndexOf(c.steps, id) < 0 {
		return
	}
	c.steps = slices.DeleteFunc(slices.Clone(c.steps), func(s models.SetupStep) bool { return s.ID == id })
}

func (c *StepController) setOrder(id string, order int) {
	i := models.IndexOf(c.steps, id)
	if i < 0 {
		return
	}
	next := slices.Clone(c.steps)
	next[i].StepOrder = order
	c.steps = next
}
