package controller

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/tphummel/lab_templates/internal/filter"
	"github.com/tphummel/lab_templates/internal/models"
)

// LabList is the state behind the lab list view: every lab known to the
// client and the filters applied to them.
type LabList struct {
	svc    LabService
	notify Notifier
	log    *slog.Logger
	life   lifecycle

	mu      sync.Mutex
	labs    []models.Lab
	filters filter.Filters
	loaded  bool
}

// NewLabList returns an empty list with default filters. notify and logger
// may be nil.
func NewLabList(svc LabService, notify Notifier, logger *slog.Logger) *LabList {
	return &LabList{
		svc:     svc,
		notify:  orNop(notify),
		log:     orDiscard(logger),
		filters: filter.Default(),
	}
}

// Refresh reloads every lab from the store. showToast adds a success
// notification, as for a user-triggered refresh.
func (l *LabList) Refresh(ctx context.Context, showToast bool) error {
	l.life.begin()
	defer l.life.end()

	labs, err := l.svc.ListLabs(ctx, nil)
	if err != nil {
		l.fail("list labs", "labs.loadError", err)
		return fmt.Errorf("list labs: %w", err)
	}

	l.mu.Lock()
	alive := l.life.alive()
	if alive {
		l.labs = labs
		l.loaded = true
	}
	l.mu.Unlock()

	if alive && showToast {
		l.notify.Success("labs.refreshSuccess", nil)
	}
	return nil
}

// Loaded reports whether a Refresh has succeeded.
func (l *LabList) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// Create adds a lab and puts it at the front of the list.
func (l *LabList) Create(ctx context.Context, req models.CreateLabRequest) (models.Lab, error) {
	l.life.begin()
	defer l.life.end()

	created, err := l.svc.CreateLab(ctx, req)
	if err != nil {
		l.fail("create lab", "labs.createError", err)
		return models.Lab{}, fmt.Errorf("create lab: %w", err)
	}
	if l.apply(func() {
		l.labs = append([]models.Lab{*created}, l.labs...)
	}) {
		l.notify.Success("labs.createSuccess", map[string]string{"name": created.Name})
	}
	return *created, nil
}

// Update saves req as the fields of lab id.
func (l *LabList) Update(ctx context.Context, id string, req models.UpdateLabRequest) (models.Lab, error) {
	l.life.begin()
	defer l.life.end()

	updated, err := l.svc.UpdateLab(ctx, id, req)
	if err != nil {
		l.fail("update lab", "labs.updateError", err, "lab_id", id)
		return models.Lab{}, fmt.Errorf("update lab: %w", err)
	}
	if l.apply(func() { l.replace(*updated) }) {
		l.notify.Success("labs.updateSuccess", map[string]string{"name": updated.Name})
	}
	return *updated, nil
}

// Delete removes lab id and, on the store, its setup steps.
func (l *LabList) Delete(ctx context.Context, id string) error {
	l.life.begin()
	defer l.life.end()

	name := id
	if lab, ok := l.Get(id); ok {
		name = lab.Name
	}

	if err := l.svc.DeleteLab(ctx, id); err != nil {
		l.fail("delete lab", "labs.deleteError", err, "lab_id", id)
		return fmt.Errorf("delete lab: %w", err)
	}
	if l.apply(func() {
		l.labs = slices.DeleteFunc(slices.Clone(l.labs), func(lab models.Lab) bool { return lab.ID == id })
	}) {
		l.notify.Success("labs.deleteSuccess", map[string]string{"name": name})
	}
	return nil
}

// ToggleStatus flips lab id between active and inactive and reports whether
// the store accepted it.
func (l *LabList) ToggleStatus(ctx context.Context, id string) bool {
	l.life.begin()
	defer l.life.end()

	toggled, err := l.svc.ToggleLabStatus(ctx, id)
	if err != nil {
		l.fail("toggle lab status", "labs.toggleStatusError", err, "lab_id", id)
		return false
	}
	if !l.apply(func() { l.replace(*toggled) }) {
		return false
	}
	l.notify.Success(toggleKey(toggled.IsActive), map[string]string{"name": toggled.Name})
	return true
}

// Get returns the lab with id from the local list.
func (l *LabList) Get(id string) (models.Lab, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := slices.IndexFunc(l.labs, func(lab models.Lab) bool { return lab.ID == id })
	if i < 0 {
		return models.Lab{}, false
	}
	return l.labs[i], true
}

// All returns every lab in list order, unfiltered.
func (l *LabList) All() []models.Lab {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.labs)
}

// Visible returns the labs that pass the current filters, in their order.
func (l *LabList) Visible() []models.Lab {
	l.mu.Lock()
	defer l.mu.Unlock()
	return filter.Apply(l.labs, l.filters)
}

// Filters returns the current filters.
func (l *LabList) Filters() filter.Filters {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filters
}

// SetFilters replaces the current filters. Visible applies them to the loaded
// labs on its next call; nothing is refetched.
func (l *LabList) SetFilters(f filter.Filters) {
	l.mu.Lock()
	l.filters = f
	l.mu.Unlock()
}

// ClearFilters restores the default filters and keeps the collation locale.
func (l *LabList) ClearFilters() {
	l.mu.Lock()
	locale := l.filters.Locale
	l.filters = filter.Default()
	l.filters.Locale = locale
	l.mu.Unlock()
}

// HasFilters reports whether anything narrows or reorders the default view.
func (l *LabList) HasFilters() bool {
	return !l.Filters().IsDefault()
}

// Busy reports whether a request is in flight.
func (l *LabList) Busy() bool { return l.life.busy() }

// Close detaches the list from its view.
func (l *LabList) Close() { l.life.close() }

func (l *LabList) apply(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.life.alive() {
		return false
	}
	fn()
	return true
}

// replace swaps in lab by id on a copy of the slice. Callers hold l.mu.
func (l *LabList) replace(lab models.Lab) {
	i := slices.IndexFunc(l.labs, func(x models.Lab) bool { return x.ID == lab.ID })
	if i < 0 {
		return
	}
	next := slices.Clone(l.labs)
	next[i] = lab
	l.labs = next
}

func (l *LabList) fail(op, key string, err error, attrs ...any) {
	if !l.life.alive() {
		return
	}
	l.log.Error(op+" failed", append(attrs, "error", err)...)
	l.notify.Error(key, nil)
}
