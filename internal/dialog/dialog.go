// Package dialog models the create/edit/delete dialogs of a list view as one
// explicit state machine per entity type.
package dialog

import (
	"errors"
	"fmt"
	"sync"
)

// Mode is the dialog currently shown.
type Mode int

const (
	Closed Mode = iota
	Creating
	Editing
	Deleting
)

func (m Mode) String() string {
	switch m {
	case Closed:
		return "closed"
	case Creating:
		return "creating"
	case Editing:
		return "editing"
	case Deleting:
		return "deleting"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

var (
	// ErrBusy is returned when a transition is attempted while a submission
	// is running.
	ErrBusy = errors.New("dialog: action in progress")
	// ErrInvalidTransition is returned for transitions the current mode does
	// not allow.
	ErrInvalidTransition = errors.New("dialog: invalid transition")
)

// Machine holds which dialog is open, its target and whether its submission
// is running. The zero value is closed and ready to use.
type Machine[T any] struct {
	mu     sync.Mutex
	mode   Mode
	target T
	busy   bool
}

// OpenCreate shows the create dialog.
func (m *Machine[T]) OpenCreate() error {
	var zero T
	return m.open(Creating, zero)
}

// OpenEdit shows the edit dialog for target.
func (m *Machine[T]) OpenEdit(target T) error {
	return m.open(Editing, target)
}

// OpenDelete shows the delete confirmation for target.
func (m *Machine[T]) OpenDelete(target T) error {
	return m.open(Deleting, target)
}

func (m *Machine[T]) open(to Mode, target T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode != Closed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.mode, to)
	}
	m.mode = to
	m.target = target
	return nil
}

// Close dismisses the dialog. Closing a closed dialog is a no-op; closing
// during a submission is refused.
func (m *Machine[T]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		return ErrBusy
	}
	m.reset()
	return nil
}

// Submit runs fn for the open dialog. The dialog stays open when fn fails so
// the user can correct and retry, and closes when it succeeds. A second
// Submit while fn runs returns ErrBusy.
func (m *Machine[T]) Submit(fn func(mode Mode, target T) error) error {
	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		return ErrBusy
	}
	if m.mode == Closed {
		m.mu.Unlock()
		return fmt.Errorf("%w: submit while closed", ErrInvalidTransition)
	}
	m.busy = true
	mode, target := m.mode, m.target
	m.mu.Unlock()

	err := fn(mode, target)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy = false
	if err != nil {
		return err
	}
	m.reset()
	return nil
}

func (m *Machine[T]) reset() {
	var zero T
	m.mode = Closed
	m.target = zero
}

// Mode returns the open dialog, or Closed.
func (m *Machine[T]) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// Target returns the entity the open edit or delete dialog acts on.
func (m *Machine[T]) Target() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.target, m.mode == Editing || m.mode == Deleting
}

// Busy reports whether a submission is running.
func (m *Machine[T]) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}
