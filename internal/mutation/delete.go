package mutation

import (
	"context"
	"errors"
	"sync"

	"github.com/clinicdesk/clinicdesk-go/internal/resource"
)

var (
	ErrNotArmed   = errors.New("delete was not requested")
	ErrInProgress = errors.New("delete already in progress")
)

// DeleteAction is the two-step delete of one record: Arm asks for
// confirmation, Confirm deletes, Cancel backs out. Only Confirm touches the
// network.
type DeleteAction struct {
	coord     *Coordinator
	kind      resource.Kind
	id        int64
	onDeleted func(int64)

	mu       sync.Mutex
	armed    bool
	inFlight bool
}

// NewDeleteAction returns an unarmed delete of the record with id.
func (c *Coordinator) NewDeleteAction(kind resource.Kind, id int64, onDeleted func(int64)) *DeleteAction {
	return &DeleteAction{coord: c, kind: kind, id: id, onDeleted: onDeleted}
}

// Arm enters the pending state.
func (a *DeleteAction) Arm() {
	a.mu.Lock()
	a.armed = true
	a.mu.Unlock()
}

// Cancel leaves the pending state.
func (a *DeleteAction) Cancel() {
	a.mu.Lock()
	a.armed = false
	a.mu.Unlock()
}

// Armed reports whether a confirmation is pending.
func (a *DeleteAction) Armed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.armed
}

// Confirm issues exactly one DELETE. It fails with ErrNotArmed, without a
// call, unless Arm came first. On failure the action stays armed so the user
// can confirm again.
func (a *DeleteAction) Confirm(ctx context.Context) error {
	a.mu.Lock()
	switch {
	case !a.armed:
		a.mu.Unlock()
		return ErrNotArmed
	case a.inFlight:
		a.mu.Unlock()
		return ErrInProgress
	}
	a.inFlight = true
	a.mu.Unlock()

	err := a.coord.Delete(ctx, a.kind, a.id, a.onDeleted)

	a.mu.Lock()
	a.inFlight = false
	if err == nil {
		a.armed = false
	}
	a.mu.Unlock()
	return err
}
