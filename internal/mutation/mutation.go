// Package mutation sends create, update and delete requests for a resource
// and hands the result back to the caller, who owns the local list.
//
// Nothing is retried except the one PATCH to PUT fallback on 404.
package mutation

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk-go/internal/apierror"
	"github.com/clinicdesk/clinicdesk-go/internal/resource"
)

// Operation names carried by Error.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Writer sends mutations to the API.
type Writer interface {
	Create(ctx context.Context, collection string, payload any) (resource.Record, error)
	Patch(ctx context.Context, collection string, id int64, payload any) (resource.Record, error)
	Put(ctx context.Context, collection string, id int64, payload any) (resource.Record, error)
	Delete(ctx context.Context, collection string, id int64) error
}

// Error is a failed mutation. Message is the text shown to the user.
type Error struct {
	Op       string
	Resource string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Coordinator performs mutations through a Writer.
type Coordinator struct {
	writer Writer
	logger zerolog.Logger
}

func New(writer Writer, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		writer: writer,
		logger: logger.With().Str("component", "mutation").Logger(),
	}
}

// Create posts payload to kind's collection. onCreated, when non-nil, gets the
// created record; it is not called on failure.
func (c *Coordinator) Create(ctx context.Context, kind resource.Kind, payload map[string]any, onCreated func(resource.Record)) (resource.Record, error) {
	rec, err := c.writer.Create(ctx, kind.Name, payload)
	if err != nil {
		return nil, c.fail(OpCreate, kind, err)
	}
	if rec == nil {
		rec = resource.Record(payload)
	}
	if onCreated != nil {
		onCreated(rec)
	}
	return rec, nil
}

// Update sends PATCH and, only when that answers 404, one PUT with the same
// payload to the same path.
func (c *Coordinator) Update(ctx context.Context, kind resource.Kind, id int64, payload map[string]any, onUpdated func(resource.Record)) (resource.Record, error) {
	rec, err := c.writer.Patch(ctx, kind.Name, id, payload)
	if apierror.IsNotFound(err) {
		c.logger.Debug().Str("resource", kind.Name).Int64("id", id).Msg("PATCH not found, retrying with PUT")
		rec, err = c.writer.Put(ctx, kind.Name, id, payload)
	}
	if err != nil {
		return nil, c.fail(OpUpdate, kind, err)
	}
	if rec == nil {
		rec = resource.Record(payload).With("id", id)
	}
	if onUpdated != nil {
		onUpdated(rec)
	}
	return rec, nil
}

// Delete removes the record with id. onDeleted, when non-nil, gets the id.
func (c *Coordinator) Delete(ctx context.Context, kind resource.Kind, id int64, onDeleted func(int64)) error {
	if err := c.writer.Delete(ctx, kind.Name, id); err != nil {
		return c.fail(OpDelete, kind, err)
	}
	if onDeleted != nil {
		onDeleted(id)
	}
	return nil
}

func (c *Coordinator) fail(op string, kind resource.Kind, err error) error {
	msg := apierror.Classify(err)
	c.logger.Debug().Err(err).
		Str("op", op).
		Str("resource", kind.Name).
		Int("status", apierror.StatusOf(err)).
		Msg("mutation failed")
	return &Error{Op: op, Resource: kind.Name, Message: msg, Err: err}
}

// Message returns the user-facing text for err: the classified message of a
// mutation failure, or the classifier's reading of any other error.
func Message(err error) string {
	var mErr *Error
	if errors.As(err, &mErr) {
		return mErr.Message
	}
	return apierror.Classify(err)
}

