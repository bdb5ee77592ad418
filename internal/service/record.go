package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clinicdesk/clinicdesk-go/internal/repository"
	"github.com/clinicdesk/clinicdesk-go/internal/resource"
)

var ErrRecordNotFound = errors.New("record not found")

// Issue is one validation problem, addressed by the path of the offending
// field.
type Issue struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
}

// ValidationError lists every problem found in a payload.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = strings.Join(is.Path, ".") + ": " + is.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	e.Issues = append(e.Issues, Issue{Path: []string{field}, Message: msg})
}

func (e *ValidationError) has(field string) bool {
	for _, is := range e.Issues {
		if len(is.Path) > 0 && is.Path[0] == field {
			return true
		}
	}
	return false
}

// RecordService stores clinic records and checks them against their kind.
type RecordService struct {
	repo *repository.RecordRepository
}

// NewRecordService creates a new RecordService.
func NewRecordService(repo *repository.RecordRepository) *RecordService {
	return &RecordService{repo: repo}
}

// List returns every record of kind.
func (s *RecordService) List(ctx context.Context, kind resource.Kind) ([]resource.Record, error) {
	docs, err := s.repo.List(ctx, kind.Name)
	if err != nil {
		return nil, err
	}

	out := make([]resource.Record, 0, len(docs))
	for _, d := range docs {
		rec, err := toRecord(d)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Get returns one record.
func (s *RecordService) Get(ctx context.Context, kind resource.Kind, id int64) (resource.Record, error) {
	doc, err := s.repo.Get(ctx, kind.Name, id)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return toRecord(*doc)
}

// Create validates payload and stores it as a new record.
func (s *RecordService) Create(ctx context.Context, kind resource.Kind, payload resource.Record) (resource.Record, error) {
	rec, err := s.validate(ctx, kind, payload)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	id, err := s.repo.Create(ctx, kind.Name, data)
	if err != nil {
		return nil, err
	}
	return rec.With("id", id), nil
}

// Replace overwrites the record with payload (PUT semantics).
func (s *RecordService) Replace(ctx context.Context, kind resource.Kind, id int64, payload resource.Record) (resource.Record, error) {
	if _, err := s.Get(ctx, kind, id); err != nil {
		return nil, err
	}
	return s.store(ctx, kind, id, payload)
}

// Patch merges payload into the stored record (PATCH semantics).
func (s *RecordService) Patch(ctx context.Context, kind resource.Kind, id int64, payload resource.Record) (resource.Record, error) {
	existing, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	merged := existing.Clone()
	for k, v := range payload {
		merged[k] = v
	}
	return s.store(ctx, kind, id, merged)
}

// Delete removes a record.
func (s *RecordService) Delete(ctx context.Context, kind resource.Kind, id int64) error {
	if err := s.repo.Delete(ctx, kind.Name, id); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return ErrRecordNotFound
		}
		return err
	}
	return nil
}

func (s *RecordService) store(ctx context.Context, kind resource.Kind, id int64, payload resource.Record) (resource.Record, error) {
	rec, err := s.validate(ctx, kind, payload)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, kind.Name, id, data); err != nil {
		return nil, err
	}
	return rec.With("id", id), nil
}

// validate keeps the kind's fields from payload and checks them. Ids are
// coerced to integers and must point at existing records.
func (s *RecordService) validate(ctx context.Context, kind resource.Kind, payload resource.Record) (resource.Record, error) {
	verr := &ValidationError{}
	rec := make(resource.Record, len(kind.Fields()))

	for _, name := range kind.IDFields {
		if payload[name] == nil || payload.String(name) == "" {
			rec[name] = nil
			continue
		}
		id, ok := payload.Int(name)
		if !ok {
			verr.add(name, "must be an integer id")
			continue
		}
		rec[name] = id
	}
	for _, name := range kind.DateFields {
		v := strings.TrimSpace(payload.String(name))
		if v != "" {
			if _, err := time.Parse("2006-01-02", v); err != nil {
				verr.add(name, "must be a date (YYYY-MM-DD)")
			}
		}
		rec[name] = v
	}
	for _, name := range kind.TimeFields {
		rec[name] = strings.TrimSpace(payload.String(name))
	}
	for _, name := range kind.TextFields {
		v := strings.TrimSpace(payload.String(name))
		if v == "" {
			v = kind.Defaults[name]
		}
		if allowed, ok := kind.Choices[name]; ok && v != "" && !contains(allowed, v) {
			verr.add(name, "must be one of: "+strings.Join(allowed, ", "))
		}
		rec[name] = v
	}

	for _, name := range kind.RequiredFields {
		if (rec[name] == nil || rec.String(name) == "") && !verr.has(name) {
			verr.add(name, "is required")
		}
	}

	for _, rel := range kind.Relations {
		id, ok := rec.Int(rel.Field)
		if !ok {
			continue
		}
		exists, err := s.repo.Exists(ctx, rel.Resource, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			verr.add(rel.Field, fmt.Sprintf("%s %d does not exist", rel.As, id))
		}
	}

	if len(verr.Issues) > 0 {
		return nil, verr
	}
	return rec, nil
}

func toRecord(d repository.Document) (resource.Record, error) {
	rec, err := resource.DecodeRecord(d.Data)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = resource.Record{}
	}
	rec["id"] = d.ID
	return rec, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
