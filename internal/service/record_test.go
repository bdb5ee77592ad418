package service

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"

	"github.com/clinicdesk/clinicdesk-go/internal/repository"
	"github.com/clinicdesk/clinicdesk-go/internal/resource"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := repository.NewDB(context.Background(), "sqlite", ":memory:")
	if err != nil {
		t.Fatalf("NewDB() unexpected error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestRecordService(t *testing.T) *RecordService {
	t.Helper()
	return NewRecordService(repository.NewRecordRepository(openTestDB(t)))
}

func mustCreate(t *testing.T, svc *RecordService, kind resource.Kind, payload resource.Record) int64 {
	t.Helper()
	rec, err := svc.Create(context.Background(), kind, payload)
	if err != nil {
		t.Fatalf("Create(%s) unexpected error: %v", kind.Name, err)
	}
	id, _ := rec.ID()
	return id
}

func person() resource.Record {
	return resource.Record{"first_name": "Ana", "last_name": "Silva", "email": "ana@clinic.test"}
}

func TestRecordService_CreateAppliesDefaultsAndDropsUnknownFields(t *testing.T) {
	svc := newTestRecordService(t)
	ctx := context.Background()
	patientID := mustCreate(t, svc, resource.PatientKind(), person())
	doctorID := mustCreate(t, svc, resource.DoctorKind(), person())

	rec, err := svc.Create(ctx, resource.AppointmentKind(), resource.Record{
		"patient_id":       patientID,
		"doctor_id":        doctorID,
		"appointment_date": "2024-03-05",
		"appointment_time": "09:30",
		"reason":           "  checkup ",
		"patient":          resource.Record{"id": patientID},
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if rec.String("status") != "scheduled" {
		t.Errorf("status = %q, want default %q", rec.String("status"), "scheduled")
	}
	if rec.String("reason") != "checkup" {
		t.Errorf("reason = %q, want trimmed", rec.String("reason"))
	}
	if _, ok := rec["patient"]; ok {
		t.Error("unknown field was stored")
	}

	id, _ := rec.ID()
	got, err := svc.Get(ctx, resource.AppointmentKind(), id)
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if pid, _ := got.Int("patient_id"); pid != patientID {
		t.Errorf("patient_id = %d, want %d", pid, patientID)
	}
}

func TestRecordService_ValidationIssues(t *testing.T) {
	svc := newTestRecordService(t)

	_, err := svc.Create(context.Background(), resource.AppointmentKind(), resource.Record{
		"patient_id":       "abc",
		"doctor_id":        999,
		"appointment_date": "05/03/2024",
		"appointment_time": "09:30",
		"status":           "maybe",
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}

	want := []Issue{
		{Path: []string{"patient_id"}, Message: "must be an integer id"},
		{Path: []string{"appointment_date"}, Message: "must be a date (YYYY-MM-DD)"},
		{Path: []string{"status"}, Message: "must be one of: scheduled, completed, cancelled, no-show"},
		{Path: []string{"reason"}, Message: "is required"},
		{Path: []string{"doctor_id"}, Message: "doctor 999 does not exist"},
	}
	if !reflect.DeepEqual(verr.Issues, want) {
		t.Errorf("Issues = %+v\nwant %+v", verr.Issues, want)
	}
}

func TestRecordService_PatchMergesAndReplaceOverwrites(t *testing.T) {
	svc := newTestRecordService(t)
	ctx := context.Background()
	id := mustCreate(t, svc, resource.DoctorKind(), resource.Record{
		"first_name": "Rui", "last_name": "Costa", "email": "rui@clinic.test", "phone": "555",
	})

	patched, err := svc.Patch(ctx, resource.DoctorKind(), id, resource.Record{"specialisation": "Cardiology"})
	if err != nil {
		t.Fatalf("Patch() unexpected error: %v", err)
	}
	if patched.String("phone") != "555" || patched.String("specialisation") != "Cardiology" {
		t.Errorf("Patch() = %v", patched)
	}

	_, err = svc.Replace(ctx, resource.DoctorKind(), id, resource.Record{"first_name": "Rui"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Replace() with missing fields expected *ValidationError, got %v", err)
	}

	replaced, err := svc.Replace(ctx, resource.DoctorKind(), id, resource.Record{
		"first_name": "Rui", "last_name": "Costa", "email": "rui@clinic.test",
	})
	if err != nil {
		t.Fatalf("Replace() unexpected error: %v", err)
	}
	if replaced.String("phone") != "" {
		t.Errorf("Replace() kept phone %q", replaced.String("phone"))
	}
}

func TestRecordService_NotFound(t *testing.T) {
	svc := newTestRecordService(t)
	ctx := context.Background()

	if _, err := svc.Get(ctx, resource.PatientKind(), 1); err != ErrRecordNotFound {
		t.Errorf("Get() expected ErrRecordNotFound, got %v", err)
	}
	if _, err := svc.Patch(ctx, resource.PatientKind(), 1, person()); err != ErrRecordNotFound {
		t.Errorf("Patch() expected ErrRecordNotFound, got %v", err)
	}
	if _, err := svc.Replace(ctx, resource.PatientKind(), 1, person()); err != ErrRecordNotFound {
		t.Errorf("Replace() expected ErrRecordNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, resource.PatientKind(), 1); err != ErrRecordNotFound {
		t.Errorf("Delete() expected ErrRecordNotFound, got %v", err)
	}
}

func TestRecordService_OptionalReferenceMayBeNull(t *testing.T) {
	svc := newTestRecordService(t)
	patientID := mustCreate(t, svc, resource.PatientKind(), person())
	doctorID := mustCreate(t, svc, resource.DoctorKind(), person())

	rec, err := svc.Create(context.Background(), resource.PrescriptionKind(), resource.Record{
		"patient_id":   patientID,
		"doctor_id":    doctorID,
		"diagnosis_id": nil,
		"medication":   "Amoxicillin",
		"dosage":       "500mg",
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}
	if rec["diagnosis_id"] != nil {
		t.Errorf("diagnosis_id = %v, want nil", rec["diagnosis_id"])
	}
}
