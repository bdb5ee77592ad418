package resource

// Collection names of the clinic API.
const (
	Patients      = "patients"
	Doctors       = "doctors"
	Appointments  = "appointments"
	Diagnoses     = "diagnoses"
	Prescriptions = "prescriptions"
)

var (
	patientRel   = Relation{Field: "patient_id", Resource: Patients, As: "patient"}
	doctorRel    = Relation{Field: "doctor_id", Resource: Doctors, As: "doctor"}
	diagnosisRel = Relation{Field: "diagnosis_id", Resource: Diagnoses, As: "diagnosis"}
)

// Clinic returns the registry of every collection the clinic API serves.
func Clinic() *Registry {
	return NewRegistry(
		PatientKind(),
		DoctorKind(),
		AppointmentKind(),
		DiagnosisKind(),
		PrescriptionKind(),
	)
}

func PatientKind() Kind {
	return Kind{
		Name:           Patients,
		Singular:       "Patient",
		TextFields:     []string{"first_name", "last_name", "email", "phone", "address", "medical_record_number"},
		DateFields:     []string{"date_of_birth"},
		RequiredFields: []string{"first_name", "last_name", "email"},
		Columns: []Column{
			{Header: "ID", Value: field("id")},
			{Header: "Name", Value: Record.PersonName},
			{Header: "Email", Value: field("email")},
			{Header: "Phone", Value: field("phone")},
			{Header: "Date of birth", Value: field("date_of_birth"), Date: true},
			{Header: "MRN", Value: field("medical_record_number")},
		},
	}
}

func DoctorKind() Kind {
	return Kind{
		Name:           Doctors,
		Singular:       "Doctor",
		TextFields:     []string{"first_name", "last_name", "email", "phone", "specialisation", "licence_number"},
		RequiredFields: []string{"first_name", "last_name", "email"},
		Columns: []Column{
			{Header: "ID", Value: field("id")},
			{Header: "Name", Value: Record.PersonName},
			{Header: "Email", Value: field("email")},
			{Header: "Phone", Value: field("phone")},
			{Header: "Specialisation", Value: field("specialisation")},
			{Header: "Licence", Value: field("licence_number")},
		},
	}
}

func AppointmentKind() Kind {
	return Kind{
		Name:           Appointments,
		Singular:       "Appointment",
		Relations:      []Relation{patientRel, doctorRel},
		IDFields:       []string{"patient_id", "doctor_id"},
		RequiredIDs:    []string{"patient_id", "doctor_id"},
		DateFields:     []string{"appointment_date"},
		TimeFields:     []string{"appointment_time"},
		TextFields:     []string{"reason", "notes", "status"},
		Defaults:       map[string]string{"status": "scheduled"},
		RequiredFields: []string{"patient_id", "doctor_id", "appointment_date", "appointment_time", "reason"},
		Choices:        map[string][]string{"status": {"scheduled", "completed", "cancelled", "no-show"}},
		Columns: []Column{
			{Header: "ID", Value: field("id")},
			{Header: "Patient", Value: related("patient")},
			{Header: "Doctor", Value: related("doctor")},
			{Header: "Date", Value: field("appointment_date"), Date: true},
			{Header: "Time", Value: field("appointment_time")},
			{Header: "Status", Value: field("status")},
		},
	}
}

func DiagnosisKind() Kind {
	return Kind{
		Name:           Diagnoses,
		Singular:       "Diagnosis",
		Relations:      []Relation{patientRel, doctorRel},
		IDFields:       []string{"patient_id", "doctor_id"},
		RequiredIDs:    []string{"patient_id", "doctor_id"},
		DateFields:     []string{"diagnosis_date"},
		TextFields:     []string{"condition", "description", "status", "severity", "notes"},
		Defaults:       map[string]string{"status": "active", "severity": "mild"},
		RequiredFields: []string{"patient_id", "doctor_id", "condition"},
		Choices: map[string][]string{
			"status":   {"active", "resolved", "chronic"},
			"severity": {"mild", "moderate", "severe", "critical"},
		},
		Columns: []Column{
			{Header: "ID", Value: field("id")},
			{Header: "Patient", Value: related("patient")},
			{Header: "Doctor", Value: related("doctor")},
			{Header: "Condition", Value: field("condition")},
			{Header: "Severity", Value: field("severity")},
			{Header: "Date", Value: field("diagnosis_date"), Date: true},
			{Header: "Status", Value: field("status")},
		},
	}
}

func PrescriptionKind() Kind {
	return Kind{
		Name:      Prescriptions,
		Singular:  "Prescription",
		Relations: []Relation{patientRel, doctorRel, diagnosisRel},
		IDFields:  []string{"patient_id", "doctor_id", "diagnosis_id"},
		// diagnosis_id is optional; a blank selection is sent as null.
		RequiredIDs:    []string{"patient_id", "doctor_id"},
		DateFields:     []string{"start_date", "end_date"},
		TextFields:     []string{"medication", "dosage", "frequency", "duration", "instructions", "side_effects", "status"},
		Defaults:       map[string]string{"status": "active"},
		RequiredFields: []string{"patient_id", "doctor_id", "medication", "dosage"},
		Choices:        map[string][]string{"status": {"active", "completed", "discontinued"}},
		Columns: []Column{
			{Header: "ID", Value: field("id")},
			{Header: "Patient", Value: related("patient")},
			{Header: "Doctor", Value: related("doctor")},
			{Header: "Medication", Value: field("medication")},
			{Header: "Dosage", Value: field("dosage")},
			{Header: "Frequency", Value: field("frequency")},
			{Header: "Start", Value: field("start_date"), Date: true},
			{Header: "Status", Value: field("status")},
		},
	}
}

func field(name string) func(Record) string {
	return func(r Record) string { return r.String(name) }
}

func related(name string) func(Record) string {
	return func(r Record) string {
		rel, ok := r.Related(name)
		if !ok {
			return ""
		}
		return rel.PersonName()
	}
}
