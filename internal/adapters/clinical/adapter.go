package clinical

import (
	"context"
	"time"

	"github.com/healthassist/platform/internal/shared/types"
)

// Adapter defines the interface for clinical-records systems.
// Implementations connect to a specific EHR backend and provide a
// unified medical-history API for the platform.
type Adapter interface {
	// FetchMedicalHistory retrieves the patient's known conditions,
	// medications and allergies.
	FetchMedicalHistory(ctx context.Context, patientID types.ID) (*Record, error)

	// SourceSystem identifies the backing EHR system.
	SourceSystem() string

	// Health checks connectivity to the backend.
	Health(ctx context.Context) error
}

// Record is a patient's medical history as assembled from the backend.
type Record struct {
	PatientID   types.ID     `json:"patient_id"`
	Conditions  []Condition  `json:"conditions"`
	Medications []Medication `json:"medications"`
	Allergies   []string     `json:"allergies"`
	FetchedAt   time.Time    `json:"fetched_at"`
}

// Condition is one diagnosed condition.
type Condition struct {
	Code        string     `json:"code,omitempty"`
	Description string     `json:"description"`
	DiagnosedAt *time.Time `json:"diagnosed_at,omitempty"`
}

// Medication is one prescribed medication.
type Medication struct {
	Name   string `json:"name"`
	Dosage string `json:"dosage,omitempty"`
	Active bool   `json:"active"`
}
