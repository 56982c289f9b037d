// Package legacy implements the clinical adapter against a legacy EHR
// running on SQL Server.
package legacy

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver

	"github.com/healthassist/platform/internal/adapters/clinical"
	"github.com/healthassist/platform/internal/shared/types"
)

// Adapter reads medical history from the legacy EHR database.
type Adapter struct {
	db *sql.DB
}

// New opens a connection to the legacy EHR.
func New(dsn string) (*Adapter, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open legacy EHR connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	return &Adapter{db: db}, nil
}

// FetchMedicalHistory loads conditions, medications and allergies for a
// patient from the legacy schema.
func (a *Adapter) FetchMedicalHistory(ctx context.Context, patientID types.ID) (*clinical.Record, error) {
	record := &clinical.Record{
		PatientID: patientID,
		FetchedAt: time.Now().UTC(),
	}

	conditions, err := a.fetchConditions(ctx, patientID)
	if err != nil {
		return nil, err
	}
	record.Conditions = conditions

	medications, err := a.fetchMedications(ctx, patientID)
	if err != nil {
		return nil, err
	}
	record.Medications = medications

	allergies, err := a.fetchAllergies(ctx, patientID)
	if err != nil {
		return nil, err
	}
	record.Allergies = allergies

	return record, nil
}

func (a *Adapter) fetchConditions(ctx context.Context, patientID types.ID) ([]clinical.Condition, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT IcdCode, Description, DiagnosedAt
		FROM dbo.Diagnoses
		WHERE PatientId = @p1
		ORDER BY DiagnosedAt DESC`,
		patientID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query diagnoses: %w", err)
	}
	defer rows.Close()

	var conditions []clinical.Condition
	for rows.Next() {
		var cond clinical.Condition
		var diagnosedAt sql.NullTime
		if err := rows.Scan(&cond.Code, &cond.Description, &diagnosedAt); err != nil {
			return nil, fmt.Errorf("failed to scan diagnosis: %w", err)
		}
		if diagnosedAt.Valid {
			t := diagnosedAt.Time
			cond.DiagnosedAt = &t
		}
		conditions = append(conditions, cond)
	}

	return conditions, rows.Err()
}

func (a *Adapter) fetchMedications(ctx context.Context, patientID types.ID) ([]clinical.Medication, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT DrugName, Dosage, IsActive
		FROM dbo.Prescriptions
		WHERE PatientId = @p1
		ORDER BY PrescribedAt DESC`,
		patientID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query prescriptions: %w", err)
	}
	defer rows.Close()

	var medications []clinical.Medication
	for rows.Next() {
		var med clinical.Medication
		var dosage sql.NullString
		if err := rows.Scan(&med.Name, &dosage, &med.Active); err != nil {
			return nil, fmt.Errorf("failed to scan prescription: %w", err)
		}
		med.Dosage = dosage.String
		medications = append(medications, med)
	}

	return medications, rows.Err()
}

func (a *Adapter) fetchAllergies(ctx context.Context, patientID types.ID) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT Substance
		FROM dbo.Allergies
		WHERE PatientId = @p1`,
		patientID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query allergies: %w", err)
	}
	defer rows.Close()

	var allergies []string
	for rows.Next() {
		var substance string
		if err := rows.Scan(&substance); err != nil {
			return nil, fmt.Errorf("failed to scan allergy: %w", err)
		}
		allergies = append(allergies, substance)
	}

	return allergies, rows.Err()
}

// SourceSystem identifies the backing system.
func (a *Adapter) SourceSystem() string {
	return "legacy-ehr"
}

// Health checks database connectivity.
func (a *Adapter) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// Close releases the database connection.
func (a *Adapter) Close() error {
	return a.db.Close()
}

var _ clinical.Adapter = (*Adapter)(nil)
