// Package fhir implements the clinical adapter against a FHIR-style
// REST endpoint.
package fhir

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/healthassist/platform/internal/adapters/clinical"
	"github.com/healthassist/platform/internal/shared/types"
)

// Client fetches medical history over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a FHIR clinical adapter.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// conditionResource and medicationResource mirror the subset of the
// FHIR payload the platform consumes.
type conditionResource struct {
	Code struct {
		Coding []struct {
			Code    string `json:"code"`
			Display string `json:"display"`
		} `json:"coding"`
	} `json:"code"`
	RecordedDate string `json:"recordedDate,omitempty"`
}

type medicationResource struct {
	Medication struct {
		Text string `json:"text"`
	} `json:"medicationCodeableConcept"`
	Dosage []struct {
		Text string `json:"text"`
	} `json:"dosageInstruction"`
	Status string `json:"status"`
}

type historyResponse struct {
	Conditions  []conditionResource  `json:"conditions"`
	Medications []medicationResource `json:"medications"`
	Allergies   []string             `json:"allergies"`
}

// FetchMedicalHistory retrieves and flattens the patient's history.
func (c *Client) FetchMedicalHistory(ctx context.Context, patientID types.ID) (*clinical.Record, error) {
	url := fmt.Sprintf("%s/Patient/%s/$summary", c.baseURL, patientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build history request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("patient %s not found in FHIR store", patientID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("FHIR store returned status %d", resp.StatusCode)
	}

	var payload historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode history response: %w", err)
	}

	record := &clinical.Record{
		PatientID: patientID,
		Allergies: payload.Allergies,
		FetchedAt: time.Now().UTC(),
	}

	for _, cond := range payload.Conditions {
		condition := clinical.Condition{}
		if len(cond.Code.Coding) > 0 {
			condition.Code = cond.Code.Coding[0].Code
			condition.Description = cond.Code.Coding[0].Display
		}
		if cond.RecordedDate != "" {
			if t, err := time.Parse("2006-01-02", cond.RecordedDate); err == nil {
				condition.DiagnosedAt = &t
			}
		}
		if condition.Description != "" {
			record.Conditions = append(record.Conditions, condition)
		}
	}

	for _, med := range payload.Medications {
		medication := clinical.Medication{
			Name:   med.Medication.Text,
			Active: med.Status == "active",
		}
		if len(med.Dosage) > 0 {
			medication.Dosage = med.Dosage[0].Text
		}
		if medication.Name != "" {
			record.Medications = append(record.Medications, medication)
		}
	}

	return record, nil
}

// SourceSystem identifies the backing system.
func (c *Client) SourceSystem() string {
	return "fhir"
}

// Health checks the FHIR endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/metadata", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("FHIR store unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("FHIR store returned status %d", resp.StatusCode)
	}
	return nil
}

var _ clinical.Adapter = (*Client)(nil)
