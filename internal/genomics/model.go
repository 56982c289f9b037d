package genomics

import (
	"time"

	"github.com/healthassist/platform/internal/shared/types"
)

// DataStatus is the lifecycle state of an uploaded genomic data set.
type DataStatus string

const (
	DataStatusUploaded   DataStatus = "uploaded"
	DataStatusProcessing DataStatus = "processing"
	DataStatusReady      DataStatus = "ready"
	DataStatusFailed     DataStatus = "failed"
)

// AnalysisStatus is the lifecycle state of a genomic analysis.
type AnalysisStatus string

const (
	AnalysisStatusPending   AnalysisStatus = "pending"
	AnalysisStatusRunning   AnalysisStatus = "running"
	AnalysisStatusCompleted AnalysisStatus = "completed"
	AnalysisStatusFailed    AnalysisStatus = "failed"
)

// Supported analysis types.
const (
	AnalysisTypeVariantSummary  = "variant_summary"
	AnalysisTypePharmacogenomic = "pharmacogenomic"
	AnalysisTypeAncestry        = "ancestry"
)

// Data is one uploaded genomic data set (VCF, 23andMe export, ...).
type Data struct {
	ID         types.ID   `json:"id"`
	UserID     types.ID   `json:"user_id"`
	FileName   string     `json:"file_name"`
	FileFormat string     `json:"file_format"`
	FileSize   int64      `json:"file_size"`
	Source     string     `json:"source,omitempty"`
	Status     DataStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Variant is one genomic variant belonging to a data set.
type Variant struct {
	ID                   types.ID `json:"id"`
	DataID               types.ID `json:"data_id"`
	Chromosome           string   `json:"chromosome"`
	Position             int64    `json:"position"`
	ReferenceAllele      string   `json:"reference_allele"`
	AlternateAllele      string   `json:"alternate_allele"`
	Gene                 string   `json:"gene,omitempty"`
	RSID                 string   `json:"rs_id,omitempty"`
	Zygosity             string   `json:"zygosity,omitempty"`
	ClinicalSignificance string   `json:"clinical_significance,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Analysis is one analysis run over a data set. Results are produced
// asynchronously by the runner.
type Analysis struct {
	ID           types.ID       `json:"id"`
	DataID       types.ID       `json:"data_id"`
	UserID       types.ID       `json:"user_id"`
	AnalysisType string         `json:"analysis_type"`
	Status       AnalysisStatus `json:"status"`
	Result       map[string]any `json:"result,omitempty"`
	Error        string         `json:"error,omitempty"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateDataRequest registers an uploaded genomic data set.
type CreateDataRequest struct {
	FileName   string `json:"file_name"`
	FileFormat string `json:"file_format"`
	FileSize   int64  `json:"file_size"`
	Source     string `json:"source,omitempty"`
}

// CreateVariantRequest records one variant on a data set.
type CreateVariantRequest struct {
	Chromosome           string `json:"chromosome"`
	Position             int64  `json:"position"`
	ReferenceAllele      string `json:"reference_allele"`
	AlternateAllele      string `json:"alternate_allele"`
	Gene                 string `json:"gene,omitempty"`
	RSID                 string `json:"rs_id,omitempty"`
	Zygosity             string `json:"zygosity,omitempty"`
	ClinicalSignificance string `json:"clinical_significance,omitempty"`
}

// CreateAnalysisRequest starts an analysis over a data set.
type CreateAnalysisRequest struct {
	AnalysisType string `json:"analysis_type"`
}

// ListDataFilter defines filters for listing data sets.
type ListDataFilter struct {
	UserID *types.ID
	Status *DataStatus
	Limit  int
	Offset int
}

// ListAnalysesFilter defines filters for listing analyses.
type ListAnalysesFilter struct {
	UserID *types.ID
	DataID *types.ID
	Status *AnalysisStatus
	Limit  int
	Offset int
}
