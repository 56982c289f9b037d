package genomics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthassist/platform/internal/shared/errors"
	"github.com/healthassist/platform/internal/shared/types"
)

// Repository provides database operations for genomic data sets,
// variants and analyses.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new genomics repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// --- Data Set Operations ---

// CreateData registers an uploaded data set.
func (r *Repository) CreateData(ctx context.Context, d *Data) error {
	query := `
		INSERT INTO health.genomic_data (
			id, user_id, file_name, file_format, file_size, source, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		d.ID, d.UserID, d.FileName, d.FileFormat, d.FileSize, d.Source, d.Status,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create genomic data")
	}

	return nil
}

// GetData retrieves a data set by ID.
func (r *Repository) GetData(ctx context.Context, id types.ID) (*Data, error) {
	query := `
		SELECT id, user_id, file_name, file_format, file_size, source, status,
			created_at, updated_at
		FROM health.genomic_data
		WHERE id = $1`

	d := &Data{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.UserID, &d.FileName, &d.FileFormat, &d.FileSize,
		&d.Source, &d.Status, &d.CreatedAt, &d.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("genomic data", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get genomic data")
	}

	return d, nil
}

// UpdateDataStatus moves a data set through its lifecycle.
func (r *Repository) UpdateDataStatus(ctx context.Context, id types.ID, status DataStatus) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE health.genomic_data SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update genomic data status")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("genomic data", id.String())
	}

	return nil
}

// DeleteData deletes a data set and, via cascade, its variants and analyses.
func (r *Repository) DeleteData(ctx context.Context, id types.ID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM health.genomic_data WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete genomic data")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("genomic data", id.String())
	}

	return nil
}

// ListData lists data sets with optional filters.
func (r *Repository) ListData(ctx context.Context, filter ListDataFilter) ([]Data, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argNum))
		args = append(args, *filter.UserID)
		argNum++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, *filter.Status)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM health.genomic_data %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count genomic data")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, file_name, file_format, file_size, source, status,
			created_at, updated_at
		FROM health.genomic_data
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list genomic data")
	}
	defer rows.Close()

	var data []Data
	for rows.Next() {
		var d Data
		err := rows.Scan(
			&d.ID, &d.UserID, &d.FileName, &d.FileFormat, &d.FileSize,
			&d.Source, &d.Status, &d.CreatedAt, &d.UpdatedAt,
		)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan genomic data")
		}
		data = append(data, d)
	}

	return data, total, nil
}

// --- Variant Operations ---

// CreateVariant records one variant on a data set.
func (r *Repository) CreateVariant(ctx context.Context, v *Variant) error {
	query := `
		INSERT INTO health.genomic_variants (
			id, data_id, chromosome, position, reference_allele,
			alternate_allele, gene, rs_id, zygosity, clinical_significance
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		v.ID, v.DataID, v.Chromosome, v.Position, v.ReferenceAllele,
		v.AlternateAllele, v.Gene, v.RSID, v.Zygosity, v.ClinicalSignificance,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create variant")
	}

	return nil
}

// ListVariants lists variants for a data set in genomic order.
func (r *Repository) ListVariants(ctx context.Context, dataID types.ID) ([]Variant, error) {
	query := `
		SELECT id, data_id, chromosome, position, reference_allele,
			alternate_allele, gene, rs_id, zygosity, clinical_significance,
			created_at
		FROM health.genomic_variants
		WHERE data_id = $1
		ORDER BY chromosome, position`

	rows, err := r.pool.Query(ctx, query, dataID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list variants")
	}
	defer rows.Close()

	var variants []Variant
	for rows.Next() {
		var v Variant
		err := rows.Scan(
			&v.ID, &v.DataID, &v.Chromosome, &v.Position, &v.ReferenceAllele,
			&v.AlternateAllele, &v.Gene, &v.RSID, &v.Zygosity,
			&v.ClinicalSignificance, &v.CreatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan variant")
		}
		variants = append(variants, v)
	}

	return variants, nil
}

// DeleteVariant deletes one variant.
func (r *Repository) DeleteVariant(ctx context.Context, dataID, variantID types.ID) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM health.genomic_variants WHERE id = $1 AND data_id = $2`,
		variantID, dataID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to delete variant")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("variant", variantID.String())
	}

	return nil
}

// --- Analysis Operations ---

// CreateAnalysis records a new analysis in pending state.
func (r *Repository) CreateAnalysis(ctx context.Context, a *Analysis) error {
	query := `
		INSERT INTO health.genomic_analyses (
			id, data_id, user_id, analysis_type, status
		) VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, a.ID, a.DataID, a.UserID, a.AnalysisType, a.Status)
	if err != nil {
		return errors.Wrap(err, "failed to create analysis")
	}

	return nil
}

// GetAnalysis retrieves an analysis by ID.
func (r *Repository) GetAnalysis(ctx context.Context, id types.ID) (*Analysis, error) {
	query := `
		SELECT id, data_id, user_id, analysis_type, status, result, error,
			started_at, completed_at, created_at, updated_at
		FROM health.genomic_analyses
		WHERE id = $1`

	a := &Analysis{}
	var resultJSON []byte
	var errText *string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.DataID, &a.UserID, &a.AnalysisType, &a.Status,
		&resultJSON, &errText, &a.StartedAt, &a.CompletedAt,
		&a.CreatedAt, &a.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("analysis", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get analysis")
	}

	if len(resultJSON) > 0 {
		if err := json.Unmarshal(resultJSON, &a.Result); err != nil {
			return nil, errors.Wrap(err, "failed to decode analysis result")
		}
	}
	if errText != nil {
		a.Error = *errText
	}

	return a, nil
}

// MarkAnalysisRunning transitions a pending analysis to running.
func (r *Repository) MarkAnalysisRunning(ctx context.Context, id types.ID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE health.genomic_analyses
		SET status = 'running', started_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return errors.Wrap(err, "failed to mark analysis running")
	}

	if result.RowsAffected() == 0 {
		return errors.Conflict("analysis is not pending")
	}

	return nil
}

// CompleteAnalysis records a successful result.
func (r *Repository) CompleteAnalysis(ctx context.Context, id types.ID, analysisResult map[string]any) error {
	resultJSON, err := json.Marshal(analysisResult)
	if err != nil {
		return errors.Wrap(err, "failed to encode analysis result")
	}

	_, err = r.pool.Exec(ctx, `
		UPDATE health.genomic_analyses
		SET status = 'completed', result = $2, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1`, id, resultJSON)
	if err != nil {
		return errors.Wrap(err, "failed to complete analysis")
	}

	return nil
}

// FailAnalysis records a failure.
func (r *Repository) FailAnalysis(ctx context.Context, id types.ID, message string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE health.genomic_analyses
		SET status = 'failed', error = $2, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1`, id, message)
	if err != nil {
		return errors.Wrap(err, "failed to fail analysis")
	}

	return nil
}

// ListAnalyses lists analyses with optional filters.
func (r *Repository) ListAnalyses(ctx context.Context, filter ListAnalysesFilter) ([]Analysis, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argNum))
		args = append(args, *filter.UserID)
		argNum++
	}
	if filter.DataID != nil {
		conditions = append(conditions, fmt.Sprintf("data_id = $%d", argNum))
		args = append(args, *filter.DataID)
		argNum++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, *filter.Status)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM health.genomic_analyses %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count analyses")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT id, data_id, user_id, analysis_type, status, result, error,
			started_at, completed_at, created_at, updated_at
		FROM health.genomic_analyses
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list analyses")
	}
	defer rows.Close()

	var analyses []Analysis
	for rows.Next() {
		var a Analysis
		var resultJSON []byte
		var errText *string
		err := rows.Scan(
			&a.ID, &a.DataID, &a.UserID, &a.AnalysisType, &a.Status,
			&resultJSON, &errText, &a.StartedAt, &a.CompletedAt,
			&a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan analysis")
		}
		if len(resultJSON) > 0 {
			if err := json.Unmarshal(resultJSON, &a.Result); err != nil {
				return nil, 0, errors.Wrap(err, "failed to decode analysis result")
			}
		}
		if errText != nil {
			a.Error = *errText
		}
		analyses = append(analyses, a)
	}

	return analyses, total, nil
}

// ClaimPendingAnalyses returns up to limit pending analyses for the runner.
func (r *Repository) ClaimPendingAnalyses(ctx context.Context, limit int) ([]Analysis, error) {
	query := `
		SELECT id, data_id, user_id, analysis_type, status,
			started_at, completed_at, created_at, updated_at
		FROM health.genomic_analyses
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to claim pending analyses")
	}
	defer rows.Close()

	var analyses []Analysis
	for rows.Next() {
		var a Analysis
		err := rows.Scan(
			&a.ID, &a.DataID, &a.UserID, &a.AnalysisType, &a.Status,
			&a.StartedAt, &a.CompletedAt, &a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan pending analysis")
		}
		analyses = append(analyses, a)
	}

	return analyses, nil
}
