package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthassist/platform/internal/shared/errors"
	"github.com/healthassist/platform/internal/shared/types"
)

// Repository provides database operations for profiles and their
// nested resources.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new profile repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// --- Profile Operations ---

// Create inserts a new profile.
func (r *Repository) Create(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO health.profiles (
			id, user_id, first_name, last_name, email,
			date_of_birth, gender, phone
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.UserID, p.FirstName, p.LastName, p.Email,
		p.DateOfBirth, p.Gender, p.Phone,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("profile for this user already exists")
		}
		return errors.Wrap(err, "failed to create profile")
	}

	return nil
}

// Get retrieves a profile by ID.
func (r *Repository) Get(ctx context.Context, id types.ID) (*Profile, error) {
	query := `
		SELECT id, user_id, first_name, last_name, email,
			date_of_birth, gender, phone, created_at, updated_at
		FROM health.profiles
		WHERE id = $1`

	p := &Profile{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.Email,
		&p.DateOfBirth, &p.Gender, &p.Phone, &p.CreatedAt, &p.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("profile", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get profile")
	}

	return p, nil
}

// GetByUser retrieves the profile owned by a user.
func (r *Repository) GetByUser(ctx context.Context, userID types.ID) (*Profile, error) {
	query := `
		SELECT id, user_id, first_name, last_name, email,
			date_of_birth, gender, phone, created_at, updated_at
		FROM health.profiles
		WHERE user_id = $1`

	p := &Profile{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.Email,
		&p.DateOfBirth, &p.Gender, &p.Phone, &p.CreatedAt, &p.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("profile", userID.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get profile by user")
	}

	return p, nil
}

// Update updates a profile.
func (r *Repository) Update(ctx context.Context, p *Profile) error {
	query := `
		UPDATE health.profiles SET
			first_name = $2, last_name = $3, email = $4,
			date_of_birth = $5, gender = $6, phone = $7,
			updated_at = NOW()
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		p.ID, p.FirstName, p.LastName, p.Email,
		p.DateOfBirth, p.Gender, p.Phone,
	)

	if err != nil {
		return errors.Wrap(err, "failed to update profile")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("profile", p.ID.String())
	}

	return nil
}

// Delete deletes a profile and, via cascade, its nested resources.
func (r *Repository) Delete(ctx context.Context, id types.ID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM health.profiles WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete profile")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("profile", id.String())
	}

	return nil
}

// List lists profiles with optional filters.
func (r *Repository) List(ctx context.Context, filter ListProfilesFilter) ([]Profile, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", argNum, argNum, argNum))
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM health.profiles %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count profiles")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, first_name, last_name, email,
			date_of_birth, gender, phone, created_at, updated_at
		FROM health.profiles
		%s
		ORDER BY last_name, first_name
		LIMIT $%d OFFSET $%d`, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list profiles")
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		var p Profile
		err := rows.Scan(
			&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.Email,
			&p.DateOfBirth, &p.Gender, &p.Phone, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan profile")
		}
		profiles = append(profiles, p)
	}

	return profiles, total, nil
}

// --- Preference Operations ---

// UpsertPreference inserts or updates one preference value.
func (r *Repository) UpsertPreference(ctx context.Context, pref *Preference) error {
	query := `
		INSERT INTO health.preferences (id, profile_id, category, name, value)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (profile_id, category, name)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	_, err := r.pool.Exec(ctx, query, pref.ID, pref.ProfileID, pref.Category, pref.Name, pref.Value)
	if err != nil {
		return errors.Wrap(err, "failed to upsert preference")
	}

	return nil
}

// ListPreferences lists preferences for a profile.
func (r *Repository) ListPreferences(ctx context.Context, profileID types.ID) ([]Preference, error) {
	query := `
		SELECT id, profile_id, category, name, value, created_at, updated_at
		FROM health.preferences
		WHERE profile_id = $1
		ORDER BY category, name`

	rows, err := r.pool.Query(ctx, query, profileID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list preferences")
	}
	defer rows.Close()

	var prefs []Preference
	for rows.Next() {
		var pref Preference
		if err := rows.Scan(&pref.ID, &pref.ProfileID, &pref.Category, &pref.Name, &pref.Value, &pref.CreatedAt, &pref.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan preference")
		}
		prefs = append(prefs, pref)
	}

	return prefs, nil
}

// DeletePreference deletes one preference.
func (r *Repository) DeletePreference(ctx context.Context, profileID, prefID types.ID) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM health.preferences WHERE id = $1 AND profile_id = $2`,
		prefID, profileID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to delete preference")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("preference", prefID.String())
	}

	return nil
}

// --- Privacy Setting Operations ---

// UpsertPrivacySetting inserts or updates a category's sharing policy.
func (r *Repository) UpsertPrivacySetting(ctx context.Context, setting *PrivacySetting) error {
	query := `
		INSERT INTO health.privacy_settings (
			id, profile_id, data_category, sharing_level, consent_given, consent_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (profile_id, data_category)
		DO UPDATE SET
			sharing_level = EXCLUDED.sharing_level,
			consent_given = EXCLUDED.consent_given,
			consent_at = EXCLUDED.consent_at,
			updated_at = NOW()`

	_, err := r.pool.Exec(ctx, query,
		setting.ID, setting.ProfileID, setting.DataCategory,
		setting.SharingLevel, setting.ConsentGiven, setting.ConsentAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to upsert privacy setting")
	}

	return nil
}

// ListPrivacySettings lists privacy settings for a profile.
func (r *Repository) ListPrivacySettings(ctx context.Context, profileID types.ID) ([]PrivacySetting, error) {
	query := `
		SELECT id, profile_id, data_category, sharing_level,
			consent_given, consent_at, created_at, updated_at
		FROM health.privacy_settings
		WHERE profile_id = $1
		ORDER BY data_category`

	rows, err := r.pool.Query(ctx, query, profileID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list privacy settings")
	}
	defer rows.Close()

	var settings []PrivacySetting
	for rows.Next() {
		var s PrivacySetting
		if err := rows.Scan(&s.ID, &s.ProfileID, &s.DataCategory, &s.SharingLevel, &s.ConsentGiven, &s.ConsentAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan privacy setting")
		}
		settings = append(settings, s)
	}

	return settings, nil
}

// --- Health Attribute Operations ---

// CreateHealthAttribute records a health attribute.
func (r *Repository) CreateHealthAttribute(ctx context.Context, attr *HealthAttribute) error {
	query := `
		INSERT INTO health.health_attributes (
			id, profile_id, attribute_type, value, unit, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		attr.ID, attr.ProfileID, attr.AttributeType, attr.Value, attr.Unit, attr.RecordedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create health attribute")
	}

	return nil
}

// ListHealthAttributes lists attributes for a profile, optionally by type.
func (r *Repository) ListHealthAttributes(ctx context.Context, profileID types.ID, attributeType string) ([]HealthAttribute, error) {
	query := `
		SELECT id, profile_id, attribute_type, value, unit,
			recorded_at, created_at, updated_at
		FROM health.health_attributes
		WHERE profile_id = $1`
	args := []interface{}{profileID}

	if attributeType != "" {
		query += ` AND attribute_type = $2`
		args = append(args, attributeType)
	}
	query += ` ORDER BY recorded_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list health attributes")
	}
	defer rows.Close()

	var attrs []HealthAttribute
	for rows.Next() {
		var a HealthAttribute
		if err := rows.Scan(&a.ID, &a.ProfileID, &a.AttributeType, &a.Value, &a.Unit, &a.RecordedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan health attribute")
		}
		attrs = append(attrs, a)
	}

	return attrs, nil
}

// DeleteHealthAttribute deletes one attribute.
func (r *Repository) DeleteHealthAttribute(ctx context.Context, profileID, attrID types.ID) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM health.health_attributes WHERE id = $1 AND profile_id = $2`,
		attrID, profileID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to delete health attribute")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("health attribute", attrID.String())
	}

	return nil
}
