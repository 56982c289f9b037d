package profile

import (
	"time"

	"github.com/healthassist/platform/internal/shared/types"
)

// SharingLevel defines how widely a data category may be shared.
type SharingLevel string

const (
	SharingPrivate    SharingLevel = "private"
	SharingClinicians SharingLevel = "clinicians"
	SharingResearch   SharingLevel = "research"
)

// Profile represents one user's health profile.
type Profile struct {
	ID          types.ID   `json:"id"`
	UserID      types.ID   `json:"user_id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Gender      string     `json:"gender,omitempty"`
	Phone       string     `json:"phone,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName returns the profile's full name.
func (p Profile) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Preference is one named setting under a category
// (e.g. notifications/email_enabled).
type Preference struct {
	ID        types.ID  `json:"id"`
	ProfileID types.ID  `json:"profile_id"`
	Category  string    `json:"category"`
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PrivacySetting records consent and sharing level per data category.
type PrivacySetting struct {
	ID           types.ID     `json:"id"`
	ProfileID    types.ID     `json:"profile_id"`
	DataCategory string       `json:"data_category"`
	SharingLevel SharingLevel `json:"sharing_level"`
	ConsentGiven bool         `json:"consent_given"`
	ConsentAt    *time.Time   `json:"consent_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// HealthAttribute is one recorded health measurement or trait
// (height, weight, blood type, ...).
type HealthAttribute struct {
	ID            types.ID  `json:"id"`
	ProfileID     types.ID  `json:"profile_id"`
	AttributeType string    `json:"attribute_type"`
	Value         string    `json:"value"`
	Unit          string    `json:"unit,omitempty"`
	RecordedAt    time.Time `json:"recorded_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateProfileRequest is the request to create a profile.
type CreateProfileRequest struct {
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Gender      string     `json:"gender,omitempty"`
	Phone       string     `json:"phone,omitempty"`
}

// UpdateProfileRequest is the request to update a profile.
type UpdateProfileRequest struct {
	FirstName   *string    `json:"first_name,omitempty"`
	LastName    *string    `json:"last_name,omitempty"`
	Email       *string    `json:"email,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Gender      *string    `json:"gender,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
}

// UpsertPreferenceRequest sets one preference value.
type UpsertPreferenceRequest struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Value    string `json:"value"`
}

// UpsertPrivacySettingRequest sets the sharing policy for a category.
type UpsertPrivacySettingRequest struct {
	DataCategory string       `json:"data_category"`
	SharingLevel SharingLevel `json:"sharing_level"`
	ConsentGiven bool         `json:"consent_given"`
}

// CreateHealthAttributeRequest records a health attribute.
type CreateHealthAttributeRequest struct {
	AttributeType string     `json:"attribute_type"`
	Value         string     `json:"value"`
	Unit          string     `json:"unit,omitempty"`
	RecordedAt    *time.Time `json:"recorded_at,omitempty"`
}

// ListProfilesFilter defines filters for listing profiles.
type ListProfilesFilter struct {
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}
