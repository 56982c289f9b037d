package profile

import (
	"testing"
	"time"

	"github.com/healthassist/platform/internal/shared/types"
)

// --- Profile Tests ---

func TestSharingLevels(t *testing.T) {
	tests := []struct {
		level    SharingLevel
		expected string
	}{
		{SharingPrivate, "private"},
		{SharingClinicians, "clinicians"},
		{SharingResearch, "research"},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			if string(tt.level) != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, tt.level)
			}
		})
	}
}

func TestProfileCreation(t *testing.T) {
	dob := time.Date(1985, 3, 14, 0, 0, 0, 0, time.UTC)

	p := Profile{
		ID:          types.NewID(),
		UserID:      types.NewID(),
		FirstName:   "Jelena",
		LastName:    "Markovic",
		Email:       "jelena.markovic@example.com",
		DateOfBirth: &dob,
		Gender:      "female",
		Phone:       "+381 64 123 4567",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if p.ID.IsZero() {
		t.Error("Profile ID should not be zero")
	}

	if p.UserID.IsZero() {
		t.Error("User ID should not be zero")
	}

	if p.Email != "jelena.markovic@example.com" {
		t.Errorf("Expected email 'jelena.markovic@example.com', got '%s'", p.Email)
	}

	if p.DateOfBirth == nil || !p.DateOfBirth.Equal(dob) {
		t.Error("Date of birth should be set correctly")
	}
}

func TestProfileFullName(t *testing.T) {
	tests := []struct {
		firstName string
		lastName  string
		expected  string
	}{
		{"Jelena", "Markovic", "Jelena Markovic"},
		{"Ana", "Jovanovic", "Ana Jovanovic"},
		{"", "Smith", " Smith"},
		{"John", "", "John "},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			p := Profile{
				FirstName: tt.firstName,
				LastName:  tt.lastName,
			}

			if p.FullName() != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, p.FullName())
			}
		})
	}
}

// --- Privacy Setting Tests ---

func TestPrivacySettingWithConsent(t *testing.T) {
	consentAt := time.Now()

	setting := PrivacySetting{
		ID:           types.NewID(),
		ProfileID:    types.NewID(),
		DataCategory: "genomics",
		SharingLevel: SharingClinicians,
		ConsentGiven: true,
		ConsentAt:    &consentAt,
	}

	if setting.SharingLevel != SharingClinicians {
		t.Errorf("Expected sharing level clinicians, got '%s'", setting.SharingLevel)
	}

	if !setting.ConsentGiven {
		t.Error("Consent should be given")
	}

	if setting.ConsentAt == nil {
		t.Error("Consent timestamp should be set when consent is given")
	}
}

func TestPrivacySettingWithoutConsent(t *testing.T) {
	setting := PrivacySetting{
		ID:           types.NewID(),
		ProfileID:    types.NewID(),
		DataCategory: "voice_inputs",
		SharingLevel: SharingPrivate,
		ConsentGiven: false,
	}

	if setting.ConsentAt != nil {
		t.Error("Consent timestamp should not be set without consent")
	}
}

// --- Health Attribute Tests ---

func TestHealthAttribute(t *testing.T) {
	attr := HealthAttribute{
		ID:            types.NewID(),
		ProfileID:     types.NewID(),
		AttributeType: "blood_type",
		Value:         "A+",
		RecordedAt:    time.Now(),
	}

	if attr.ID.IsZero() {
		t.Error("Attribute ID should not be zero")
	}

	if attr.AttributeType != "blood_type" {
		t.Errorf("Expected attribute type 'blood_type', got '%s'", attr.AttributeType)
	}

	if attr.Unit != "" {
		t.Errorf("Blood type should have no unit, got '%s'", attr.Unit)
	}
}

func TestHealthAttributeWithUnit(t *testing.T) {
	attr := HealthAttribute{
		ID:            types.NewID(),
		ProfileID:     types.NewID(),
		AttributeType: "weight",
		Value:         "72.5",
		Unit:          "kg",
		RecordedAt:    time.Now(),
	}

	if attr.Unit != "kg" {
		t.Errorf("Expected unit 'kg', got '%s'", attr.Unit)
	}
}

// --- Request Validation Tests ---

func TestUpdateProfileRequestPartial(t *testing.T) {
	phone := "+381 65 987 6543"
	req := UpdateProfileRequest{
		Phone: &phone,
	}

	if req.FirstName != nil || req.LastName != nil || req.Email != nil {
		t.Error("Unset fields should remain nil")
	}

	if req.Phone == nil || *req.Phone != phone {
		t.Error("Phone should be set")
	}
}
