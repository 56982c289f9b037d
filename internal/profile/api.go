package profile

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/healthassist/platform/internal/shared/auth"
	"github.com/healthassist/platform/internal/shared/errors"
	"github.com/healthassist/platform/internal/shared/events"
	"github.com/healthassist/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the profile module
type Handler struct {
	repo *Repository
	bus  events.Publisher
}

// NewHandler creates a new profile handler
func NewHandler(repo *Repository, bus events.Publisher) *Handler {
	return &Handler{repo: repo, bus: bus}
}

// Routes registers the profile routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListProfiles)
	r.Post("/", h.CreateProfile)
	r.Get("/me", h.GetOwnProfile)

	r.Route("/{profileID}", func(r chi.Router) {
		r.Get("/", h.GetProfile)
		r.Put("/", h.UpdateProfile)
		r.Delete("/", h.DeleteProfile)

		r.Route("/preferences", func(r chi.Router) {
			r.Get("/", h.ListPreferences)
			r.Put("/", h.UpsertPreference)
			r.Delete("/{preferenceID}", h.DeletePreference)
		})

		r.Route("/privacy", func(r chi.Router) {
			r.Get("/", h.ListPrivacySettings)
			r.Put("/", h.UpsertPrivacySetting)
		})

		r.Route("/attributes", func(r chi.Router) {
			r.Get("/", h.ListHealthAttributes)
			r.Post("/", h.CreateHealthAttribute)
			r.Delete("/{attributeID}", h.DeleteHealthAttribute)
		})
	})

	return r
}

// authorize loads the profile and checks the caller may access it.
func (h *Handler) authorize(r *http.Request) (*Profile, error) {
	id, err := types.ParseID(chi.URLParam(r, "profileID"))
	if err != nil {
		return nil, errors.BadRequest("invalid profile ID")
	}

	p, err := h.repo.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}

	if user := auth.GetUser(r.Context()); user != nil && !user.CanAccess(p.UserID) {
		return nil, errors.Forbidden("access to this profile is not allowed")
	}

	return p, nil
}

// --- Profile Handlers ---

// ListProfiles lists profiles. Patients only ever see their own.
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	if user := auth.GetUser(r.Context()); user != nil && user.UserType == "patient" {
		p, err := h.repo.GetByUser(r.Context(), user.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"data":  []Profile{*p},
			"total": 1,
		})
		return
	}

	filter := ListProfilesFilter{
		Search: r.URL.Query().Get("search"),
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		filter.Limit, _ = strconv.Atoi(l)
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		filter.Offset, _ = strconv.Atoi(o)
	}

	profiles, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  profiles,
		"total": total,
	})
}

// GetProfile gets a profile by ID
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// GetOwnProfile gets the authenticated user's profile
func (h *Handler) GetOwnProfile(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, errors.Unauthorized("authentication required"))
		return
	}

	p, err := h.repo.GetByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// CreateProfile creates a new profile owned by the caller
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"first_name": "first name is required",
			"last_name":  "last name is required",
			"email":      "email is required",
		}))
		return
	}

	userID := types.NewID()
	if user := auth.GetUser(r.Context()); user != nil {
		userID = user.ID
	}

	p := &Profile{
		ID:          types.NewID(),
		UserID:      userID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
		Phone:       req.Phone,
	}

	if err := h.repo.Create(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}

	h.publish(r, "profile.created", map[string]any{
		"profile_id": p.ID,
		"user_id":    p.UserID,
	})

	writeJSON(w, http.StatusCreated, p)
}

// UpdateProfile updates a profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.FirstName != nil {
		p.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		p.LastName = *req.LastName
	}
	if req.Email != nil {
		p.Email = *req.Email
	}
	if req.DateOfBirth != nil {
		p.DateOfBirth = req.DateOfBirth
	}
	if req.Gender != nil {
		p.Gender = *req.Gender
	}
	if req.Phone != nil {
		p.Phone = *req.Phone
	}

	if err := h.repo.Update(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}

	h.publish(r, "profile.updated", map[string]any{
		"profile_id": p.ID,
	})

	writeJSON(w, http.StatusOK, p)
}

// DeleteProfile deletes a profile and its nested resources
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.Delete(r.Context(), p.ID); err != nil {
		writeError(w, err)
		return
	}

	h.publish(r, "profile.deleted", map[string]any{
		"profile_id": p.ID,
	})

	w.WriteHeader(http.StatusNoContent)
}

// --- Preference Handlers ---

// ListPreferences lists preferences for a profile
func (h *Handler) ListPreferences(w http.ResponseWriter, r *http.Request) {
	p, err := h.authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	prefs, err := h.repo.ListPreferences(r.Context(), p.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": prefs})
}

// UpsertPreference sets one preference value
func (h *Handler) UpsertPreference(w http.ResponseWriter, r *http.Request) {
	p, err := h.authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpsertPreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.Category == "" || req.Name == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"category": "category is required",
			"name":     "name is required",
		}))
		return
	}

	pref := &Preference{
		ID:        types.NewID(),
		ProfileID: p.ID,
		Category:  req.Category,
		Name:      req.Name,
		Value:     req.Value,
	}

	if err := h.repo.UpsertPreference(r.Context(), pref); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pref)
}

// DeletePreference deletes one preference
func (h *Handler) DeletePreference(w http.ResponseWriter, r *http.Request) {
	p, err := h.authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	prefID, err := types.ParseID(chi.URLParam(r, "preferenceID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid preference ID"))
		return
	}

	if err := h.repo.DeletePreference(r.Context(), p.ID, prefID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Privacy Setting Handlers ---

// ListPrivacySettings lists privacy settings for a profile
func (h *Handler) ListPrivacySettings(w http.ResponseWriter, r *http.Request) {
	p, err := h.authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	settings, err := h.repo.ListPrivacySettings(r.Context(), p.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": settings})
}

// UpsertPrivacySetting sets the sharing policy for a data category
func (h *Handler) UpsertPrivacySetting(w http.ResponseWriter, r *http.Request) {
	p, err := h.authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpsertPrivacySettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.DataCategory == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"data_category": "data category is required",
		}))
		return
	}

	switch req.SharingLevel {
	case SharingPrivate, SharingClinicians, SharingResearch:
	default:
		writeError(w, errors.BadRequest("invalid sharing level"))
		return
	}

	setting := &PrivacySetting{
		ID:           types.NewID(),
		ProfileID:    p.ID,
		DataCategory: req.DataCategory,
		SharingLevel: req.SharingLevel,
		ConsentGiven: req.ConsentGiven,
	}
	if req.ConsentGiven {
		now := time.Now().UTC()
		setting.ConsentAt = &now
	}

	if err := h.repo.UpsertPrivacySetting(r.Context(), setting); err != nil {
		writeError(w, err)
		return
	}

	h.publish(r, "profile.privacy_updated", map[string]any{
		"profile_id":    p.ID,
		"data_category": setting.DataCategory,
		"sharing_level": setting.SharingLevel,
	})

	writeJSON(w, http.StatusOK, setting)
}

// --- Health Attribute Handlers ---

// ListHealthAttributes lists attributes, optionally filtered by type
func (h *Handler) ListHealthAttributes(w http.ResponseWriter, r *http.Request) {
	p, err := h.authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	attrs, err := h.repo.ListHealthAttributes(r.Context(), p.ID, r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": attrs})
}

// CreateHealthAttribute records a health attribute
func (h *Handler) CreateHealthAttribute(w http.ResponseWriter, r *http.Request) {
	p, err := h.authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req CreateHealthAttributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.AttributeType == "" || req.Value == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"attribute_type": "attribute type is required",
			"value":          "value is required",
		}))
		return
	}

	recordedAt := time.Now().UTC()
	if req.RecordedAt != nil {
		recordedAt = *req.RecordedAt
	}

	attr := &HealthAttribute{
		ID:            types.NewID(),
		ProfileID:     p.ID,
		AttributeType: req.AttributeType,
		Value:         req.Value,
		Unit:          req.Unit,
		RecordedAt:    recordedAt,
	}

	if err := h.repo.CreateHealthAttribute(r.Context(), attr); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, attr)
}

// DeleteHealthAttribute deletes one attribute
func (h *Handler) DeleteHealthAttribute(w http.ResponseWriter, r *http.Request) {
	p, err := h.authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	attrID, err := types.ParseID(chi.URLParam(r, "attributeID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid attribute ID"))
		return
	}

	if err := h.repo.DeleteHealthAttribute(r.Context(), p.ID, attrID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// publish emits a domain event when a bus is configured.
func (h *Handler) publish(r *http.Request, eventType string, data map[string]any) {
	if h.bus == nil {
		return
	}

	actorID := types.ID("")
	actorType := "system"
	if user := auth.GetUser(r.Context()); user != nil {
		actorID = user.ID
		actorType = user.UserType
	}

	event := events.NewEvent(eventType, "profile", data).WithActor(actorID, actorType)
	h.bus.Publish(r.Context(), event)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
