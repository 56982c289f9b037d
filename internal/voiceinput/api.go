package voiceinput

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/healthassist/platform/internal/fusion"
	"github.com/healthassist/platform/internal/shared/auth"
	"github.com/healthassist/platform/internal/shared/errors"
	"github.com/healthassist/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the voice-input module
type Handler struct {
	service *Service
	repo    *Repository
}

// NewHandler creates a new voice-input handler
func NewHandler(service *Service, repo *Repository) *Handler {
	return &Handler{service: service, repo: repo}
}

// Routes registers the voice-input routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/voice", func(r chi.Router) {
		r.Get("/", h.ListRecords)
		r.Post("/", h.CreateRecord)

		r.Route("/{recordID}", func(r chi.Router) {
			r.Get("/", h.GetRecord)
			r.Put("/", h.UpdateRecord)
			r.Delete("/", h.DeleteRecord)
		})
	})

	r.Post("/multi-modal/process", h.Process)

	return r
}

// --- Fusion Handler ---

// Process runs the multi-modal fusion pipeline over the request
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	var req fusion.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if user := auth.GetUser(r.Context()); user != nil {
		if req.PatientID.IsZero() {
			req.PatientID = user.ID
		} else if !user.CanAccess(req.PatientID) {
			writeError(w, errors.Forbidden("access to this patient is not allowed"))
			return
		}
	}

	if req.PatientID.IsZero() {
		writeError(w, errors.BadRequest("patient_id is required"))
		return
	}

	if !req.HasInput() {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"input": "at least one modality input is required",
		}))
		return
	}

	resp := h.service.Process(r.Context(), &req)

	writeJSON(w, http.StatusOK, resp)
}

// --- Record Handlers ---

// authorize loads a record and checks the caller may access it.
func (h *Handler) authorize(r *http.Request) (*Record, error) {
	id, err := types.ParseID(chi.URLParam(r, "recordID"))
	if err != nil {
		return nil, errors.BadRequest("invalid record ID")
	}

	rec, err := h.repo.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}

	if user := auth.GetUser(r.Context()); user != nil && !user.CanAccess(rec.UserID) {
		return nil, errors.Forbidden("access to this record is not allowed")
	}

	return rec, nil
}

// ListRecords lists voice-input records
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	filter := ListRecordsFilter{
		SessionID: r.URL.Query().Get("session_id"),
		Intent:    r.URL.Query().Get("intent"),
	}

	if user := auth.GetUser(r.Context()); user != nil && user.UserType == "patient" {
		filter.UserID = &user.ID
	} else if u := r.URL.Query().Get("user_id"); u != "" {
		id, err := types.ParseID(u)
		if err != nil {
			writeError(w, errors.BadRequest("invalid user ID"))
			return
		}
		filter.UserID = &id
	}

	if l := r.URL.Query().Get("limit"); l != "" {
		filter.Limit, _ = strconv.Atoi(l)
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		filter.Offset, _ = strconv.Atoi(o)
	}

	records, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  records,
		"total": total,
	})
}

// GetRecord gets a record by ID
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// CreateRecord stores a processed input directly
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.Transcription == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"transcription": "transcription is required",
		}))
		return
	}

	inputType := req.InputType
	if inputType == "" {
		inputType = InputTypeVoice
	}

	userID := types.NewID()
	if user := auth.GetUser(r.Context()); user != nil {
		userID = user.ID
	}

	rec := &Record{
		ID:            types.NewID(),
		UserID:        userID,
		SessionID:     req.SessionID,
		InputType:     inputType,
		Transcription: req.Transcription,
		Language:      req.Language,
		UrgencyLevel:  1,
	}

	if err := h.repo.Create(r.Context(), rec); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// UpdateRecord corrects a stored transcription
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req UpdateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.Transcription != nil {
		rec.Transcription = *req.Transcription
	}
	if req.Language != nil {
		rec.Language = *req.Language
	}

	if err := h.repo.Update(r.Context(), rec); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// DeleteRecord deletes a record
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.authorize(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.Delete(r.Context(), rec.ID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
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
