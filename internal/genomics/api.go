package genomics

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/healthassist/platform/internal/shared/auth"
	"github.com/healthassist/platform/internal/shared/errors"
	"github.com/healthassist/platform/internal/shared/events"
	"github.com/healthassist/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the genomics module
type Handler struct {
	repo *Repository
	bus  events.Publisher
}

// NewHandler creates a new genomics handler
func NewHandler(repo *Repository, bus events.Publisher) *Handler {
	return &Handler{repo: repo, bus: bus}
}

// Routes registers the genomics routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/data", func(r chi.Router) {
		r.Get("/", h.ListData)
		r.Post("/", h.CreateData)

		r.Route("/{dataID}", func(r chi.Router) {
			r.Get("/", h.GetData)
			r.Delete("/", h.DeleteData)

			r.Route("/variants", func(r chi.Router) {
				r.Get("/", h.ListVariants)
				r.Post("/", h.CreateVariant)
				r.Delete("/{variantID}", h.DeleteVariant)
			})

			r.Post("/analyses", h.CreateAnalysis)
		})
	})

	r.Route("/analyses", func(r chi.Router) {
		r.Get("/", h.ListAnalyses)
		r.Get("/{analysisID}", h.GetAnalysis)
	})

	return r
}

// authorizeData loads a data set and checks the caller may access it.
func (h *Handler) authorizeData(r *http.Request) (*Data, error) {
	id, err := types.ParseID(chi.URLParam(r, "dataID"))
	if err != nil {
		return nil, errors.BadRequest("invalid data ID")
	}

	d, err := h.repo.GetData(r.Context(), id)
	if err != nil {
		return nil, err
	}

	if user := auth.GetUser(r.Context()); user != nil && !user.CanAccess(d.UserID) {
		return nil, errors.Forbidden("access to this genomic data is not allowed")
	}

	return d, nil
}

// --- Data Set Handlers ---

// ListData lists the caller's data sets
func (h *Handler) ListData(w http.ResponseWriter, r *http.Request) {
	filter := ListDataFilter{}

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

	if s := r.URL.Query().Get("status"); s != "" {
		status := DataStatus(s)
		filter.Status = &status
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		filter.Limit, _ = strconv.Atoi(l)
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		filter.Offset, _ = strconv.Atoi(o)
	}

	data, total, err := h.repo.ListData(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  data,
		"total": total,
	})
}

// GetData gets a data set by ID
func (h *Handler) GetData(w http.ResponseWriter, r *http.Request) {
	d, err := h.authorizeData(r)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// CreateData registers an uploaded genomic data set
func (h *Handler) CreateData(w http.ResponseWriter, r *http.Request) {
	var req CreateDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.FileName == "" || req.FileFormat == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"file_name":   "file name is required",
			"file_format": "file format is required",
		}))
		return
	}

	userID := types.NewID()
	if user := auth.GetUser(r.Context()); user != nil {
		userID = user.ID
	}

	d := &Data{
		ID:         types.NewID(),
		UserID:     userID,
		FileName:   req.FileName,
		FileFormat: req.FileFormat,
		FileSize:   req.FileSize,
		Source:     req.Source,
		Status:     DataStatusUploaded,
	}

	if err := h.repo.CreateData(r.Context(), d); err != nil {
		writeError(w, err)
		return
	}

	h.publish(r, "genomics.data_uploaded", map[string]any{
		"data_id":     d.ID,
		"user_id":     d.UserID,
		"file_format": d.FileFormat,
	})

	writeJSON(w, http.StatusCreated, d)
}

// DeleteData deletes a data set with its variants and analyses
func (h *Handler) DeleteData(w http.ResponseWriter, r *http.Request) {
	d, err := h.authorizeData(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.DeleteData(r.Context(), d.ID); err != nil {
		writeError(w, err)
		return
	}

	h.publish(r, "genomics.data_deleted", map[string]any{
		"data_id": d.ID,
	})

	w.WriteHeader(http.StatusNoContent)
}

// --- Variant Handlers ---

// ListVariants lists variants for a data set
func (h *Handler) ListVariants(w http.ResponseWriter, r *http.Request) {
	d, err := h.authorizeData(r)
	if err != nil {
		writeError(w, err)
		return
	}

	variants, err := h.repo.ListVariants(r.Context(), d.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": variants})
}

// CreateVariant records one variant on a data set
func (h *Handler) CreateVariant(w http.ResponseWriter, r *http.Request) {
	d, err := h.authorizeData(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req CreateVariantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	if req.Chromosome == "" || req.ReferenceAllele == "" || req.AlternateAllele == "" {
		writeError(w, errors.Validation("validation failed", map[string]string{
			"chromosome":       "chromosome is required",
			"reference_allele": "reference allele is required",
			"alternate_allele": "alternate allele is required",
		}))
		return
	}

	v := &Variant{
		ID:                   types.NewID(),
		DataID:               d.ID,
		Chromosome:           req.Chromosome,
		Position:             req.Position,
		ReferenceAllele:      req.ReferenceAllele,
		AlternateAllele:      req.AlternateAllele,
		Gene:                 req.Gene,
		RSID:                 req.RSID,
		Zygosity:             req.Zygosity,
		ClinicalSignificance: req.ClinicalSignificance,
	}

	if err := h.repo.CreateVariant(r.Context(), v); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, v)
}

// DeleteVariant deletes one variant
func (h *Handler) DeleteVariant(w http.ResponseWriter, r *http.Request) {
	d, err := h.authorizeData(r)
	if err != nil {
		writeError(w, err)
		return
	}

	variantID, err := types.ParseID(chi.URLParam(r, "variantID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid variant ID"))
		return
	}

	if err := h.repo.DeleteVariant(r.Context(), d.ID, variantID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Analysis Handlers ---

// CreateAnalysis queues an analysis over a data set
func (h *Handler) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	d, err := h.authorizeData(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req CreateAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	switch req.AnalysisType {
	case AnalysisTypeVariantSummary, AnalysisTypePharmacogenomic, AnalysisTypeAncestry:
	default:
		writeError(w, errors.BadRequest("invalid analysis type"))
		return
	}

	a := &Analysis{
		ID:           types.NewID(),
		DataID:       d.ID,
		UserID:       d.UserID,
		AnalysisType: req.AnalysisType,
		Status:       AnalysisStatusPending,
	}

	if err := h.repo.CreateAnalysis(r.Context(), a); err != nil {
		writeError(w, err)
		return
	}

	h.publish(r, "genomics.analysis_requested", map[string]any{
		"analysis_id":   a.ID,
		"data_id":       a.DataID,
		"analysis_type": a.AnalysisType,
	})

	writeJSON(w, http.StatusAccepted, a)
}

// GetAnalysis gets an analysis by ID
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "analysisID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid analysis ID"))
		return
	}

	a, err := h.repo.GetAnalysis(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if user := auth.GetUser(r.Context()); user != nil && !user.CanAccess(a.UserID) {
		writeError(w, errors.Forbidden("access to this analysis is not allowed"))
		return
	}

	writeJSON(w, http.StatusOK, a)
}

// ListAnalyses lists analyses with filters
func (h *Handler) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	filter := ListAnalysesFilter{}

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

	if d := r.URL.Query().Get("data_id"); d != "" {
		id, err := types.ParseID(d)
		if err != nil {
			writeError(w, errors.BadRequest("invalid data ID"))
			return
		}
		filter.DataID = &id
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := AnalysisStatus(s)
		filter.Status = &status
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		filter.Limit, _ = strconv.Atoi(l)
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		filter.Offset, _ = strconv.Atoi(o)
	}

	analyses, total, err := h.repo.ListAnalyses(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  analyses,
		"total": total,
	})
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

	event := events.NewEvent(eventType, "genomics", data).WithActor(actorID, actorType)
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
