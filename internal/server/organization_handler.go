package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/orgregistry/internal/models"
)

const maxRequestBodyBytes = 1 << 20 // 1MiB

var (
	errEmptyBody    = errors.New("request body is required")
	errTrailingData = errors.New("request body must contain a single JSON object")
)

// OrganizationAPI is the part of OrganizationService the HTTP boundary dispatches to.
type OrganizationAPI interface {
	Create(ctx context.Context, in models.OrganizationInput) (*models.Organization, error)
	Get(ctx context.Context, id int64) (*models.Organization, error)
}

// ErrorResponse is the body of every non 2xx response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// OrganizationHandler decodes HTTP requests, dispatches them to the service and
// encodes the result. It holds no business rules of its own.
type OrganizationHandler struct {
	api OrganizationAPI
}

// NewOrganizationHandler creates the HTTP boundary for organizations.
func NewOrganizationHandler(api OrganizationAPI) *OrganizationHandler {
	return &OrganizationHandler{api: api}
}

// Register adds the organization routes to mux.
func (h *OrganizationHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /organization", h.CreateHandler)
	mux.HandleFunc("GET /organization/{id}", h.GetHandler)
}

// CreateHandler handles POST /organization.
func (h *OrganizationHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	in, err := decodeOrganizationInput(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(ctx, w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"})
			return
		}
		writeValidationError(ctx, w, err)
		return
	}

	// Reject before the service runs so invalid input never reaches the store
	if err := in.Validate(); err != nil {
		writeValidationError(ctx, w, err)
		return
	}

	org, err := h.api.Create(ctx, in)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			writeValidationError(ctx, w, err)
		case errors.Is(err, ErrDuplicateOrConflict):
			log.Ctx(ctx).Warn().Err(err).Msg("Organization create conflicted")
			writeError(ctx, w, http.StatusConflict, ErrorResponse{Error: "organization id already exists"})
		default:
			log.Ctx(ctx).Error().Err(err).Msg("Failed to create organization")
			writeError(ctx, w, http.StatusInternalServerError, ErrorResponse{Error: "an unexpected error occurred"})
		}
		return
	}

	writeJSON(ctx, w, http.StatusOK, org)
}

// GetHandler handles GET /organization/{id}.
func (h *OrganizationHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(ctx, w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "validation failed",
			Fields: map[string]string{"id": "must be an integer"},
		})
		return
	}

	org, err := h.api.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(ctx, w, http.StatusNotFound, ErrorResponse{Error: "organization not found"})
			return
		}
		log.Ctx(ctx).Error().Err(err).Int64("org_id", id).Msg("Failed to get organization")
		writeError(ctx, w, http.StatusInternalServerError, ErrorResponse{Error: "an unexpected error occurred"})
		return
	}

	writeJSON(ctx, w, http.StatusOK, org)
}

// decodeOrganizationInput reads exactly one JSON object from the body.
// Unknown fields are ignored.
func decodeOrganizationInput(w http.ResponseWriter, r *http.Request) (models.OrganizationInput, error) {
	var in models.OrganizationInput

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := dec.Decode(&in); err != nil {
		if errors.Is(err, io.EOF) {
			return in, errEmptyBody
		}
		return in, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return in, errTrailingData
	}

	return in, nil
}

func writeValidationError(ctx context.Context, w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: "validation failed"}

	var verr *models.ValidationError
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError

	switch {
	case errors.As(err, &verr):
		resp.Fields = verr.Fields
	case errors.As(err, &typeErr) && typeErr.Field != "":
		resp.Fields = map[string]string{typeErr.Field: "must be a " + typeErr.Type.String()}
	case errors.Is(err, errEmptyBody):
		resp.Fields = map[string]string{"body": "is required"}
	case errors.Is(err, errTrailingData):
		resp.Fields = map[string]string{"body": "must contain a single JSON object"}
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		resp.Fields = map[string]string{"body": "is not valid JSON"}
	default:
		resp.Fields = map[string]string{"body": "must be a JSON object"}
	}

	log.Ctx(ctx).Debug().Err(err).Msg("Rejected invalid organization request")
	writeError(ctx, w, http.StatusUnprocessableEntity, resp)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, resp ErrorResponse) {
	writeJSON(ctx, w, status, resp)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to encode response")
	}
}
