package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"ConsignmentExtraction/pkg/encoder"
	"ConsignmentExtraction/pkg/extractor"
	"ConsignmentExtraction/pkg/models"
	"ConsignmentExtraction/pkg/render"
)

// recordSchema describes a record that may be finalized: a non-empty object of string values
const recordSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"minProperties": 1,
	"additionalProperties": {"type": "string"}
}`

var compiledRecordSchema = jsonschema.MustCompileString("record.schema.json", recordSchema)

// Extractor is the extraction run the handlers depend on
type Extractor interface {
	Extract(ctx context.Context, s extractor.Session) (models.ExtractionResult, error)
}

// ExtractionStore persists finalized records
type ExtractionStore interface {
	SaveExtraction(ctx context.Context, record []byte, documentName string) (int, error)
	GetExtraction(ctx context.Context, id int) (models.StoredExtraction, error)
}

// Server holds the handler dependencies. Store may be nil when no database is configured.
type Server struct {
	Extractor     Extractor
	Store         ExtractionStore
	DefaultAPIKey string
	MaxImageBytes int64
	Logger        *slog.Logger
}

// extractResponse is the body returned by /extract
type extractResponse struct {
	RequestID string                  `json:"request_id"`
	Status    string                  `json:"status"`
	Outcome   models.Outcome          `json:"outcome"`
	Message   string                  `json:"message,omitempty"`
	Record    models.ExtractionRecord `json:"record"`
	Errors    models.ErrorLog         `json:"errors"`
	Fields    []render.Field          `json:"fields"`
}

// SetupRoutes configures the HTTP routes for the application
func SetupRoutes(mux *http.ServeMux, s *Server) {
	if s.Logger == nil {
		s.Logger = slog.Default()
	}

	mux.HandleFunc("POST /extract", s.handleExtract)
	mux.HandleFunc("POST /finalize-extraction", s.handleFinalizeExtraction)
	mux.HandleFunc("GET /extractions/{id}", s.handleGetExtraction)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
}

// WithCORS sets the CORS headers and answers preflight requests
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, X-Goog-Api-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// apiKey picks the key from the header, then the form, then the configured default
func (s *Server) apiKey(r *http.Request) string {
	if k := strings.TrimSpace(r.Header.Get("X-Goog-Api-Key")); k != "" {
		return k
	}
	if k := strings.TrimSpace(r.FormValue("api_key")); k != "" {
		return k
	}
	return s.DefaultAPIKey
}

// formImage reads an optional image field; a missing field yields nil
func (s *Server) formImage(r *http.Request, field string) (*models.Image, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return readImage(file, header, s.MaxImageBytes)
}

func readImage(file multipart.File, header *multipart.FileHeader, maxBytes int64) (*models.Image, error) {
	img, err := encoder.FromReader(header.Filename, header.Header.Get("Content-Type"), file, maxBytes)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

// handleExtract handles the /extract endpoint
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.New().String()
	logger := s.Logger.With("req_id", reqID)

	if s.MaxImageBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, 2*s.MaxImageBytes+(1<<20))
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "Error reading form: "+err.Error(), http.StatusBadRequest)
		return
	}

	primary, err := s.formImage(r, "image")
	if err != nil {
		writeImageError(w, "main image", err)
		return
	}
	secondary, err := s.formImage(r, "sngps_image")
	if err != nil {
		writeImageError(w, "S/N GPS image", err)
		return
	}

	res, err := s.Extractor.Extract(r.Context(), extractor.Session{
		APIKey:    s.apiKey(r),
		Primary:   primary,
		Secondary: secondary,
	})
	switch {
	case errors.Is(err, extractor.ErrMissingAPIKey), errors.Is(err, extractor.ErrMissingPrimaryImage):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		logger.Error("api.extract.error", "error", err)
		http.Error(w, "Error extracting details: "+err.Error(), http.StatusInternalServerError)
		return
	}

	logger.Info("api.extract.done", "outcome", res.Outcome, "errors", len(res.Errors))

	status := "success"
	if res.Outcome != models.FullSuccess {
		status = "error"
	}
	errs := res.Errors
	if errs == nil {
		errs = models.ErrorLog{}
	}
	writeJSON(w, http.StatusOK, extractResponse{
		RequestID: reqID,
		Status:    status,
		Outcome:   res.Outcome,
		Message:   res.Message,
		Record:    res.Record,
		Errors:    errs,
		Fields:    render.Fields(res.Record),
	})
}

func writeImageError(w http.ResponseWriter, what string, err error) {
	code := http.StatusBadRequest
	if errors.Is(err, encoder.ErrImageTooLarge) {
		code = http.StatusRequestEntityTooLarge
	}
	http.Error(w, "Error reading "+what+": "+err.Error(), code)
}

// handleFinalizeExtraction handles the /finalize-extraction endpoint
func (s *Server) handleFinalizeExtraction(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		http.Error(w, "Database connection is not available", http.StatusServiceUnavailable)
		return
	}

	var req models.FinalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Error parsing request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.DocumentName) == "" {
		http.Error(w, "document_name is required", http.StatusBadRequest)
		return
	}
	if len(req.Record) == 0 {
		http.Error(w, "record is required", http.StatusBadRequest)
		return
	}

	var doc any
	if err := json.Unmarshal(req.Record, &doc); err != nil {
		http.Error(w, "record is not valid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := compiledRecordSchema.Validate(doc); err != nil {
		http.Error(w, "record does not match schema: "+err.Error(), http.StatusBadRequest)
		return
	}

	id, err := s.Store.SaveExtraction(r.Context(), req.Record, req.DocumentName)
	if err != nil {
		s.Logger.Error("api.finalize.error", "error", err)
		http.Error(w, "Error storing extraction: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Extraction stored successfully",
		"id":      id,
	})
}

// handleGetExtraction handles the /extractions/{id} endpoint
func (s *Server) handleGetExtraction(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		http.Error(w, "Database connection is not available", http.StatusServiceUnavailable)
		return
	}

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	stored, err := s.Store.GetExtraction(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "extraction not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.Logger.Error("api.get_extraction.error", "id", id, "error", err)
		http.Error(w, "Error loading extraction: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, stored)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
