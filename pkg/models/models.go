package models

import (
	"encoding/json"
	"sort"
	"time"
)

// ExtractionField names one of the fields the model is asked to return
type ExtractionField string

const (
	VRID            ExtractionField = "VRID"
	TrailerNumber   ExtractionField = "Trailer_number"
	CRID            ExtractionField = "CRID"
	SerialNumberGPS ExtractionField = "SerialNumberGPS"
)

// PrimaryFields is the display and prompt order of the known fields
var PrimaryFields = []ExtractionField{VRID, TrailerNumber, CRID, SerialNumberGPS}

// NotAvailable is the value the model uses for a field it could not read
const NotAvailable = "N/A"

// RawErrorTextKey holds the unparsed model answer when it was not valid JSON
const RawErrorTextKey = "_raw_error_text"

// ExtractionRecord maps field names to the values the model returned.
// Keys the model invents are kept as they are.
type ExtractionRecord map[string]any

// HasRawText reports whether the record carries an unparsed model answer
func (r ExtractionRecord) HasRawText() bool {
	_, ok := r[RawErrorTextKey]
	return ok
}

// RawText returns the unparsed model answer, or "" if there is none
func (r ExtractionRecord) RawText() string {
	s, _ := r[RawErrorTextKey].(string)
	return s
}

// IsRawOnly reports whether the record holds nothing but the raw-text fallback
func (r ExtractionRecord) IsRawOnly() bool {
	return len(r) == 1 && r.HasRawText()
}

// StructuredKeys returns every key except the raw-text fallback, sorted
func (r ExtractionRecord) StructuredKeys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		if k == RawErrorTextKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy of the record
func (r ExtractionRecord) Clone() ExtractionRecord {
	out := make(ExtractionRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ErrorLog is the ordered list of errors collected during one extraction run
type ErrorLog []string

// Image is an uploaded image together with its MIME type
type Image struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Outcome classifies how an extraction run ended
type Outcome string

const (
	FullSuccess    Outcome = "full_success"
	PartialSuccess Outcome = "partial_success"
	HardFailure    Outcome = "hard_failure"
)

// ExtractionResult is what an extraction run hands to the renderer
type ExtractionResult struct {
	Record  ExtractionRecord `json:"record"`
	Errors  ErrorLog         `json:"errors"`
	Outcome Outcome          `json:"outcome"`
	Message string           `json:"message,omitempty"`
}

// StoredExtraction represents a finalized record kept in the database
type StoredExtraction struct {
	ID           int             `json:"id"`
	Record       json.RawMessage `json:"record"`
	DocumentName string          `json:"document_name"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// FinalizeRequest represents the request body for the finalize-extraction endpoint
type FinalizeRequest struct {
	Record       json.RawMessage `json:"record"`
	DocumentName string          `json:"document_name"`
}
