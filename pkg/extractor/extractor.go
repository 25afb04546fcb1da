package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ConsignmentExtraction/pkg/gemini"
	"ConsignmentExtraction/pkg/models"
	"ConsignmentExtraction/pkg/parsers"
)

var (
	ErrMissingPrimaryImage = errors.New("please select the main image first")
	ErrMissingAPIKey       = errors.New("please configure your Google AI API key first")
)

// snGPSPlaceholder marks a serial number the dedicated image attempt could not find
const snGPSPlaceholder = models.NotAvailable + " (from S/N GPS image attempt)"

// Session carries everything one extraction run needs
type Session struct {
	APIKey    string
	Primary   *models.Image
	Secondary *models.Image
}

// Extractor runs the main-image call and the optional S/N GPS call one after the other
type Extractor struct {
	gen    gemini.Generator
	logger *slog.Logger
}

func New(gen gemini.Generator, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{gen: gen, logger: logger}
}

// run holds the state of a single extraction
type run struct {
	record models.ExtractionRecord
	errs   models.ErrorLog
}

func (r *run) fail(msg string) {
	r.errs = append(r.errs, msg)
}

// Extract sends the main image and then, if present, the S/N GPS image, and merges
// both answers into one record. Per-call failures are collected in the result's
// error log; only missing input is returned as an error.
func (e *Extractor) Extract(ctx context.Context, s Session) (models.ExtractionResult, error) {
	if strings.TrimSpace(s.APIKey) == "" {
		return models.ExtractionResult{}, ErrMissingAPIKey
	}
	if s.Primary == nil || len(s.Primary.Data) == 0 {
		return models.ExtractionResult{}, ErrMissingPrimaryImage
	}

	r := &run{record: models.ExtractionRecord{}}
	e.logger.Info("extract.start", "primary", s.Primary.Name, "has_sngps_image", s.Secondary != nil)

	e.extractPrimary(ctx, r, s)
	if s.Secondary != nil {
		e.extractSerialGPS(ctx, r, s)
	}

	result := finish(r)
	e.logger.Info("extract.done",
		"outcome", result.Outcome,
		"fields", len(result.Record.StructuredKeys()),
		"errors", len(result.Errors),
	)
	return result, nil
}

func (e *Extractor) extractPrimary(ctx context.Context, r *run, s Session) {
	text, err := e.gen.Generate(ctx, gemini.Request{
		APIKey: s.APIKey,
		Prompt: parsers.PrimaryPrompt(s.Secondary == nil),
		Image:  *s.Primary,
	})
	if err != nil {
		e.logger.Error("extract.main_image.error", "error", err)
		if errors.Is(err, gemini.ErrUnexpectedResponse) {
			r.fail("Unexpected response from main image API.")
		} else {
			r.fail(fmt.Sprintf("Error with main image: %v", err))
		}
		return
	}

	parsed := parsers.ParseResponse(text)
	if parsed == nil {
		r.fail("No data extracted from main image.")
		return
	}
	for k, v := range parsed {
		r.record[k] = v
	}
	if parsed.IsRawOnly() {
		r.fail("Main image response could not be parsed as JSON.")
	}
}

func (e *Extractor) extractSerialGPS(ctx context.Context, r *run, s Session) {
	text, err := e.gen.Generate(ctx, gemini.Request{
		APIKey: s.APIKey,
		Prompt: parsers.SerialGPSPrompt(),
		Image:  *s.Secondary,
	})
	if err != nil {
		e.logger.Error("extract.sngps_image.error", "error", err)
		if errors.Is(err, gemini.ErrUnexpectedResponse) {
			r.fail("Unexpected response from S/N GPS image API.")
		} else {
			r.fail(fmt.Sprintf("Error with S/N GPS image: %v", err))
		}
		return
	}

	parsed := parsers.ParseResponse(text)
	if parsed == nil {
		r.fail("No SerialNumberGPS data extracted from S/N GPS image.")
		return
	}

	key := string(models.SerialNumberGPS)
	if v, ok := parsed[key]; ok {
		r.record[key] = v
	}

	switch {
	case parsed.IsRawOnly():
		r.fail("S/N GPS image response could not be parsed as JSON.")
		if r.record.HasRawText() {
			r.record[models.RawErrorTextKey] = fmt.Sprintf("Main Img Error: %s\nS/N GPS Img Error: %s", r.record.RawText(), parsed.RawText())
		} else {
			r.record[models.RawErrorTextKey] = parsed.RawText()
		}
	case isBlank(parsed[key]) && isBlank(r.record[key]):
		r.record[key] = snGPSPlaceholder
	}
}

// finish classifies the run and builds the message shown to the user
func finish(r *run) models.ExtractionResult {
	result := models.ExtractionResult{
		Record:  r.record,
		Errors:  r.errs,
		Outcome: models.FullSuccess,
	}
	if len(r.errs) == 0 {
		return result
	}

	joined := strings.Join(r.errs, " ")
	if len(r.record.StructuredKeys()) == 0 {
		if !r.record.HasRawText() {
			r.record[models.RawErrorTextKey] = joined
		}
		result.Outcome = models.HardFailure
		result.Message = joined
		return result
	}

	result.Outcome = models.PartialSuccess
	result.Message = "Partial data extracted. Errors: " + joined
	return result
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
