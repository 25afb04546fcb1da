// Package gemini sends one prompt plus one image to the Gemini generateContent
// endpoint and returns the text of the first candidate.
package gemini

import (
	"context"
	"errors"

	"ConsignmentExtraction/pkg/models"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-1.5-flash"

	jsonMIMEType = "application/json"
)

var (
	// ErrUnexpectedResponse is returned when the answer has no candidate text
	ErrUnexpectedResponse = errors.New("unexpected response structure from Gemini API")
	ErrMissingAPIKey      = errors.New("gemini API key is empty")
)

// Request is one user turn: an instruction and an inlined image
type Request struct {
	APIKey string
	Prompt string
	Image  models.Image
}

// Generator returns the model's answer text for a request
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
