package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"ConsignmentExtraction/pkg/encoder"
)

// SDKClient makes the same call through the generative-ai-go client library.
// A client is created per call because the API key belongs to the request.
type SDKClient struct {
	Model  string
	logger *slog.Logger
}

func NewSDKClient(model string, logger *slog.Logger) *SDKClient {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SDKClient{Model: model, logger: logger}
}

// Generate implements Generator
func (c *SDKClient) Generate(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return "", ErrMissingAPIKey
	}
	if len(req.Image.Data) == 0 {
		return "", fmt.Errorf("encode %q: %w", req.Image.Name, encoder.ErrEmptyImage)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(req.APIKey))
	if err != nil {
		return "", fmt.Errorf("error creating Gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(c.Model)
	model.SetTemperature(0.0)
	model.ResponseMIMEType = jsonMIMEType

	mime := req.Image.MIMEType
	if mime == "" {
		mime = encoder.DefaultMIMEType
	}

	// The library base64-encodes blob data on the wire
	prompt := []genai.Part{
		genai.Text(req.Prompt),
		genai.Blob{
			MIMEType: mime,
			Data:     req.Image.Data,
		},
	}

	start := time.Now()
	resp, err := model.GenerateContent(ctx, prompt...)
	if err != nil {
		c.logger.Error("gemini.sdk.error", "model", c.Model, "image", req.Image.Name, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("error calling Gemini API: %w", err)
	}
	c.logger.Info("gemini.sdk.response", "model", c.Model, "image", req.Image.Name, "elapsed_ms", time.Since(start).Milliseconds())

	return sdkFirstText(resp)
}

func sdkFirstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrUnexpectedResponse
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil || len(cand.Content.Parts) == 0 {
		return "", ErrUnexpectedResponse
	}
	text, ok := cand.Content.Parts[0].(genai.Text)
	if !ok {
		return "", ErrUnexpectedResponse
	}
	return string(text), nil
}
