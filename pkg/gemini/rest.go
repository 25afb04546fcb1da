package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"ConsignmentExtraction/pkg/encoder"
)

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// RESTClient calls generateContent over plain HTTPS with an inlined base64 image
type RESTClient struct {
	BaseURL string
	Model   string
	httpc   *http.Client
	logger  *slog.Logger
}

// NewRESTClient creates a RESTClient. A zero timeout leaves the transport default in place.
func NewRESTClient(baseURL, model string, timeout time.Duration, logger *slog.Logger) *RESTClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RESTClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *RESTClient) endpoint(apiKey string) string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.BaseURL, url.PathEscape(c.Model), url.QueryEscape(apiKey))
}

func buildRequest(req Request) (generateContentRequest, error) {
	b64, err := encoder.Encode(req.Image)
	if err != nil {
		return generateContentRequest{}, err
	}
	mime := req.Image.MIMEType
	if mime == "" {
		mime = encoder.DefaultMIMEType
	}

	return generateContentRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: req.Prompt},
				{InlineData: &inlineData{MimeType: mime, Data: b64}},
			},
		}},
		GenerationConfig: generationConfig{ResponseMimeType: jsonMIMEType},
	}, nil
}

// Generate implements Generator
func (c *RESTClient) Generate(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.APIKey) == "" {
		return "", ErrMissingAPIKey
	}

	body, err := buildRequest(req)
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	reqID := uuid.New().String()
	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(req.APIKey), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", jsonMIMEType)

	c.logger.Info("gemini.http.request", "req_id", reqID, "model", c.Model, "image", req.Image.Name, "content_length", len(payload))

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		// url.Error embeds the request URL, which carries the key
		cause := unwrapURLError(err)
		c.logger.Error("gemini.http.send_error", "req_id", reqID, "error", cause, "elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("error calling Gemini API: %w", cause)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Warn("gemini.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading Gemini API response: %w", err)
	}

	c.logger.Info("gemini.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("gemini %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out generateContentResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return firstText(out)
}

func firstText(out generateContentResponse) (string, error) {
	if len(out.Candidates) == 0 {
		return "", ErrUnexpectedResponse
	}
	c := out.Candidates[0].Content
	if c == nil || len(c.Parts) == 0 || c.Parts[0].Text == nil {
		return "", ErrUnexpectedResponse
	}
	return *c.Parts[0].Text, nil
}

func unwrapURLError(err error) error {
	if ue, ok := err.(*url.Error); ok {
		return ue.Err
	}
	return err
}
