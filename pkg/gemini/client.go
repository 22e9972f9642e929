package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/ruialonso/taxilog-backend/pkg/errors"
)

const (
	defaultBaseURL            = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel              = "gemini-2.0-flash"
	requestBodyReadLimit int64 = 1024
)

var errAPIKeyRequired = errors.New("gemini api key is required")

// The endpoint reads a photographed dispatch ticket and returns the fields a
// trip entry form needs. The price is deliberately excluded; drivers type it
// in themselves.
const ticketPrompt = `Analyze this taxi dispatch ticket and respond ONLY with JSON in this shape:
{
  "services": [
    {
      "date": "YYYY-MM-DD",
      "origin": "pickup location",
      "destination": "dropoff location",
      "company": "client/cooperative name",
      "observations": "any relevant remark on the ticket"
    }
  ]
}
Use an empty string for any field you cannot find. Do not extract prices.
If the ticket lists several services, append each to the "services" array.
Respond with the JSON only, no markdown and no extra text.`

// Client wraps the hosted generative-model endpoint used for ticket
// extraction.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithModel overrides the generative model name.
func WithModel(model string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(model)
		if trimmed != "" {
			c.model = trimmed
		}
	}
}

// NewClient builds the extraction client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.model == "" {
		client.model = defaultModel
	}

	return client, nil
}

// ExtractedService holds the best-effort fields read from one ticket entry.
type ExtractedService struct {
	Date         string `json:"date"`
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
	Company      string `json:"company"`
	Observations string `json:"observations"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// ExtractTicket sends the image to the model and maps its JSON answer into
// structured services. The call is best-effort: a malformed model answer is a
// dependency error, never a partial result.
func (c *Client) ExtractTicket(ctx context.Context, image []byte, mimeType string) ([]ExtractedService, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "extraction client not configured")
	}
	if len(image) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image data is required")
	}
	if strings.TrimSpace(mimeType) == "" {
		mimeType = "image/jpeg"
	}

	payload, err := json.Marshal(generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: ticketPrompt},
				{InlineData: &inlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
		GenerationConfig: generationConfig{
			Temperature:     0.1,
			TopK:            32,
			TopP:            1,
			MaxOutputTokens: 2048,
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal extraction request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.generateURL(), bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build extraction request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute extraction request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "extraction request failed")
	}

	var apiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode extraction response")
	}

	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "extraction endpoint returned no answer")
	}

	return parseModelAnswer(apiResp.Candidates[0].Content.Parts[0].Text)
}

// parseModelAnswer tolerates markdown fencing around the JSON and both the
// array and single-object shapes the model produces.
func parseModelAnswer(text string) ([]ExtractedService, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var wrapped struct {
		Services []ExtractedService `json:"services"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wrapped); err == nil && len(wrapped.Services) > 0 {
		return wrapped.Services, nil
	}

	var single ExtractedService
	if err := json.Unmarshal([]byte(cleaned), &single); err == nil && single != (ExtractedService{}) {
		return []ExtractedService{single}, nil
	}

	return nil, pkgerrors.New(pkgerrors.CodeDependency, "extraction answer was not valid JSON")
}

func (c *Client) generateURL() string {
	base := strings.TrimRight(c.baseURL, "/")
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s", base, c.model, url.QueryEscape(c.apiKey))
}
