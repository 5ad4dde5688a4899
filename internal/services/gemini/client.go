// Package gemini wraps the Google Generative Language API for the two
// disambiguation tasks the catalog engine delegates: splitting a person's
// full name into components and inferring a title's missing directors.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reelsync/internal/catalog"
)

const (
	defaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel       = "gemini-2.0-flash"
	jsonMimeType       = "application/json"
	defaultHTTPTimeout = 15 * time.Second
)

// Client wraps the Gemini generateContent API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option customizes the Gemini client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default API base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithModel overrides the default model name.
func WithModel(model string) Option {
	return func(c *Client) {
		model = strings.TrimSpace(model)
		if model != "" {
			c.model = model
		}
	}
}

// WithTimeout overrides the default HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient constructs a Gemini API client.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// ParseFullName asks Gemini to split a display name into first, middle, and
// last components. Components the model reports as unknown come back empty.
func (c *Client) ParseFullName(ctx context.Context, fullName string) (catalog.PersonName, error) {
	var empty catalog.PersonName
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return empty, errors.New("gemini parse name: name required")
	}

	content, err := c.generate(ctx, nameParsingPrompt(fullName))
	if err != nil {
		return empty, fmt.Errorf("gemini parse name: %w", err)
	}

	var parsed struct {
		FirstName  string `json:"first_name"`
		MiddleName string `json:"middle_name"`
		LastName   string `json:"last_name"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return empty, fmt.Errorf("gemini parse name: parse payload: %w", err)
	}

	return catalog.PersonName{
		First:  knownOrEmpty(parsed.FirstName),
		Middle: knownOrEmpty(parsed.MiddleName),
		Last:   knownOrEmpty(parsed.LastName),
	}, nil
}

// TitleContext carries the source fields that identify a title well enough
// for the model to name its directors.
type TitleContext struct {
	Type        string
	Title       string
	Cast        string
	Country     string
	ReleaseYear int
}

// InferDirectors asks Gemini for a title's directors. The returned string is
// comma-joined director names, or empty when the model does not know.
func (c *Client) InferDirectors(ctx context.Context, title TitleContext) (string, error) {
	if strings.TrimSpace(title.Title) == "" {
		return "", errors.New("gemini infer directors: title required")
	}

	content, err := c.generate(ctx, directorPrompt(title))
	if err != nil {
		return "", fmt.Errorf("gemini infer directors: %w", err)
	}

	var parsed struct {
		Directors string `json:"directors"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return "", fmt.Errorf("gemini infer directors: parse payload: %w", err)
	}
	return knownOrEmpty(parsed.Directors), nil
}

// generate posts one prompt and returns the model's text content.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("api key required")
	}

	endpoint, err := url.JoinPath(c.baseURL, "models", c.model+":generateContent")
	if err != nil {
		return "", fmt.Errorf("build url: %w", err)
	}

	encoded, err := json.Marshal(generateContentRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:      0,
			ResponseMimeType: jsonMimeType,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", jsonMimeType)
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("api error: %s", strings.TrimSpace(decoded.Error.Message))
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("empty candidates")
	}

	text := strings.TrimSpace(decoded.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", errors.New("empty content")
	}
	return text, nil
}

// knownOrEmpty maps the model's "unknown" placeholder onto the empty string.
func knownOrEmpty(value string) string {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, catalog.UnknownSentinel) {
		return ""
	}
	return value
}

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}
