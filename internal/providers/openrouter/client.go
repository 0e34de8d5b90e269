package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"homestage/internal/domain"
	"homestage/internal/infra"
)

const classifierInstruction = "You are an interior design expert. Analyze the room in this image " +
	"and classify it into exactly one of these categories: [living_room, bedroom, kitchen, " +
	"dining_room, bathroom, office, studio, outdoor]. Return ONLY the category key. " +
	"If uncertain, return 'unknown'."

// Options configures the OpenRouter chat-completion client.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Referer     string
	Title       string
	HTTPClient  *http.Client
	Logger      *infra.Logger
	CallTimeout time.Duration
}

// Client sends vision chat-completion requests to OpenRouter.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	referer     string
	title       string
	httpClient  *http.Client
	logger      *infra.Logger
	callTimeout time.Duration
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "qwen/qwen2.5-vl-72b-instruct"
	}
	callTimeout := opts.CallTimeout
	if callTimeout <= 0 {
		callTimeout = 90 * time.Second
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:      strings.TrimSpace(opts.APIKey),
		baseURL:     baseURL,
		model:       model,
		referer:     opts.Referer,
		title:       opts.Title,
		httpClient:  httpClient,
		logger:      logger,
		callTimeout: callTimeout,
	}
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// ClassifyRoom asks the vision model which room category the image shows.
// Parsing never fails: an empty or malformed model reply yields "unknown".
func (c *Client) ClassifyRoom(ctx context.Context, imageDataURI string) (string, error) {
	if !c.HasCredentials() {
		return "", &domain.ConfigError{Name: "OPENROUTER_API_KEY"}
	}
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: classifierInstruction},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: "Identify this room type."},
				{Type: "image_url", ImageURL: &imageURL{URL: imageDataURI}},
			}},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("openrouter: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openrouter: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &domain.TimeoutError{Provider: "openrouter", Op: "chat completion"}
		}
		return "", fmt.Errorf("openrouter: http request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openrouter: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", &domain.UpstreamError{
			Provider: "openrouter",
			Status:   resp.StatusCode,
			Detail:   strings.TrimSpace(string(raw)),
		}
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		c.logger.Warn().Err(err).Msg("openrouter: unparseable classifier response")
		return "unknown", nil
	}
	if len(decoded.Choices) == 0 {
		return "unknown", nil
	}
	label := strings.ToLower(strings.TrimSpace(decoded.Choices[0].Message.Content))
	if label == "" {
		return "unknown", nil
	}
	return label, nil
}
