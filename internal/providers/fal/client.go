package fal

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
	"homestage/internal/staging"
)

const (
	modelStaging    = "fal-ai/nano-banana-pro/edit"
	modelFlythrough = "fal-ai/kling-video/v1.6/standard/elements"

	// Each staging call requests a fixed number of variants; this is a
	// product decision, not a caller knob.
	stagedVariants = 4

	statusCompleted = "COMPLETED"
	statusFailed    = "FAILED"
)

// Options configures the fal.ai queue client.
type Options struct {
	APIKey       string
	BaseURL      string
	HTTPClient   *http.Client
	Logger       *infra.Logger
	PollInterval time.Duration
	CallTimeout  time.Duration
}

// Client drives the fal.ai request queue: submit, poll until completion,
// fetch the result. Calls block until the queue reports completion or the
// per-call deadline expires.
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	logger       *infra.Logger
	pollInterval time.Duration
	callTimeout  time.Duration
}

type queueSubmit struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

type queueStatus struct {
	Status string `json:"status"`
}

type stagingResult struct {
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
}

type flythroughResult struct {
	Video *struct {
		URL      string `json:"url"`
		FileName string `json:"file_name"`
		FileSize int64  `json:"file_size"`
	} `json:"video"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://queue.fal.run"
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
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
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		httpClient:   httpClient,
		logger:       logger,
		pollInterval: pollInterval,
		callTimeout:  callTimeout,
	}
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// StageRoom generates staged variants of a room photo. The returned slice
// holds the provider's output URLs in slot order.
func (c *Client) StageRoom(ctx context.Context, imageDataURI, prompt, negative string, size *domain.ImageSize) ([]string, error) {
	if !c.HasCredentials() {
		return nil, &domain.ConfigError{Name: "FAL_KEY"}
	}
	input := map[string]any{
		"prompt":          prompt,
		"image_urls":      []string{imageDataURI},
		"output_format":   "png",
		"negative_prompt": negative,
		"num_images":      stagedVariants,
	}
	if size != nil && size.Width > 0 && size.Height > 0 {
		input["image_size"] = map[string]int{"width": size.Width, "height": size.Height}
	} else {
		input["image_size"] = "square_hd"
	}

	raw, err := c.run(ctx, modelStaging, input)
	if err != nil {
		return nil, err
	}
	var result stagingResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("fal: decode result: %w", err)
	}
	if len(result.Images) == 0 {
		return nil, &domain.GenerationError{Detail: "No images generated"}
	}
	urls := make([]string, 0, len(result.Images))
	for _, img := range result.Images {
		if img.URL != "" {
			urls = append(urls, img.URL)
		}
	}
	if len(urls) == 0 {
		return nil, &domain.GenerationError{Detail: "No images generated"}
	}
	c.logger.Debug().Int("variants", len(urls)).Msg("fal: staging complete")
	return urls, nil
}

// Flythrough generates a 5-second, 16:9 camera fly-through between two
// generated stills.
func (c *Client) Flythrough(ctx context.Context, startImageURL, endImageURL string) (*domain.Video, error) {
	if !c.HasCredentials() {
		return nil, &domain.ConfigError{Name: "FAL_KEY"}
	}
	prompt, negative := staging.VideoPrompt()
	input := map[string]any{
		"prompt":           prompt,
		"input_image_urls": []string{startImageURL, endImageURL},
		"duration":         "5",
		"aspect_ratio":     "16:9",
		"negative_prompt":  negative,
	}

	raw, err := c.run(ctx, modelFlythrough, input)
	if err != nil {
		return nil, err
	}
	var result flythroughResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("fal: decode result: %w", err)
	}
	if result.Video == nil || result.Video.URL == "" {
		return nil, &domain.GenerationError{Detail: "No video generated"}
	}
	fileName := result.Video.FileName
	if fileName == "" {
		fileName = "room-tour.mp4"
	}
	return &domain.Video{
		URL:      result.Video.URL,
		FileName: fileName,
		FileSize: result.Video.FileSize,
	}, nil
}

// run submits one job to the queue and blocks until its result is available.
// A single upstream failure is surfaced immediately; there are no retries.
func (c *Client) run(ctx context.Context, model string, input map[string]any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	submitted, err := c.submit(ctx, model, input)
	if err != nil {
		return nil, c.mapErr(err, model)
	}
	if err := c.await(ctx, submitted); err != nil {
		return nil, c.mapErr(err, model)
	}
	raw, err := c.result(ctx, submitted)
	if err != nil {
		return nil, c.mapErr(err, model)
	}
	return raw, nil
}

func (c *Client) submit(ctx context.Context, model string, input map[string]any) (*queueSubmit, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("fal: encode request: %w", err)
	}
	raw, err := c.do(ctx, http.MethodPost, c.baseURL+"/"+model, body)
	if err != nil {
		return nil, err
	}
	var submitted queueSubmit
	if err := json.Unmarshal(raw, &submitted); err != nil {
		return nil, fmt.Errorf("fal: decode submit response: %w", err)
	}
	if submitted.StatusURL == "" || submitted.ResponseURL == "" {
		return nil, errors.New("fal: submit response missing queue urls")
	}
	c.logger.Debug().Str("model", model).Str("request_id", submitted.RequestID).Msg("fal: job queued")
	return &submitted, nil
}

func (c *Client) await(ctx context.Context, submitted *queueSubmit) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		raw, err := c.do(ctx, http.MethodGet, submitted.StatusURL, nil)
		if err != nil {
			return err
		}
		var status queueStatus
		if err := json.Unmarshal(raw, &status); err != nil {
			return fmt.Errorf("fal: decode status: %w", err)
		}
		switch status.Status {
		case statusCompleted:
			return nil
		case statusFailed:
			return &domain.UpstreamError{Provider: "fal", Status: http.StatusOK, Detail: "queue reported job failure"}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) result(ctx context.Context, submitted *queueSubmit) ([]byte, error) {
	return c.do(ctx, http.MethodGet, submitted.ResponseURL, nil)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("fal: build request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fal: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, &domain.UpstreamError{
			Provider: "fal",
			Status:   resp.StatusCode,
			Detail:   strings.TrimSpace(string(raw)),
		}
	}
	return raw, nil
}

// mapErr converts deadline expiry into the timeout error kind; every other
// error passes through unchanged.
func (c *Client) mapErr(err error, model string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.TimeoutError{Provider: "fal", Op: model}
	}
	return err
}
