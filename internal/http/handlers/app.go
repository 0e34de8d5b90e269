package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"homestage/internal/domain"
)

// ImageStager produces staged variants of a room photo.
type ImageStager interface {
	StageRoom(ctx context.Context, imageDataURI, prompt, negative string, size *domain.ImageSize) ([]string, error)
}

// VideoGenerator produces a fly-through video between two stills.
type VideoGenerator interface {
	Flythrough(ctx context.Context, startImageURL, endImageURL string) (*domain.Video, error)
}

// RoomClassifier labels the room category of a photo.
type RoomClassifier interface {
	ClassifyRoom(ctx context.Context, imageDataURI string) (string, error)
}

// ArtifactStore is the persistence capability injected into handlers.
type ArtifactStore interface {
	Enabled() bool
	UploadOriginal(ctx context.Context, generationID string, data []byte, contentType string) (string, error)
	UploadGenerated(ctx context.Context, generationID string, index int, data []byte) (string, error)
	InsertRecord(ctx context.Context, rec *domain.GenerationRecord) error
	GetRecord(ctx context.Context, id string) (*domain.GenerationRecord, error)
	ListRecords(ctx context.Context, limit int) ([]domain.GenerationRecord, error)
}

// App bundles the dependencies shared by all request handlers.
type App struct {
	Logger     zerolog.Logger
	Stager     ImageStager
	Videos     VideoGenerator
	Classifier RoomClassifier
	Artifacts  ArtifactStore
	HTTPClient *http.Client
}

// NewApp wires an App. The HTTP client is used to fetch provider outputs for
// mirroring and archiving.
func NewApp(logger zerolog.Logger, stager ImageStager, videos VideoGenerator, classifier RoomClassifier, artifacts ArtifactStore) *App {
	return &App{
		Logger:     logger,
		Stager:     stager,
		Videos:     videos,
		Classifier: classifier,
		Artifacts:  artifacts,
		HTTPClient: &http.Client{},
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (a *App) error(w http.ResponseWriter, code int, message, details string) {
	a.json(w, code, errorBody{Error: message, Details: details})
}

// fail maps an upstream error to an HTTP response. Configuration problems and
// timeouts get their own status; everything else surfaces the fallback
// message with the error detail.
func (a *App) fail(w http.ResponseWriter, err error, fallback string) {
	var cfgErr *domain.ConfigError
	var timeoutErr *domain.TimeoutError
	switch {
	case errors.As(err, &cfgErr):
		a.error(w, http.StatusInternalServerError, "Server configuration error", cfgErr.Error())
	case errors.As(err, &timeoutErr):
		a.error(w, http.StatusGatewayTimeout, fallback, timeoutErr.Error())
	default:
		a.error(w, http.StatusInternalServerError, fallback, err.Error())
	}
}

// fetch downloads a provider output so it can be mirrored or archived.
func (a *App) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
