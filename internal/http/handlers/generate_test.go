package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"homestage/internal/domain"
)

type stubStager struct {
	mu      sync.Mutex
	urls    []string
	err     error
	calls   int
	prompts []string
}

func (s *stubStager) StageRoom(ctx context.Context, imageDataURI, prompt, negative string, size *domain.ImageSize) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return nil, s.err
	}
	return s.urls, nil
}

type stubVideos struct {
	mu    sync.Mutex
	video *domain.Video
	err   error
	calls int
}

func (s *stubVideos) Flythrough(ctx context.Context, startImageURL, endImageURL string) (*domain.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.video, nil
}

type stubClassifier struct {
	mu    sync.Mutex
	label string
	err   error
	calls int
}

func (s *stubClassifier) ClassifyRoom(ctx context.Context, imageDataURI string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.label, nil
}

type stubArtifacts struct {
	mu             sync.Mutex
	enabled        bool
	originalURL    string
	originalErr    error
	uploadErr      error
	originalCalls  int
	generatedCalls int
	inserted       []*domain.GenerationRecord
	records        map[string]*domain.GenerationRecord
}

func (s *stubArtifacts) Enabled() bool { return s.enabled }

func (s *stubArtifacts) UploadOriginal(ctx context.Context, generationID string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.originalCalls++
	if s.originalErr != nil {
		return "", s.originalErr
	}
	return s.originalURL, nil
}

func (s *stubArtifacts) UploadGenerated(ctx context.Context, generationID string, index int, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generatedCalls++
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	return "https://cdn.test/" + generationID + "/stored_" + string(rune('1'+index)), nil
}

func (s *stubArtifacts) InsertRecord(ctx context.Context, rec *domain.GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserted = append(s.inserted, rec)
	return nil
}

func (s *stubArtifacts) GetRecord(ctx context.Context, id string) (*domain.GenerationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[id]; ok {
		return rec, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubArtifacts) ListRecords(ctx context.Context, limit int) ([]domain.GenerationRecord, error) {
	return nil, nil
}

// fetchTransport serves variant downloads during mirroring without touching
// the network.
type fetchTransport struct{}

func (fetchTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader([]byte{0xff, 0xd8})),
	}, nil
}

func newTestApp(stager *stubStager, artifacts *stubArtifacts) *App {
	app := NewApp(zerolog.Nop(), stager, &stubVideos{}, &stubClassifier{}, artifacts)
	app.HTTPClient = &http.Client{Transport: fetchTransport{}}
	return app
}

func doGenerate(t *testing.T, app *App, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(body))
	w := httptest.NewRecorder()
	app.Generate(w, req)
	return w
}

func fourVariants() []string {
	return []string{
		"https://out.test/1.png",
		"https://out.test/2.png",
		"https://out.test/3.png",
		"https://out.test/4.png",
	}
}

func TestGenerateMissingFieldsIs400WithoutUpstreamCalls(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing image", `{"style":"Modern"}`},
		{"missing style", `{"image":"data:image/png;base64,AAAA"}`},
		{"missing both", `{}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stager := &stubStager{urls: fourVariants()}
			artifacts := &stubArtifacts{enabled: true, originalURL: "https://cdn.test/orig.png"}
			app := newTestApp(stager, artifacts)

			w := doGenerate(t, app, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if stager.calls != 0 {
				t.Fatalf("stager called %d times, want 0", stager.calls)
			}
			if artifacts.originalCalls != 0 || artifacts.generatedCalls != 0 || len(artifacts.inserted) != 0 {
				t.Fatalf("artifact store touched on validation failure")
			}
		})
	}
}

func TestGenerateZeroImagesIs500(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		stager := &stubStager{err: &domain.GenerationError{Detail: "No images generated"}}
		artifacts := &stubArtifacts{enabled: enabled, originalURL: "https://cdn.test/orig.png"}
		app := newTestApp(stager, artifacts)

		w := doGenerate(t, app, `{"image":"data:image/png;base64,AAAA","style":"Modern"}`)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500 (storage enabled=%v)", w.Code, enabled)
		}
		if !strings.Contains(w.Body.String(), "No images generated") {
			t.Fatalf("body missing detail: %s", w.Body.String())
		}
		if !strings.Contains(w.Body.String(), "Failed to generate image") {
			t.Fatalf("body missing error message: %s", w.Body.String())
		}
	}
}

func TestGenerateWithoutStorageStillSucceeds(t *testing.T) {
	stager := &stubStager{urls: fourVariants()}
	artifacts := &stubArtifacts{enabled: false}
	app := newTestApp(stager, artifacts)

	w := doGenerate(t, app, `{"image":"data:image/png;base64,AAAA","style":"Modern"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		GeneratedImages []string `json:"generatedImages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.GeneratedImages) != 4 {
		t.Fatalf("got %d images, want 4", len(resp.GeneratedImages))
	}
	if artifacts.originalCalls != 0 || artifacts.generatedCalls != 0 || len(artifacts.inserted) != 0 {
		t.Fatalf("artifact store must not be called when unconfigured")
	}
}

func TestGenerateOriginalUploadFailureDoesNotFailRequest(t *testing.T) {
	stager := &stubStager{urls: fourVariants()}
	artifacts := &stubArtifacts{enabled: true, originalErr: io.ErrUnexpectedEOF}
	app := newTestApp(stager, artifacts)

	w := doGenerate(t, app, `{"image":"data:image/png;base64,AAAA","style":"Modern"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite upload failure", w.Code)
	}
	if len(artifacts.inserted) != 1 {
		t.Fatalf("inserted %d records, want 1", len(artifacts.inserted))
	}
	if artifacts.inserted[0].OriginalImageURL != "" {
		t.Fatalf("record original url = %q, want empty", artifacts.inserted[0].OriginalImageURL)
	}
}

func TestGenerateNoRetryOnUpstreamFailure(t *testing.T) {
	stager := &stubStager{err: &domain.UpstreamError{Provider: "fal", Status: http.StatusServiceUnavailable}}
	app := newTestApp(stager, &stubArtifacts{})

	w := doGenerate(t, app, `{"image":"data:image/png;base64,AAAA","style":"Modern"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if stager.calls != 1 {
		t.Fatalf("stager called %d times, want exactly 1", stager.calls)
	}
}

func TestGenerateLivingRoomPrompt(t *testing.T) {
	stager := &stubStager{urls: fourVariants()}
	app := newTestApp(stager, &stubArtifacts{})

	w := doGenerate(t, app, `{"image":"data:image/png;base64,AAAA","style":"Modern","roomType":"living_room"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(stager.prompts) != 1 {
		t.Fatalf("captured %d prompts, want 1", len(stager.prompts))
	}
	prompt := stager.prompts[0]
	if !strings.Contains(prompt, "Virtual staging of a living room in Modern style") {
		t.Fatalf("prompt missing staging clause:\n%s", prompt)
	}
	if !strings.Contains(prompt, "flat-screen TV") {
		t.Fatalf("prompt missing TV clause:\n%s", prompt)
	}
}

func TestGeneratePersistsRecordAndRespondsWithProviderURLs(t *testing.T) {
	stager := &stubStager{urls: fourVariants()}
	artifacts := &stubArtifacts{enabled: true, originalURL: "https://cdn.test/gen/original.png"}
	app := newTestApp(stager, artifacts)

	w := doGenerate(t, app, `{"image":"data:image/png;base64,AAAA","style":"Scandinavian","roomType":"bedroom"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		GeneratedImages []string `json:"generatedImages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// Response carries the provider URLs, not the mirrored copies.
	if resp.GeneratedImages[0] != "https://out.test/1.png" {
		t.Fatalf("response urls = %v", resp.GeneratedImages)
	}

	if artifacts.generatedCalls != 4 {
		t.Fatalf("mirrored %d variants, want 4", artifacts.generatedCalls)
	}
	if len(artifacts.inserted) != 1 {
		t.Fatalf("inserted %d records, want 1", len(artifacts.inserted))
	}
	rec := artifacts.inserted[0]
	if rec.Kind != domain.OutcomeKindImage || rec.Image == nil {
		t.Fatalf("record kind = %v", rec.Kind)
	}
	if len(rec.Image.URLs) != 4 {
		t.Fatalf("record has %d urls, want 4", len(rec.Image.URLs))
	}
	if rec.Style != "Scandinavian" || rec.RoomType != "bedroom" {
		t.Fatalf("record metadata = %s/%s", rec.Style, rec.RoomType)
	}
	if rec.OriginalImageURL != "https://cdn.test/gen/original.png" {
		t.Fatalf("record original url = %q", rec.OriginalImageURL)
	}
	if rec.ID == "" {
		t.Fatalf("record must carry the generation id")
	}
	if !strings.Contains(rec.Prompt, "Virtual staging of a bedroom in Scandinavian style") {
		t.Fatalf("record prompt = %s", rec.Prompt)
	}
}

func TestGenerateVariantUploadFailuresAreBestEffort(t *testing.T) {
	stager := &stubStager{urls: fourVariants()}
	artifacts := &stubArtifacts{enabled: true, originalURL: "https://cdn.test/orig.png", uploadErr: io.ErrUnexpectedEOF}
	app := newTestApp(stager, artifacts)

	w := doGenerate(t, app, `{"image":"data:image/png;base64,AAAA","style":"Modern"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	// Every slot failed, so there is nothing to persist.
	if len(artifacts.inserted) != 0 {
		t.Fatalf("inserted %d records with zero mirrored variants, want 0", len(artifacts.inserted))
	}
}

func TestGenerateInvalidBodyIs400(t *testing.T) {
	stager := &stubStager{urls: fourVariants()}
	app := newTestApp(stager, &stubArtifacts{})

	w := doGenerate(t, app, `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if stager.calls != 0 {
		t.Fatalf("stager called on malformed body")
	}
}
