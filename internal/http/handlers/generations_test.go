package handlers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"homestage/internal/domain"
)

func requestWithID(method, target, id string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestGetGenerationNotFound(t *testing.T) {
	app := newTestApp(&stubStager{}, &stubArtifacts{})

	w := httptest.NewRecorder()
	app.GetGeneration(w, requestWithID(http.MethodGet, "/generations/missing", "missing"))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestGetGenerationReturnsRecord(t *testing.T) {
	rec := &domain.GenerationRecord{
		ID:    "gen-1",
		Kind:  domain.OutcomeKindImage,
		Style: "Modern",
		Image: &domain.ImageOutcome{URLs: []string{"https://cdn.test/1.jpeg"}},
	}
	artifacts := &stubArtifacts{records: map[string]*domain.GenerationRecord{"gen-1": rec}}
	app := newTestApp(&stubStager{}, artifacts)

	w := httptest.NewRecorder()
	app.GetGeneration(w, requestWithID(http.MethodGet, "/generations/gen-1", "gen-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var view struct {
		ID    string `json:"id"`
		Kind  string `json:"kind"`
		Style string `json:"style"`
		Image *struct {
			URLs []string `json:"urls"`
		} `json:"image"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.ID != "gen-1" || view.Kind != "image" || view.Style != "Modern" {
		t.Fatalf("view = %+v", view)
	}
	if view.Image == nil || len(view.Image.URLs) != 1 {
		t.Fatalf("view image = %+v", view.Image)
	}
}

func TestZipGenerationArchivesVariants(t *testing.T) {
	rec := &domain.GenerationRecord{
		ID:   "gen-1",
		Kind: domain.OutcomeKindImage,
		Image: &domain.ImageOutcome{URLs: []string{
			"https://cdn.test/1.jpeg",
			"https://cdn.test/2.jpeg",
		}},
	}
	artifacts := &stubArtifacts{records: map[string]*domain.GenerationRecord{"gen-1": rec}}
	app := newTestApp(&stubStager{}, artifacts)

	w := httptest.NewRecorder()
	app.ZipGeneration(w, requestWithID(http.MethodGet, "/generations/gen-1/zip", "gen-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("content type = %q", ct)
	}

	reader, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(reader.File) != 2 {
		t.Fatalf("archive holds %d files, want 2", len(reader.File))
	}
	if reader.File[0].Name != "staged_1.jpeg" || reader.File[1].Name != "staged_2.jpeg" {
		t.Fatalf("archive names = %s, %s", reader.File[0].Name, reader.File[1].Name)
	}
}

func TestZipGenerationRejectsVideoRecords(t *testing.T) {
	rec := &domain.GenerationRecord{
		ID:    "vid-1",
		Kind:  domain.OutcomeKindVideo,
		Video: &domain.VideoOutcome{VideoURL: "https://cdn.test/tour.mp4"},
	}
	artifacts := &stubArtifacts{records: map[string]*domain.GenerationRecord{"vid-1": rec}}
	app := newTestApp(&stubStager{}, artifacts)

	w := httptest.NewRecorder()
	app.ZipGeneration(w, requestWithID(http.MethodGet, "/generations/vid-1/zip", "vid-1"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestListGenerationsEmpty(t *testing.T) {
	app := newTestApp(&stubStager{}, &stubArtifacts{})

	w := httptest.NewRecorder()
	app.ListGenerations(w, httptest.NewRequest(http.MethodGet, "/generations", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Items == nil {
		t.Fatalf("items must be an empty array, not null")
	}
}
