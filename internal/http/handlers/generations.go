package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"homestage/internal/domain"
	"homestage/pkg/zip"
)

type recordView struct {
	ID               string                `json:"id"`
	Kind             string                `json:"kind"`
	Style            string                `json:"style,omitempty"`
	RoomType         string                `json:"roomType,omitempty"`
	Prompt           string                `json:"prompt"`
	OriginalImageURL string                `json:"originalImageUrl,omitempty"`
	Image            *domain.ImageOutcome  `json:"image,omitempty"`
	Video            *domain.VideoOutcome  `json:"video,omitempty"`
	CreatedAt        time.Time             `json:"createdAt"`
}

func viewOf(rec *domain.GenerationRecord) recordView {
	return recordView{
		ID:               rec.ID,
		Kind:             string(rec.Kind),
		Style:            rec.Style,
		RoomType:         rec.RoomType,
		Prompt:           rec.Prompt,
		OriginalImageURL: rec.OriginalImageURL,
		Image:            rec.Image,
		Video:            rec.Video,
		CreatedAt:        rec.CreatedAt,
	}
}

// ListGenerations returns recent generation history, newest first.
func (a *App) ListGenerations(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := a.Artifacts.ListRecords(r.Context(), limit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list generations failed")
		a.error(w, http.StatusInternalServerError, "Failed to load generations", "")
		return
	}
	items := make([]recordView, 0, len(records))
	for i := range records {
		items = append(items, viewOf(&records[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// GetGeneration returns one generation record by id.
func (a *App) GetGeneration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := a.Artifacts.GetRecord(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "Generation not found", "")
			return
		}
		a.Logger.Error().Err(err).Str("generation_id", id).Msg("get generation failed")
		a.error(w, http.StatusInternalServerError, "Failed to load generation", "")
		return
	}
	a.json(w, http.StatusOK, viewOf(rec))
}

// ZipGeneration streams all staged variants of one image generation as a
// single zip archive. Variants that cannot be fetched are skipped.
func (a *App) ZipGeneration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := a.Artifacts.GetRecord(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "Generation not found", "")
			return
		}
		a.Logger.Error().Err(err).Str("generation_id", id).Msg("get generation failed")
		a.error(w, http.StatusInternalServerError, "Failed to load generation", "")
		return
	}
	if rec.Kind != domain.OutcomeKindImage || rec.Image == nil {
		a.error(w, http.StatusBadRequest, "Only image generations can be archived", "")
		return
	}

	var assets []zip.Asset
	for i, url := range rec.Image.URLs {
		data, err := a.fetch(r.Context(), url)
		if err != nil {
			a.Logger.Warn().Err(err).Int("slot", i).Msg("archive fetch failed")
			continue
		}
		assets = append(assets, zip.Asset{
			Filename: fmt.Sprintf("staged_%d.jpeg", i+1),
			MIME:     "image/jpeg",
			Data:     data,
		})
	}
	if len(assets) == 0 {
		a.error(w, http.StatusInternalServerError, "No variants available to archive", "")
		return
	}

	archive := zip.ArchiveAssets(assets)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=staging-%s.zip", rec.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}
