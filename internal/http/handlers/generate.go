package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"homestage/internal/artifact"
	"homestage/internal/domain"
	"homestage/internal/staging"
)

type generateRequest struct {
	Image     string            `json:"image"`
	Style     string            `json:"style"`
	RoomType  string            `json:"roomType"`
	ImageSize *domain.ImageSize `json:"imageSize"`
}

type generateResponse struct {
	GeneratedImages []string `json:"generatedImages"`
}

type originalUpload struct {
	url string
	err error
}

// Generate runs the staging pipeline: validate, build the prompt, run
// generation and the original-image upload concurrently, mirror the variants,
// persist one record, respond. The original upload is started before
// generation completes so its latency hides behind the much longer
// generation call; its result is only consumed at the join.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}
	if req.Image == "" || req.Style == "" {
		a.error(w, http.StatusBadRequest, "Missing image or style", "")
		return
	}

	prompt, negative := staging.BuildStagingPrompt(req.Style, req.RoomType)
	generationID := uuid.NewString()
	ctx := r.Context()

	origCh := make(chan originalUpload, 1)
	if a.Artifacts.Enabled() {
		go func() {
			data, contentType, err := artifact.DecodeDataURI(req.Image)
			if err != nil {
				origCh <- originalUpload{err: err}
				return
			}
			url, err := a.Artifacts.UploadOriginal(ctx, generationID, data, contentType)
			origCh <- originalUpload{url: url, err: err}
		}()
	} else {
		origCh <- originalUpload{}
	}

	urls, genErr := a.Stager.StageRoom(ctx, req.Image, prompt, negative, req.ImageSize)
	orig := <-origCh

	if orig.err != nil {
		// Generation success is the success criterion, not storage.
		a.Logger.Warn().Err(orig.err).Str("generation_id", generationID).Msg("original upload failed")
	}
	if genErr != nil {
		a.Logger.Error().Err(genErr).Str("generation_id", generationID).Msg("staging failed")
		a.fail(w, genErr, "Failed to generate image")
		return
	}

	if a.Artifacts.Enabled() {
		stored := a.mirrorVariants(ctx, generationID, urls)
		if len(stored) > 0 {
			rec := &domain.GenerationRecord{
				ID:               generationID,
				Kind:             domain.OutcomeKindImage,
				Style:            req.Style,
				RoomType:         req.RoomType,
				Prompt:           prompt,
				OriginalImageURL: orig.url,
				Image:            &domain.ImageOutcome{URLs: stored},
			}
			if err := a.Artifacts.InsertRecord(ctx, rec); err != nil {
				a.Logger.Error().Err(err).Str("generation_id", generationID).Msg("record insert failed")
			}
		}
	}

	a.json(w, http.StatusOK, generateResponse{GeneratedImages: urls})
}

// mirrorVariants copies every generated variant into the artifact store
// concurrently. Each slot is best-effort: failures are logged and the slot
// dropped, the rest proceed. There is no rollback.
func (a *App) mirrorVariants(ctx context.Context, generationID string, urls []string) []string {
	results := make([]string, len(urls))
	var g errgroup.Group
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			data, err := a.fetch(ctx, u)
			if err != nil {
				a.Logger.Warn().Err(err).Int("slot", i).Msg("variant fetch failed")
				return nil
			}
			stored, err := a.Artifacts.UploadGenerated(ctx, generationID, i, data)
			if err != nil {
				a.Logger.Warn().Err(err).Int("slot", i).Msg("variant upload failed")
				return nil
			}
			results[i] = stored
			return nil
		})
	}
	_ = g.Wait()

	stored := make([]string, 0, len(results))
	for _, url := range results {
		if url != "" {
			stored = append(stored, url)
		}
	}
	return stored
}
