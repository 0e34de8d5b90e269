package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"homestage/internal/domain"
	"homestage/internal/middleware"
	"homestage/internal/staging"
)

type videoRequest struct {
	StartImageURL string `json:"startImageUrl"`
	EndImageURL   string `json:"endImageUrl"`
}

type videoResponse struct {
	VideoURL string `json:"videoUrl"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
}

// GenerateVideo produces a fly-through between two generated stills. Unlike
// image staging, which is anonymous-callable, this endpoint requires an
// authenticated session; the check happens before any network call.
func (a *App) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}

	var req videoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}
	if req.StartImageURL == "" || req.EndImageURL == "" {
		a.error(w, http.StatusBadRequest, "Both start and end image URLs are required", "")
		return
	}

	video, err := a.Videos.Flythrough(r.Context(), req.StartImageURL, req.EndImageURL)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("video generation failed")
		a.fail(w, err, "Failed to generate video")
		return
	}

	if a.Artifacts.Enabled() {
		prompt, _ := staging.VideoPrompt()
		rec := &domain.GenerationRecord{
			ID:     uuid.NewString(),
			Kind:   domain.OutcomeKindVideo,
			Prompt: prompt,
			Video: &domain.VideoOutcome{
				VideoURL:     video.URL,
				SourceImages: [2]string{req.StartImageURL, req.EndImageURL},
			},
		}
		if err := a.Artifacts.InsertRecord(r.Context(), rec); err != nil {
			a.Logger.Error().Err(err).Msg("video record insert failed")
		}
	}

	a.json(w, http.StatusOK, videoResponse{
		VideoURL: video.URL,
		FileName: video.FileName,
		FileSize: video.FileSize,
	})
}
