package handlers

import (
	"encoding/json"
	"net/http"
)

type detectRequest struct {
	Image string `json:"image"`
}

type detectResponse struct {
	RoomType string `json:"roomType"`
}

// DetectRoom classifies the room category of an uploaded photo.
func (a *App) DetectRoom(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}
	if req.Image == "" {
		a.error(w, http.StatusBadRequest, "Image is required", "")
		return
	}

	roomType, err := a.Classifier.ClassifyRoom(r.Context(), req.Image)
	if err != nil {
		a.Logger.Error().Err(err).Msg("room detection failed")
		a.fail(w, err, "Failed to detect room type")
		return
	}

	a.json(w, http.StatusOK, detectResponse{RoomType: roomType})
}
