package handlers

import (
	"net/http"

	"homestage/internal/staging"
)

// Styles returns the selectable style and room-type catalogs.
func (a *App) Styles(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"styles": staging.Styles(),
		"rooms":  staging.RoomTypes(),
	})
}
