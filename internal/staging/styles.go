package staging

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Style is a selectable décor style.
type Style struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// RoomType is a selectable room category.
type RoomType struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var styleCatalog = []Style{
	{ID: "Modern", Description: "Clean lines, minimal clutter, neutral palette with bold accents, sleek low-profile furniture."},
	{ID: "Scandinavian", Description: "Light wood, cozy textiles, white walls, abundant natural light, functional simplicity."},
	{ID: "Industrial", Description: "Raw materials, exposed metal and brick, leather seating, urban loft character."},
	{ID: "Bohemian", Description: "Eclectic layered textiles, plants, warm colors, rattan and vintage pieces."},
	{ID: "Minimalist", Description: "Essential furniture only, open space, monochrome palette, hidden storage."},
	{ID: "Contemporary", Description: "Current trends, curved forms, mixed textures, statement lighting."},
}

// roomTypeIDs matches the category set the vision classifier is instructed
// to use; "unknown" is a classifier fallback, not a selectable type.
var roomTypeIDs = []string{
	"living_room", "bedroom", "kitchen", "dining_room",
	"bathroom", "office", "studio", "outdoor",
}

var titleCaser = cases.Title(language.English)

// Styles returns the selectable style catalog with display labels.
func Styles() []Style {
	out := make([]Style, len(styleCatalog))
	for i, s := range styleCatalog {
		s.Label = titleCaser.String(s.ID)
		out[i] = s
	}
	return out
}

// RoomTypes returns the selectable room categories with display labels.
func RoomTypes() []RoomType {
	out := make([]RoomType, len(roomTypeIDs))
	for i, id := range roomTypeIDs {
		out[i] = RoomType{ID: id, Label: titleCaser.String(strings.ReplaceAll(id, "_", " "))}
	}
	return out
}

// StyleDescription resolves the catalog description for a style, falling back
// to the raw style name for unknown styles so free-form values still work.
func StyleDescription(style string) string {
	for _, s := range styleCatalog {
		if strings.EqualFold(s.ID, style) {
			return s.Description
		}
	}
	return style
}
