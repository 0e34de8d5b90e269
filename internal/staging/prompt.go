package staging

import (
	"fmt"
	"strings"
)

// negativePrompt penalizes everything that would break the staging illusion:
// altered geometry, moved camera, non-photographic output.
const negativePrompt = "blurry, distorted walls, warped geometry, changed room layout, " +
	"different camera angle, moved windows or doors, low quality, cartoon, " +
	"illustration, painting style, text, watermark, people"

// tvClause is a fixed business rule for living rooms, not configurable per
// request.
const tvClause = "IMPORTANT: If a media console or TV stand is visible, place a large " +
	"modern flat-screen TV on it. Replace any painting or artwork above the unit with the TV."

const videoPrompt = "Smooth continuous camera movement through an interior room. " +
	"Professional real estate walkthrough video. The camera glides slowly and smoothly " +
	"from one viewpoint to another. Cinematic, steady dolly shot, elegant room tour. " +
	"High quality, consistent lighting."

const videoNegativePrompt = "blur, distort, low quality, shaky camera, sudden movements, " +
	"flickering, artifacts, glitches, jerky motion, cuts, transitions, morphing"

// BuildStagingPrompt assembles the instruction pair for one staging request.
// The preserve-structure and replace-only-furniture clauses are a product
// correctness requirement: the model must never touch walls, windows, floors,
// ceiling, or the camera framing.
func BuildStagingPrompt(style, roomType string) (prompt, negative string) {
	roomLabel := "room"
	if roomType != "" {
		roomLabel = strings.ReplaceAll(roomType, "_", " ")
	}
	description := StyleDescription(style)

	var b strings.Builder
	b.WriteString("Strictly preserve exact room structure, perspective, and original dimensions. ")
	b.WriteString("Do NOT change the camera angle or field of view.\n")
	fmt.Fprintf(&b, "Virtual staging of a %s in %s style. %s\n", roomLabel, style, description)
	b.WriteString("High quality, photorealistic, interior design, 8k resolution.\n")
	fmt.Fprintf(&b, "Keep all walls, windows, floors, and ceiling exactly as they are. Only replace movable furniture and decor to match %s.", style)
	if roomType == "living_room" {
		b.WriteString("\n")
		b.WriteString(tvClause)
	}
	return b.String(), negativePrompt
}

// VideoPrompt returns the constant instruction pair for a two-frame
// fly-through: a smooth camera dolly, with cuts, flicker, and morphing
// penalized.
func VideoPrompt() (prompt, negative string) {
	return videoPrompt, videoNegativePrompt
}
