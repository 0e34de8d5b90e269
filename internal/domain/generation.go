package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// OutcomeKind discriminates what a generation produced.
type OutcomeKind string

const (
	OutcomeKindImage OutcomeKind = "image"
	OutcomeKindVideo OutcomeKind = "video"
)

// ImageSize carries the requested output dimensions for staging.
type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ImageOutcome holds the mirrored URLs of the staged variants, in slot order.
type ImageOutcome struct {
	URLs []string `json:"urls"`
}

// VideoOutcome holds a fly-through video and the two frames it interpolates.
type VideoOutcome struct {
	VideoURL     string    `json:"video_url"`
	SourceImages [2]string `json:"source_images"`
}

// Video is the result of a fly-through generation.
type Video struct {
	URL      string
	FileName string
	FileSize int64
}

// GenerationRecord is the durable history entry for one generation. It is
// created exactly once per successful orchestration and never mutated.
// Exactly one of Image/Video is set, matching Kind.
type GenerationRecord struct {
	ID               string
	Kind             OutcomeKind
	Style            string
	RoomType         string
	Prompt           string
	OriginalImageURL string
	Image            *ImageOutcome
	Video            *VideoOutcome
	CreatedAt        time.Time
}

// MarshalOutcome serializes the active outcome variant for storage.
func (r *GenerationRecord) MarshalOutcome() ([]byte, error) {
	switch r.Kind {
	case OutcomeKindImage:
		if r.Image == nil {
			return nil, errors.New("image record without image outcome")
		}
		return json.Marshal(r.Image)
	case OutcomeKindVideo:
		if r.Video == nil {
			return nil, errors.New("video record without video outcome")
		}
		return json.Marshal(r.Video)
	default:
		return nil, errors.New("unknown outcome kind")
	}
}

// UnmarshalOutcome restores the outcome variant matching the record kind.
func (r *GenerationRecord) UnmarshalOutcome(data []byte) error {
	switch r.Kind {
	case OutcomeKindImage:
		out := &ImageOutcome{}
		if err := json.Unmarshal(data, out); err != nil {
			return err
		}
		r.Image = out
		return nil
	case OutcomeKindVideo:
		out := &VideoOutcome{}
		if err := json.Unmarshal(data, out); err != nil {
			return err
		}
		r.Video = out
		return nil
	default:
		return errors.New("unknown outcome kind")
	}
}
