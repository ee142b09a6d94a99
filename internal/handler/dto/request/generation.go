package request

import (
	"strings"

	"pixmuse/internal/domain/generation"
)

type CreateGenerationRequest struct {
	Kind        string `json:"kind" binding:"required"`
	Model       string `json:"model" binding:"required"`
	Prompt      string `json:"prompt" binding:"required"`
	Count       int    `json:"count,omitempty"`
	AspectRatio string `json:"aspectRatio,omitempty"`
	DurationSec int    `json:"durationSec,omitempty"`
}

func (r CreateGenerationRequest) ToDomain() (generation.Kind, generation.Params, error) {
	kind, err := generation.NewKind(strings.TrimSpace(r.Kind))
	if err != nil {
		return "", generation.Params{}, err
	}

	count := r.Count
	if kind == generation.KindImage && count == 0 {
		count = 1
	}

	params := generation.Params{
		Model:       strings.TrimSpace(r.Model),
		Prompt:      strings.TrimSpace(r.Prompt),
		Count:       count,
		AspectRatio: strings.TrimSpace(r.AspectRatio),
		DurationSec: r.DurationSec,
	}
	return kind, params, nil
}
