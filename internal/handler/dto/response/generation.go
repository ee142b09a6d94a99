package response

import (
	"pixmuse/internal/usecase/commands"

	"github.com/google/uuid"
)

// GenerationAcceptedResponse is the async dispatch answer: the request id
// to follow plus where to poll for it.
type GenerationAcceptedResponse struct {
	RequestID uuid.UUID `json:"requestId"`
	StatusURL string    `json:"statusUrl"`
}

type ArtifactResponse struct {
	URL  string `json:"url"`
	Mime string `json:"mime,omitempty"`
}

// GenerationResponse is the inline synchronous result.
type GenerationResponse struct {
	SetID     uuid.UUID          `json:"setId"`
	Artifacts []ArtifactResponse `json:"artifacts"`
}

func FromGenerateResult(result *commands.GenerateResult) *GenerationResponse {
	artifacts := make([]ArtifactResponse, len(result.Artifacts))
	for i, a := range result.Artifacts {
		artifacts[i] = ArtifactResponse{URL: a.URL, Mime: a.Mime}
	}
	return &GenerationResponse{
		SetID:     result.SetID,
		Artifacts: artifacts,
	}
}
