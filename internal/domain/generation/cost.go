package generation

import (
	"pixmuse/internal/pkg/errs"
)

var (
	ErrUnknownModel      = errs.New("unknown model")
	ErrInvalidParams     = errs.New("invalid generation parameters")
	ErrModelKindMismatch = errs.New("model does not support requested kind")
)

type modelSpec struct {
	kind Kind
	// image: credits per image; video: credits per started 5s block
	unitCost int
	// video generations are too slow for the inline fallback path
	syncCapable bool
}

var models = map[string]modelSpec{
	"flux-pro":       {kind: KindImage, unitCost: 2, syncCapable: true},
	"flux-schnell":   {kind: KindImage, unitCost: 1, syncCapable: true},
	"nano-banana":    {kind: KindImage, unitCost: 1, syncCapable: true},
	"kling-standard": {kind: KindVideo, unitCost: 5, syncCapable: false},
	"kling-pro":      {kind: KindVideo, unitCost: 10, syncCapable: false},
}

const (
	maxImageCount     = 8
	maxVideoDuration  = 30
	videoBlockSeconds = 5
)

// Validate checks params against the model table. Kind/model mismatch and
// out-of-range counts are caught here, before any billing or enqueueing.
func Validate(kind Kind, p Params) error {
	spec, ok := models[p.Model]
	if !ok {
		return ErrUnknownModel
	}
	if spec.kind != kind {
		return ErrModelKindMismatch
	}
	if p.Prompt == "" {
		return errs.Mark(errs.New("prompt is required"), ErrInvalidParams)
	}
	switch kind {
	case KindImage:
		if p.Count < 1 || p.Count > maxImageCount {
			return errs.Mark(errs.New("image count out of range"), ErrInvalidParams)
		}
	case KindVideo:
		if p.DurationSec < 1 || p.DurationSec > maxVideoDuration {
			return errs.Mark(errs.New("video duration out of range"), ErrInvalidParams)
		}
	}
	return nil
}

// SyncCapable reports whether the model may be executed inline on the
// synchronous fallback path.
func SyncCapable(model string) bool {
	spec, ok := models[model]
	return ok && spec.syncCapable
}

// Cost computes the deterministic credit cost of a request.
func Cost(kind Kind, p Params) (int, error) {
	if err := Validate(kind, p); err != nil {
		return 0, err
	}
	spec := models[p.Model]
	switch kind {
	case KindImage:
		return spec.unitCost * p.Count, nil
	case KindVideo:
		blocks := (p.DurationSec + videoBlockSeconds - 1) / videoBlockSeconds
		return spec.unitCost * blocks, nil
	}
	return 0, ErrInvalidParams
}
