package detection

import (
	"context"
	"image"
)

// PersonLabel is the class name object detectors use for people.
const PersonLabel = "person"

// Detection is one box returned by a detection model, in source image pixels.
type Detection struct {
	Box   image.Rectangle
	Score float32
	Label string
}

// FaceLocator finds tight face boxes. Implementations hold a model loaded at
// start-up and must be safe for concurrent use.
type FaceLocator interface {
	LocateFaces(ctx context.Context, img image.Image) ([]Detection, error)
}

// PersonDetector finds people with a generic object-detection model. Only
// detections labelled PersonLabel are returned; scoring thresholds and
// suppression are the model's own.
type PersonDetector interface {
	DetectPeople(ctx context.Context, img image.Image) ([]Detection, error)
}
