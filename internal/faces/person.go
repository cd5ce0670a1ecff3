package faces

import (
	"context"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/example/face-pipeline/internal/detection"
	"github.com/example/face-pipeline/internal/faults"
)

// PersonBoxEstimator approximates face regions from person boxes when only a
// generic object detector is available. An image without a usable region
// fails with NoFacesDetected.
type PersonBoxEstimator struct {
	detector detection.PersonDetector
	logger   *zap.Logger
}

// NewPersonBoxEstimator wires an estimator around an already connected detector.
func NewPersonBoxEstimator(detector detection.PersonDetector, logger *zap.Logger) *PersonBoxEstimator {
	return &PersonBoxEstimator{detector: detector, logger: logger.Named("person_box_estimator")}
}

// Extract implements Extractor.
func (e *PersonBoxEstimator) Extract(ctx context.Context, img image.Image) ([]CroppedFace, error) {
	people, err := e.detector.DetectPeople(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("detect people: %w", err)
	}

	regions := make([]Region, 0, len(people))
	for _, p := range people {
		box, ok := EstimateFaceRegion(p.Box, img.Bounds())
		if !ok {
			e.logger.Debug("skipping degenerate face region", zap.Stringer("person", p.Box))
			continue
		}
		regions = append(regions, Region{Bounds: box, Method: MethodEstimated})
	}

	crops, err := cropRegions(ctx, img, regions)
	if err != nil {
		return nil, err
	}
	if len(crops) == 0 {
		return nil, faults.NoFacesDetected()
	}
	return crops, nil
}
