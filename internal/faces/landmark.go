package faces

import (
	"context"
	"fmt"
	"image"

	"go.uber.org/zap"

	"github.com/example/face-pipeline/internal/detection"
)

// LandmarkDetector crops the exact face boxes reported by a face locator.
// Finding no face is a valid, empty result.
type LandmarkDetector struct {
	locator detection.FaceLocator
	logger  *zap.Logger
}

// NewLandmarkDetector wires a detector around an already loaded locator.
func NewLandmarkDetector(locator detection.FaceLocator, logger *zap.Logger) *LandmarkDetector {
	return &LandmarkDetector{locator: locator, logger: logger.Named("landmark_detector")}
}

// Extract implements Extractor.
func (d *LandmarkDetector) Extract(ctx context.Context, img image.Image) ([]CroppedFace, error) {
	found, err := d.locator.LocateFaces(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("locate faces: %w", err)
	}

	regions := make([]Region, 0, len(found))
	for _, f := range found {
		box, ok := ClampRect(f.Box, img.Bounds())
		if !ok {
			d.logger.Debug("skipping face box outside image", zap.Stringer("box", f.Box))
			continue
		}
		regions = append(regions, Region{Bounds: box, Method: MethodExact})
	}
	d.logger.Debug("located faces", zap.Int("count", len(regions)))
	return cropRegions(ctx, img, regions)
}
