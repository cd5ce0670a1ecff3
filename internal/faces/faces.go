package faces

import (
	"context"
	"image"
)

// FaceSize is the edge length of every cropped face.
const FaceSize = 256

// Method records which strategy produced a region.
type Method string

const (
	MethodExact     Method = "exact"
	MethodEstimated Method = "estimated"
)

// Region is a face box already expanded and clamped to its source image.
type Region struct {
	Bounds image.Rectangle
	Method Method
}

// CroppedFace is a FaceSize x FaceSize jpeg cut from Region.
type CroppedFace struct {
	Region Region
	JPEG   []byte
}

// Extractor turns a decoded image into cropped faces in detection order.
//
// The two implementations disagree on "nothing found": LandmarkDetector
// returns an empty slice, PersonBoxEstimator returns a NoFacesDetected
// failure. Callers depend on that difference, so it is kept even though the
// two strategies are otherwise interchangeable.
type Extractor interface {
	Extract(ctx context.Context, img image.Image) ([]CroppedFace, error)
}

func cropRegions(ctx context.Context, img image.Image, regions []Region) ([]CroppedFace, error) {
	out := make([]CroppedFace, 0, len(regions))
	for _, r := range regions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := CropFace(img, r.Bounds)
		if err != nil {
			return nil, err
		}
		out = append(out, CroppedFace{Region: r, JPEG: data})
	}
	return out, nil
}
