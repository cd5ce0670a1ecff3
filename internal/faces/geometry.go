package faces

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// Person-box heuristic. The head is assumed to sit in the top HeadHeightRatio
// of a person box; the region is then grown by MarginRatio on each axis.
const (
	HeadHeightRatio = 0.4
	MarginRatio     = 0.10
)

// CropJPEGQuality is the encoder quality for cropped faces.
const CropJPEGQuality = 95

// EstimateFaceRegion derives a face region from a person box. ok is false
// when nothing with positive area is left after clamping to bounds.
func EstimateFaceRegion(person, bounds image.Rectangle) (image.Rectangle, bool) {
	x1, y1 := float64(person.Min.X), float64(person.Min.Y)
	x2, y2 := float64(person.Max.X), float64(person.Max.Y)

	faceY1 := y1
	faceY2 := y1 + HeadHeightRatio*(y2-y1)

	marginX := MarginRatio * (x2 - x1)
	marginY := MarginRatio * (faceY2 - faceY1)

	faceX1 := x1 - marginX
	faceX2 := x2 + marginX
	faceY1 -= marginY
	faceY2 += marginY

	r := image.Rectangle{
		Min: image.Point{X: int(faceX1), Y: int(faceY1)},
		Max: image.Point{X: int(faceX2), Y: int(faceY2)},
	}
	return ClampRect(r, bounds)
}

// ClampRect clips r to bounds. ok is false when no area is left, including
// when r lies entirely outside bounds.
func ClampRect(r, bounds image.Rectangle) (image.Rectangle, bool) {
	r = r.Intersect(bounds)
	if r.Empty() {
		return image.Rectangle{}, false
	}
	return r, true
}

// CropFace cuts region out of img, resizes it to FaceSize x FaceSize without
// preserving aspect ratio and encodes it as jpeg.
func CropFace(img image.Image, region image.Rectangle) ([]byte, error) {
	if region.Empty() || !region.In(img.Bounds()) {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", region, img.Bounds())
	}
	dst := image.NewRGBA(image.Rect(0, 0, FaceSize, FaceSize))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, region, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: CropJPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
