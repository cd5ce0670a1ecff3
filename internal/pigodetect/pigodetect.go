package pigodetect

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"os"

	pigo "github.com/esimov/pigo/core"

	"github.com/example/face-pipeline/internal/detection"
)

// Params tunes the cascade scan.
type Params struct {
	MinSize        int
	MaxSize        int
	ShiftFactor    float64
	ScaleFactor    float64
	IoUThreshold   float64
	ScoreThreshold float32
}

// DefaultParams are the values the pigo facefinder cascade is usually run with.
func DefaultParams() Params {
	return Params{
		MinSize:        20,
		MaxSize:        1000,
		ShiftFactor:    0.1,
		ScaleFactor:    1.1,
		IoUThreshold:   0.2,
		ScoreThreshold: 5.0,
	}
}

// Locator is a detection.FaceLocator over an unpacked pigo cascade. The
// classifier is only read after Load, so one Locator serves all requests.
type Locator struct {
	classifier *pigo.Pigo
	params     Params
}

// Load reads and unpacks the facefinder cascade at path.
func Load(path string, params Params) (*Locator, error) {
	cascade, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cascade %s: %w", path, err)
	}
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("unpack cascade %s: %w", path, err)
	}
	return &Locator{classifier: classifier, params: params}, nil
}

// LocateFaces implements detection.FaceLocator.
func (l *Locator) LocateFaces(ctx context.Context, img image.Image) ([]detection.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src := toNRGBA(img)
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()

	params := pigo.CascadeParams{
		MinSize:     l.params.MinSize,
		MaxSize:     l.params.MaxSize,
		ShiftFactor: l.params.ShiftFactor,
		ScaleFactor: l.params.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(src),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}
	dets := l.classifier.RunCascade(params, 0.0)
	dets = l.classifier.ClusterDetections(dets, l.params.IoUThreshold)

	offset := img.Bounds().Min
	out := make([]detection.Detection, 0, len(dets))
	for _, d := range dets {
		if d.Q < l.params.ScoreThreshold {
			continue
		}
		out = append(out, detection.Detection{
			Box:   squareBox(d.Row, d.Col, d.Scale).Add(offset),
			Score: d.Q,
			Label: "face",
		})
	}
	return out, nil
}

// squareBox converts a pigo (row, col, scale) hit into a pixel rectangle.
func squareBox(row, col, scale int) image.Rectangle {
	half := scale / 2
	return image.Rect(col-half, row-half, col-half+scale, row-half+scale)
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
