package faces

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"go.uber.org/zap"

	"github.com/example/face-pipeline/internal/detection"
	"github.com/example/face-pipeline/internal/faults"
)

type stubLocator struct {
	faces []detection.Detection
	err   error
	calls int
}

func (s *stubLocator) LocateFaces(ctx context.Context, img image.Image) ([]detection.Detection, error) {
	s.calls++
	return s.faces, s.err
}

type stubPersonDetector struct {
	people []detection.Detection
	err    error
}

func (s *stubPersonDetector) DetectPeople(ctx context.Context, img image.Image) ([]detection.Detection, error) {
	return s.people, s.err
}

func fixtureImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 60, A: 255})
		}
	}
	return img
}

func box(x1, y1, x2, y2 int) detection.Detection {
	return detection.Detection{Box: image.Rect(x1, y1, x2, y2), Score: 0.9, Label: detection.PersonLabel}
}

func assertFaceSize(t *testing.T, crops []CroppedFace) {
	t.Helper()
	for i, c := range crops {
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(c.JPEG))
		if err != nil {
			t.Fatalf("crop %d is not a jpeg: %v", i, err)
		}
		if cfg.Width != FaceSize || cfg.Height != FaceSize {
			t.Fatalf("crop %d: expected %dx%d, got %dx%d", i, FaceSize, FaceSize, cfg.Width, cfg.Height)
		}
	}
}

func TestEstimateFaceRegion(t *testing.T) {
	bounds := image.Rect(0, 0, 640, 480)
	cases := []struct {
		name   string
		person image.Rectangle
		want   image.Rectangle
		ok     bool
	}{
		{"interior", image.Rect(100, 100, 200, 300), image.Rect(90, 92, 210, 188), true},
		{"clamped at origin", image.Rect(0, 0, 50, 100), image.Rect(0, 0, 55, 44), true},
		{"clamped at far edge", image.Rect(600, 400, 640, 480), image.Rect(596, 396, 640, 435), true},
		{"outside image", image.Rect(700, 10, 800, 100), image.Rectangle{}, false},
		{"zero height", image.Rect(10, 10, 50, 10), image.Rectangle{}, false},
	}
	for _, tc := range cases {
		got, ok := EstimateFaceRegion(tc.person, bounds)
		if ok != tc.ok || got != tc.want {
			t.Errorf("%s: expected %v (ok=%t), got %v (ok=%t)", tc.name, tc.want, tc.ok, got, ok)
		}
	}
}

func TestEstimateFaceRegionStaysInBounds(t *testing.T) {
	bounds := image.Rect(0, 0, 97, 61)
	for x1 := -40; x1 < 120; x1 += 7 {
		for y1 := -30; y1 < 80; y1 += 5 {
			for _, size := range []int{1, 3, 10, 45, 200} {
				person := image.Rect(x1, y1, x1+size, y1+size*2)
				r, ok := EstimateFaceRegion(person, bounds)
				if !ok {
					continue
				}
				if r.Min.X < 0 || r.Min.X >= r.Max.X || r.Max.X > bounds.Dx() ||
					r.Min.Y < 0 || r.Min.Y >= r.Max.Y || r.Max.Y > bounds.Dy() {
					t.Fatalf("person %v produced out-of-bounds region %v", person, r)
				}
			}
		}
	}
}

func TestLandmarkDetectorCropsEveryFace(t *testing.T) {
	locator := &stubLocator{faces: []detection.Detection{
		{Box: image.Rect(10, 10, 60, 70)},
		{Box: image.Rect(100, 20, 140, 60)},
		{Box: image.Rect(150, 90, 400, 400)},
	}}
	d := NewLandmarkDetector(locator, zap.NewNop())

	crops, err := d.Extract(context.Background(), fixtureImage(200, 120))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(crops) != 3 {
		t.Fatalf("expected 3 faces, got %d", len(crops))
	}
	assertFaceSize(t, crops)
	if crops[2].Region.Bounds != image.Rect(150, 90, 200, 120) {
		t.Fatalf("expected overhanging box clamped, got %v", crops[2].Region.Bounds)
	}
	for _, c := range crops {
		if c.Region.Method != MethodExact {
			t.Fatalf("expected exact method, got %s", c.Region.Method)
		}
	}
}

func TestLandmarkDetectorReturnsEmptyWithoutFaces(t *testing.T) {
	d := NewLandmarkDetector(&stubLocator{}, zap.NewNop())
	crops, err := d.Extract(context.Background(), fixtureImage(64, 64))
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(crops) != 0 {
		t.Fatalf("expected no faces, got %d", len(crops))
	}
}

func TestLandmarkDetectorPropagatesModelError(t *testing.T) {
	boom := errors.New("model crashed")
	d := NewLandmarkDetector(&stubLocator{err: boom}, zap.NewNop())
	if _, err := d.Extract(context.Background(), fixtureImage(8, 8)); !errors.Is(err, boom) {
		t.Fatalf("expected model error, got %v", err)
	}
}

func TestPersonBoxEstimatorCropsHeads(t *testing.T) {
	det := &stubPersonDetector{people: []detection.Detection{
		box(20, 10, 80, 110),
		box(-30, -30, 10, 50),
		box(500, 500, 600, 600),
	}}
	e := NewPersonBoxEstimator(det, zap.NewNop())

	crops, err := e.Extract(context.Background(), fixtureImage(160, 120))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(crops) != 2 {
		t.Fatalf("expected off-image person skipped, got %d crops", len(crops))
	}
	assertFaceSize(t, crops)
	if crops[0].Region.Bounds != image.Rect(14, 6, 86, 54) {
		t.Fatalf("unexpected first region %v", crops[0].Region.Bounds)
	}
	if crops[0].Region.Method != MethodEstimated {
		t.Fatalf("expected estimated method, got %s", crops[0].Region.Method)
	}
}

func TestPersonBoxEstimatorFailsWithoutPeople(t *testing.T) {
	e := NewPersonBoxEstimator(&stubPersonDetector{}, zap.NewNop())
	_, err := e.Extract(context.Background(), fixtureImage(64, 64))
	if !faults.Is(err, faults.KindNoFacesDetected) {
		t.Fatalf("expected no faces detected, got %v", err)
	}
}

func TestExtractStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := NewLandmarkDetector(&stubLocator{faces: []detection.Detection{{Box: image.Rect(0, 0, 4, 4)}}}, zap.NewNop())
	if _, err := d.Extract(ctx, fixtureImage(8, 8)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestCropFaceRejectsOutOfBoundsRegion(t *testing.T) {
	if _, err := CropFace(fixtureImage(10, 10), image.Rect(5, 5, 20, 20)); err == nil {
		t.Fatal("expected error for region outside image")
	}
}
