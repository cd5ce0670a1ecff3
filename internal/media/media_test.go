package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestParseDataURI(t *testing.T) {
	uri, framed, err := ParseDataURI("data:image/webp;base64,AAAA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !framed {
		t.Fatal("expected framed payload")
	}
	if uri.Subtype != "webp" || uri.Encoding != Base64Scheme || uri.Payload != "AAAA" {
		t.Fatalf("unexpected parse result: %+v", uri)
	}

	uri, framed, err = ParseDataURI("AAAA")
	if err != nil || framed || uri.Payload != "AAAA" {
		t.Fatalf("expected unframed passthrough, got %+v framed=%t err=%v", uri, framed, err)
	}

	if _, _, err := ParseDataURI("data:image/png;base64"); !errors.Is(err, ErrMalformedFraming) {
		t.Fatalf("expected malformed framing error, got %v", err)
	}
}

func TestStripFraming(t *testing.T) {
	if got := StripFraming("data:image/jpeg;base64,/9j/4AAQ"); got != "/9j/4AAQ" {
		t.Fatalf("expected prefix stripped, got %q", got)
	}
	if got := StripFraming("/9j/4AAQ"); got != "/9j/4AAQ" {
		t.Fatalf("expected unframed payload untouched, got %q", got)
	}
}

func TestFrameUsesFormatMIME(t *testing.T) {
	if got := Frame(WebP, "xyz"); got != "data:image/webp;base64,xyz" {
		t.Fatalf("unexpected framing: %q", got)
	}
}

func TestParseFormatRejectsAliases(t *testing.T) {
	for _, name := range []string{"jpg", "JPEG", "gif", ""} {
		if _, err := ParseFormat(name); err == nil {
			t.Errorf("expected %q to be rejected", name)
		}
	}
	for _, f := range Formats() {
		if _, err := ParseFormat(string(f)); err != nil {
			t.Errorf("expected %q to be accepted: %v", f, err)
		}
	}
}

func TestDecodeBase64ToleratesMissingPadding(t *testing.T) {
	got, err := DecodeBase64("aGk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "hi" {
		t.Fatalf("expected hi, got %q", got)
	}
	if _, err := DecodeBase64("!!!!"); err == nil {
		t.Fatal("expected error for invalid alphabet")
	}
}

func TestEncodeDecodeAllFormatsPreservesDimensions(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 37, 23))
	for y := 0; y < 23; y++ {
		for x := 0; x < 37; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 6), G: uint8(y * 10), B: 90, A: 200})
		}
	}
	for _, f := range Formats() {
		var buf bytes.Buffer
		if err := Encode(&buf, src, f); err != nil {
			t.Fatalf("%s: encode failed: %v", f, err)
		}
		img, got, err := Decode(buf.Bytes())
		if err != nil {
			t.Fatalf("%s: decode failed: %v", f, err)
		}
		if got != f {
			t.Errorf("expected decoded format %s, got %s", f, got)
		}
		if img.Bounds().Dx() != 37 || img.Bounds().Dy() != 23 {
			t.Errorf("%s: expected 37x23, got %v", f, img.Bounds())
		}
	}
}

func TestFlattenAlphaKeepsStraightColour(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 10})

	flat := FlattenAlpha(src)
	got := flat.RGBAAt(0, 0)
	if got != (color.RGBA{R: 200, G: 100, B: 50, A: 255}) {
		t.Fatalf("expected colour preserved with opaque alpha, got %+v", got)
	}
	if HasAlpha(image.NewYCbCr(image.Rect(0, 0, 1, 1), image.YCbCrSubsampleRatio420)) {
		t.Fatal("expected YCbCr to report no alpha")
	}
}
