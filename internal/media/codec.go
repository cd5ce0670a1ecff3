package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/HugoSmits86/nativewebp"
	_ "golang.org/x/image/webp"
)

// DefaultJPEGQuality matches the quality most image libraries default to
// when re-encoding without an explicit setting.
const DefaultJPEGQuality = 75

// Decode parses an encoded image in any allowed format.
func Decode(data []byte) (image.Image, Format, error) {
	img, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	f, err := ParseFormat(name)
	if err != nil {
		return nil, "", err
	}
	return img, f, nil
}

// Encode writes img in the given format. JPEG output drops any alpha channel
// first; see FlattenAlpha.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case JPEG:
		if HasAlpha(img) {
			img = FlattenAlpha(img)
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: DefaultJPEGQuality})
	case WebP:
		return nativewebp.Encode(w, img, nil)
	default:
		return fmt.Errorf("no encoder for format %q", f)
	}
}

// HasAlpha reports whether the image's pixel model carries an alpha channel.
func HasAlpha(img image.Image) bool {
	switch m := img.(type) {
	case *image.NRGBA, *image.RGBA, *image.NRGBA64, *image.RGBA64, *image.NYCbCrA, *image.Alpha, *image.Alpha16:
		return true
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// FlattenAlpha drops the alpha channel, keeping the straight (non
// premultiplied) colour values. Nothing is composited against a background.
func FlattenAlpha(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			s := src.Pix[off : off+b.Dx()*4]
			d := dst.Pix[y*dst.Stride : y*dst.Stride+b.Dx()*4]
			for i := 0; i < len(s); i += 4 {
				d[i], d[i+1], d[i+2], d[i+3] = s[i], s[i+1], s[i+2], 0xff
			}
		}
		return dst
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return dst
}
