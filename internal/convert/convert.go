package convert

import (
	"bytes"
	"fmt"
	"image"

	"github.com/example/face-pipeline/internal/faults"
	"github.com/example/face-pipeline/internal/media"
)

// DefaultMaxPayloadMB bounds the decoded payload before any image decode.
const DefaultMaxPayloadMB = 5.0

const bytesPerMB = 1024 * 1024

// Normalizer validates an encoded image and re-encodes it to a target format.
// It holds no per-request state and is safe for concurrent use.
type Normalizer struct {
	maxPayloadMB float64
	decodeImage  func([]byte) (image.Image, media.Format, error)
}

// NewNormalizer returns a Normalizer enforcing maxPayloadMB. Non-positive
// values fall back to DefaultMaxPayloadMB.
func NewNormalizer(maxPayloadMB float64) *Normalizer {
	if maxPayloadMB <= 0 {
		maxPayloadMB = DefaultMaxPayloadMB
	}
	return &Normalizer{maxPayloadMB: maxPayloadMB, decodeImage: media.Decode}
}

// Normalize converts input (framed or bare base64) to target and returns the
// result framed as a data URI. Checks run in a fixed order: input framing,
// target format, base64, payload size, image decode.
func (n *Normalizer) Normalize(input, target string) (string, error) {
	uri, framed, err := media.ParseDataURI(input)
	if err != nil {
		return "", faults.InvalidEncoding("Invalid data URI framing", err)
	}
	if framed {
		if _, err := media.ParseFormat(uri.Subtype); err != nil {
			return "", faults.UnsupportedFormat(fmt.Sprintf("Unsupported input format: %s", uri.Subtype))
		}
	}

	format, err := media.ParseFormat(target)
	if err != nil {
		return "", faults.UnsupportedFormat(fmt.Sprintf("Unsupported target format: %s", target))
	}

	if framed && uri.Encoding != media.Base64Scheme {
		return "", faults.InvalidEncoding(fmt.Sprintf("Unsupported payload encoding in %q framing", uri.MIME), nil)
	}
	data, err := media.DecodeBase64(uri.Payload)
	if err != nil {
		return "", faults.InvalidEncoding("Invalid base64 encoding", err)
	}

	sizeMB := float64(len(data)) / bytesPerMB
	if sizeMB > n.maxPayloadMB {
		return "", faults.PayloadTooLarge(fmt.Sprintf("Base64 image too large (%.2f MB)", sizeMB))
	}

	img, _, err := n.decodeImage(data)
	if err != nil {
		return "", faults.DecodeFailure("Cannot identify image data", err)
	}

	var buf bytes.Buffer
	if err := media.Encode(&buf, img, format); err != nil {
		return "", faults.DecodeFailure(fmt.Sprintf("Cannot encode image as %s", format), err)
	}
	return media.Frame(format, media.EncodeBase64(buf.Bytes())), nil
}
