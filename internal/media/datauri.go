package media

import (
	"encoding/base64"
	"errors"
	"strings"
)

const dataScheme = "data:"

// Base64Scheme is the only payload encoding the pipeline produces.
const Base64Scheme = "base64"

// ErrMalformedFraming is returned when a data URI prefix has no payload separator.
var ErrMalformedFraming = errors.New("malformed data uri framing")

// DataURI is the parsed form of `data:<mime>;<encoding>,<payload>`.
type DataURI struct {
	MIME     string
	Subtype  string
	Encoding string
	Payload  string
}

// IsFramed reports whether s starts with data URI framing.
func IsFramed(s string) bool {
	return strings.HasPrefix(s, dataScheme)
}

// ParseDataURI splits a framed payload. The boolean is false when s carries
// no framing, in which case the whole string is the payload.
func ParseDataURI(s string) (DataURI, bool, error) {
	if !IsFramed(s) {
		return DataURI{Payload: s}, false, nil
	}
	header, payload, ok := strings.Cut(s[len(dataScheme):], ",")
	if !ok {
		return DataURI{}, true, ErrMalformedFraming
	}
	mime, params, _ := strings.Cut(header, ";")
	uri := DataURI{MIME: mime, Payload: payload}
	if _, sub, ok := strings.Cut(mime, "/"); ok {
		uri.Subtype = sub
	}
	for _, p := range strings.Split(params, ";") {
		if p == Base64Scheme {
			uri.Encoding = Base64Scheme
		}
	}
	return uri, true, nil
}

// StripFraming returns the payload with any data URI prefix removed.
func StripFraming(s string) string {
	if !IsFramed(s) {
		return s
	}
	if _, payload, ok := strings.Cut(s, ","); ok {
		return payload
	}
	return s
}

// Frame wraps an already base64-encoded payload with framing for format.
func Frame(format Format, payload string) string {
	return dataScheme + format.MIME() + ";" + Base64Scheme + "," + payload
}

// DecodeBase64 decodes standard base64, tolerating missing padding and
// embedded line breaks.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
	if strings.HasSuffix(s, "=") || len(s)%4 == 0 {
		return base64.StdEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// EncodeBase64 is the inverse of DecodeBase64.
func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
