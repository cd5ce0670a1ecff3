package media

import (
	"fmt"
	"strings"
)

// Format is one of the container formats the pipeline accepts and produces.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	WebP Format = "webp"
)

var mimeTypes = map[Format]string{
	PNG:  "image/png",
	JPEG: "image/jpeg",
	WebP: "image/webp",
}

// Formats lists the allowed formats in a stable order.
func Formats() []Format {
	return []Format{PNG, JPEG, WebP}
}

// ParseFormat accepts exactly the allowed names. Matching is case-sensitive
// and "jpg" is not an alias.
func ParseFormat(name string) (Format, error) {
	f := Format(name)
	if _, ok := mimeTypes[f]; !ok {
		return "", fmt.Errorf("format %q not in %s", name, allowedList())
	}
	return f, nil
}

// MIME returns the media type used in data URI framing.
func (f Format) MIME() string {
	return mimeTypes[f]
}

func (f Format) String() string {
	return string(f)
}

func allowedList() string {
	names := make([]string, 0, len(mimeTypes))
	for _, f := range Formats() {
		names = append(names, string(f))
	}
	return "{" + strings.Join(names, ", ") + "}"
}
