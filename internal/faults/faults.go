package faults

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind names a failure category shared by every stage of the pipeline.
type Kind string

const (
	KindUnsupportedFormat Kind = "unsupported_format"
	KindInvalidEncoding   Kind = "invalid_encoding"
	KindPayloadTooLarge   Kind = "payload_too_large"
	KindDecodeFailure     Kind = "decode_failure"
	KindNoFacesDetected   Kind = "no_faces_detected"
	KindStageTimeout      Kind = "stage_timeout"
	KindStageError        Kind = "stage_error"
	KindStageUnavailable  Kind = "stage_unavailable"
	KindCanceled          Kind = "canceled"
)

// Stage names used in orchestration failures.
const (
	StageNormalize = "normalize"
	StageDetect    = "detect"
)

// StatusClientClosedRequest is reported when the caller went away mid-pipeline.
const StatusClientClosedRequest = 499

// Error is the tagged failure value returned across stage boundaries.
type Error struct {
	Kind   Kind
	Stage  string
	Status int
	Detail string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	prefix := string(e.Kind)
	if e.Stage != "" {
		prefix = fmt.Sprintf("%s(%s)", e.Kind, e.Stage)
	}
	if e.Detail == "" {
		return prefix
	}
	return prefix + ": " + e.Detail
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// HTTPStatus maps the failure to the status a service answers with.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindUnsupportedFormat, KindInvalidEncoding, KindPayloadTooLarge:
		return http.StatusBadRequest
	case KindNoFacesDetected:
		return http.StatusNotFound
	case KindStageTimeout:
		return http.StatusGatewayTimeout
	case KindStageUnavailable:
		return http.StatusServiceUnavailable
	case KindStageError:
		if e.Status >= 400 && e.Status <= 599 {
			return e.Status
		}
		return http.StatusBadGateway
	case KindCanceled:
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// As extracts a *Error from err's chain.
func As(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// KindOf reports the Kind carried by err, or "" when err is not a pipeline failure.
func KindOf(err error) Kind {
	if fe, ok := As(err); ok {
		return fe.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func UnsupportedFormat(detail string) error {
	return &Error{Kind: KindUnsupportedFormat, Detail: detail}
}

func InvalidEncoding(detail string, err error) error {
	return &Error{Kind: KindInvalidEncoding, Detail: detail, Err: err}
}

func PayloadTooLarge(detail string) error {
	return &Error{Kind: KindPayloadTooLarge, Detail: detail}
}

func DecodeFailure(detail string, err error) error {
	return &Error{Kind: KindDecodeFailure, Detail: detail, Err: err}
}

func NoFacesDetected() error {
	return &Error{Kind: KindNoFacesDetected, Detail: "no faces detected"}
}

func StageTimeout(stage string, err error) error {
	return &Error{Kind: KindStageTimeout, Stage: stage, Detail: stage + " service timeout", Err: err}
}

// StageError preserves the remote status and detail text of a failed stage.
func StageError(stage string, status int, detail string) error {
	return &Error{Kind: KindStageError, Stage: stage, Status: status, Detail: detail}
}

func StageUnavailable(stage string, err error) error {
	detail := "cannot connect to " + stage + " service"
	if err != nil {
		detail += ": " + err.Error()
	}
	return &Error{Kind: KindStageUnavailable, Stage: stage, Detail: detail, Err: err}
}

func Canceled(stage string, err error) error {
	return &Error{Kind: KindCanceled, Stage: stage, Detail: "request canceled", Err: err}
}
