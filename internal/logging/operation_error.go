package logging

import (
	"errors"
	"strings"

	"go.uber.org/zap"
)

// OperationError records which operation failed, and for pipeline work the
// stage and request it belonged to.
type OperationError struct {
	Operation string
	Stage     string
	RequestID string
	Err       error
}

// Error renders "operation [stage=... request_id=...]: cause".
func (e *OperationError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	var tags []string
	if e.Stage != "" {
		tags = append(tags, "stage="+e.Stage)
	}
	if e.RequestID != "" {
		tags = append(tags, "request_id="+e.RequestID)
	}
	if len(tags) == 0 {
		return e.Operation + ": " + e.Err.Error()
	}
	return e.Operation + " [" + strings.Join(tags, " ") + "]: " + e.Err.Error()
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Fields describes where the failure happened, for structured logging.
func (e *OperationError) Fields() []zap.Field {
	fields := []zap.Field{zap.String("operation", e.Operation)}
	if e.Stage != "" {
		fields = append(fields, zap.String("stage", e.Stage))
	}
	if e.RequestID != "" {
		fields = append(fields, zap.String("request_id", e.RequestID))
	}
	return fields
}

// NewOperationError wraps err with the operation and request it happened in.
func NewOperationError(operation, requestID string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Operation: operation, RequestID: requestID, Err: err}
}

// NewStageOperationError is NewOperationError for work done inside a pipeline stage.
func NewStageOperationError(stage, operation string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Operation: operation, Stage: stage, Err: err}
}

// ErrorFields returns err as a zap field, preceded by the location fields of
// the outermost OperationError in its chain.
func ErrorFields(err error) []zap.Field {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return append(opErr.Fields(), zap.Error(err))
	}
	return []zap.Field{zap.Error(err)}
}
