package usecase

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/face-pipeline/internal/faults"
	"github.com/example/face-pipeline/internal/logging"
	"github.com/example/face-pipeline/internal/repository"
	"github.com/example/face-pipeline/internal/retry"
)

// ErrRunNotFound is returned when neither the cache nor the database know a request ID.
var ErrRunNotFound = errors.New("run not found")

// Run states reported by GetRun.
const (
	StateProcessing = "processing"
	StateSucceeded  = "succeeded"
	StateFailed     = "failed"
)

const (
	processingTTL = time.Minute
	summaryTTL    = 5 * time.Minute
)

// RunRepository defines the persistence operations needed by the use case.
type RunRepository interface {
	SaveRun(ctx context.Context, run *repository.PipelineRun) error
	FindByRequestID(ctx context.Context, requestID string) (*repository.PipelineRun, error)
	AggregateMetrics(ctx context.Context) (*repository.MetricsAggregation, error)
}

// FacePipeline runs the two remote stages for one image.
type FacePipeline interface {
	Run(ctx context.Context, image, target string) ([]string, error)
}

// RunSummary is what GetRun reports about a request.
type RunSummary struct {
	RequestID    string    `json:"request_id"`
	State        string    `json:"state"`
	TargetFormat string    `json:"target_format"`
	InputSHA1    string    `json:"input_sha1,omitempty"`
	FaceCount    int       `json:"face_count"`
	StatusCode   int       `json:"status_code,omitempty"`
	FailureKind  string    `json:"failure_kind,omitempty"`
	FailureStage string    `json:"failure_stage,omitempty"`
	Detail       string    `json:"detail,omitempty"`
	LatencyMs    int64     `json:"latency_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// DetectionUseCase wraps the face pipeline with request IDs, status caching
// and run persistence. Bookkeeping failures are logged, never returned: the
// caller only sees the pipeline's own outcome.
type DetectionUseCase struct {
	repo     RunRepository
	cache    Cache
	pipeline FacePipeline
	logger   *zap.Logger
	retry    retry.Policy
	now      func() time.Time
}

// NewDetectionUseCase constructs a new use case instance.
func NewDetectionUseCase(repo RunRepository, cache Cache, pipeline FacePipeline, logger *zap.Logger) *DetectionUseCase {
	return &DetectionUseCase{
		repo:     repo,
		cache:    cache,
		pipeline: pipeline,
		logger:   logger.Named("detection_usecase"),
		retry:    retry.DefaultPolicy(),
		now:      time.Now,
	}
}

// DetectFaces runs the pipeline once and records the outcome under a fresh request ID.
func (uc *DetectionUseCase) DetectFaces(ctx context.Context, image, target string) (string, []string, error) {
	requestID := uuid.NewString()
	opLogger := logging.WithOperation(uc.logger, "usecase.detect_faces", requestID)

	start := uc.now().UTC()
	uc.cacheSummary(ctx, "cache.set.processing", &RunSummary{
		RequestID:    requestID,
		State:        StateProcessing,
		TargetFormat: target,
		CreatedAt:    start,
	}, processingTTL)

	faces, runErr := uc.pipeline.Run(ctx, image, target)

	hash := sha1.Sum([]byte(image))
	run := &repository.PipelineRun{
		RequestID:    requestID,
		TargetFormat: target,
		InputSHA1:    hex.EncodeToString(hash[:]),
		FaceCount:    len(faces),
		StatusCode:   http.StatusOK,
		LatencyMs:    uc.now().UTC().Sub(start).Milliseconds(),
		CreatedAt:    start,
	}
	if runErr != nil {
		run.StatusCode = http.StatusInternalServerError
		run.Detail = runErr.Error()
		if fe, ok := faults.As(runErr); ok {
			run.StatusCode = fe.HTTPStatus()
			run.FailureKind = string(fe.Kind)
			run.FailureStage = fe.Stage
			run.Detail = fe.Detail
		}
		opLogger.Warn("pipeline failed",
			zap.String("kind", run.FailureKind), zap.String("stage", run.FailureStage),
			zap.Int("status", run.StatusCode), zap.Error(runErr))
	} else {
		opLogger.Info("pipeline finished", zap.Int("faces", run.FaceCount), zap.Int64("latency_ms", run.LatencyMs))
	}

	// The caller may be gone; the record is still worth keeping.
	recordCtx := context.WithoutCancel(ctx)
	if err := uc.repo.SaveRun(recordCtx, run); err != nil {
		opLogger.Error("failed to persist pipeline run", zap.Error(err))
	}
	uc.cacheSummary(recordCtx, "cache.set.result", summaryFromRun(run), summaryTTL)

	if runErr != nil {
		return requestID, nil, runErr
	}
	return requestID, faces, nil
}

// GetRun returns a run's summary from the cache, falling back to persistence.
func (uc *DetectionUseCase) GetRun(ctx context.Context, requestID string) (*RunSummary, error) {
	opLogger := logging.WithOperation(uc.logger, "usecase.get_run", requestID)

	var cached []byte
	missed := false
	err := uc.retry.Do(ctx, uc.logger, "cache.get.result", requestID, func() error {
		var err error
		cached, err = uc.cache.Get(ctx, requestID)
		if errors.Is(err, ErrCacheMiss) {
			missed = true
			return nil
		}
		return err
	})
	switch {
	case err != nil:
		opLogger.Warn("failed to read cache", zap.Error(err))
	case !missed:
		var summary RunSummary
		decodeErr := json.Unmarshal(cached, &summary)
		if decodeErr == nil {
			return &summary, nil
		}
		opLogger.Warn("failed to decode cached run", zap.Error(decodeErr))
	}

	run, err := uc.repo.FindByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return summaryFromRun(run), nil
}

func (uc *DetectionUseCase) cacheSummary(ctx context.Context, operation string, summary *RunSummary, ttl time.Duration) {
	serialized, err := json.Marshal(summary)
	if err != nil {
		uc.logger.Error("failed to serialize run summary", zap.Error(err))
		return
	}
	err = uc.retry.Do(ctx, uc.logger, operation, summary.RequestID, func() error {
		return uc.cache.Set(ctx, summary.RequestID, serialized, ttl)
	})
	if err != nil {
		logging.WithOperation(uc.logger, operation, summary.RequestID).Warn("failed to cache run summary", zap.Error(err))
	}
}

func summaryFromRun(run *repository.PipelineRun) *RunSummary {
	state := StateSucceeded
	if run.StatusCode != http.StatusOK {
		state = StateFailed
	}
	return &RunSummary{
		RequestID:    run.RequestID,
		State:        state,
		TargetFormat: run.TargetFormat,
		InputSHA1:    run.InputSHA1,
		FaceCount:    run.FaceCount,
		StatusCode:   run.StatusCode,
		FailureKind:  run.FailureKind,
		FailureStage: run.FailureStage,
		Detail:       run.Detail,
		LatencyMs:    run.LatencyMs,
		CreatedAt:    run.CreatedAt,
	}
}

// NopRepository stands in when no database is configured.
type NopRepository struct{}

func (NopRepository) SaveRun(context.Context, *repository.PipelineRun) error { return nil }

func (NopRepository) FindByRequestID(context.Context, string) (*repository.PipelineRun, error) {
	return nil, gorm.ErrRecordNotFound
}

func (NopRepository) AggregateMetrics(context.Context) (*repository.MetricsAggregation, error) {
	return &repository.MetricsAggregation{}, nil
}
