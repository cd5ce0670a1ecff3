package repository

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/face-pipeline/internal/retry"
)

// PipelineRun is the audit row of one detect-faces request. It never holds
// image bytes, only a digest of the input.
type PipelineRun struct {
	ID           uint      `gorm:"primaryKey"`
	RequestID    string    `gorm:"column:request_id;uniqueIndex;size:64"`
	TargetFormat string    `gorm:"column:target_format;size:16"`
	InputSHA1    string    `gorm:"column:input_sha1;size:40;index"`
	FaceCount    int       `gorm:"column:face_count"`
	StatusCode   int       `gorm:"column:status_code"`
	FailureKind  string    `gorm:"column:failure_kind;size:32"`
	FailureStage string    `gorm:"column:failure_stage;size:16"`
	Detail       string    `gorm:"column:detail;type:text"`
	LatencyMs    int64     `gorm:"column:latency_ms"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

// TableName overrides the default table name.
func (PipelineRun) TableName() string {
	return "pipeline_runs"
}

// MetricsAggregation is the raw aggregate over all runs.
type MetricsAggregation struct {
	TotalCount       int64
	SuccessCount     int64
	AverageFaceCount float64
	AverageLatencyMs float64
}

// RunRepository provides persistence APIs for pipeline runs.
type RunRepository struct {
	db             *gorm.DB
	logger         *zap.Logger
	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewRunRepository creates a new repository instance.
func NewRunRepository(db *gorm.DB, logger *zap.Logger) *RunRepository {
	policy := retry.DefaultPolicy()
	return &RunRepository{
		db:             db,
		logger:         logger.Named("run_repository"),
		retryAttempts:  policy.Attempts,
		initialBackoff: policy.InitialBackoff,
		maxBackoff:     policy.MaxBackoff,
	}
}

// AutoMigrate ensures the schema is available.
func (r *RunRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&PipelineRun{})
}

// SaveRun persists a run.
func (r *RunRepository) SaveRun(ctx context.Context, run *PipelineRun) error {
	return r.executeWithRetry(ctx, "repository.save_run", run.RequestID, func() error {
		return r.db.WithContext(ctx).Create(run).Error
	})
}

// FindByRequestID retrieves the run recorded for a request.
func (r *RunRepository) FindByRequestID(ctx context.Context, requestID string) (*PipelineRun, error) {
	var run PipelineRun
	err := r.executeWithRetry(ctx, "repository.find_run", requestID, func() error {
		return r.db.WithContext(ctx).First(&run, "request_id = ?", requestID).Error
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// AggregateMetrics summarises every recorded run.
func (r *RunRepository) AggregateMetrics(ctx context.Context) (*MetricsAggregation, error) {
	var agg MetricsAggregation
	err := r.executeWithRetry(ctx, "repository.aggregate_metrics", "", func() error {
		return r.db.WithContext(ctx).Model(&PipelineRun{}).Select(
			"COUNT(*) AS total_count, " +
				"COALESCE(SUM(CASE WHEN status_code = 200 THEN 1 ELSE 0 END), 0) AS success_count, " +
				"COALESCE(AVG(face_count), 0) AS average_face_count, " +
				"COALESCE(AVG(latency_ms), 0) AS average_latency_ms",
		).Scan(&agg).Error
	})
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

func (r *RunRepository) executeWithRetry(ctx context.Context, operation, requestID string, fn func() error) error {
	policy := retry.Policy{Attempts: r.retryAttempts, InitialBackoff: r.initialBackoff, MaxBackoff: r.maxBackoff}
	return policy.Do(ctx, r.logger, operation, requestID, fn)
}
