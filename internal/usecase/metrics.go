package usecase

import "context"

// MetricsSummary represents aggregated pipeline insights.
type MetricsSummary struct {
	TotalRuns        int64   `json:"total_runs"`
	SuccessfulRuns   int64   `json:"successful_runs"`
	SuccessRate      float64 `json:"success_rate"`
	AverageFaceCount float64 `json:"average_face_count"`
	AverageLatencyMs float64 `json:"average_latency_ms"`
}

// GetMetricsSummary aggregates pipeline metrics from persisted runs.
func (uc *DetectionUseCase) GetMetricsSummary(ctx context.Context) (*MetricsSummary, error) {
	aggregation, err := uc.repo.AggregateMetrics(ctx)
	if err != nil {
		return nil, err
	}

	summary := &MetricsSummary{
		TotalRuns:        aggregation.TotalCount,
		SuccessfulRuns:   aggregation.SuccessCount,
		AverageFaceCount: aggregation.AverageFaceCount,
		AverageLatencyMs: aggregation.AverageLatencyMs,
	}

	if aggregation.TotalCount > 0 {
		summary.SuccessRate = float64(aggregation.SuccessCount) / float64(aggregation.TotalCount)
	}

	return summary, nil
}
