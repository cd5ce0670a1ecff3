package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/face-pipeline/internal/logging"
	"github.com/example/face-pipeline/internal/usecase"
	"github.com/example/face-pipeline/internal/wire"
)

// DetectionService is the part of the use case the public API needs.
type DetectionService interface {
	DetectFaces(ctx context.Context, image, target string) (string, []string, error)
	GetRun(ctx context.Context, requestID string) (*usecase.RunSummary, error)
	GetMetricsSummary(ctx context.Context) (*usecase.MetricsSummary, error)
}

// RegisterPipelineRoutes wires the public detect-faces API. Run lookups and
// metrics sit behind authMiddleware.
func RegisterPipelineRoutes(router *gin.Engine, svc DetectionService, authMiddleware gin.HandlerFunc, logger *zap.Logger) {
	registerHealth(router)

	router.POST("/detect-faces", func(c *gin.Context) {
		var req wire.DetectFacesRequest
		if !bindJSON(c, logger, &req) {
			return
		}

		requestID, cropped, err := svc.DetectFaces(c.Request.Context(), req.ImageBase64, req.TargetFormat)
		c.Header("X-Request-ID", requestID)
		if err != nil {
			writeError(c, logging.WithOperation(logger, "handlers.detect_faces", requestID), "", err)
			return
		}
		if cropped == nil {
			cropped = []string{}
		}

		c.JSON(http.StatusOK, wire.DetectFacesResponse{RequestID: requestID, CroppedFaces: cropped})
	})

	operator := router.Group("/", authMiddleware)

	operator.GET("/runs/:id", func(c *gin.Context) {
		requestID := c.Param("id")
		summary, err := svc.GetRun(c.Request.Context(), requestID)
		if err != nil {
			if errors.Is(err, usecase.ErrRunNotFound) {
				c.JSON(http.StatusNotFound, wire.ErrorResponse{Error: "run not found"})
				return
			}
			logging.WithOperation(logger, "handlers.get_run", requestID).Error("run lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, wire.ErrorResponse{Error: "failed to load run"})
			return
		}
		c.JSON(http.StatusOK, summary)
	})

	operator.GET("/metrics/summary", func(c *gin.Context) {
		summary, err := svc.GetMetricsSummary(c.Request.Context())
		if err != nil {
			logging.WithOperation(logger, "handlers.metrics_summary", "").Error("metrics aggregation failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, wire.ErrorResponse{Error: "failed to aggregate metrics"})
			return
		}
		c.JSON(http.StatusOK, summary)
	})
}
