package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/face-pipeline/internal/faults"
	"github.com/example/face-pipeline/internal/wire"
)

// MaxRequestBytes bounds every JSON request body.
const MaxRequestBytes = 16 << 20

func registerHealth(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// bindJSON decodes the body into dst and answers the request itself when it
// cannot: payload_too_large past MaxRequestBytes, 422 for a malformed or
// incomplete body.
func bindJSON(c *gin.Context, logger *zap.Logger, dst any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxRequestBytes)
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			size := float64(tooLarge.Limit) / (1 << 20)
			writeError(c, logger, "", faults.PayloadTooLarge(fmt.Sprintf("Request body too large (over %.2f MB)", size)))
			return false
		}
		c.JSON(http.StatusUnprocessableEntity, wire.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// writeError answers with the failure's own status. Untagged errors become 500
// with prefix in front of the message.
func writeError(c *gin.Context, logger *zap.Logger, prefix string, err error) {
	fe, ok := faults.As(err)
	if !ok {
		logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, wire.ErrorResponse{Error: prefix + err.Error()})
		return
	}

	status := fe.HTTPStatus()
	fields := []zap.Field{zap.String("kind", string(fe.Kind)), zap.Int("status", status), zap.Error(err)}
	if fe.Stage != "" {
		fields = append(fields, zap.String("stage", fe.Stage))
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
	} else {
		logger.Info("request rejected", fields...)
	}

	c.JSON(status, wire.ErrorResponse{
		Error: fe.Detail,
		Kind:  string(fe.Kind),
		Stage: fe.Stage,
	})
}
