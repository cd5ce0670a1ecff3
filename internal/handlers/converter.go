package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/face-pipeline/internal/logging"
	"github.com/example/face-pipeline/internal/wire"
)

// Normalizer re-encodes a base64 image into a target format.
type Normalizer interface {
	Normalize(input, target string) (string, error)
}

// RegisterConverterRoutes wires the file converter service.
func RegisterConverterRoutes(router *gin.Engine, normalizer Normalizer, logger *zap.Logger) {
	registerHealth(router)

	router.POST("/convert", func(c *gin.Context) {
		var req wire.ConvertRequest
		if !bindJSON(c, logger, &req) {
			return
		}

		converted, err := normalizer.Normalize(req.ImageBase64, req.TargetFormat)
		if err != nil {
			writeError(c, logging.WithOperation(logger, "handlers.convert", ""), "Conversion failed: ", err)
			return
		}

		c.JSON(http.StatusOK, wire.ConvertResponse{ConvertedImageBase64: converted})
	})
}
