package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/face-pipeline/internal/faces"
	"github.com/example/face-pipeline/internal/faults"
	"github.com/example/face-pipeline/internal/logging"
	"github.com/example/face-pipeline/internal/media"
	"github.com/example/face-pipeline/internal/wire"
)

// RegisterDetectorRoutes wires the face detection service around one extraction strategy.
func RegisterDetectorRoutes(router *gin.Engine, extractor faces.Extractor, logger *zap.Logger) {
	registerHealth(router)

	router.POST("/crop-faces", func(c *gin.Context) {
		var req wire.CropFacesRequest
		if !bindJSON(c, logger, &req) {
			return
		}
		opLogger := logging.WithOperation(logger, "handlers.crop_faces", "")

		data, err := media.DecodeBase64(media.StripFraming(req.Image))
		if err != nil {
			writeError(c, opLogger, "", faults.InvalidEncoding("Invalid base64 encoding", err))
			return
		}

		img, _, err := media.Decode(data)
		if err != nil {
			writeError(c, opLogger, "", faults.DecodeFailure("Invalid image data", err))
			return
		}

		crops, err := extractor.Extract(c.Request.Context(), img)
		if err != nil {
			writeError(c, opLogger, "Error processing image: ", err)
			return
		}

		encoded := make([]string, 0, len(crops))
		for _, crop := range crops {
			encoded = append(encoded, media.EncodeBase64(crop.JPEG))
		}
		opLogger.Debug("faces cropped", zap.Int("count", len(encoded)))
		c.JSON(http.StatusOK, wire.CropFacesResponse{Faces: encoded})
	})
}
