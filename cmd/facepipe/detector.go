package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/face-pipeline/internal/config"
	"github.com/example/face-pipeline/internal/faces"
	"github.com/example/face-pipeline/internal/grpcclient"
	"github.com/example/face-pipeline/internal/handlers"
	"github.com/example/face-pipeline/internal/pigodetect"
)

const (
	strategyLandmark = "landmark"
	strategyPerson   = "person"
)

var detectorOpts struct {
	addr           string
	strategy       string
	cascadePath    string
	personAddr     string
	minSize        int
	scoreThreshold float64
}

var detectorCmd = &cobra.Command{
	Use:   "detector",
	Short: "Serve POST /crop-faces with the landmark or person strategy",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.Named("detector").With(zap.String("strategy", detectorOpts.strategy))

		var extractor faces.Extractor
		switch detectorOpts.strategy {
		case strategyLandmark:
			params := pigodetect.DefaultParams()
			params.MinSize = detectorOpts.minSize
			params.ScoreThreshold = float32(detectorOpts.scoreThreshold)
			locator, err := pigodetect.Load(detectorOpts.cascadePath, params)
			if err != nil {
				return err
			}
			extractor = faces.NewLandmarkDetector(locator, log)
		case strategyPerson:
			detector, conn, err := grpcclient.DialPersonDetector(cmd.Context(), detectorOpts.personAddr, log)
			if err != nil {
				return fmt.Errorf("failed to connect to person detector: %w", err)
			}
			defer conn.Close()
			extractor = faces.NewPersonBoxEstimator(detector, log)
		default:
			return fmt.Errorf("unknown strategy %q (want %s or %s)", detectorOpts.strategy, strategyLandmark, strategyPerson)
		}

		router := gin.Default()
		handlers.RegisterDetectorRoutes(router, extractor, log)
		return serve(cmd.Context(), "detector", detectorOpts.addr, router)
	},
}

func init() {
	defaults := pigodetect.DefaultParams()
	minSize, err := config.Int("FACE_MIN_SIZE", defaults.MinSize)
	exitOnConfigError(err)
	score, err := config.Float("FACE_SCORE_THRESHOLD", float64(defaults.ScoreThreshold))
	exitOnConfigError(err)

	flags := detectorCmd.Flags()
	flags.StringVar(&detectorOpts.addr, "addr", config.Env("LISTEN_ADDR", ":8002"), "Listen address")
	flags.StringVar(&detectorOpts.strategy, "strategy", config.Env("DETECTION_STRATEGY", strategyLandmark), "Extraction strategy: landmark or person")
	flags.StringVar(&detectorOpts.cascadePath, "cascade", config.Env("FACE_CASCADE_PATH", "cascade/facefinder"), "pigo facefinder cascade file (landmark strategy)")
	flags.StringVar(&detectorOpts.personAddr, "person-detector-addr", config.Env("PERSON_DETECTOR_ADDR", "object-detector:50051"), "gRPC address of the object-detection model (person strategy)")
	flags.IntVar(&detectorOpts.minSize, "min-face-size", minSize, "Smallest face side in pixels the cascade scans for")
	flags.Float64Var(&detectorOpts.scoreThreshold, "score-threshold", score, "Cascade score below which detections are dropped")
	rootCmd.AddCommand(detectorCmd)
}
