package pipeline

import (
	"context"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/example/face-pipeline/internal/faults"
	"github.com/example/face-pipeline/internal/media"
)

// Converter is the remote normalize stage.
type Converter interface {
	Convert(ctx context.Context, image, target string) (string, error)
}

// FaceCropper is the remote detect stage. It expects an unframed payload.
type FaceCropper interface {
	CropFaces(ctx context.Context, payload string) ([]string, error)
}

// Timeouts bounds each stage independently. Stages run back to back, so the
// worst case for a request is their sum.
type Timeouts struct {
	Normalize time.Duration
	Detect    time.Duration
}

// DefaultTimeouts returns 30s for normalize and 60s for detect.
func DefaultTimeouts() Timeouts {
	return Timeouts{Normalize: 30 * time.Second, Detect: 60 * time.Second}
}

// Orchestrator runs normalize then detect. It never retries a stage and
// returns the detector's faces unchanged.
type Orchestrator struct {
	converter Converter
	cropper   FaceCropper
	timeouts  Timeouts
	logger    *zap.Logger
}

// New builds an Orchestrator. Zero timeouts take their defaults.
func New(converter Converter, cropper FaceCropper, timeouts Timeouts, logger *zap.Logger) *Orchestrator {
	def := DefaultTimeouts()
	if timeouts.Normalize <= 0 {
		timeouts.Normalize = def.Normalize
	}
	if timeouts.Detect <= 0 {
		timeouts.Detect = def.Detect
	}
	return &Orchestrator{
		converter: converter,
		cropper:   cropper,
		timeouts:  timeouts,
		logger:    logger.Named("pipeline"),
	}
}

// Run normalizes image to target and crops the faces found in the result.
// Every failure is a *faults.Error naming the stage that failed.
func (o *Orchestrator) Run(ctx context.Context, image, target string) ([]string, error) {
	var converted string
	err := o.stage(ctx, faults.StageNormalize, o.timeouts.Normalize, func(ctx context.Context) error {
		var err error
		converted, err = o.converter.Convert(ctx, image, target)
		return err
	})
	if err != nil {
		return nil, err
	}

	payload := media.StripFraming(converted)

	var faces []string
	err = o.stage(ctx, faults.StageDetect, o.timeouts.Detect, func(ctx context.Context) error {
		var err error
		faces, err = o.cropper.CropFaces(ctx, payload)
		return err
	})
	if err != nil {
		return nil, err
	}
	return faces, nil
}

func (o *Orchestrator) stage(ctx context.Context, name string, timeout time.Duration, call func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return faults.Canceled(name, err)
	}
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := call(stageCtx)
	o.logger.Debug("stage finished",
		zap.String("stage", name), zap.Duration("elapsed", time.Since(start)), zap.Bool("ok", err == nil))
	if err == nil {
		return nil
	}
	return classify(ctx, stageCtx, name, err)
}

// classify maps a stage's native failure onto the orchestration kinds.
// Context state takes precedence over the error the call returned.
func classify(parent, stageCtx context.Context, stage string, err error) error {
	if errors.Is(parent.Err(), context.Canceled) {
		return faults.Canceled(stage, err)
	}
	if errors.Is(stageCtx.Err(), context.DeadlineExceeded) {
		return faults.StageTimeout(stage, err)
	}
	if _, ok := faults.As(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return faults.StageTimeout(stage, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return faults.StageTimeout(stage, err)
	}
	if errors.Is(err, context.Canceled) {
		return faults.Canceled(stage, err)
	}
	return faults.StageUnavailable(stage, err)
}
