package grpcclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/face-pipeline/internal/detection"
	"github.com/example/face-pipeline/internal/faults"
	"github.com/example/face-pipeline/internal/logging"
)

// DetectMethod is the unary RPC served by the object-detection model service.
// Requests and responses are google.protobuf.Struct messages:
//
//	request:  {"image": <base64 jpeg>, "classes": ["person"]}
//	response: {"detections": [{"box": [x1, y1, x2, y2], "score": 0.9, "label": "person", "class_id": 0}]}
const DetectMethod = "/objectdetection.v1.ObjectDetector/Detect"

const personClassID = 0

// DialPersonDetector returns a ready-to-use client for the object-detection model service.
func DialPersonDetector(ctx context.Context, addr string, logger *zap.Logger, opts ...grpc.DialOption) (detection.PersonDetector, *grpc.ClientConn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	}, opts...)
	conn, err := grpc.DialContext(dialCtx, addr, opts...)
	if err != nil {
		wrapped := logging.NewOperationError("grpcclient.dial_person_detector", "", err)
		logger.Error("failed to dial person detector", append(logging.ErrorFields(wrapped), zap.String("addr", addr))...)
		return nil, nil, wrapped
	}
	return &grpcPersonDetector{conn: conn, logger: logger.Named("person_detector")}, conn, nil
}

type grpcPersonDetector struct {
	conn   grpc.ClientConnInterface
	logger *zap.Logger
}

func (g *grpcPersonDetector) DetectPeople(ctx context.Context, img image.Image) ([]detection.Detection, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, logging.NewStageOperationError(faults.StageDetect, "grpcclient.encode_frame", err)
	}
	req, err := structpb.NewStruct(map[string]any{
		"image":   base64.StdEncoding.EncodeToString(buf.Bytes()),
		"classes": []any{detection.PersonLabel},
	})
	if err != nil {
		return nil, logging.NewStageOperationError(faults.StageDetect, "grpcclient.build_request", err)
	}

	resp := new(structpb.Struct)
	if err := g.conn.Invoke(ctx, DetectMethod, req, resp); err != nil {
		wrapped := logging.NewStageOperationError(faults.StageDetect, "grpcclient.detect_people", err)
		g.logger.Error("person detector call failed", logging.ErrorFields(wrapped)...)
		return nil, wrapped
	}

	people, err := parseDetections(resp, img.Bounds().Min)
	if err != nil {
		return nil, logging.NewStageOperationError(faults.StageDetect, "grpcclient.parse_detections", err)
	}
	return people, nil
}

// parseDetections keeps person detections only, shifted into the image's
// coordinate space.
func parseDetections(resp *structpb.Struct, origin image.Point) ([]detection.Detection, error) {
	list := resp.GetFields()["detections"].GetListValue().GetValues()
	out := make([]detection.Detection, 0, len(list))
	for i, v := range list {
		fields := v.GetStructValue().GetFields()
		if fields == nil {
			return nil, fmt.Errorf("detection %d is not an object", i)
		}
		if !isPerson(fields) {
			continue
		}
		coords := fields["box"].GetListValue().GetValues()
		if len(coords) != 4 {
			return nil, fmt.Errorf("detection %d: expected 4 box coordinates, got %d", i, len(coords))
		}
		box := image.Rect(
			int(coords[0].GetNumberValue()),
			int(coords[1].GetNumberValue()),
			int(coords[2].GetNumberValue()),
			int(coords[3].GetNumberValue()),
		).Add(origin)
		out = append(out, detection.Detection{
			Box:   box,
			Score: float32(fields["score"].GetNumberValue()),
			Label: detection.PersonLabel,
		})
	}
	return out, nil
}

func isPerson(fields map[string]*structpb.Value) bool {
	if label, ok := fields["label"]; ok {
		return label.GetStringValue() == detection.PersonLabel
	}
	if id, ok := fields["class_id"]; ok {
		return int(id.GetNumberValue()) == personClassID
	}
	return false
}
