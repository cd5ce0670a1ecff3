package grpcclient

import (
	"context"
	"errors"
	"image"
	"net"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/example/face-pipeline/internal/faults"
	"github.com/example/face-pipeline/internal/logging"
)

type objectDetectorServer interface {
	Detect(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type stubObjectDetector struct {
	resp    map[string]any
	err     error
	lastReq *structpb.Struct
}

func (s *stubObjectDetector) Detect(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return structpb.NewStruct(s.resp)
}

var objectDetectorDesc = grpc.ServiceDesc{
	ServiceName: "objectdetection.v1.ObjectDetector",
	HandlerType: (*objectDetectorServer)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "Detect",
		Handler: func(srv any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
			req := new(structpb.Struct)
			if err := dec(req); err != nil {
				return nil, err
			}
			return srv.(objectDetectorServer).Detect(ctx, req)
		},
	}},
}

func startDetector(t *testing.T, impl objectDetectorServer) *grpc.ClientConn {
	t.Helper()
	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	server.RegisterService(&objectDetectorDesc, impl)
	go server.Serve(listener) //nolint:errcheck
	t.Cleanup(server.Stop)

	_, conn, err := DialPersonDetector(context.Background(), "bufnet", zap.NewNop(),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}))
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestDetectPeopleKeepsPersonBoxes(t *testing.T) {
	stub := &stubObjectDetector{resp: map[string]any{
		"detections": []any{
			map[string]any{"box": []any{10.0, 20.0, 50.0, 120.0}, "score": 0.91, "label": "person"},
			map[string]any{"box": []any{0.0, 0.0, 5.0, 5.0}, "score": 0.80, "label": "dog"},
			map[string]any{"box": []any{60.0, 10.0, 90.0, 100.0}, "score": 0.70, "class_id": 0.0},
		},
	}}
	conn := startDetector(t, stub)
	detector := &grpcPersonDetector{conn: conn, logger: zap.NewNop()}

	people, err := detector.DetectPeople(context.Background(), image.NewRGBA(image.Rect(0, 0, 128, 128)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(people) != 2 {
		t.Fatalf("expected 2 people, got %d", len(people))
	}
	if people[0].Box != image.Rect(10, 20, 50, 120) {
		t.Fatalf("unexpected first box %v", people[0].Box)
	}
	if got := stub.lastReq.GetFields()["classes"].GetListValue().GetValues()[0].GetStringValue(); got != "person" {
		t.Fatalf("expected person class requested, got %q", got)
	}
	if stub.lastReq.GetFields()["image"].GetStringValue() == "" {
		t.Fatal("expected encoded image in request")
	}
}

func TestDetectPeopleWrapsRPCFailure(t *testing.T) {
	conn := startDetector(t, &stubObjectDetector{err: status.Error(codes.Unavailable, "model loading")})
	detector := &grpcPersonDetector{conn: conn, logger: zap.NewNop()}

	_, err := detector.DetectPeople(context.Background(), image.NewRGBA(image.Rect(0, 0, 8, 8)))
	var opErr *logging.OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected OperationError, got %T", err)
	}
	if opErr.Operation != "grpcclient.detect_people" || opErr.Stage != faults.StageDetect {
		t.Fatalf("unexpected operation: %s stage: %s", opErr.Operation, opErr.Stage)
	}
	if status.Code(opErr.Err) != codes.Unavailable {
		t.Fatalf("expected unavailable code, got %v", status.Code(opErr.Err))
	}
}

func TestParseDetectionsRejectsMalformedBox(t *testing.T) {
	resp, err := structpb.NewStruct(map[string]any{
		"detections": []any{map[string]any{"box": []any{1.0, 2.0}, "label": "person"}},
	})
	if err != nil {
		t.Fatalf("failed to build response: %v", err)
	}
	if _, err := parseDetections(resp, image.Point{}); err == nil {
		t.Fatal("expected error for short box")
	}
}
