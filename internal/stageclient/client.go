package stageclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/example/face-pipeline/internal/faults"
	"github.com/example/face-pipeline/internal/wire"
)

// maxErrorBody caps how much of a failed stage's body is kept as detail.
const maxErrorBody = 64 << 10

// Client calls the converter and detector services over HTTP/JSON. It sets
// no deadlines of its own; callers bound each call through ctx. Transport
// failures are returned as-is so the caller can classify them.
type Client struct {
	http         *http.Client
	converterURL string
	detectorURL  string
	logger       *zap.Logger
}

// New builds a Client. A nil httpClient means http.DefaultClient.
func New(httpClient *http.Client, converterURL, detectorURL string, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		http:         httpClient,
		converterURL: strings.TrimRight(converterURL, "/"),
		detectorURL:  strings.TrimRight(detectorURL, "/"),
		logger:       logger.Named("stage_client"),
	}
}

// Convert asks the converter service to normalize image to target. The
// result is framed.
func (c *Client) Convert(ctx context.Context, image, target string) (string, error) {
	var out wire.ConvertResponse
	req := wire.ConvertRequest{ImageBase64: image, TargetFormat: target}
	if err := c.post(ctx, faults.StageNormalize, c.converterURL+"/convert", req, &out); err != nil {
		return "", err
	}
	return out.ConvertedImageBase64, nil
}

// CropFaces sends an unframed payload to the detector service.
func (c *Client) CropFaces(ctx context.Context, payload string) ([]string, error) {
	var out wire.CropFacesResponse
	if err := c.post(ctx, faults.StageDetect, c.detectorURL+"/crop-faces", wire.CropFacesRequest{Image: payload}, &out); err != nil {
		return nil, err
	}
	if out.Faces == nil {
		out.Faces = []string{}
	}
	return out.Faces, nil
}

func (c *Client) post(ctx context.Context, stage, url string, body, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		detail := errorDetail(raw)
		c.logger.Debug("stage returned error status",
			zap.String("stage", stage), zap.Int("status", resp.StatusCode), zap.String("detail", detail))
		return faults.StageError(stage, resp.StatusCode, detail)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// A body cut short by the deadline or the caller is not malformed.
		if ctx.Err() != nil {
			return err
		}
		return faults.StageError(stage, http.StatusBadGateway, fmt.Sprintf("malformed %s response: %v", stage, err))
	}
	return nil
}

// errorDetail prefers the "error" (or FastAPI-style "detail") field of a JSON
// body and falls back to the raw text.
func errorDetail(raw []byte) string {
	var body struct {
		Error  string `json:"error"`
		Detail any    `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if s, ok := body.Detail.(string); ok && s != "" {
			return s
		}
	}
	return strings.TrimSpace(string(raw))
}
