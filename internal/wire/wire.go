// Package wire holds the JSON bodies exchanged between the three services.
package wire

type ConvertRequest struct {
	ImageBase64  string `json:"image_base64" binding:"required"`
	TargetFormat string `json:"target_format" binding:"required"`
}

type ConvertResponse struct {
	ConvertedImageBase64 string `json:"converted_image_base64"`
}

// CropFacesRequest carries an unframed base64 payload.
type CropFacesRequest struct {
	Image string `json:"image" binding:"required"`
}

type CropFacesResponse struct {
	Faces []string `json:"faces"`
}

type DetectFacesRequest struct {
	ImageBase64  string `json:"image_base64" binding:"required"`
	TargetFormat string `json:"target_format" binding:"required"`
}

type DetectFacesResponse struct {
	RequestID    string   `json:"request_id"`
	CroppedFaces []string `json:"cropped_faces"`
}

// ErrorResponse is the failure body of every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Stage string `json:"stage,omitempty"`
}
