package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/scalerwatch/internal/capture"
	"github.com/smazurov/scalerwatch/pkg/ascal"
)

// CaptureFunc writes the current frame under name and reports where it went.
type CaptureFunc func(name string) (capture.Result, error)

func (s *Server) registerCaptureRoutes() {
	if s.options.Capture == nil {
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "capture-frame",
		Method:      http.MethodPost,
		Path:        "/api/capture",
		Summary:     "Capture frame",
		Description: "Decode the current scaler frame and save it as PNG on the device",
		Tags:        []string{"monitor"},
		Errors:      []int{400, 401, 422, 500, 503},
		Security:    withAuth(),
	}, func(_ context.Context, input *CaptureRequest) (*CaptureResponse, error) {
		res, err := s.options.Capture(input.Body.Name)
		switch {
		case err == nil:
		case errors.Is(err, ascal.ErrClosed):
			return nil, huma.Error503ServiceUnavailable("Monitor is not running", err)
		case errors.Is(err, capture.ErrAllocation), errors.Is(err, capture.ErrEmptyFrame), errors.Is(err, ascal.ErrBadHeader):
			return nil, huma.Error422UnprocessableEntity("Frame cannot be captured", err)
		default:
			s.logger.Error("Capture failed", "error", err)
			return nil, huma.Error500InternalServerError("Capture failed", err)
		}

		return &CaptureResponse{Body: CaptureData{
			Path:       res.Path,
			Resolution: res.Header.Resolution(),
			Format:     res.Header.Format.String(),
		}}, nil
	})
}
