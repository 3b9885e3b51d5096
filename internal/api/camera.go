package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/livecast/internal/api/models"
	"github.com/smazurov/livecast/internal/audio"
	"github.com/smazurov/livecast/internal/devices"
)

// registerCameraRoutes registers camera control and discovery routes.
func (s *Server) registerCameraRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-camera",
		Method:      http.MethodGet,
		Path:        "/api/camera",
		Summary:     "Get Camera",
		Description: "Get the bound camera, its facing, zoom and torch state",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.CameraResponse, error) {
		b, err := s.session.Camera()
		if err != nil {
			return nil, sessionError(err)
		}
		return &models.CameraResponse{Body: b}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "switch-camera",
		Method:      http.MethodPost,
		Path:        "/api/camera/switch",
		Summary:     "Switch Camera",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401, 409},
	}, func(_ context.Context, _ *struct{}) (*struct{}, error) {
		return nil, sessionError(s.session.SwitchCamera())
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "toggle-torch",
		Method:      http.MethodPost,
		Path:        "/api/camera/torch",
		Summary:     "Toggle Torch",
		Description: "Flip the camera torch, falling back to a board LED",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401, 409},
	}, func(_ context.Context, _ *struct{}) (*models.TorchResponse, error) {
		on, err := s.session.ToggleLantern()
		if err != nil {
			return nil, sessionError(err)
		}
		resp := &models.TorchResponse{}
		resp.Body.Enabled = on
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-zoom",
		Method:      http.MethodPost,
		Path:        "/api/camera/zoom",
		Summary:     "Zoom",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401, 409},
	}, func(_ context.Context, input *models.ZoomRequest) (*struct{}, error) {
		return nil, sessionError(s.session.SetZoom(input.Body))
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "tap-to-focus",
		Method:      http.MethodPost,
		Path:        "/api/camera/focus",
		Summary:     "Focus",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401, 409},
	}, func(_ context.Context, input *models.FocusRequest) (*struct{}, error) {
		return nil, sessionError(s.session.TapToFocus(input.Body))
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-cameras",
		Method:      http.MethodGet,
		Path:        "/api/cameras",
		Summary:     "List Cameras",
		Description: "List detected V4L2 capture devices",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(_ context.Context, _ *struct{}) (*models.CameraListResponse, error) {
		detector := s.options.Detector
		if detector == nil {
			detector = devices.NewDetector()
		}
		found, err := detector.FindDevices()
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to list cameras", err)
		}

		resp := &models.CameraListResponse{}
		resp.Body.Cameras = make([]models.CameraInfo, 0, len(found))
		for _, d := range found {
			resp.Body.Cameras = append(resp.Body.Cameras, models.CameraInfo{
				DevicePath: d.DevicePath,
				DeviceName: d.DeviceName,
				DeviceID:   d.DeviceID,
				Facing:     devices.InferFacing(d.DeviceName),
			})
		}
		resp.Body.Count = len(resp.Body.Cameras)
		return resp, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-audio-devices",
		Method:      http.MethodGet,
		Path:        "/api/audio/devices",
		Summary:     "List Microphones",
		Description: "List ALSA capture devices and whether another process holds them",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(_ context.Context, _ *struct{}) (*models.AudioDeviceListResponse, error) {
		detector := s.options.AudioDetector
		if detector == nil {
			detector = audio.NewDetector()
		}
		found, err := detector.ListDevices()
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to list audio devices", err)
		}
		resp := &models.AudioDeviceListResponse{}
		resp.Body.Devices = found
		if resp.Body.Devices == nil {
			resp.Body.Devices = []audio.Device{}
		}
		resp.Body.Count = len(found)
		return resp, nil
	})
}
