package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/livecast/internal/api/models"
	"github.com/smazurov/livecast/internal/endpoint"
	"github.com/smazurov/livecast/internal/session"
)

func surfaceOf(body *endpoint.Surface) endpoint.Surface {
	if body == nil {
		return endpoint.Surface{}
	}
	return *body
}

// registerSessionRoutes registers the preview, stream, record and control
// routes.
func (s *Server) registerSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/api/session",
		Summary:     "Get Session",
		Description: "Get the session state, running outputs, stream information and bound camera",
		Tags:        []string{"session"},
		Security:    withAuth(),
		Errors:      []int{401, 503},
	}, func(_ context.Context, _ *struct{}) (*models.SessionResponse, error) {
		status, err := s.session.Status()
		if err != nil {
			return nil, sessionError(err)
		}
		return &models.SessionResponse{Body: status}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "start-preview",
		Method:      http.MethodPost,
		Path:        "/api/session/preview",
		Summary:     "Start Preview",
		Description: "Bind the camera and feed the preview surface. Without a body the last surface is reused.",
		Tags:        []string{"session"},
		Security:    withAuth(),
		Errors:      []int{401, 409, 500},
	}, func(_ context.Context, input *models.SurfaceRequest) (*struct{}, error) {
		return nil, sessionError(s.session.StartPreview(surfaceOf(input.Body)))
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-preview",
		Method:      http.MethodDelete,
		Path:        "/api/session/preview",
		Summary:     "Stop Preview",
		Tags:        []string{"session"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*struct{}, error) {
		return nil, sessionError(s.session.StopPreview())
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "restart-preview",
		Method:      http.MethodPost,
		Path:        "/api/session/preview/restart",
		Summary:     "Restart Preview",
		Description: "Stop the preview, replace the surface and start it again",
		Tags:        []string{"session"},
		Security:    withAuth(),
		Errors:      []int{401, 409, 500},
	}, func(_ context.Context, input *models.SurfaceRequest) (*struct{}, error) {
		return nil, sessionError(s.session.RestartPreview(surfaceOf(input.Body)))
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "release-camera",
		Method:      http.MethodPost,
		Path:        "/api/session/camera/release",
		Summary:     "Release Camera",
		Description: "Free the camera. While streaming or recording only the preview stops.",
		Tags:        []string{"session"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*struct{}, error) {
		return nil, sessionError(s.session.ReleaseCamera())
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "start-stream",
		Method:      http.MethodPost,
		Path:        "/api/session/stream",
		Summary:     "Start Stream",
		Description: "Publish to the configured stream URL",
		Tags:        []string{"session"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 409, 500, 502},
	}, func(_ context.Context, _ *struct{}) (*struct{}, error) {
		return nil, sessionError(s.session.StartStream())
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-stream",
		Method:      http.MethodDelete,
		Path:        "/api/session/stream",
		Summary:     "Stop Stream",
		Tags:        []string{"session"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, input *models.StopStreamRequest) (*struct{}, error) {
		var message, action string
		if input.Body != nil {
			message, action = input.Body.Message, input.Body.Action
		}
		return nil, sessionError(s.session.StopStream(message, action))
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "start-record",
		Method:      http.MethodPost,
		Path:        "/api/session/record",
		Summary:     "Start Recording",
		Tags:        []string{"session"},
		Security:    withAuth(),
		Errors:      []int{401, 403, 409, 500},
	}, func(_ context.Context, _ *struct{}) (*struct{}, error) {
		return nil, sessionError(s.session.StartRecord())
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-record",
		Method:      http.MethodDelete,
		Path:        "/api/session/record",
		Summary:     "Stop Recording",
		Tags:        []string{"session"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*struct{}, error) {
		return nil, sessionError(s.session.StopRecord())
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-mute",
		Method:      http.MethodPut,
		Path:        "/api/session/mute",
		Summary:     "Mute Microphone",
		Tags:        []string{"session"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, input *models.MuteRequest) (*struct{}, error) {
		return nil, sessionError(s.session.SetMuted(input.Body.Muted))
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "take-photo",
		Method:      http.MethodPost,
		Path:        "/api/photo",
		Summary:     "Take Photo",
		Description: "Grab a still from the running preview into the photo directory",
		Tags:        []string{"camera"},
		Security:    withAuth(),
		Errors:      []int{401, 409, 500},
	}, func(ctx context.Context, _ *struct{}) (*models.PhotoResponse, error) {
		select {
		case res := <-s.session.TakePhoto(ctx):
			if res.Err != nil {
				return nil, sessionError(res.Err)
			}
			resp := &models.PhotoResponse{}
			resp.Body.Path = res.Path
			return resp, nil
		case <-ctx.Done():
			return nil, huma.Error503ServiceUnavailable("Request cancelled", ctx.Err())
		}
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "control",
		Method:      http.MethodPost,
		Path:        "/api/control/{action}",
		Summary:     "Control Action",
		Description: "Deliver an inbound control event such as a notification button press",
		Tags:        []string{"session"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 409, 500, 502},
	}, func(_ context.Context, input *models.ControlRequest) (*struct{}, error) {
		return nil, sessionError(s.session.HandleControl(session.ControlAction(input.Action)))
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "host-lifecycle",
		Method:      http.MethodPost,
		Path:        "/api/host/{state}",
		Summary:     "Host Lifecycle",
		Description: "Report that the host UI went to the background or came back to the foreground",
		Tags:        []string{"session"},
		Security:    withAuth(),
		Errors:      []int{401, 409, 500},
	}, func(_ context.Context, input *models.HostRequest) (*struct{}, error) {
		if input.State == "background" {
			return nil, sessionError(s.session.OnHostBackground())
		}
		return nil, sessionError(s.session.OnHostForeground(surfaceOf(input.Body)))
	})
}
