// Package api exposes the session over HTTP: control routes, camera routes,
// an SSE event stream and Prometheus metrics.
package api

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/smazurov/livecast/internal/api/models"
	"github.com/smazurov/livecast/internal/audio"
	"github.com/smazurov/livecast/internal/camera"
	"github.com/smazurov/livecast/internal/devices"
	"github.com/smazurov/livecast/internal/endpoint"
	"github.com/smazurov/livecast/internal/events"
	"github.com/smazurov/livecast/internal/led"
	"github.com/smazurov/livecast/internal/logging"
	"github.com/smazurov/livecast/internal/session"
	"github.com/smazurov/livecast/internal/version"
)

// SessionService is the control surface the API drives.
// session.Controller implements it.
type SessionService interface {
	Status() (session.Status, error)
	StartPreview(endpoint.Surface) error
	StopPreview() error
	RestartPreview(endpoint.Surface) error
	ReleaseCamera() error
	StartStream() error
	StopStream(message, action string) error
	StartRecord() error
	StopRecord() error
	SetMuted(muted bool) error
	SwitchCamera() error
	ToggleLantern() (bool, error)
	SetZoom(camera.ZoomGesture) error
	TapToFocus(camera.FocusGesture) error
	Camera() (camera.Binding, error)
	TakePhoto(ctx context.Context) <-chan session.PhotoResult
	HandleControl(session.ControlAction) error
	OnHostBackground() error
	OnHostForeground(endpoint.Surface) error
}

var _ SessionService = (*session.Controller)(nil)

// Options configures the Server.
type Options struct {
	AuthUsername   string
	AuthPassword   string
	Session        SessionService
	EventBus       *events.Bus
	Detector       devices.DeviceDetector
	AudioDetector  audio.Detector
	LEDController  led.Controller
	MetricsHandler http.Handler
}

// Server is the HTTP API.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	session    SessionService
	eventBus   *events.Bus
	options    *Options
	logger     *slog.Logger
	cancel     context.CancelFunc
}

// NewServer builds the API on a Go 1.22 ServeMux.
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()
	handleCORSPreflight(mux)

	config := huma.DefaultConfig("livecast API", version.Get().Version)
	config.Info.Description = "Live streaming session control for V4L2 cameras"
	config.Servers = []*huma.Server{}
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {
			Type:   "http",
			Scheme: "basic",
		},
	}

	api := humago.New(mux, config)

	server := &Server{
		api:      api,
		mux:      mux,
		session:  opts.Session,
		eventBus: opts.EventBus,
		options:  opts,
		logger:   logging.GetLogger("api"),
	}

	api.UseMiddleware(corsMiddleware)
	api.UseMiddleware(HTTPLoggingMiddleware)
	if opts.AuthUsername != "" && opts.AuthPassword != "" {
		api.UseMiddleware(server.basicAuthMiddleware(opts.AuthUsername, opts.AuthPassword))
	}

	if opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", opts.MetricsHandler)
	}

	server.registerRoutes()
	return server
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// GetAPI returns the Huma API instance.
func (s *Server) GetAPI() huma.API {
	return s.api
}

// Start serves on addr until Stop. Camera hotplug monitoring runs while the
// server does.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting livecast API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	if s.options.Detector != nil && s.eventBus != nil {
		if err := s.options.Detector.StartMonitoring(ctx, devices.BusBroadcaster{Bus: s.eventBus}); err != nil {
			s.logger.Warn("Failed to start device monitoring", "error", err)
		}
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop closes the server and stops device monitoring.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")
	if s.cancel != nil {
		s.cancel()
	}
	if s.options.Detector != nil {
		s.options.Detector.StopMonitoring()
	}
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		info := version.Get()
		return &models.VersionResponse{
			Body: models.VersionData{
				Version:   info.Version,
				GitCommit: info.GitCommit,
				BuildDate: info.BuildDate,
				BuildID:   info.BuildID,
				GoVersion: info.GoVersion,
				Compiler:  info.Compiler,
				Platform:  info.Platform,
			},
		}, nil
	})

	s.registerSessionRoutes()
	s.registerCameraRoutes()
	s.registerSSERoutes()
	s.registerLEDRoutes()
	s.registerLoggingRoutes()
}

// withAuth returns security requirement for basic auth
func withAuth() []map[string][]string {
	return []map[string][]string{
		{"basicAuth": {}},
	}
}

// basicAuthMiddleware checks HTTP basic credentials on operations that
// declare security. SSE clients may pass the credentials base64 encoded in
// the auth query parameter.
func (s *Server) basicAuthMiddleware(username, password string) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		op := ctx.Operation()
		if op != nil && len(op.Security) == 0 {
			next(ctx)
			return
		}

		encoded := ctx.Query("auth")
		if header := ctx.Header("Authorization"); header != "" {
			const prefix = "Basic "
			if !strings.HasPrefix(header, prefix) {
				s.unauthorized(ctx, "Invalid authentication type")
				return
			}
			encoded = header[len(prefix):]
		}
		if encoded == "" {
			s.unauthorized(ctx, "Authentication required")
			return
		}

		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			s.unauthorized(ctx, "Invalid credentials format", err)
			return
		}
		user, pass, ok := strings.Cut(string(decoded), ":")
		if !ok {
			s.unauthorized(ctx, "Invalid credentials format")
			return
		}
		if user != username || pass != password {
			s.unauthorized(ctx, "Invalid credentials")
			return
		}
		next(ctx)
	}
}

func (s *Server) unauthorized(ctx huma.Context, msg string, errs ...error) {
	ctx.SetHeader("WWW-Authenticate", `Basic realm="livecast"`)
	huma.WriteErr(s.api, ctx, http.StatusUnauthorized, msg, errs...)
}

// sessionError maps controller errors onto HTTP statuses.
func sessionError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, session.ErrStopped) {
		return huma.Error503ServiceUnavailable("Session is shutting down", err)
	}

	msg := err.Error()
	var se *session.SessionError
	if errors.As(err, &se) {
		msg = se.Display()
	}
	switch session.CodeOf(err) {
	case session.CodeEmptyURL:
		return huma.Error400BadRequest(msg, err)
	case session.CodePermissionDenied:
		return huma.Error403Forbidden(msg, err)
	case session.CodeCameraUnavailable, session.CodeInvalidState:
		return huma.Error409Conflict(msg, err)
	case session.CodeAuthError, session.CodeConnectionFailed:
		return huma.Error502BadGateway(msg, err)
	default:
		return huma.Error500InternalServerError(msg, err)
	}
}
