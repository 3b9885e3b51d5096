// Package models holds the request and response bodies of the HTTP API.
package models

import (
	"github.com/smazurov/livecast/internal/audio"
	"github.com/smazurov/livecast/internal/camera"
	"github.com/smazurov/livecast/internal/devices"
	"github.com/smazurov/livecast/internal/endpoint"
	"github.com/smazurov/livecast/internal/session"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

type VersionData struct {
	Version   string `json:"version" example:"1.0.0" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit hash"`
	BuildDate string `json:"build_date" example:"2026-01-27T10:30:00Z" doc:"Build date"`
	BuildID   string `json:"build_id" doc:"Build identifier"`
	GoVersion string `json:"go_version" example:"go1.25" doc:"Go version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Compiler"`
	Platform  string `json:"platform" example:"linux/arm64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Session models
type SessionResponse struct {
	Body session.Status
}

type SurfaceRequest struct {
	Body *endpoint.Surface `required:"false"`
}

type StopStreamRequest struct {
	Body *StopStreamData `required:"false"`
}

type StopStreamData struct {
	Message string `json:"message,omitempty" doc:"Text shown with the stopped notification"`
	Action  string `json:"action,omitempty" example:"start-stream" doc:"Control action offered with the notification"`
}

type MuteRequest struct {
	Body struct {
		Muted bool `json:"muted" doc:"Mute the microphone"`
	}
}

type ControlRequest struct {
	Action string `path:"action" enum:"start-stream,stop-stream,exit-app,dismiss-error" doc:"Control action"`
}

type HostRequest struct {
	State string            `path:"state" enum:"background,foreground" doc:"Host lifecycle state"`
	Body  *endpoint.Surface `required:"false"`
}

// Camera models
type CameraResponse struct {
	Body camera.Binding
}

type TorchResponse struct {
	Body struct {
		Enabled bool `json:"enabled" doc:"Torch state after the toggle"`
	}
}

type ZoomRequest struct {
	Body camera.ZoomGesture
}

type FocusRequest struct {
	Body camera.FocusGesture
}

type CameraInfo struct {
	DevicePath string         `json:"device_path" example:"/dev/video0" doc:"Device node"`
	DeviceName string         `json:"device_name" example:"USB Camera" doc:"Device card name"`
	DeviceID   string         `json:"device_id" example:"usb-046d_C920-video-index0" doc:"Stable device identifier"`
	Facing     devices.Facing `json:"facing" example:"external" doc:"Camera facing"`
}

type CameraListResponse struct {
	Body struct {
		Cameras []CameraInfo `json:"cameras" doc:"Detected cameras"`
		Count   int          `json:"count" doc:"Number of cameras"`
	}
}

type AudioDeviceListResponse struct {
	Body struct {
		Devices []audio.Device `json:"devices" doc:"ALSA capture devices"`
		Count   int            `json:"count" doc:"Number of devices"`
	}
}

// LED models
type LEDRequest struct {
	Body struct {
		Type    string `json:"type" enum:"status,torch" example:"status" doc:"LED type"`
		Enabled bool   `json:"enabled" example:"true" doc:"Whether the LED should be on or off"`
		Pattern string `json:"pattern,omitempty" example:"solid" doc:"LED pattern (solid, blink, heartbeat)"`
	}
}

type LEDCapabilitiesResponse struct {
	Body struct {
		AvailableTypes    []string `json:"available_types" doc:"LED types on this board"`
		AvailablePatterns []string `json:"available_patterns" doc:"LED patterns on this board"`
	}
}

// Photo models
type PhotoResponse struct {
	Body struct {
		Path string `json:"path" example:"/var/lib/livecast/photos/IMG_20260127_103000_1a2b3c4d.jpg" doc:"Saved photo"`
	}
}

// Logging models
type LogLevelsResponse struct {
	Body struct {
		Modules map[string]string `json:"modules" doc:"Log level per module"`
	}
}

type LogLevelRequest struct {
	Module string `path:"module" example:"session" doc:"Logger module"`
	Body   struct {
		Level string `json:"level" enum:"debug,info,warn,error" doc:"New level"`
	}
}
