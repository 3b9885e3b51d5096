package devices

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/smazurov/livecast/internal/logging"
)

// TestPatternID selects a synthetic camera backed by an ffmpeg test source.
const TestPatternID = "testsrc"

var (
	// ErrNoCamera is returned when no capture device is available.
	ErrNoCamera = errors.New("no camera available")
	// ErrCameraNotBound is returned by controls used before OpenCamera.
	ErrCameraNotBound = errors.New("camera not bound")
)

// ControlRange is an integer control range as reported by the driver.
type ControlRange struct {
	Min  int
	Max  int
	Step int
}

type deviceControls interface {
	SetTorch(path string, on bool) error
	ZoomRange(path string) (ControlRange, error)
	Zoom(path string) (int, error)
	SetZoom(path string, value int) error
	Focus(path string) error
}

// Source is the capture source for one session: the camera currently bound
// and the controls it exposes.
type Source struct {
	detector  DeviceDetector
	controls  deviceControls
	preferred string
	logger    *slog.Logger

	mu      sync.Mutex
	current DeviceInfo
	bound   bool
	torch   bool
}

// NewSource creates a capture source. preferredID is the camera opened when
// OpenCamera is called with an empty id; TestPatternID selects the
// synthetic camera.
func NewSource(detector DeviceDetector, preferredID string) *Source {
	return &Source{
		detector:  detector,
		controls:  platformControls(),
		preferred: preferredID,
		logger:    logging.GetLogger("camera"),
	}
}

func (s *Source) list() ([]DeviceInfo, error) {
	if s.preferred == TestPatternID {
		return []DeviceInfo{{DeviceID: TestPatternID, DeviceName: "Test Pattern"}}, nil
	}
	return s.detector.FindDevices()
}

// CameraIDs returns the stable IDs of every available camera.
func (s *Source) CameraIDs() ([]string, error) {
	devices, err := s.list()
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(devices))
	for i, d := range devices {
		ids[i] = d.DeviceID
	}
	return ids, nil
}

// OpenCamera binds the camera with the given ID or device path. An empty id
// binds the preferred camera, falling back to the first one found.
func (s *Source) OpenCamera(id string) error {
	devices, err := s.list()
	if err != nil {
		return fmt.Errorf("list cameras: %w", err)
	}
	if len(devices) == 0 {
		return ErrNoCamera
	}

	explicit := id != ""
	if !explicit {
		id = s.preferred
	}
	chosen, found := devices[0], id == ""
	for _, d := range devices {
		if id != "" && (d.DeviceID == id || d.DevicePath == id) {
			chosen, found = d, true
			break
		}
	}
	if !found {
		if explicit {
			return fmt.Errorf("%w: %s", ErrNoCamera, id)
		}
		s.logger.Warn("Preferred camera not found, using first available", "preferred", id, "camera_id", chosen.DeviceID)
	}

	s.mu.Lock()
	s.current = chosen
	s.bound = true
	s.torch = false
	s.mu.Unlock()

	s.logger.Info("Camera bound", "camera_id", chosen.DeviceID, "path", chosen.DevicePath, "name", chosen.DeviceName)
	return nil
}

// Close unbinds the camera and turns the torch off.
func (s *Source) Close() {
	s.mu.Lock()
	bound, torch, path := s.bound, s.torch, s.current.DevicePath
	s.bound = false
	s.torch = false
	s.mu.Unlock()

	if bound && torch && path != "" {
		if err := s.controls.SetTorch(path, false); err != nil {
			s.logger.Debug("Failed to turn torch off", "error", err)
		}
	}
}

// Bound reports whether a camera is bound.
func (s *Source) Bound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound
}

// Current returns the bound camera.
func (s *Source) Current() (DeviceInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.bound
}

// CurrentCameraID returns the bound camera's ID, or "" when unbound.
func (s *Source) CurrentCameraID() string {
	info, ok := s.Current()
	if !ok {
		return ""
	}
	return info.DeviceID
}

// DevicePath returns the bound camera's node. It is empty for the test
// pattern.
func (s *Source) DevicePath() string {
	info, _ := s.Current()
	return info.DevicePath
}

// Facing returns the bound camera's facing.
func (s *Source) Facing() Facing {
	info, _ := s.Current()
	return InferFacing(info.DeviceName)
}

// Next binds the camera after the current one, wrapping around.
func (s *Source) Next() error {
	ids, err := s.CameraIDs()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return ErrNoCamera
	}
	current := s.CurrentCameraID()
	next := ids[0]
	for i, id := range ids {
		if id == current {
			next = ids[(i+1)%len(ids)]
			break
		}
	}
	return s.OpenCamera(next)
}

func (s *Source) boundPath() (string, error) {
	info, ok := s.Current()
	if !ok {
		return "", ErrCameraNotBound
	}
	if info.DevicePath == "" {
		return "", ErrUnsupported
	}
	return info.DevicePath, nil
}

// SetTorch switches the camera flash LED to torch mode.
func (s *Source) SetTorch(on bool) error {
	path, err := s.boundPath()
	if err != nil {
		return err
	}
	if err := s.controls.SetTorch(path, on); err != nil {
		return err
	}
	s.mu.Lock()
	s.torch = on
	s.mu.Unlock()
	return nil
}

// TorchEnabled reports the last torch state set through this source.
func (s *Source) TorchEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.torch
}

// ZoomRange returns the driver's zoom range.
func (s *Source) ZoomRange() (minZoom, maxZoom float64, err error) {
	path, err := s.boundPath()
	if err != nil {
		return 0, 0, err
	}
	r, err := s.controls.ZoomRange(path)
	if err != nil {
		return 0, 0, err
	}
	return float64(r.Min), float64(r.Max), nil
}

// Zoom returns the raw zoom reading.
func (s *Source) Zoom() (float64, error) {
	path, err := s.boundPath()
	if err != nil {
		return 0, err
	}
	v, err := s.controls.Zoom(path)
	return float64(v), err
}

// SetZoom sets the zoom level in driver units.
func (s *Source) SetZoom(level float64) error {
	path, err := s.boundPath()
	if err != nil {
		return err
	}
	return s.controls.SetZoom(path, int(level))
}

// Focus runs autofocus. x and y are normalized coordinates in [0,1]; the
// driver interface has no focus regions so they are only logged.
func (s *Source) Focus(x, y float64) error {
	path, err := s.boundPath()
	if err != nil {
		return err
	}
	s.logger.Debug("Focus requested", "x", x, "y", y, "path", path)
	return s.controls.Focus(path)
}
