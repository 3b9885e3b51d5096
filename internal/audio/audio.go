// Package audio lists microphones the encoder can capture from.
package audio

// Device is an ALSA capture device.
type Device struct {
	CardNumber   int    `json:"card_number" example:"1" doc:"Sound card index"`
	CardID       string `json:"card_id" example:"C920" doc:"Card identifier"`
	CardName     string `json:"card_name" example:"HD Pro Webcam C920" doc:"Card name"`
	DeviceNumber int    `json:"device_number" example:"0" doc:"Device index on card"`
	ALSADevice   string `json:"alsa_device" example:"hw:1,0" doc:"ALSA device string, usable as audio.device"`
	Busy         bool   `json:"busy" doc:"Device is held by another process"`
}

// Detector enumerates capture devices.
type Detector interface {
	ListDevices() ([]Device, error)
}

// NewDetector returns the detector for this platform.
func NewDetector() Detector {
	return newPlatformDetector()
}
