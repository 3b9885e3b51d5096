//go:build linux

// Package v4l2 provides pure Go bindings to the parts of the Video4Linux2
// API used for camera discovery and camera controls.
//
// Every structure bound here is pointer free, so the same layout and ioctl
// numbers apply to amd64, arm64 and 32-bit arm without cgo.
//
// # Device Enumeration
//
//	devices, err := v4l2.FindDevices()
//	for _, dev := range devices {
//	    fmt.Printf("%s: %s\n", dev.DevicePath, dev.DeviceName)
//	}
//
// # Controls
//
// Torch, zoom and focus are exposed as V4L2 controls:
//
//	info, err := v4l2.QueryControl("/dev/video0", v4l2.CIDZoomAbsolute)
//	if err == nil && info.Usable() {
//	    _ = v4l2.SetControl("/dev/video0", v4l2.CIDZoomAbsolute, info.Minimum)
//	}
package v4l2
