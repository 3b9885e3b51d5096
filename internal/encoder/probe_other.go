//go:build !linux

package encoder

func probeAudioDevice(string) error { return nil }
