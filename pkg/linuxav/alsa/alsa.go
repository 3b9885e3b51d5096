//go:build linux

// Package alsa inspects ALSA capture devices without cgo.
//
// It answers two questions before an encoder opens a microphone: which
// capture devices exist, and whether a given one is already held by
// another process.
package alsa
