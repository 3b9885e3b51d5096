//go:build linux

// Package hotplug receives kernel uevents over netlink without cgo or
// libudev.
package hotplug

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// Actions carried by uevents.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
	ActionChange = "change"
)

// Subsystems watched by livecast.
const (
	SubsystemVideo4Linux = "video4linux"
	SubsystemSound       = "sound"
)

// netlinkKobjectUEvent is the netlink protocol for kernel object events.
const netlinkKobjectUEvent = 15

// Event is one kernel uevent.
type Event struct {
	Action    string
	KObj      string // /devices/pci0000:00/...
	Subsystem string
	DevName   string // video0, snd/pcmC1D0c
	Env       map[string]string
}

// DevNode returns the /dev path of the event's device node, if any.
func (e Event) DevNode() string {
	if e.DevName == "" {
		return ""
	}
	return "/dev/" + e.DevName
}

// Monitor listens for kernel uevents.
type Monitor struct {
	fd int

	mu         sync.RWMutex
	subsystems map[string]struct{}
}

// NewMonitor opens a netlink socket bound to the kernel broadcast group.
func NewMonitor() (*Monitor, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, netlinkKobjectUEvent)
	if err != nil {
		return nil, err
	}
	if err := unix.Bind(fd, &unix.SockaddrNetlink{Family: unix.AF_NETLINK, Groups: 1}); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	// A receive timeout lets Run notice context cancellation.
	tv := unix.Timeval{Sec: 1}
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	return &Monitor{fd: fd, subsystems: make(map[string]struct{})}, nil
}

// AddSubsystemFilter restricts delivery to the given subsystem. With no
// filters every event passes.
func (m *Monitor) AddSubsystemFilter(subsystem string) {
	m.mu.Lock()
	m.subsystems[subsystem] = struct{}{}
	m.mu.Unlock()
}

func (m *Monitor) accepts(subsystem string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.subsystems) == 0 {
		return true
	}
	_, ok := m.subsystems[subsystem]
	return ok
}

// Close releases the socket.
func (m *Monitor) Close() error {
	return unix.Close(m.fd)
}

// Run delivers events until ctx is cancelled or the socket fails. It closes
// events on return.
func (m *Monitor) Run(ctx context.Context, events chan<- Event) error {
	defer close(events)

	buf := make([]byte, 16*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, _, err := unix.Recvfrom(m.fd, buf, 0)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				continue
			}
			return err
		}

		ev, ok := ParseUEvent(buf[:n])
		if !ok || !m.accepts(ev.Subsystem) {
			continue
		}

		select {
		case events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ParseUEvent parses "ACTION@KOBJ\0KEY=VALUE\0...". Messages re-broadcast
// by udevd carry a binary "libudev" header and are skipped; the kernel
// broadcast group already delivers the same event.
func ParseUEvent(data []byte) (Event, bool) {
	if len(data) == 0 || bytes.HasPrefix(data, []byte("libudev")) {
		return Event{}, false
	}

	parts := bytes.Split(data, []byte{0})
	action, kobj, ok := strings.Cut(string(parts[0]), "@")
	if !ok || action == "" {
		return Event{}, false
	}

	ev := Event{Action: action, KObj: kobj, Env: make(map[string]string)}
	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(string(part), "=")
		if !ok || key == "" {
			continue
		}
		ev.Env[key] = value
		switch key {
		case "SUBSYSTEM":
			ev.Subsystem = value
		case "DEVNAME":
			ev.DevName = value
		}
	}
	return ev, true
}
