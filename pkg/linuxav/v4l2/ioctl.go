//go:build linux

package v4l2

import (
	"bytes"
	"unsafe"

	"golang.org/x/sys/unix"
)

func ioctl(fd int, req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func open(path string) (int, error) {
	return unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
}

func closeFD(fd int) {
	_ = unix.Close(fd)
}

// withDevice opens path, runs fn with the descriptor and closes it.
func withDevice(path string, fn func(fd int) error) error {
	fd, err := open(path)
	if err != nil {
		return err
	}
	defer closeFD(fd)
	return fn(fd)
}

// cstr converts a null-terminated byte slice to a Go string.
func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
