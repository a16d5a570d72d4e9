//go:build darwin

package serial

import "golang.org/x/sys/unix"

// Platform-specific ioctl constants for macOS
const (
	ioctlGetTermios = unix.TIOCGETA
	ioctlSetTermios = unix.TIOCSETA
)

// setSpeed sets the baud rate on the termios struct for macOS.
func setSpeed(termios *unix.Termios, speed uint32) {
	termios.Ispeed = uint64(speed)
	termios.Ospeed = uint64(speed)
}

// flushPort discards both queues (FREAD|FWRITE).
func flushPort(fd int) error {
	return unix.IoctlSetPointerInt(fd, unix.TIOCFLUSH, 3)
}

var platformSpeeds = map[int]uint32{}
