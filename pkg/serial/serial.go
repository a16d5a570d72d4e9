// Package serial connects to Marlin printers over a serial device or TCP
// and streams G-code using the numbered, checksummed line protocol.
package serial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	cerrors "cncgo/pkg/errors"
)

// Common errors
var (
	ErrTimeout = errors.New("serial: operation timed out")
	ErrClosed  = errors.New("serial: port closed")
)

// Config holds serial port configuration.
type Config struct {
	// Device path (e.g., /dev/ttyUSB0, /dev/ttyACM0, COM3)
	Device string

	// Baud rate (default: 115200)
	BaudRate int

	// Read timeout for individual reads (default: 100ms). Reads that time
	// out return ErrTimeout.
	ReadTimeout time.Duration
}

// DefaultBaudRate is the usual Marlin USB rate.
const DefaultBaudRate = 115200

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		BaudRate:    DefaultBaudRate,
		ReadTimeout: 100 * time.Millisecond,
	}
}

func (c Config) withDefaults() Config {
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 100 * time.Millisecond
	}
	return c
}

// Port is an open connection to a printer.
type Port interface {
	io.ReadWriteCloser

	// Flush discards unread input and unsent output.
	Flush() error
}

// Dial connects to a printer exposed over TCP, such as a serial-to-network
// bridge or the mock printer.
func Dial(ctx context.Context, addr string) (Port, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, cerrors.StreamError("dial", "connect to "+addr+" failed", err)
	}
	return &netPort{Conn: conn}, nil
}

type netPort struct {
	net.Conn
}

func (p *netPort) Flush() error { return nil }

// ListPorts returns a list of available serial port device paths.
func ListPorts() ([]string, error) {
	var patterns []string
	switch runtime.GOOS {
	case "linux":
		patterns = []string{
			"/dev/ttyUSB*",
			"/dev/ttyACM*",
			"/dev/serial/by-id/*",
		}
	case "darwin":
		patterns = []string{
			"/dev/tty.usbserial*",
			"/dev/tty.usbmodem*",
			"/dev/cu.usbserial*",
			"/dev/cu.usbmodem*",
		}
	default:
		return nil, fmt.Errorf("serial: port listing not supported on %s", runtime.GOOS)
	}

	seen := make(map[string]bool)
	var ports []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		for _, m := range matches {
			// Resolve symlinks (especially for /dev/serial/by-id/)
			resolved, err := filepath.EvalSymlinks(m)
			if err != nil {
				resolved = m
			}
			if !seen[resolved] {
				seen[resolved] = true
				ports = append(ports, resolved)
			}
		}
	}

	sort.Strings(ports)
	return ports, nil
}
