//go:build !linux && !darwin

package serial

import (
	"errors"
	"fmt"

	tarm "github.com/tarm/serial"
)

// tarmPort adapts github.com/tarm/serial, which reports a read timeout as
// an empty read.
type tarmPort struct {
	*tarm.Port
}

// Open opens a serial device in 8N1 mode.
func Open(cfg Config) (Port, error) {
	if cfg.Device == "" {
		return nil, errors.New("serial: device path required")
	}
	cfg = cfg.withDefaults()

	p, err := tarm.OpenPort(&tarm.Config{
		Name:        cfg.Device,
		Baud:        cfg.BaudRate,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", cfg.Device, err)
	}
	return &tarmPort{Port: p}, nil
}

func (p *tarmPort) Read(buf []byte) (int, error) {
	n, err := p.Port.Read(buf)
	if n == 0 && err == nil {
		return 0, ErrTimeout
	}
	return n, err
}
