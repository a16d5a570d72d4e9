package serial

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"cncgo/pkg/gcode"
	"cncgo/pkg/log"
)

// Simulator answers the Marlin host protocol on a connection, replaying
// every accepted command against a gcode.Machine. It backs the mock
// printer and the streaming tests.
type Simulator struct {
	mu       sync.Mutex
	machine  *gcode.Machine
	lastLine int
	received int
	garble   map[int]bool
	log      *log.Logger
}

// NewSimulator creates a simulator whose last accepted line is 0.
func NewSimulator() *Simulator {
	return &Simulator{
		machine: gcode.NewMachine(),
		garble:  make(map[int]bool),
		log:     log.GetLogger("simulator"),
	}
}

// GarbleOnce makes the first receipt of line n fail its checksum, so the
// host has to resend it.
func (s *Simulator) GarbleOnce(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.garble[n] = true
}

// Position returns the simulated head position.
func (s *Simulator) Position() gcode.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Position()
}

// Received returns the number of commands accepted, excluding resets.
func (s *Simulator) Received() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.received
}

// Serve reads lines from rw until it fails and writes the replies.
// io.EOF ends the session cleanly.
func (s *Simulator) Serve(rw io.ReadWriter) error {
	scanner := bufio.NewScanner(rw)
	for scanner.Scan() {
		replies := s.Handle(scanner.Text())
		if len(replies) == 0 {
			continue
		}
		if _, err := io.WriteString(rw, strings.Join(replies, "\n")+"\n"); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil && !stderrors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Handle processes one received line and returns the reply lines.
func (s *Simulator) Handle(line string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd, err := gcode.Parse(line)
	switch {
	case stderrors.Is(err, gcode.ErrChecksum):
		return s.resend("checksum mismatch")
	case err != nil:
		return []string{fmt.Sprintf("echo:Unknown command: %q", strings.TrimSpace(line)), "ok"}
	case cmd == nil:
		return nil
	}

	if cmd.LineNumber >= 0 {
		if cmd.Code == "M110" {
			s.lastLine = int(cmd.FloatOr('N', float64(cmd.LineNumber)))
			return []string{"ok"}
		}
		if cmd.LineNumber != s.lastLine+1 {
			return s.resend("Line Number is not Last Line Number+1")
		}
		if s.garble[cmd.LineNumber] {
			delete(s.garble, cmd.LineNumber)
			return s.resend("checksum mismatch")
		}
		s.lastLine = cmd.LineNumber
	}
	s.received++

	if err := s.machine.Apply(cmd); err != nil {
		return []string{"Error:" + err.Error(), "ok"}
	}
	s.log.WithField("line", cmd.LineNumber).Debug(cmd.String())

	switch cmd.Code {
	case "M114":
		p := s.machine.Position()
		return []string{fmt.Sprintf("X:%.2f Y:%.2f Z:%.2f E:%.2f Count X:0 Y:0 Z:0", p.X, p.Y, p.Z, p.E), "ok"}
	case "M105":
		ext, bed := s.machine.Targets()
		return []string{fmt.Sprintf("ok T:%.1f /%.1f B:%.1f /%.1f", ext, ext, bed, bed)}
	case "M109", "M190":
		return []string{"echo:busy: processing", "ok"}
	}
	return []string{"ok"}
}

func (s *Simulator) resend(reason string) []string {
	return []string{
		fmt.Sprintf("Error:%s, Last Line: %d", reason, s.lastLine),
		fmt.Sprintf("Resend: %d", s.lastLine+1),
		"ok",
	}
}
