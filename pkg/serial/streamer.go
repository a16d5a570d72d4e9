// Marlin line streaming
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package serial

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"cncgo/pkg/errors"
	"cncgo/pkg/gcode"
	"cncgo/pkg/log"
	"cncgo/pkg/metrics"
	"cncgo/pkg/pool"
)

// StreamerConfig tunes a Streamer.
type StreamerConfig struct {
	// LineTimeout bounds the wait for "ok" after each line. Marlin "busy"
	// keepalives restart the wait.
	LineTimeout time.Duration

	// MaxResends is the number of times one line may be resent.
	MaxResends int

	Logger  *log.Logger
	Metrics *metrics.EmitterMetrics
}

// DefaultStreamerConfig returns the settings used by the CLI.
func DefaultStreamerConfig() StreamerConfig {
	return StreamerConfig{
		LineTimeout: 30 * time.Second,
		MaxResends:  5,
	}
}

type reply struct {
	line string
	err  error
}

// Streamer sends G-code to a Marlin printer one line at a time, numbering
// and checksumming each line and waiting for its acknowledgement.
type Streamer struct {
	rw      io.ReadWriter
	cfg     StreamerConfig
	log     *log.Logger
	metrics *metrics.EmitterMetrics

	replies chan reply
	done    chan struct{}
	once    sync.Once

	next  int
	acked int
}

// NewStreamer starts reading replies from rw. Call Close to stop reading;
// the reader also stops when rw returns an error other than ErrTimeout.
func NewStreamer(rw io.ReadWriter, cfg StreamerConfig) *Streamer {
	def := DefaultStreamerConfig()
	if cfg.LineTimeout <= 0 {
		cfg.LineTimeout = def.LineTimeout
	}
	if cfg.MaxResends <= 0 {
		cfg.MaxResends = def.MaxResends
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.GetLogger("serial")
	}
	s := &Streamer{
		rw:      rw,
		cfg:     cfg,
		log:     logger,
		metrics: cfg.Metrics,
		replies: make(chan reply, 64),
		done:    make(chan struct{}),
		next:    1,
	}
	go s.readLoop()
	return s
}

func (s *Streamer) readLoop() {
	r := bufio.NewReader(s.rw)
	var partial string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if stderrors.Is(err, ErrTimeout) {
				partial += line
				continue
			}
			s.deliver(reply{err: err})
			return
		}
		s.deliver(reply{line: strings.TrimSpace(partial + line)})
		partial = ""
	}
}

func (s *Streamer) deliver(r reply) {
	select {
	case s.replies <- r:
	case <-s.done:
	}
}

// Close stops the reply reader. It does not close the underlying port.
func (s *Streamer) Close() {
	s.once.Do(func() { close(s.done) })
}

// Acked returns the number of lines acknowledged so far, excluding the
// line number reset.
func (s *Streamer) Acked() int {
	return s.acked
}

// Reset sends "M110 N0" so the printer's next expected line is 1.
func (s *Streamer) Reset(ctx context.Context) error {
	s.next = 0
	if err := s.sendNumbered(ctx, "M110 N0"); err != nil {
		return err
	}
	s.next = 1
	return nil
}

// Send sends one command and waits for it to be acknowledged. Comments
// are stripped; a blank command is not sent.
func (s *Streamer) Send(ctx context.Context, cmd string) error {
	cmd = gcode.StripComment(cmd)
	if cmd == "" {
		return nil
	}
	if err := s.sendNumbered(ctx, cmd); err != nil {
		return err
	}
	s.next++
	s.acked++
	s.metrics.RecordStreamLine()
	return nil
}

// Stream resets the line counter then sends every command in r. It
// returns the number of commands acknowledged.
func (s *Streamer) Stream(ctx context.Context, r io.Reader) (int, error) {
	if err := s.Reset(ctx); err != nil {
		return 0, err
	}
	start := s.acked
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := s.Send(ctx, scanner.Text()); err != nil {
			return s.acked - start, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return s.acked - start, errors.StreamError("read", "reading source failed", err)
	}
	s.log.Info("streamed %d commands", s.acked-start)
	return s.acked - start, nil
}

// frame formats a numbered, checksummed line.
func frame(n int, cmd string) string {
	buf := pool.GetBuffer()
	defer pool.PutBuffer(buf)
	buf.WriteByte('N')
	buf.AppendInt(int64(n))
	buf.WriteByte(' ')
	buf.WriteString(cmd)
	cs := buf.Checksum()
	buf.WriteByte('*')
	buf.AppendInt(int64(cs))
	buf.WriteByte('\n')
	return buf.String()
}

func (s *Streamer) sendNumbered(ctx context.Context, cmd string) error {
	line := frame(s.next, cmd)
	resends := 0
	for {
		if _, err := io.WriteString(s.rw, line); err != nil {
			return errors.StreamError("write", "sending line "+strconv.Itoa(s.next)+" failed", err)
		}
		s.log.WithField("line", s.next).Debug(strings.TrimSpace(line))

		resend, err := s.awaitOK(ctx)
		if err != nil {
			return err
		}
		if resend < 0 {
			return nil
		}
		if resend != s.next {
			return errors.StreamError("resend", fmt.Sprintf("printer requested line %d, expected %d", resend, s.next), nil)
		}
		resends++
		if resends > s.cfg.MaxResends {
			return errors.StreamError("resend", fmt.Sprintf("line %d resent %d times", s.next, s.cfg.MaxResends), nil)
		}
		s.metrics.RecordResend()
		s.log.WithField("line", s.next).Warn("resending")
	}
}

// awaitOK reads replies until "ok". It returns the requested line number
// if the printer asked for a resend, else -1.
func (s *Streamer) awaitOK(ctx context.Context) (int, error) {
	timer := time.NewTimer(s.cfg.LineTimeout)
	defer func() { timer.Stop() }()

	resend := -1
	for {
		select {
		case <-ctx.Done():
			return -1, errors.StreamError("wait", "cancelled", ctx.Err())
		case <-timer.C:
			return -1, errors.StreamError("wait", fmt.Sprintf("no ok for line %d within %s", s.next, s.cfg.LineTimeout), nil)
		case r := <-s.replies:
			if r.err != nil {
				return -1, errors.StreamError("read", "printer connection lost", r.err)
			}
			switch kind, n := classify(r.line); kind {
			case replyOK:
				return resend, nil
			case replyResend:
				resend = n
			case replyBusy:
				timer.Stop()
				timer = time.NewTimer(s.cfg.LineTimeout)
			case replyError:
				if resend < 0 && !strings.Contains(strings.ToLower(r.line), "checksum") &&
					!strings.Contains(strings.ToLower(r.line), "line number") {
					return -1, errors.StreamError("printer", r.line, nil)
				}
				s.log.Debug("%s", r.line)
			default:
				s.log.WithField("reply", r.line).Debug("printer")
			}
		}
	}
}

type replyKind int

const (
	replyOther replyKind = iota
	replyOK
	replyResend
	replyBusy
	replyError
)

// classify recognises Marlin host protocol replies.
func classify(line string) (replyKind, int) {
	lower := strings.ToLower(line)
	switch {
	case lower == "ok" || strings.HasPrefix(lower, "ok "):
		return replyOK, 0
	case strings.HasPrefix(lower, "resend:") || strings.HasPrefix(lower, "rs "):
		i := strings.IndexAny(lower, ": ")
		n, err := strconv.Atoi(strings.TrimSpace(lower[i+1:]))
		if err != nil {
			return replyOther, 0
		}
		return replyResend, n
	case strings.HasPrefix(lower, "echo:busy") || strings.HasPrefix(lower, "busy:"):
		return replyBusy, 0
	case strings.HasPrefix(lower, "error:") || strings.HasPrefix(lower, "!!"):
		return replyError, 0
	}
	return replyOther, 0
}
