// G-code number formatting
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package emitter

import (
	"strconv"
	"strings"

	"cncgo/pkg/pool"
)

// formatCoord renders a coordinate or extrusion value. The result always
// carries a decimal point so firmware reads it as a real number.
func formatCoord(v float64) string {
	if v == 0 {
		v = 0 // drop the sign of negative zero
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// formatWhole renders feed rates, dwell times and temperatures, which the
// firmware expects as integers when they are whole.
func formatWhole(v float64) string {
	if v == 0 {
		v = 0
	}
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// command builds one G-code line from a code and its parameter words.
// String finishes the line and hands the buffer back to the pool, so a
// command must not be used after String.
type command struct {
	buf *pool.Buffer
}

func newCommand(code string) *command {
	c := &command{buf: pool.GetBuffer()}
	c.buf.WriteString(code)
	return c
}

func (c *command) coord(letter byte, v float64) *command {
	c.buf.WriteByte(' ')
	c.buf.WriteByte(letter)
	c.buf.WriteString(formatCoord(v))
	return c
}

func (c *command) whole(letter byte, v float64) *command {
	c.buf.WriteByte(' ')
	c.buf.WriteByte(letter)
	c.buf.WriteString(formatWhole(v))
	return c
}

func (c *command) String() string {
	s := c.buf.String()
	pool.PutBuffer(c.buf)
	c.buf = nil
	return s
}
