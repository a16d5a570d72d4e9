// Buffer pool for G-code line assembly
//
// Every emitted or streamed command is built in a short-lived byte buffer.
// The pool keeps those buffers around between lines.
//
// Usage:
//
//	buf := pool.GetBuffer()
//	defer pool.PutBuffer(buf)
//	buf.WriteString("G1 X")
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package pool

import (
	"strconv"
	"sync"
)

// maxPooledCap keeps oversized buffers out of the pool.
const maxPooledCap = 4096

// Buffer is an append-only byte buffer sized for one G-code line.
type Buffer struct {
	buf []byte
}

var bufferPool = sync.Pool{
	New: func() any {
		return &Buffer{buf: make([]byte, 0, 64)}
	},
}

// GetBuffer gets an empty buffer from the pool
func GetBuffer() *Buffer {
	b := bufferPool.Get().(*Buffer)
	b.buf = b.buf[:0]
	return b
}

// PutBuffer returns a buffer to the pool
func PutBuffer(b *Buffer) {
	if b == nil || cap(b.buf) > maxPooledCap {
		return
	}
	bufferPool.Put(b)
}

// Bytes returns the buffer contents. The slice is only valid until the
// buffer is returned to the pool.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// String copies the contents out as a string.
func (b *Buffer) String() string {
	return string(b.buf)
}

// Write appends p.
func (b *Buffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// WriteByte appends a single byte
func (b *Buffer) WriteByte(c byte) error {
	b.buf = append(b.buf, c)
	return nil
}

// WriteString appends s.
func (b *Buffer) WriteString(s string) (int, error) {
	b.buf = append(b.buf, s...)
	return len(s), nil
}

// AppendInt appends the decimal form of n.
func (b *Buffer) AppendInt(n int64) {
	b.buf = strconv.AppendInt(b.buf, n, 10)
}

// AppendFloat appends f using strconv.AppendFloat's fmt and precision.
func (b *Buffer) AppendFloat(f float64, fmt byte, prec int) {
	b.buf = strconv.AppendFloat(b.buf, f, fmt, prec, 64)
}

func (b *Buffer) Len() int { return len(b.buf) }
func (b *Buffer) Cap() int { return cap(b.buf) }

// Reset clears the buffer but keeps its capacity
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
}

// Checksum returns the XOR of every byte written so far, the value Marlin
// expects after '*' on a numbered line.
func (b *Buffer) Checksum() byte {
	var cs byte
	for _, c := range b.buf {
		cs ^= c
	}
	return cs
}
