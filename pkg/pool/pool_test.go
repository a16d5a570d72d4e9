// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package pool

import (
	"strings"
	"sync"
	"testing"
)

func TestBuffer(t *testing.T) {
	b := GetBuffer()
	defer PutBuffer(b)

	if b.Len() != 0 {
		t.Fatalf("fresh buffer has %d bytes", b.Len())
	}
	if b.Cap() < 64 {
		t.Errorf("cap = %d, want at least 64", b.Cap())
	}

	b.WriteString("G1")
	b.WriteByte(' ')
	b.WriteByte('X')
	b.AppendFloat(12.5, 'f', -1)
	b.Write([]byte(" F"))
	b.AppendInt(3000)

	if got := b.String(); got != "G1 X12.5 F3000" {
		t.Errorf("String() = %q", got)
	}
	if string(b.Bytes()) != b.String() {
		t.Error("Bytes and String disagree")
	}
}

func TestBufferReset(t *testing.T) {
	b := GetBuffer()
	defer PutBuffer(b)

	b.WriteString("G28")
	capBefore := b.Cap()
	b.Reset()
	if b.Len() != 0 {
		t.Errorf("Len after Reset = %d", b.Len())
	}
	if b.Cap() != capBefore {
		t.Errorf("Reset should keep capacity: %d -> %d", capBefore, b.Cap())
	}
}

func TestBufferChecksum(t *testing.T) {
	tests := []struct {
		line string
		want byte
	}{
		{"", 0},
		{"N1 G28", 18},
		{"N0 M110 N0", 125},
	}
	for _, tt := range tests {
		b := GetBuffer()
		b.WriteString(tt.line)
		if got := b.Checksum(); got != tt.want {
			t.Errorf("Checksum(%q) = %d, want %d", tt.line, got, tt.want)
		}
		PutBuffer(b)
	}
}

func TestGetBufferIsEmpty(t *testing.T) {
	b := GetBuffer()
	b.WriteString("M104 S200")
	PutBuffer(b)

	// Whatever the pool hands back next must be empty.
	b = GetBuffer()
	defer PutBuffer(b)
	if b.Len() != 0 {
		t.Errorf("reused buffer has %d bytes", b.Len())
	}
}

func TestBufferOversized(t *testing.T) {
	b := GetBuffer()
	b.WriteString(strings.Repeat("x", maxPooledCap+1))
	PutBuffer(b) // dropped, must not panic

	PutBuffer(nil)
}

func TestBufferPoolConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b := GetBuffer()
				b.WriteString("N")
				b.AppendInt(int64(n))
				if b.Len() < 2 {
					t.Errorf("short buffer: %q", b.String())
				}
				PutBuffer(b)
			}
		}(i)
	}
	wg.Wait()
}

func BenchmarkBufferPool(b *testing.B) {
	for i := 0; i < b.N; i++ {
		buf := GetBuffer()
		buf.WriteString("G1 X")
		buf.AppendFloat(117.5, 'f', -1)
		_ = buf.String()
		PutBuffer(buf)
	}
}
