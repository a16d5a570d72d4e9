package gcode

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// Summary describes a replayed G-code stream.
type Summary struct {
	Lines    int
	Commands int
	Comments int
	Blank    int

	// Codes counts commands by code.
	Codes map[string]int

	// Flavor is taken from a "; FLAVOR:" comment.
	Flavor string

	// Metric is false once G20 has been seen.
	Metric bool

	Final Position
	Box   Box

	TravelDistance  float64
	ExtrudeDistance float64

	// Highest temperature targets requested.
	ExtruderTarget float64
	BedTarget      float64

	Dwell time.Duration
}

// Summary returns the statistics gathered so far.
func (m *Machine) Summary() Summary {
	s := m.stats
	s.Codes = make(map[string]int, len(m.stats.Codes))
	for k, v := range m.stats.Codes {
		s.Codes[k] = v
	}
	s.Final = m.pos
	return s
}

// SortedCodes returns the command codes seen, in order.
func (s Summary) SortedCodes() []string {
	codes := make([]string, 0, len(s.Codes))
	for c := range s.Codes {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

const flavorPrefix = "FLAVOR:"

// Inspect replays every line of r on a fresh Machine.
func Inspect(r io.Reader) (Summary, error) {
	m := NewMachine()
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			m.stats.Blank++
			continue
		case IsComment(trimmed):
			m.stats.Comments++
			text := strings.TrimSpace(strings.TrimPrefix(trimmed, ";"))
			if m.stats.Flavor == "" && strings.HasPrefix(text, flavorPrefix) {
				m.stats.Flavor = strings.TrimPrefix(text, flavorPrefix)
			}
			continue
		}

		if _, err := m.Execute(line); err != nil {
			m.stats.Lines = lineNo
			return m.Summary(), fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	m.stats.Lines = lineNo
	if err := scanner.Err(); err != nil {
		return m.Summary(), err
	}
	return m.Summary(), nil
}
