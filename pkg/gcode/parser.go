// G-code line parsing
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

// Package gcode parses G-code text and replays it against a simple machine
// model. It is used to read back emitted files and by the mock printer.
package gcode

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrSyntax reports a malformed word.
	ErrSyntax = errors.New("syntax error")

	// ErrChecksum reports a line whose "*" checksum does not match.
	ErrChecksum = errors.New("checksum mismatch")
)

// Command is one parsed G-code line.
type Command struct {
	// Code is the upper-cased command word, e.g. "G1" or "M104".
	Code string

	// Params maps parameter letters to their raw text. A letter given
	// without a value (as in "G28 X") maps to "".
	Params map[byte]string

	// LineNumber is the N word of a numbered line, or -1.
	LineNumber int

	// Raw is the line as received.
	Raw string
}

// Has reports whether the letter was given.
func (c *Command) Has(letter byte) bool {
	_, ok := c.Params[letter]
	return ok
}

// Float returns the numeric value of a parameter. ok is false when the
// letter is absent or carries no value.
func (c *Command) Float(letter byte) (v float64, ok bool) {
	s, present := c.Params[letter]
	if !present || s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FloatOr returns the parameter value or fallback.
func (c *Command) FloatOr(letter byte, fallback float64) float64 {
	if v, ok := c.Float(letter); ok {
		return v
	}
	return fallback
}

func (c *Command) String() string {
	var sb strings.Builder
	sb.WriteString(c.Code)
	for _, letter := range sortedLetters(c.Params) {
		sb.WriteByte(' ')
		sb.WriteByte(letter)
		sb.WriteString(c.Params[letter])
	}
	return sb.String()
}

func sortedLetters(params map[byte]string) []byte {
	letters := make([]byte, 0, len(params))
	for l := range params {
		letters = append(letters, l)
	}
	sort.Slice(letters, func(i, j int) bool { return letters[i] < letters[j] })
	return letters
}

var reParenComment = regexp.MustCompile(`\([^)]*\)`)

// StripComment removes ";" and parenthesised comments and surrounding space.
func StripComment(line string) string {
	if idx := strings.IndexByte(line, ';'); idx >= 0 {
		line = line[:idx]
	}
	if strings.IndexByte(line, '(') >= 0 {
		line = reParenComment.ReplaceAllString(line, " ")
	}
	return strings.TrimSpace(line)
}

// IsComment reports whether the line holds only a ";" comment.
func IsComment(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), ";")
}

// Checksum returns the Marlin checksum of s: the XOR of its bytes.
func Checksum(s string) byte {
	var cs byte
	for i := 0; i < len(s); i++ {
		cs ^= s[i]
	}
	return cs
}

// Parse parses a single line. It returns nil for blank and comment-only
// lines. A trailing "*<checksum>" is verified and removed and a leading
// "N<n>" is recorded in LineNumber.
func Parse(line string) (*Command, error) {
	ln := StripComment(line)
	if ln == "" {
		return nil, nil
	}

	if idx := strings.LastIndexByte(ln, '*'); idx >= 0 {
		want, err := strconv.Atoi(strings.TrimSpace(ln[idx+1:]))
		if err != nil {
			return nil, fmt.Errorf("%w: bad checksum in %q", ErrSyntax, line)
		}
		body := ln[:idx]
		if int(Checksum(body)) != want {
			return nil, fmt.Errorf("%w: %q", ErrChecksum, line)
		}
		ln = strings.TrimSpace(body)
	}

	fields := strings.Fields(ln)
	cmd := &Command{Params: make(map[byte]string), LineNumber: -1, Raw: line}

	if first := strings.ToUpper(fields[0]); first[0] == 'N' {
		n, err := strconv.Atoi(first[1:])
		if err != nil {
			return nil, fmt.Errorf("%w: bad line number %q", ErrSyntax, fields[0])
		}
		cmd.LineNumber = n
		fields = fields[1:]
		if len(fields) == 0 {
			return nil, fmt.Errorf("%w: line number without command", ErrSyntax)
		}
	}

	cmd.Code = strings.ToUpper(fields[0])
	if !isWord(cmd.Code) {
		return nil, fmt.Errorf("%w: bad command %q", ErrSyntax, fields[0])
	}

	for _, f := range fields[1:] {
		letter := upper(f[0])
		if letter < 'A' || letter > 'Z' {
			return nil, fmt.Errorf("%w: bad word %q", ErrSyntax, f)
		}
		value := f[1:]
		if value != "" {
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				return nil, fmt.Errorf("%w: bad value %q", ErrSyntax, f)
			}
		}
		cmd.Params[letter] = value
	}
	return cmd, nil
}

// isWord reports whether s is a letter followed by a number, like "G1" or "M104".
func isWord(s string) bool {
	if len(s) < 2 || s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	_, err := strconv.ParseFloat(s[1:], 64)
	return err == nil
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
