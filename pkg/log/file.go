// Size-rotated log files
//
// A long print stream logs every acknowledged line at DEBUG, which adds up.
// FileWriter caps the log at a fixed size and keeps a few numbered backups:
// cncgo.log is live, cncgo.log.1 the previous file, and so on.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package log

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// FileConfig configures a FileWriter.
type FileConfig struct {
	// Path is the live log file.
	Path string

	// MaxBytes is the size at which the file is rotated. Default 10 MiB.
	MaxBytes int64

	// Backups is how many rotated files to keep. Default 3.
	Backups int

	// Compress gzips rotated files.
	Compress bool
}

const (
	defaultMaxBytes = 10 << 20
	defaultBackups  = 3
)

// FileWriter is an io.Writer that appends to a file and rotates it once it
// grows past MaxBytes.
type FileWriter struct {
	mu   sync.Mutex
	cfg  FileConfig
	file *os.File
	size int64
}

// OpenFile opens (or creates) the live log file for appending.
func OpenFile(cfg FileConfig) (*FileWriter, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("log file path is required")
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.Backups <= 0 {
		cfg.Backups = defaultBackups
	}
	w := &FileWriter{cfg: cfg}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *FileWriter) open() error {
	if err := os.MkdirAll(filepath.Dir(w.cfg.Path), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(w.cfg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	w.file = f
	w.size = info.Size()
	return nil
}

// Write appends p, rotating first if p would push the file past MaxBytes.
// A single entry larger than MaxBytes still goes into a fresh file whole.
func (w *FileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}
	if w.size > 0 && w.size+int64(len(p)) > w.cfg.MaxBytes {
		if err := w.rotate(); err != nil {
			return 0, fmt.Errorf("rotate log file: %w", err)
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *FileWriter) backupName(i int) string {
	name := w.cfg.Path + "." + strconv.Itoa(i)
	if w.cfg.Compress {
		name += ".gz"
	}
	return name
}

// rotate shifts path.N-1 to path.N down to path -> path.1. The oldest
// backup falls off the end.
func (w *FileWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}
	w.file = nil

	os.Remove(w.backupName(w.cfg.Backups))
	for i := w.cfg.Backups - 1; i >= 1; i-- {
		if _, err := os.Stat(w.backupName(i)); err == nil {
			if err := os.Rename(w.backupName(i), w.backupName(i+1)); err != nil {
				return err
			}
		}
	}

	if w.cfg.Compress {
		if err := gzipFile(w.cfg.Path, w.backupName(1)); err != nil {
			return err
		}
		if err := os.Remove(w.cfg.Path); err != nil {
			return err
		}
	} else if err := os.Rename(w.cfg.Path, w.backupName(1)); err != nil {
		return err
	}
	return w.open()
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		gz.Close()
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := gz.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Size returns the size of the live file.
func (w *FileWriter) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Path returns the live file path.
func (w *FileWriter) Path() string {
	return w.cfg.Path
}

// Close closes the live file. Later writes fail with os.ErrClosed.
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Tee returns a writer sending everything to console and file. Entries go
// out uncoloured because the file shares the stream.
func Tee(l *Logger, console io.Writer, file *FileWriter) {
	l.SetWriter(io.MultiWriter(console, file))
	l.SetColorize(false)
}
