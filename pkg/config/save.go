package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cncgo/pkg/errors"
)

// Set sets an option, creating the section if needed.
func (c *Config) Set(section, option, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sec, ok := c.sections[section]; ok {
		sec.mu.Lock()
		sec.options[strings.ToLower(option)] = value
		sec.mu.Unlock()
		return
	}
	c.sections[section] = newSection(section, map[string]string{option: value})
	c.order = append(c.order, section)
}

// WriteTo writes the config in INI form: sections in file order, options
// sorted within each section.
func (c *Config) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, c.content())
	return int64(n), err
}

func (c *Config) content() string {
	var sb strings.Builder
	for i, name := range c.GetSectionNames() {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("[")
		sb.WriteString(name)
		sb.WriteString("]\n")

		options := c.GetSectionOptional(name).RawOptions()
		keys := make([]string, 0, len(options))
		for k := range options {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(k)
			sb.WriteString(": ")
			sb.WriteString(options[k])
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Save writes the config to path through a temporary file. An existing
// file is first copied to a timestamped backup:
// printer.cfg -> printer-20060102_150405.cfg.
func (c *Config) Save(path string) error {
	if err := backup(path); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.tmp")
	if err != nil {
		return errors.IOError("save", path, err)
	}
	tmpPath := tmp.Name()

	if _, err := c.WriteTo(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.IOError("save", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.IOError("save", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.IOError("save", path, err)
	}
	return nil
}

func backup(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.IOError("backup", path, err)
	}

	ext := filepath.Ext(path)
	name := fmt.Sprintf("%s-%s%s", strings.TrimSuffix(path, ext), time.Now().Format("20060102_150405"), ext)
	if err := os.WriteFile(name, data, 0644); err != nil {
		return errors.IOError("backup", name, err)
	}
	return nil
}
