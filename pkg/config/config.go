// Package config parses INI-style printer profiles with access tracking so
// misspelt options can be reported.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"cncgo/pkg/errors"
)

// Config holds the sections of a profile in file order.
type Config struct {
	mu       sync.RWMutex
	sections map[string]*Section
	order    []string
}

// New creates a new empty Config.
func New() *Config {
	return &Config{
		sections: make(map[string]*Section),
	}
}

// Load reads a profile file.
// Supports [include path] directives; paths are relative to the including file
// and may be globs.
func Load(path string) (*Config, error) {
	c := New()
	visited := make(map[string]bool)
	if err := c.parseFile(path, visited); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadString parses a profile held in memory. Include directives are rejected.
func LoadString(data string) (*Config, error) {
	c := New()
	if err := c.parse(strings.NewReader(data), "<string>", "", nil); err != nil {
		return nil, err
	}
	return c, nil
}

// parseFile parses a config file and handles include directives.
func (c *Config) parseFile(path string, visited map[string]bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrIO, "invalid config path "+path).SetPath(path)
	}

	// Check for recursive includes
	if visited[abs] {
		return errors.New(errors.ErrConfigValidation, "recursive include: "+path).SetPath(path)
	}
	visited[abs] = true
	defer func() { visited[abs] = false }()

	f, err := os.Open(abs)
	if err != nil {
		return errors.IOError("open", path, err)
	}
	defer f.Close()

	return c.parse(f, path, filepath.Dir(abs), visited)
}

// parse reads key/value lines from r. dir is the base for includes; a nil
// visited map disables them.
func (c *Config) parse(r io.Reader, name, dir string, visited map[string]bool) error {
	var currentSection string
	var currentOptions map[string]string

	flush := func() {
		if currentSection != "" {
			c.addSection(currentSection, currentOptions)
		}
	}

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := stripComment(scanner.Text())
		if line == "" {
			continue
		}

		// Section header
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			flush()

			header := strings.TrimSpace(line[1 : len(line)-1])
			if header == "" {
				return errors.New(errors.ErrConfigSection,
					fmt.Sprintf("empty section header at line %d in %s", lineNum, name))
			}

			if strings.HasPrefix(header, "include ") {
				if err := c.include(strings.TrimSpace(header[8:]), name, dir, visited, lineNum); err != nil {
					return err
				}
				currentSection = ""
				currentOptions = nil
				continue
			}

			currentSection = header
			currentOptions = make(map[string]string)
			continue
		}

		// Skip options before first section
		if currentSection == "" {
			continue
		}

		// Parse key: value or key = value
		key, value, ok := splitOption(line)
		if !ok {
			return errors.New(errors.ErrConfigOption,
				fmt.Sprintf("malformed line %d in %s: %q", lineNum, name, line)).
				SetSection(currentSection)
		}
		currentOptions[key] = value
	}
	flush()

	if err := scanner.Err(); err != nil {
		return errors.IOError("read", name, err)
	}
	return nil
}

func (c *Config) include(pattern, name, dir string, visited map[string]bool, lineNum int) error {
	if visited == nil {
		return errors.New(errors.ErrConfigSection,
			fmt.Sprintf("include not supported in %s (line %d)", name, lineNum))
	}
	if pattern == "" {
		return errors.New(errors.ErrConfigSection,
			fmt.Sprintf("empty include at line %d in %s", lineNum, name))
	}
	glob := filepath.Join(dir, pattern)
	matches, err := filepath.Glob(glob)
	if err != nil {
		return errors.Wrap(err, errors.ErrConfigSection, "invalid include pattern "+pattern)
	}
	sort.Strings(matches)
	if len(matches) == 0 && !hasGlobMeta(glob) {
		return errors.IOError("include", glob, os.ErrNotExist)
	}
	for _, m := range matches {
		if err := c.parseFile(m, visited); err != nil {
			return err
		}
	}
	return nil
}

// stripComment removes "#" and ";" comments and surrounding space.
func stripComment(line string) string {
	if idx := strings.IndexAny(line, "#;"); idx >= 0 {
		line = line[:idx]
	}
	return strings.TrimSpace(line)
}

// splitOption splits "key: value" or "key = value" at the first separator.
func splitOption(line string) (key, value string, ok bool) {
	idx := strings.IndexAny(line, ":=")
	if idx <= 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	return key, value, key != ""
}

// hasGlobMeta returns true if the path contains glob metacharacters.
func hasGlobMeta(path string) bool {
	return strings.ContainsAny(path, "*?[")
}

// addSection adds a section to the config, merging into an existing one.
func (c *Config) addSection(name string, options map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.sections[name]; ok {
		for k, v := range options {
			existing.options[strings.ToLower(k)] = v
		}
		return
	}

	c.sections[name] = newSection(name, options)
	c.order = append(c.order, name)
}

// GetSection returns a Section by name, or a CONFIG_SECTION error.
func (c *Config) GetSection(name string) (*Section, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sec, ok := c.sections[name]
	if !ok {
		return nil, errors.ConfigSectionError(name)
	}
	return sec, nil
}

// GetSectionOptional returns a Section if it exists, or nil if not.
func (c *Config) GetSectionOptional(name string) *Section {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sections[name]
}

// HasSection checks if a section exists.
func (c *Config) HasSection(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.sections[name]
	return ok
}

// GetSectionNames returns all section names in order.
func (c *Config) GetSectionNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]string, len(c.order))
	copy(result, c.order)
	return result
}

// CheckUnusedOptions returns an error naming options nothing has read.
func (c *Config) CheckUnusedOptions() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var problems []string
	for _, name := range c.order {
		if unused := c.sections[name].GetUnusedOptions(); len(unused) > 0 {
			problems = append(problems, fmt.Sprintf("[%s]: unused options %v", name, unused))
		}
	}
	if len(problems) > 0 {
		return errors.New(errors.ErrConfigOption, strings.Join(problems, "; "))
	}
	return nil
}

// Merge combines another Config into this one.
// Sections and options from other override this Config.
func (c *Config) Merge(other *Config) {
	c.mu.Lock()
	defer c.mu.Unlock()

	other.mu.RLock()
	defer other.mu.RUnlock()

	for _, name := range other.order {
		otherSec := other.sections[name]
		if existing, ok := c.sections[name]; ok {
			for k, v := range otherSec.options {
				existing.options[k] = v
			}
			continue
		}
		c.sections[name] = newSection(name, otherSec.options)
		c.order = append(c.order, name)
	}
}
