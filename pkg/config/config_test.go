package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cncgo/pkg/errors"
)

func TestLoadString(t *testing.T) {
	data := `
# reference printer
[printer]
bed_x: 235
bed_y = 200.5
metric: yes

[serial]
port: /dev/ttyUSB0   ; usb adapter
line_timeout: 1.5

[moonraker]
url: http://printer.local:7125
timeout: 10s
`
	cfg, err := LoadString(data)
	if err != nil {
		t.Fatalf("LoadString failed: %v", err)
	}

	if got := cfg.GetSectionNames(); strings.Join(got, ",") != "printer,serial,moonraker" {
		t.Errorf("section order = %v", got)
	}
	if !cfg.HasSection("printer") || cfg.HasSection("extruder") {
		t.Error("HasSection reported wrong sections")
	}

	printer, err := cfg.GetSection("printer")
	if err != nil {
		t.Fatalf("GetSection(printer) failed: %v", err)
	}
	if printer.GetName() != "printer" {
		t.Errorf("expected name 'printer', got '%s'", printer.GetName())
	}
	if v, err := printer.GetInt("bed_x"); err != nil || v != 235 {
		t.Errorf("GetInt(bed_x) = %v, %v", v, err)
	}
	if v, err := printer.GetFloat("bed_y"); err != nil || v != 200.5 {
		t.Errorf("GetFloat(bed_y) = %v, %v", v, err)
	}
	if v, err := printer.GetBool("metric"); err != nil || !v {
		t.Errorf("GetBool(metric) = %v, %v", v, err)
	}

	serial, _ := cfg.GetSection("serial")
	if v, _ := serial.Get("port"); v != "/dev/ttyUSB0" {
		t.Errorf("comment should be stripped, got %q", v)
	}
	if d, err := serial.GetDuration("line_timeout"); err != nil || d != 1500*time.Millisecond {
		t.Errorf("GetDuration(line_timeout) = %v, %v", d, err)
	}

	mr, _ := cfg.GetSection("moonraker")
	if v, _ := mr.Get("url"); v != "http://printer.local:7125" {
		t.Errorf("url split at the wrong colon: %q", v)
	}
	if d, err := mr.GetDuration("timeout"); err != nil || d != 10*time.Second {
		t.Errorf("GetDuration(timeout) = %v, %v", d, err)
	}
}

func TestSectionErrors(t *testing.T) {
	cfg, err := LoadString("[printer]\nbed_x: wide\nmetric: maybe\nwait: forever\n")
	if err != nil {
		t.Fatalf("LoadString failed: %v", err)
	}

	if _, err := cfg.GetSection("emitter"); !errors.Is(err, errors.ErrConfigSection) {
		t.Errorf("missing section: got %v, want CONFIG_SECTION", err)
	}

	sec, _ := cfg.GetSection("printer")
	tests := []struct {
		name string
		call func() error
		code errors.ErrorCode
	}{
		{"missing option", func() error { _, err := sec.Get("comment"); return err }, errors.ErrConfigOption},
		{"bad float", func() error { _, err := sec.GetFloat("bed_x"); return err }, errors.ErrConfigType},
		{"bad int", func() error { _, err := sec.GetInt("bed_x"); return err }, errors.ErrConfigType},
		{"bad bool", func() error { _, err := sec.GetBool("metric"); return err }, errors.ErrConfigType},
		{"bad duration", func() error { _, err := sec.GetDuration("wait"); return err }, errors.ErrConfigType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, tt.code) {
				t.Fatalf("got %v, want %s", err, tt.code)
			}
			if !errors.IsConfig(err) {
				t.Errorf("IsConfig(%v) = false", err)
			}
		})
	}
}

func TestFallbacks(t *testing.T) {
	cfg, _ := LoadString("[printer]\n")
	sec, _ := cfg.GetSection("printer")

	if v, err := sec.Get("comment", "none"); err != nil || v != "none" {
		t.Errorf("Get fallback = %q, %v", v, err)
	}
	if v, err := sec.GetInt("layers", 5); err != nil || v != 5 {
		t.Errorf("GetInt fallback = %d, %v", v, err)
	}
	if v, err := sec.GetFloat("bed_x", 235); err != nil || v != 235 {
		t.Errorf("GetFloat fallback = %v, %v", v, err)
	}
	if v, err := sec.GetBool("metric", true); err != nil || !v {
		t.Errorf("GetBool fallback = %v, %v", v, err)
	}
	if v, err := sec.GetDuration("timeout", time.Second); err != nil || v != time.Second {
		t.Errorf("GetDuration fallback = %v, %v", v, err)
	}
}

func TestBoundsChecking(t *testing.T) {
	cfg, _ := LoadString("[printer]\nzero: 0\nten: 10\n")
	sec, _ := cfg.GetSection("printer")

	tests := []struct {
		option  string
		bounds  FloatBounds
		wantErr bool
	}{
		{"zero", Min(0), false},
		{"zero", Above(0), true},
		{"ten", Max(10), false},
		{"ten", Below(10), true},
		{"ten", Min(11), true},
		{"zero", Max(-1), true},
	}
	for _, tt := range tests {
		_, err := sec.GetFloatWithBounds(tt.option, tt.bounds)
		if (err != nil) != tt.wantErr {
			t.Errorf("GetFloatWithBounds(%s) err = %v, wantErr %v", tt.option, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrConfigValidation) {
			t.Errorf("GetFloatWithBounds(%s) code = %v, want CONFIG_VALIDATION", tt.option, err)
		}
	}
}

func TestMalformedInput(t *testing.T) {
	tests := []struct {
		name string
		data string
		code errors.ErrorCode
	}{
		{"no separator", "[printer]\nbed_x 235\n", errors.ErrConfigOption},
		{"empty key", "[printer]\n: 235\n", errors.ErrConfigOption},
		{"empty header", "[]\nbed_x: 1\n", errors.ErrConfigSection},
		{"include in string", "[include other.cfg]\n", errors.ErrConfigSection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadString(tt.data); !errors.Is(err, tt.code) {
				t.Errorf("got %v, want %s", err, tt.code)
			}
		})
	}
}

func TestOptionsBeforeSectionIgnored(t *testing.T) {
	cfg, err := LoadString("stray: 1\n[printer]\nbed_x: 2\n")
	if err != nil {
		t.Fatalf("LoadString failed: %v", err)
	}
	if names := cfg.GetSectionNames(); len(names) != 1 {
		t.Errorf("sections = %v, want [printer]", names)
	}
}

func TestDuplicateSectionsMerge(t *testing.T) {
	cfg, _ := LoadString("[printer]\nbed_x: 100\nbed_y: 100\n[printer]\nBED_X: 200\n")
	sec, _ := cfg.GetSection("printer")
	if v, _ := sec.GetFloat("bed_x"); v != 200 {
		t.Errorf("bed_x = %v, want 200", v)
	}
	if v, _ := sec.GetFloat("bed_y"); v != 100 {
		t.Errorf("bed_y = %v, want 100", v)
	}
}

func TestAccessTracking(t *testing.T) {
	cfg, _ := LoadString("[printer]\nbed_x: 1\nbed_y: 2\nbedx: 3\n")
	sec, _ := cfg.GetSection("printer")

	sec.GetFloat("bed_x")
	sec.GetFloat("BED_Y")

	unused := sec.GetUnusedOptions()
	if len(unused) != 1 || unused[0] != "bedx" {
		t.Errorf("unused = %v, want [bedx]", unused)
	}

	err := cfg.CheckUnusedOptions()
	if !errors.Is(err, errors.ErrConfigOption) || !strings.Contains(err.Error(), "bedx") {
		t.Errorf("CheckUnusedOptions = %v", err)
	}

	sec.Get("bedx")
	if err := cfg.CheckUnusedOptions(); err != nil {
		t.Errorf("all options read, got %v", err)
	}
}

func TestConfigMerge(t *testing.T) {
	base, _ := LoadString("[printer]\nbed_x: 235\nbed_y: 235\n")
	override, _ := LoadString("[printer]\nbed_x: 300\n[emitter]\nsafety_mode: true\n")
	base.Merge(override)

	sec, _ := base.GetSection("printer")
	if v, _ := sec.GetFloat("bed_x"); v != 300 {
		t.Errorf("bed_x = %v, want 300", v)
	}
	if v, _ := sec.GetFloat("bed_y"); v != 235 {
		t.Errorf("bed_y = %v, want 235", v)
	}
	if !base.HasSection("emitter") {
		t.Error("merged section missing")
	}
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadInclude(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.cfg"), "[printer]\nbed_x: 100\n[include parts/*.cfg]\n")
	writeFile(t, filepath.Join(dir, "parts", "a.cfg"), "[emitter]\ncomment: from a\n")
	writeFile(t, filepath.Join(dir, "parts", "b.cfg"), "[emitter]\ncomment: from b\n[printer]\nbed_y: 50\n")

	cfg, err := Load(filepath.Join(dir, "main.cfg"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	em, _ := cfg.GetSection("emitter")
	if v, _ := em.Get("comment"); v != "from b" {
		t.Errorf("comment = %q, want the later include to win", v)
	}
	pr, _ := cfg.GetSection("printer")
	if v, _ := pr.GetFloat("bed_y"); v != 50 {
		t.Errorf("bed_y = %v, want 50", v)
	}
}

func TestLoadIncludeErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "loop.cfg"), "[include loop.cfg]\n")
	writeFile(t, filepath.Join(dir, "missing.cfg"), "[include nothere.cfg]\n")
	writeFile(t, filepath.Join(dir, "noglob.cfg"), "[include none/*.cfg]\n")

	if _, err := Load(filepath.Join(dir, "loop.cfg")); !errors.Is(err, errors.ErrConfigValidation) {
		t.Errorf("recursive include: got %v, want CONFIG_VALIDATION", err)
	}
	if _, err := Load(filepath.Join(dir, "missing.cfg")); !errors.Is(err, errors.ErrIO) {
		t.Errorf("missing include: got %v, want IO", err)
	}
	if _, err := Load(filepath.Join(dir, "noglob.cfg")); err != nil {
		t.Errorf("empty glob should be allowed, got %v", err)
	}
	if _, err := Load(filepath.Join(dir, "absent.cfg")); !errors.Is(err, errors.ErrIO) {
		t.Errorf("missing file: got %v, want IO", err)
	}
}

func TestSetAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.cfg")

	cfg := New()
	cfg.Set("printer", "bed_x", "235")
	cfg.Set("printer", "Bed_Y", "200")
	cfg.Set("emitter", "comment", "hello")
	cfg.Set("printer", "bed_x", "250")

	var sb strings.Builder
	if _, err := cfg.WriteTo(&sb); err != nil {
		t.Fatal(err)
	}
	want := "[printer]\nbed_x: 250\nbed_y: 200\n\n[emitter]\ncomment: hello\n"
	if sb.String() != want {
		t.Errorf("WriteTo =\n%s\nwant\n%s", sb.String(), want)
	}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	backups, _ := filepath.Glob(filepath.Join(dir, "profile-*.cfg"))
	if len(backups) != 1 {
		t.Errorf("backups = %v, want one", backups)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	sec, _ := loaded.GetSection("printer")
	if v, _ := sec.GetFloat("bed_x"); v != 250 {
		t.Errorf("reloaded bed_x = %v", v)
	}
}

func TestSaveIOError(t *testing.T) {
	cfg := New()
	cfg.Set("printer", "bed_x", "1")
	err := cfg.Save(filepath.Join(t.TempDir(), "missing", "profile.cfg"))
	if !errors.Is(err, errors.ErrIO) {
		t.Errorf("got %v, want IO", err)
	}
}
