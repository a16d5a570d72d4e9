package gcode

import (
	"math"
	"strings"
	"testing"
	"time"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func run(t *testing.T, m *Machine, lines ...string) {
	t.Helper()
	for _, l := range lines {
		if _, err := m.Execute(l); err != nil {
			t.Fatalf("Execute(%q): %v", l, err)
		}
	}
}

func TestMachineAbsoluteAndRelative(t *testing.T) {
	m := NewMachine()
	run(t, m, "G1 X10 Y20 Z1 E2 F3000")

	want := Position{X: 10, Y: 20, Z: 1, E: 2}
	if m.Position() != want {
		t.Errorf("position = %v, want %v", m.Position(), want)
	}
	if m.Feedrate() != 3000 {
		t.Errorf("feedrate = %v, want 3000", m.Feedrate())
	}

	run(t, m, "G91", "M83", "G1 X5 E1")
	want = Position{X: 15, Y: 20, Z: 1, E: 3}
	if m.Position() != want {
		t.Errorf("relative position = %v, want %v", m.Position(), want)
	}
	if m.IsAbsolute() {
		t.Error("G91 should select relative mode")
	}

	run(t, m, "G92 E0")
	if m.Position().E != 0 {
		t.Errorf("G92 should reset E, got %v", m.Position().E)
	}
}

func TestMachineHome(t *testing.T) {
	m := NewMachine()
	run(t, m, "G0 X10 Y10 Z10", "G28 X")
	if p := m.Position(); p.X != 0 || p.Y != 10 || p.Z != 10 {
		t.Errorf("G28 X should home X only, got %v", p)
	}
	run(t, m, "G28")
	if p := m.Position(); p.X != 0 || p.Y != 0 || p.Z != 0 {
		t.Errorf("G28 should home all axes, got %v", p)
	}
}

func TestMachineTargetsAndDwell(t *testing.T) {
	m := NewMachine()
	run(t, m, "M104 S200", "M190 S60", "M109 S180", "G4 P1500", "G4 S2")

	extruder, bed := m.Targets()
	if extruder != 180 || bed != 60 {
		t.Errorf("targets = (%v, %v), want (180, 60)", extruder, bed)
	}
	s := m.Summary()
	if s.ExtruderTarget != 200 {
		t.Errorf("highest extruder target = %v, want 200", s.ExtruderTarget)
	}
	if s.Dwell != 3500*time.Millisecond {
		t.Errorf("dwell = %v, want 3.5s", s.Dwell)
	}
}

func TestMachineArc(t *testing.T) {
	tests := []struct {
		name   string
		start  string
		arc    string
		length float64
		box    Box
	}{
		{
			name:   "clockwise half circle over the top",
			start:  "G0 X10 Y10",
			arc:    "G2 X30 Y10 I10 J0 E5",
			length: 10 * math.Pi,
			box:    Box{MinX: 10, MinY: 10, MaxX: 30, MaxY: 20, Valid: true},
		},
		{
			name:   "counter-clockwise half circle underneath",
			start:  "G0 X10 Y10",
			arc:    "G3 X30 Y10 I10 J0 E5",
			length: 10 * math.Pi,
			box:    Box{MinX: 10, MinY: 0, MaxX: 30, MaxY: 10, Valid: true},
		},
		{
			name:   "full circle",
			start:  "G0 X10 Y10",
			arc:    "G2 X10 Y10 I10 J0 E5",
			length: 20 * math.Pi,
			box:    Box{MinX: 10, MinY: 0, MaxX: 30, MaxY: 20, Valid: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine()
			run(t, m, tt.start, tt.arc)
			s := m.Summary()
			if !approx(s.ExtrudeDistance, tt.length) {
				t.Errorf("arc length = %v, want %v", s.ExtrudeDistance, tt.length)
			}
			if !approx(s.Box.MinX, tt.box.MinX) || !approx(s.Box.MinY, tt.box.MinY) ||
				!approx(s.Box.MaxX, tt.box.MaxX) || !approx(s.Box.MaxY, tt.box.MaxY) {
				t.Errorf("box = %+v, want %+v", s.Box, tt.box)
			}
		})
	}
}

func TestMachineArcNeedsCenter(t *testing.T) {
	m := NewMachine()
	if _, err := m.Execute("G2 X10 Y10"); err == nil {
		t.Error("expected an error for an arc without I/J")
	}
}

func TestInspect(t *testing.T) {
	input := strings.Join([]string{
		"; FLAVOR:Marlin",
		"; part.gcode",
		"; Made with CNCPy",
		"G90",
		"G29",
		"G28",
		"G0 Z1.0 F2000",
		"G20",
		"",
		"G0 X10.0 Y0.0 Z1.0 F5000",
		"G1 X40.0 Y0.0 Z1.0 E10.0 F5000",
		"M140 S60",
	}, "\n")

	s, err := Inspect(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if s.Flavor != "Marlin" {
		t.Errorf("flavor = %q, want Marlin", s.Flavor)
	}
	if s.Lines != 12 || s.Comments != 3 || s.Blank != 1 || s.Commands != 8 {
		t.Errorf("counts = lines %d comments %d blank %d commands %d",
			s.Lines, s.Comments, s.Blank, s.Commands)
	}
	if s.Metric {
		t.Error("G20 should clear Metric")
	}
	if s.Codes["G0"] != 2 || s.Codes["G1"] != 1 {
		t.Errorf("codes = %v", s.Codes)
	}
	if s.Final != (Position{X: 40, Y: 0, Z: 1, E: 10}) {
		t.Errorf("final = %v", s.Final)
	}
	if s.ExtrudeDistance != 30 || s.TravelDistance != 11 {
		t.Errorf("distances = travel %v extrude %v, want 11 and 30", s.TravelDistance, s.ExtrudeDistance)
	}
	if !s.Box.Within(235, 235) || s.Box.Within(20, 20) {
		t.Errorf("unexpected box %+v", s.Box)
	}
	if got := strings.Join(s.SortedCodes(), ","); got != "G0,G1,G20,G28,G29,G90,M140" {
		t.Errorf("SortedCodes = %s", got)
	}
}

func TestInspectReportsLine(t *testing.T) {
	_, err := Inspect(strings.NewReader("G28\nG1 X1..2\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected error on line 2, got %v", err)
	}
}
