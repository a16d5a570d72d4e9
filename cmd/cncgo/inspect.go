package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"cncgo/pkg/gcode"
	"cncgo/pkg/safety"
	"cncgo/pkg/units"
)

func (a *app) inspectCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Replay a G-code file and summarise it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			s, err := gcode.Inspect(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			bounds := a.profile.Emitter.Bounds()
			a.printSummary(cmd.OutOrStdout(), args[0], s, bounds)
			if strict && s.Box.Valid && !s.Box.Within(bounds.XMax, bounds.YMax) {
				return fmt.Errorf("%s leaves the %s bed", args[0], bounds)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when the toolpath leaves the bed")
	return cmd
}

func (a *app) printSummary(w io.Writer, name string, s gcode.Summary, bounds safety.Bounds) {
	a.cyan.Fprintf(w, "%s\n", name)
	fmt.Fprintf(w, "  Lines:     %d (%d commands, %d comments, %d blank)\n", s.Lines, s.Commands, s.Comments, s.Blank)
	if s.Flavor != "" {
		fmt.Fprintf(w, "  Flavor:    %s\n", s.Flavor)
	}
	unit := "mm"
	if !s.Metric {
		unit = "in"
	}
	fmt.Fprintf(w, "  Units:     %s\n", unit)
	fmt.Fprintf(w, "  Codes:    ")
	for _, code := range s.SortedCodes() {
		fmt.Fprintf(w, " %s×%d", code, s.Codes[code])
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Final:     %s\n", s.Final)
	fmt.Fprintf(w, "  Travel:    %s\n", distance(s.TravelDistance, s.Metric))
	fmt.Fprintf(w, "  Extruding: %s\n", distance(s.ExtrudeDistance, s.Metric))
	if s.ExtruderTarget > 0 || s.BedTarget > 0 {
		fmt.Fprintf(w, "  Targets:   extruder %g, bed %g\n", s.ExtruderTarget, s.BedTarget)
	}
	if s.Dwell > 0 {
		fmt.Fprintf(w, "  Dwell:     %s\n", s.Dwell)
	}
	if s.Box.Valid {
		fmt.Fprintf(w, "  Extent:    X[%g, %g] Y[%g, %g]\n", s.Box.MinX, s.Box.MaxX, s.Box.MinY, s.Box.MaxY)
		if s.Box.Within(bounds.XMax, bounds.YMax) {
			a.green.Fprintf(w, "  ✓ fits the %s bed\n", bounds)
		} else {
			a.warn.Fprintf(w, "  ⚠ leaves the %s bed\n", bounds)
		}
	}
}

// distance renders a length in file units, with the millimetre equivalent
// for imperial files.
func distance(v float64, metric bool) string {
	if metric {
		return fmt.Sprintf("%.3f mm", v)
	}
	return fmt.Sprintf("%.3f in (%.3f mm)", v, units.InToMM(v))
}
