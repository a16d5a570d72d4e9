// cncgo writes G-code toolpaths for Marlin printers, checks emitted files,
// and sends them to a printer over serial, TCP or Moonraker.
//
// Usage:
//
//	cncgo [global flags] <command> [flags] [args]
//
// Examples:
//
//	# Write lattice.gcode on a 235x235 bed with bounds checking
//	cncgo --safe lattice lattice --x1 10 --x2 100 --y1 10 --y2 100
//
//	# Summarise a file
//	cncgo inspect lattice.gcode
//
//	# Stream to a USB printer, or upload and start through Moonraker
//	cncgo send lattice.gcode --port /dev/ttyUSB0
//	cncgo upload lattice.gcode --url http://printer.local:7125 --print
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cncgo/pkg/config"
	"cncgo/pkg/emitter"
	"cncgo/pkg/log"
	"cncgo/pkg/metrics"
)

var version = "dev"

// app holds the global flags and the state derived from them.
type app struct {
	profiles    []string
	logLevel    string
	logFile     string
	metricsOut  string

	safe    bool
	metric  bool
	bedX    float64
	bedY    float64
	comment string

	profile *config.Profile
	metrics *metrics.EmitterMetrics
	log     *log.Logger
	logOut  *log.FileWriter

	green *color.Color
	cyan  *color.Color
	warn  *color.Color
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{
		green: color.New(color.FgGreen),
		cyan:  color.New(color.FgCyan),
		warn:  color.New(color.FgYellow),
	}

	root := &cobra.Command{
		Use:               "cncgo",
		Short:             "Write and send G-code for Marlin printers",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			err := a.writeMetrics(cmd.OutOrStdout())
			if a.logOut != nil {
				a.logOut.Close()
			}
			return err
		},
	}

	pf := root.PersistentFlags()
	pf.StringArrayVarP(&a.profiles, "profile", "p", nil, "Printer profile (INI); repeat to layer overrides")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&a.logFile, "log-file", "", "Also write logs to this file, rotated at 10 MiB")
	pf.StringVar(&a.metricsOut, "metrics", "", "Write Prometheus metrics to this file (- for stdout)")
	pf.BoolVar(&a.safe, "safe", false, "Enable bounds and thermal checks")
	pf.BoolVar(&a.metric, "metric", true, "Millimetres (G21) rather than inches (G20)")
	pf.Float64Var(&a.bedX, "bed-x", 0, "Bed X size")
	pf.Float64Var(&a.bedY, "bed-y", 0, "Bed Y size")
	pf.StringVar(&a.comment, "comment", "", "Preamble comment")

	root.AddCommand(
		a.latticeCmd(),
		a.supportCmd(),
		a.shapeCmd(),
		a.inspectCmd(),
		a.sendCmd(),
		a.uploadCmd(),
		a.portsCmd(),
		a.configCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "cncgo version %s\n", version)
			},
		},
	)
	return root
}

// setup configures logging and resolves the profile. Flags set on the
// command line override profile values.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	logger := log.New("cncgo")
	logger.SetWriter(cmd.ErrOrStderr())
	log.ConfigureFromEnv(logger)
	if a.logLevel != "" {
		logger.SetLevel(log.ParseLevel(a.logLevel))
	}
	if a.logFile != "" {
		w, err := log.OpenFile(log.FileConfig{Path: a.logFile})
		if err != nil {
			return err
		}
		log.Tee(logger, cmd.ErrOrStderr(), w)
		a.logOut = w
	}
	log.SetDefaultLogger(logger)
	a.log = logger

	if len(a.profiles) > 0 {
		p, err := config.LoadProfiles(a.profiles...)
		if err != nil {
			return err
		}
		a.profile = p
	} else {
		p := config.DefaultProfile()
		a.profile = &p
	}

	flags := cmd.Flags()
	e := &a.profile.Emitter
	if flags.Changed("safe") {
		e.SafetyMode = a.safe
	}
	if flags.Changed("metric") {
		e.Metric = a.metric
	}
	if flags.Changed("bed-x") {
		e.BedX = a.bedX
	}
	if flags.Changed("bed-y") {
		e.BedY = a.bedY
	}
	if flags.Changed("comment") {
		e.Comment = a.comment
	}

	a.metrics = metrics.NewEmitterMetrics()
	e.Metrics = a.metrics
	e.Logger = logger.WithPrefix("emitter")
	return nil
}

func (a *app) writeMetrics(stdout io.Writer) error {
	switch a.metricsOut {
	case "":
		return nil
	case "-":
		_, err := io.WriteString(stdout, a.metrics.Gather())
		return err
	default:
		return os.WriteFile(a.metricsOut, []byte(a.metrics.Gather()), 0644)
	}
}

// generate creates dest, runs draw and closes the file. The file is
// closed even when draw fails, so everything emitted so far is kept.
func (a *app) generate(cmd *cobra.Command, dest string, draw func(e *emitter.Emitter) error) error {
	e, err := emitter.Create(dest, a.profile.Emitter)
	if err != nil {
		return err
	}
	if err := draw(e); err != nil {
		e.Close()
		return err
	}
	if err := e.Close(); err != nil {
		return err
	}

	x, y, z := e.Position()
	a.green.Fprintf(cmd.OutOrStdout(), "✓ wrote %s: %d lines, end X%g Y%g Z%g, E %.3f\n",
		e.Name(), e.Lines(), x, y, z, e.ExtrusionTotal())
	return nil
}
