package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cncgo/pkg/emitter"
	"cncgo/pkg/premade"
	"cncgo/pkg/units"
)

func (a *app) latticeCmd() *cobra.Command {
	var x1, x2, y1, y2 float64
	cmd := &cobra.Command{
		Use:   "lattice NAME",
		Short: "Fill a rectangle with back-and-forth extruded passes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.generate(cmd, args[0], func(e *emitter.Emitter) error {
				return premade.Lattice(e, x1, x2, y1, y2)
			})
		},
	}
	cmd.Flags().Float64Var(&x1, "x1", 10, "Start X")
	cmd.Flags().Float64Var(&x2, "x2", 100, "End X")
	cmd.Flags().Float64Var(&y1, "y1", 10, "Start Y")
	cmd.Flags().Float64Var(&y2, "y2", 100, "End Y")
	return cmd
}

func (a *app) supportCmd() *cobra.Command {
	var layers int
	var extruderTemp, bedTemp float64
	var fahrenheit bool
	cmd := &cobra.Command{
		Use:   "support NAME",
		Short: "Heat up and print a layered support raft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.profile.Support
			if cmd.Flags().Changed("layers") {
				opts.Layers = layers
			}
			if cmd.Flags().Changed("extruder-temp") {
				opts.ExtruderTemp = extruderTemp
			}
			if cmd.Flags().Changed("bed-temp") {
				opts.BedTemp = bedTemp
			}
			if fahrenheit {
				opts.ExtruderTemp = units.FahrenheitToCelsius(opts.ExtruderTemp)
				opts.BedTemp = units.FahrenheitToCelsius(opts.BedTemp)
			}
			return a.generate(cmd, args[0], func(e *emitter.Emitter) error {
				return premade.Support(e, opts)
			})
		},
	}
	def := premade.DefaultSupportOptions()
	cmd.Flags().IntVar(&layers, "layers", def.Layers, "Number of layers (default from profile)")
	cmd.Flags().Float64Var(&extruderTemp, "extruder-temp", def.ExtruderTemp, "Extruder temperature (default from profile)")
	cmd.Flags().Float64Var(&bedTemp, "bed-temp", def.BedTemp, "Bed temperature (default from profile)")
	cmd.Flags().BoolVar(&fahrenheit, "fahrenheit", false, "Temperatures are given in °F")
	return cmd
}

func (a *app) shapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shape",
		Short: "Draw a single outline",
	}

	var sx, sy, width, height float64
	square := &cobra.Command{
		Use:   "square NAME",
		Short: "Rectangle outline with its top-left corner at (x, y)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.generate(cmd, args[0], func(e *emitter.Emitter) error {
				return premade.Square(e, sx, sy, width, height)
			})
		},
	}
	square.Flags().Float64Var(&sx, "x", 50, "Corner X")
	square.Flags().Float64Var(&sy, "y", 100, "Corner Y")
	square.Flags().Float64Var(&width, "width", 50, "Width")
	square.Flags().Float64Var(&height, "height", 50, "Height")

	var points []float64
	triangle := &cobra.Command{
		Use:   "triangle NAME",
		Short: "Triangle outline through three points",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(points) != 6 {
				return fmt.Errorf("--points needs 6 values (x1,y1,x2,y2,x3,y3), got %d", len(points))
			}
			return a.generate(cmd, args[0], func(e *emitter.Emitter) error {
				return premade.Triangle(e, points[0], points[1], points[2], points[3], points[4], points[5])
			})
		},
	}
	triangle.Flags().Float64SliceVar(&points, "points", []float64{50, 50, 100, 50, 75, 100}, "Vertices x1,y1,x2,y2,x3,y3")

	var cx1, cy1, cx2, cy2 float64
	circle := &cobra.Command{
		Use:   "circle NAME",
		Short: "Circle across the diameter from (x1, y1) to (x2, y2)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.generate(cmd, args[0], func(e *emitter.Emitter) error {
				return premade.Circle(e, cx1, cy1, cx2, cy2)
			})
		},
	}
	circle.Flags().Float64Var(&cx1, "x1", 50, "Left point X")
	circle.Flags().Float64Var(&cy1, "y1", 100, "Left point Y")
	circle.Flags().Float64Var(&cx2, "x2", 150, "Right point X")
	circle.Flags().Float64Var(&cy2, "y2", 100, "Right point Y")

	cmd.AddCommand(square, triangle, circle)
	return cmd
}
