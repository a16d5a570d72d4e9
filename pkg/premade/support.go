package premade

import (
	"fmt"

	"cncgo/pkg/emitter"
)

// SupportOptions configures Support.
type SupportOptions struct {
	Layers       int
	ExtruderTemp float64
	BedTemp      float64
}

// DefaultSupportOptions returns five layers at PLA temperatures.
func DefaultSupportOptions() SupportOptions {
	return SupportOptions{Layers: 5, ExtruderTemp: 200, BedTemp: 60}
}

// Support heats up, prints opts.Layers layers of zig-zag support around the
// bed center and finishes with a raft of horizontal passes.
func Support(c Cursor, opts SupportOptions) error {
	if opts.Layers < 0 {
		return fmt.Errorf("support: negative layer count %d", opts.Layers)
	}
	cx, cy := c.Bounds().Center()

	if err := steps(
		c.NewLine,
		func() error { return c.Comment("Preparing bed") },
		func() error { return c.HeatExtruder(opts.ExtruderTemp, false) },
		func() error { return c.HeatBed(opts.BedTemp, false) },
		func() error { return c.HeatExtruder(opts.ExtruderTemp, true) },
		func() error { return c.HeatBed(opts.BedTemp, true) },
		c.NewLine,
		func() error { return c.Comment("Support layer") },
		func() error { return c.Comment("LAYER:1") },
	); err != nil {
		return err
	}

	for layer := 0; layer < opts.Layers; layer++ {
		if err := supportLayer(c, cx, cy); err != nil {
			return err
		}
		if err := steps(
			func() error { return c.Comment(fmt.Sprintf("LAYER:%d", layer+2)) },
			func() error { return c.Move(0, 0, 1) },
		); err != nil {
			return err
		}
	}
	logger.Debug("support: %d layers", opts.Layers)

	_, _, z := c.Position()
	if err := steps(
		func() error { return c.MoveTo(cx+40, cy+50, z) },
		c.NewLine,
	); err != nil {
		return err
	}
	for {
		_, y, _ := c.Position()
		if y < cy {
			break
		}
		if err := steps(
			func() error { return c.Move(-68, 0, 0, emitter.WithExtrusion(25)) },
			func() error { return c.Move(0, -1.5, 0) },
			func() error { return c.Move(68, 0, 0, emitter.WithExtrusion(25)) },
			func() error { return c.Move(0, -1.5, 0) },
			c.NewLine,
		); err != nil {
			return err
		}
	}
	return nil
}

// supportLayer zig-zags from cx+40 leftwards until it passes cx-25.
func supportLayer(c Cursor, cx, cy float64) error {
	_, _, z := c.Position()
	if err := steps(
		func() error { return c.MoveTo(cx, cy, z) },
		func() error { return c.Move(40, 0, 0) },
		c.NewLine,
	); err != nil {
		return err
	}
	for {
		x, _, _ := c.Position()
		if x <= cx-25 {
			return nil
		}
		if err := steps(
			func() error { return c.Move(0, 50, 0, emitter.WithExtrusion(25)) },
			func() error { return c.Move(-2, 0, 0, emitter.WithExtrusion(1)) },
			func() error { return c.Move(0, -50, 0, emitter.WithExtrusion(25)) },
			func() error { return c.Move(-2, 0, 0, emitter.WithExtrusion(1)) },
			c.NewLine,
		); err != nil {
			return err
		}
	}
}
