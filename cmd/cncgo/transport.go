package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cncgo/pkg/moonraker"
	"cncgo/pkg/serial"
)

func (a *app) sendCmd() *cobra.Command {
	var port, addr string
	var baud int
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "send FILE",
		Short: "Stream a G-code file to a Marlin printer",
		Long: "Stream a G-code file line by line using Marlin line numbers and checksums.\n" +
			"Connects to --addr over TCP when given, otherwise opens the serial --port.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sc := a.profile.Serial
			if cmd.Flags().Changed("port") {
				sc.Device = port
			}
			if cmd.Flags().Changed("baud") {
				sc.BaudRate = baud
			}
			p, err := a.connect(ctx, addr, sc)
			if err != nil {
				return err
			}
			defer p.Close()

			lineTimeout := a.profile.LineTimeout
			if cmd.Flags().Changed("line-timeout") {
				lineTimeout = timeout
			}
			s := serial.NewStreamer(p, serial.StreamerConfig{
				LineTimeout: lineTimeout,
				Logger:      a.log.WithPrefix("serial"),
				Metrics:     a.metrics,
			})
			defer s.Close()

			start := time.Now()
			n, err := s.Stream(ctx, f)
			if err != nil {
				return fmt.Errorf("after %d commands: %w", n, err)
			}
			a.green.Fprintf(cmd.OutOrStdout(), "✓ %d commands acknowledged in %s\n", n, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Serial device (default from profile)")
	cmd.Flags().IntVar(&baud, "baud", serial.DefaultBaudRate, "Baud rate (default from profile)")
	cmd.Flags().StringVar(&addr, "addr", "", "host:port of a TCP printer bridge")
	cmd.Flags().DurationVar(&timeout, "line-timeout", 30*time.Second, "Wait for ok per line (default from profile)")
	return cmd
}

func (a *app) connect(ctx context.Context, addr string, sc serial.Config) (serial.Port, error) {
	if addr != "" {
		a.log.Info("connecting to %s", addr)
		return serial.Dial(ctx, addr)
	}
	if sc.Device == "" {
		return nil, fmt.Errorf("no printer: set --port, --addr or [serial] port")
	}
	a.log.Info("opening %s at %d baud", sc.Device, sc.BaudRate)
	p, err := serial.Open(sc)
	if err != nil {
		return nil, err
	}
	if err := p.Flush(); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func (a *app) uploadCmd() *cobra.Command {
	var url, apiKey, as string
	var start bool
	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a G-code file to Moonraker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mc := a.profile.Moonraker
			if cmd.Flags().Changed("url") {
				mc.URL = url
			}
			if cmd.Flags().Changed("api-key") {
				mc.APIKey = apiKey
			}
			client, err := moonraker.NewClient(mc)
			if err != nil {
				return err
			}
			defer client.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			name := as
			if name == "" {
				name = filepath.Base(args[0])
			}
			ctx := cmd.Context()
			res, err := client.Upload(ctx, name, f)
			if err != nil {
				return err
			}
			a.green.Fprintf(cmd.OutOrStdout(), "✓ uploaded %s to %s\n", res.Path, res.Root)

			if !start {
				return nil
			}
			if err := client.Connect(ctx); err != nil {
				return err
			}
			if err := client.StartPrint(ctx, res.Path); err != nil {
				return err
			}
			a.green.Fprintf(cmd.OutOrStdout(), "✓ started %s\n", res.Path)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "Moonraker URL (default from profile)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Moonraker API key")
	cmd.Flags().StringVar(&as, "as", "", "Remote file name (default: local base name)")
	cmd.Flags().BoolVar(&start, "print", false, "Start printing after upload")
	return cmd
}

func (a *app) portsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := serial.ListPorts()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				a.warn.Fprintln(cmd.OutOrStdout(), "no serial ports found")
				return nil
			}
			for _, p := range ports {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}
