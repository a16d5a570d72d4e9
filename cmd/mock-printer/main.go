// mock-printer is a simulated Marlin printer for testing cncgo send.
// It speaks the host line protocol over TCP:
// - Line numbers with M110 resets
// - XOR checksums and Resend requests
// - M105 temperature and M114 position reports
//
// Usage:
//
//	mock-printer -listen 127.0.0.1:8250 [-garble 3] [-trace]
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"cncgo/pkg/log"
	"cncgo/pkg/serial"
)

func main() {
	addr := flag.String("listen", "127.0.0.1:8250", "TCP address to listen on")
	garble := flag.Int("garble", 0, "Fail the checksum of this line number once per connection")
	trace := flag.Bool("trace", false, "Log every accepted command")
	flag.Parse()

	logger := log.New("mock-printer")
	log.ConfigureFromEnv(logger)
	if *trace {
		logger.SetLevel(log.DEBUG)
	}
	log.SetDefaultLogger(logger)

	listener, err := net.Listen("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listening: %v\n", err)
		os.Exit(1)
	}
	defer listener.Close()

	fmt.Printf("Mock printer listening on %s\n", listener.Addr())
	fmt.Println("Press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	connCh := make(chan net.Conn, 1)
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			connCh <- conn
		}
	}()

	for {
		select {
		case <-sigCh:
			fmt.Println("\nShutting down...")
			return
		case conn := <-connCh:
			logger.Info("client connected from %s", conn.RemoteAddr())
			sim := serial.NewSimulator()
			if *garble > 0 {
				sim.GarbleOnce(*garble)
			}
			go handleConnection(conn, sim, logger)
		}
	}
}

func handleConnection(conn net.Conn, sim *serial.Simulator, logger *log.Logger) {
	defer conn.Close()

	// Marlin greets the host after reset.
	fmt.Fprint(conn, "start\necho:Marlin mock\n")

	if err := sim.Serve(conn); err != nil {
		logger.WithError(err).Warn("connection ended")
	}
	logger.WithField("commands", sim.Received()).Info(
		fmt.Sprintf("client disconnected at %s", sim.Position()))
}
