// Command ledsignal drives a serial LED traffic light from C source
// analysis.
//
// The daemon opens the LED device, serves a JSON control API and keeps the
// LED on the color of the latest analysis: RED for errors, YELLOW for
// several suggestions, GREEN otherwise.
//
// Usage:
//
//	ledsignal [flags]
//
// Flags:
//
//	-config string     Configuration file path (YAML)
//	-port string       Serial port (overrides serial.port)
//	-addr string       HTTP listen address (overrides http.addr; "" disables)
//	-watch string      C source file to analyze on every save
//	-event-log string  CBOR device event log (overrides log.event_file)
//	-log-level string  Log level: debug, info, warn, error
//	-discover          Advertise the control API over mDNS
//	-connect           Connect the device at startup (default true)
//	-i                 Interactive console
//
// Examples:
//
//	# Run against the first USB serial port
//	ledsignal
//
//	# Fixed port, watch a file, interactive console
//	ledsignal -port /dev/ttyACM0 -watch main.c -i
//
//	# Config file with debug logging
//	ledsignal -config /etc/ledsignal.yaml -log-level debug
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ledsignal/ledsignal-go/pkg/config"
)

// version is set at build time.
var version = "dev"

// Flags holds the command-line overrides.
type Flags struct {
	ConfigFile  string
	Port        string
	Addr        string
	addrSet     bool
	Watch       string
	EventLog    string
	LogLevel    string
	Discover    bool
	Connect     bool
	Interactive bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*Flags, error) {
	f := &Flags{}
	fs.StringVar(&f.ConfigFile, "config", "", "Configuration file path (YAML)")
	fs.StringVar(&f.Port, "port", "", "Serial port (overrides serial.port)")
	fs.StringVar(&f.Addr, "addr", "", "HTTP listen address (overrides http.addr; empty disables)")
	fs.StringVar(&f.Watch, "watch", "", "C source file to analyze on every save")
	fs.StringVar(&f.EventLog, "event-log", "", "CBOR device event log (overrides log.event_file)")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.BoolVar(&f.Discover, "discover", false, "Advertise the control API over mDNS")
	fs.BoolVar(&f.Connect, "connect", true, "Connect the device at startup")
	fs.BoolVar(&f.Interactive, "i", false, "Interactive console")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(fl *flag.Flag) {
		if fl.Name == "addr" {
			f.addrSet = true
		}
	})
	return f, nil
}

// apply overlays the flags on cfg and validates the result.
func (f *Flags) apply(cfg *config.Config) error {
	if f.Port != "" {
		cfg.Serial.Port = f.Port
	}
	if f.addrSet {
		cfg.HTTP.Addr = f.Addr
	}
	if f.EventLog != "" {
		cfg.Log.EventFile = f.EventLog
	}
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.Discover {
		cfg.Discovery.Enabled = true
	}
	return cfg.Validate()
}

func main() {
	flags, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := flags.apply(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, flags); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
