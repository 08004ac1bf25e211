// Command neurosend sends synthetic mental-command datagrams to a running
// pipeline, standing in for a headset during development and testing. It
// speaks both wire encodings (CSV text and binary OSC) and supports single
// shots, scripted scenarios, continuous broadcast, confidence ramps, and an
// interactive prompt.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "neurosend"
)

// actions is the command vocabulary understood by stock headset profiles
var actions = []string{"push", "pull", "left", "right", "lift", "drop", "neutral"}

// cliFlags holds parsed command-line flags
type cliFlags struct {
	Host         string
	Port         int
	Format       string
	Sequence     bool
	Continuous   bool
	Frequency    float64
	RampAction   string
	ScenarioPath string
	ShowVersion  bool
	ShowHelp     bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func run() error {
	flags := parseFlags()

	if flags.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if flags.ShowHelp {
		printUsage()
		return nil
	}

	sender, err := newSender(flags.Host, flags.Port, flags.Format)
	if err != nil {
		return err
	}
	defer func() { _ = sender.Close() }()

	fmt.Printf("%s %s → %s (%s)\n", appName, Version, sender.Target(), sender.Format())

	// Interactive mode manages its own per-command interrupts so Ctrl+C
	// stops a running broadcast without killing the prompt
	args := flag.Args()
	if flags.ScenarioPath == "" && !flags.Sequence && flags.RampAction == "" && len(args) == 0 {
		return runInteractive(sender)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch {
	case flags.ScenarioPath != "":
		scenario, err := LoadScenario(flags.ScenarioPath)
		if err != nil {
			return err
		}
		return sender.RunScenario(ctx, scenario)

	case flags.Sequence:
		return sender.RunScenario(ctx, builtinSequence())

	case flags.RampAction != "":
		return sender.RunRamp(ctx, flags.RampAction)

	default:
		action := args[0]
		if len(args) < 2 {
			return fmt.Errorf("missing confidence for action %q (usage: %s ACTION CONFIDENCE)", action, appName)
		}
		confidence, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid confidence %q: %w", args[1], err)
		}

		if flags.Continuous {
			return sender.RunContinuous(ctx, action, confidence, flags.Frequency)
		}
		return sender.Send(action, confidence)
	}
}

func parseFlags() *cliFlags {
	flags := &cliFlags{}

	flag.StringVar(&flags.Host, "host",
		getEnv("NEUROSEND_HOST", "127.0.0.1"),
		"Target host (env: NEUROSEND_HOST)")
	flag.IntVar(&flags.Port, "port",
		getEnvInt("NEUROSEND_PORT", 7400),
		"Target UDP port (env: NEUROSEND_PORT)")
	flag.StringVar(&flags.Format, "format",
		getEnv("NEUROSEND_FORMAT", "csv"),
		"Wire format: csv, osc (env: NEUROSEND_FORMAT)")
	flag.BoolVar(&flags.Sequence, "sequence", false, "Run the built-in test sequence")
	flag.BoolVar(&flags.Continuous, "continuous", false, "Broadcast the given command continuously")
	flag.Float64Var(&flags.Frequency, "frequency", 10, "Send frequency in Hz for continuous mode")
	flag.StringVar(&flags.RampAction, "ramp", "", "Ramp confidence up and down for the given action")
	flag.StringVar(&flags.ScenarioPath, "scenario", "", "Run a YAML scenario script")
	flag.BoolVar(&flags.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&flags.ShowHelp, "help", false, "Show help information")

	flag.Usage = printUsage
	flag.Parse()

	return flags
}

func printUsage() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - Mental-Command Test Sender

Usage: %s [options] [ACTION CONFIDENCE]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Interactive mode
  %s

  # Single command
  %s push 0.85

  # Built-in test sequence
  %s --sequence

  # Continuous broadcast at 20Hz in binary OSC
  %s --continuous --frequency=20 --format=osc push 0.9

  # Confidence ramp
  %s --ramp=left

  # Scripted scenario
  %s --scenario=configs/scenarios/smoke.yaml

Actions: %v
Version: %s
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], actions, Version)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
