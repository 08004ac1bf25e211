package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
)

// runInteractive reads commands from stdin until quit or EOF. Long-running
// commands install their own interrupt handler so Ctrl+C returns to the
// prompt; at the prompt itself Ctrl+C exits the process.
func runInteractive(sender *Sender) error {
	fmt.Println("Interactive mode")
	printInteractiveHelp(sender)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(">>> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		line := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if line == "" {
			continue
		}

		switch {
		case line == "quit" || line == "exit" || line == "q":
			fmt.Println("Goodbye!")
			return nil

		case line == "help":
			printInteractiveHelp(sender)

		case line == "sequence":
			runInterruptible(func(ctx context.Context) error {
				return sender.RunScenario(ctx, builtinSequence())
			})

		case strings.HasPrefix(line, "ramp "):
			action := strings.TrimSpace(strings.TrimPrefix(line, "ramp "))
			if !validAction(action) {
				fmt.Printf("Unknown action. Available: %s\n", strings.Join(actions, ", "))
				continue
			}
			runInterruptible(func(ctx context.Context) error {
				return sender.RunRamp(ctx, action)
			})

		case strings.HasPrefix(line, "continuous "):
			parts := strings.Fields(line)
			if len(parts) != 4 {
				fmt.Println("Usage: continuous ACTION CONFIDENCE FREQUENCY")
				continue
			}
			confidence, err1 := strconv.ParseFloat(parts[2], 64)
			frequency, err2 := strconv.ParseFloat(parts[3], 64)
			if err1 != nil || err2 != nil {
				fmt.Println("Usage: continuous ACTION CONFIDENCE FREQUENCY")
				continue
			}
			runInterruptible(func(ctx context.Context) error {
				return sender.RunContinuous(ctx, parts[1], confidence, frequency)
			})

		case strings.HasPrefix(line, "format "):
			format := strings.TrimSpace(strings.TrimPrefix(line, "format "))
			if err := sender.SetFormat(format); err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			fmt.Printf("Wire format now %s\n", sender.Format())

		case strings.Contains(line, ","):
			parts := strings.SplitN(line, ",", 2)
			action := strings.TrimSpace(parts[0])
			confidence, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			if err != nil {
				fmt.Println("Invalid confidence value")
				continue
			}
			if confidence < 0 || confidence > 1 {
				fmt.Println("Confidence must be between 0.0 and 1.0")
				continue
			}
			if err := sender.Send(action, confidence); err != nil {
				fmt.Printf("Error: %v\n", err)
			}

		default:
			fmt.Println("Unknown command. Type 'help' for options.")
		}
	}
}

// runInterruptible runs fn under a fresh interrupt context so Ctrl+C stops
// the command, not the prompt
func runInterruptible(fn func(context.Context) error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := fn(ctx); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}

func printInteractiveHelp(sender *Sender) {
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("Commands:")
	fmt.Println("  action,confidence          - Send command (e.g., push,0.85)")
	fmt.Println("  sequence                   - Run the built-in test sequence")
	fmt.Println("  ramp ACTION                - Ramp confidence for action")
	fmt.Println("  continuous ACTION CONF HZ  - Continuous broadcast")
	fmt.Println("  format csv|osc             - Switch wire encoding")
	fmt.Println("  help                       - Show this help")
	fmt.Println("  quit                       - Exit")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Sending to %s (%s)\n", sender.Target(), sender.Format())
	fmt.Printf("Actions: %s\n", strings.Join(actions, ", "))
}

func validAction(action string) bool {
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}
