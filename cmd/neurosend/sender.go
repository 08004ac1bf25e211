package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/c360/neurostreams/pkg/wire"
)

// encoder is the slice of the wire codecs the sender needs. Both the text
// and the OSC codec satisfy it.
type encoder interface {
	Format() string
	Encode(action string, confidence float64) []byte
}

// Sender writes command datagrams to one UDP target in one encoding.
type Sender struct {
	conn  net.Conn
	codec encoder
}

func newSender(host string, port int, format string) (*Sender, error) {
	var codec encoder
	switch strings.ToLower(format) {
	case "csv", "text":
		codec = wire.NewTextCodec()
	case "osc", "binary":
		codec = wire.NewOSCCodec()
	default:
		return nil, fmt.Errorf("unknown format %q (want csv or osc)", format)
	}

	conn, err := net.Dial("udp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", net.JoinHostPort(host, strconv.Itoa(port)), err)
	}

	return &Sender{conn: conn, codec: codec}, nil
}

// Target returns the resolved remote address
func (s *Sender) Target() string {
	return s.conn.RemoteAddr().String()
}

// Format returns the active wire format name
func (s *Sender) Format() string {
	return s.codec.Format()
}

// SetFormat switches the wire encoding for subsequent sends
func (s *Sender) SetFormat(format string) error {
	switch strings.ToLower(format) {
	case "csv", "text":
		s.codec = wire.NewTextCodec()
	case "osc", "binary":
		s.codec = wire.NewOSCCodec()
	default:
		return fmt.Errorf("unknown format %q (want csv or osc)", format)
	}
	return nil
}

// Close releases the socket
func (s *Sender) Close() error {
	return s.conn.Close()
}

// Send transmits one command datagram and echoes it to stdout
func (s *Sender) Send(action string, confidence float64) error {
	payload := s.codec.Encode(action, confidence)
	if _, err := s.conn.Write(payload); err != nil {
		return fmt.Errorf("send %s: %w", action, err)
	}

	fmt.Printf("[%s] Sent: %s,%.2f\n", time.Now().Format("15:04:05.000"), action, confidence)
	return nil
}

// RunContinuous broadcasts one command at the given frequency until the
// context is cancelled
func (s *Sender) RunContinuous(ctx context.Context, action string, confidence, frequency float64) error {
	if frequency <= 0 {
		return fmt.Errorf("frequency %.2f must be positive", frequency)
	}

	interval := time.Duration(float64(time.Second) / frequency)
	fmt.Printf("Broadcasting %q at %.1fHz, Ctrl+C to stop\n", action, frequency)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.Send(action, confidence); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			fmt.Println("Stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunRamp sweeps confidence from 0 to 1 and back in 0.05 steps, holding at
// the top, then settles on neutral. Useful for eyeballing the hysteresis
// band of a live filter.
func (s *Sender) RunRamp(ctx context.Context, action string) error {
	fmt.Printf("Ramping %q confidence 0→1→0\n", action)

	for i := 0; i <= 100; i += 5 {
		if err := s.Send(action, float64(i)/100); err != nil {
			return err
		}
		if !sleepCtx(ctx, 100*time.Millisecond) {
			return nil
		}
	}

	if !sleepCtx(ctx, time.Second) {
		return nil
	}

	for i := 100; i >= 0; i -= 5 {
		if err := s.Send(action, float64(i)/100); err != nil {
			return err
		}
		if !sleepCtx(ctx, 100*time.Millisecond) {
			return nil
		}
	}

	if err := s.Send("neutral", 0.3); err != nil {
		return err
	}
	fmt.Println("Ramp complete")
	return nil
}

// RunScenario plays a scenario script step by step
func (s *Sender) RunScenario(ctx context.Context, scenario Scenario) error {
	if err := scenario.Validate(); err != nil {
		return err
	}

	fmt.Printf("Running scenario %q (%d steps)\n", scenario.Name, len(scenario.Steps))

	for _, step := range scenario.Steps {
		sends := 1 + step.Repeat
		var interval time.Duration
		if sends > 1 {
			frequency := step.Frequency
			if frequency <= 0 {
				frequency = defaultBurstHz
			}
			interval = time.Duration(float64(time.Second) / frequency)
		}

		for i := 0; i < sends; i++ {
			if err := s.Send(step.Action, step.Confidence); err != nil {
				return err
			}
			if i < sends-1 && !sleepCtx(ctx, interval) {
				fmt.Println("Stopped")
				return nil
			}
		}

		if step.Delay > 0 && !sleepCtx(ctx, step.Delay) {
			fmt.Println("Stopped")
			return nil
		}
	}

	fmt.Println("Scenario complete")
	return nil
}

// sleepCtx waits d or until the context is cancelled; false means cancelled
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
