package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// defaultBurstHz is the send rate inside a repeated step when the script
// does not set one
const defaultBurstHz = 10.0

// Step is one entry in a scenario script: send a command, optionally
// repeat it as a burst, then pause.
type Step struct {
	Action     string        // command to send
	Confidence float64       // raw confidence
	Repeat     int           // extra sends of the same sample
	Frequency  float64       // Hz between repeated sends
	Delay      time.Duration // pause after the step
}

// UnmarshalYAML accepts delays as duration strings ("500ms", "2s")
func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	var aux struct {
		Action     string  `yaml:"action"`
		Confidence float64 `yaml:"confidence"`
		Repeat     int     `yaml:"repeat"`
		Frequency  float64 `yaml:"frequency"`
		Delay      string  `yaml:"delay"`
	}
	if err := value.Decode(&aux); err != nil {
		return err
	}

	s.Action = aux.Action
	s.Confidence = aux.Confidence
	s.Repeat = aux.Repeat
	s.Frequency = aux.Frequency

	if aux.Delay != "" {
		delay, err := time.ParseDuration(aux.Delay)
		if err != nil {
			return fmt.Errorf("step %q: invalid delay %q: %w", aux.Action, aux.Delay, err)
		}
		s.Delay = delay
	}

	return nil
}

// Scenario is a named sequence of command steps, loaded from YAML or built
// in.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Validate rejects scripts that cannot be played. Confidence is not range
// checked: sending out-of-range values at a live pipeline is a legitimate
// test.
func (sc Scenario) Validate() error {
	if len(sc.Steps) == 0 {
		return fmt.Errorf("scenario %q has no steps", sc.Name)
	}

	for i, step := range sc.Steps {
		if step.Action == "" {
			return fmt.Errorf("scenario %q step %d: action is required", sc.Name, i)
		}
		if step.Repeat < 0 {
			return fmt.Errorf("scenario %q step %d: repeat %d cannot be negative", sc.Name, i, step.Repeat)
		}
		if step.Frequency < 0 {
			return fmt.Errorf("scenario %q step %d: frequency %.2f cannot be negative", sc.Name, i, step.Frequency)
		}
	}

	return nil
}

// LoadScenario reads and validates a YAML scenario script
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario: %w", err)
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if scenario.Name == "" {
		scenario.Name = path
	}

	if err := scenario.Validate(); err != nil {
		return Scenario{}, err
	}

	return scenario, nil
}

// builtinSequence is the classic walkthrough of the whole vocabulary with
// hold times long enough for a default-tuned filter to commit each action
func builtinSequence() Scenario {
	return Scenario{
		Name:        "built-in sequence",
		Description: "Walk the full action vocabulary with returns to neutral",
		Steps: []Step{
			{Action: "neutral", Confidence: 0.3, Delay: time.Second},
			{Action: "push", Confidence: 0.85, Delay: 2 * time.Second},
			{Action: "neutral", Confidence: 0.4, Delay: 500 * time.Millisecond},
			{Action: "left", Confidence: 0.75, Delay: 2 * time.Second},
			{Action: "neutral", Confidence: 0.3, Delay: 500 * time.Millisecond},
			{Action: "right", Confidence: 0.80, Delay: 2 * time.Second},
			{Action: "neutral", Confidence: 0.4, Delay: 500 * time.Millisecond},
			{Action: "pull", Confidence: 0.70, Delay: 2 * time.Second},
			{Action: "neutral", Confidence: 0.3, Delay: time.Second},
			{Action: "lift", Confidence: 0.90, Delay: time.Second},
			{Action: "neutral", Confidence: 0.3, Delay: time.Second},
			{Action: "drop", Confidence: 0.88, Delay: time.Second},
			{Action: "neutral", Confidence: 0.3, Delay: 2 * time.Second},
		},
	}
}
