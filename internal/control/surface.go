// Package control models the operator controls. It only requests run
// state transitions; the backend confirms them with events.
package control

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/park285/arena-console/internal/protocol"
)

type RunState int

const (
	Idle RunState = iota
	Running
	Paused
	Completed
)

func (s RunState) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Completed:
		return "completed"
	default:
		return "idle"
	}
}

func (s RunState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *RunState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = Idle
	case "running":
		*s = Running
	case "paused":
		*s = Paused
	case "completed":
		*s = Completed
	default:
		return fmt.Errorf("control: unknown run state %q", b)
	}
	return nil
}

type Button string

const (
	ButtonStart  Button = "start"
	ButtonToggle Button = "toggle"
	ButtonStop   Button = "stop"
)

const (
	LabelPause  = "Pause"
	LabelResume = "Resume"
)

var (
	ErrDisabled      = errors.New("control: button disabled")
	ErrInvalidConfig = errors.New("control: invalid configuration")
)

// ButtonState is one control as displayed.
type ButtonState struct {
	Button  Button `json:"button"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

// Surface holds the run state and the toggle label. The toggle decides
// between pause and resume from its own label, so the label is state.
type Surface struct {
	state       RunState
	toggleLabel string
}

func New() *Surface {
	return &Surface{state: Idle, toggleLabel: LabelPause}
}

func (s *Surface) State() RunState { return s.state }

func (s *Surface) ToggleLabel() string { return s.toggleLabel }

// Sync applies a run state confirmed by the backend.
func (s *Surface) Sync(state RunState) {
	s.state = state
	switch state {
	case Running:
		s.toggleLabel = LabelPause
	case Paused:
		s.toggleLabel = LabelResume
	}
}

func (s *Surface) Enabled(b Button) bool {
	switch b {
	case ButtonStart:
		return s.state != Running
	case ButtonToggle, ButtonStop:
		return s.state == Running || s.state == Paused
	default:
		return false
	}
}

func (s *Surface) Buttons() []ButtonState {
	return []ButtonState{
		{Button: ButtonStart, Label: "Start", Enabled: s.Enabled(ButtonStart)},
		{Button: ButtonToggle, Label: s.toggleLabel, Enabled: s.Enabled(ButtonToggle)},
		{Button: ButtonStop, Label: "Stop", Enabled: s.Enabled(ButtonStop)},
	}
}

// PressToggle returns pause while the label reads Pause and resume
// otherwise.
func (s *Surface) PressToggle() (protocol.Command, error) {
	if !s.Enabled(ButtonToggle) {
		return protocol.Command{}, fmt.Errorf("%w: %s", ErrDisabled, ButtonToggle)
	}
	if s.toggleLabel == LabelPause {
		return protocol.Pause(), nil
	}
	return protocol.Resume(), nil
}

func (s *Surface) PressStop() (protocol.Command, error) {
	if !s.Enabled(ButtonStop) {
		return protocol.Command{}, fmt.Errorf("%w: %s", ErrDisabled, ButtonStop)
	}
	return protocol.Stop(), nil
}

// PressStart validates cfg and returns the start command. The caller clears
// history when this succeeds.
func (s *Surface) PressStart(cfg protocol.StartConfig) (protocol.Command, error) {
	if !s.Enabled(ButtonStart) {
		return protocol.Command{}, fmt.Errorf("%w: %s", ErrDisabled, ButtonStart)
	}
	if err := Validate(cfg); err != nil {
		return protocol.Command{}, err
	}
	return protocol.Start(cfg), nil
}

func Validate(cfg protocol.StartConfig) error {
	var problems []string
	if cfg.NumGames <= 0 {
		problems = append(problems, "num_games must be positive")
	}
	if cfg.ConcurrentGames <= 0 {
		problems = append(problems, "concurrent_games must be positive")
	}
	switch {
	case !finite(cfg.TimeControl):
		problems = append(problems, "time_control must be a finite number")
	case cfg.TimeControl <= 0:
		problems = append(problems, "time_control must be positive")
	}
	switch {
	case !finite(cfg.Increment):
		problems = append(problems, "increment must be a finite number")
	case cfg.Increment < 0:
		problems = append(problems, "increment must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
