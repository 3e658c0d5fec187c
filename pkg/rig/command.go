package rig

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidCommand is returned for operator input that cannot be parsed.
var ErrInvalidCommand = errors.New("rig: invalid command")

// Kind identifies an operator command.
type Kind int

const (
	CmdStatus Kind = iota
	CmdMove
	CmdStep
	CmdToggleMode
	CmdTracking
	CmdZoom
	CmdCenter
	CmdCalibrate
	CmdConfidence
	CmdPan
	CmdTilt
	CmdPanPulse
	CmdTiltPulse
	CmdPosition
	CmdPulse
	CmdSmooth
	CmdQuit
)

var kindNames = map[Kind]string{
	CmdStatus:     "status",
	CmdMove:       "move",
	CmdStep:       "step",
	CmdToggleMode: "mode",
	CmdTracking:   "tracking",
	CmdZoom:       "zoom",
	CmdCenter:     "center",
	CmdCalibrate:  "calibrate",
	CmdConfidence: "confidence",
	CmdPan:        "pan",
	CmdTilt:       "tilt",
	CmdPanPulse:   "pus",
	CmdTiltPulse:  "tus",
	CmdPosition:   "position",
	CmdPulse:      "pulse",
	CmdSmooth:     "smooth",
	CmdQuit:       "quit",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Command is one parsed operator request.
// Only the fields relevant to Kind are set.
type Command struct {
	Kind      Kind
	Direction Direction

	// Delta is +1 or -1 for step, zoom and confidence nudges; 0 resets zoom.
	Delta int

	// Enable forces tracking on or off; nil toggles.
	Enable *bool

	Pan, Tilt     float64
	PanUS, TiltUS int

	// Duration and Steps shape a smooth move; zero means the defaults.
	Duration time.Duration
	Steps    int
}

// Move returns a directional nudge command.
func Move(dir Direction) Command { return Command{Kind: CmdMove, Direction: dir} }

// SetTracking returns a command forcing tracking on or off.
func SetTracking(on bool) Command { return Command{Kind: CmdTracking, Enable: &on} }

// ParseCommand parses a console line. Single keys follow the rig's keyboard
// layout (w/a/s/d, [ ], m, + - r, c, k, t g, p, q); words take arguments,
// for example "pan 84.5", "pus 1500" or "smooth 90 45".
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty input", ErrInvalidCommand)
	}
	name, args := fields[0], fields[1:]

	invalid := func() (Command, error) {
		return Command{}, fmt.Errorf("%w: %q", ErrInvalidCommand, strings.TrimSpace(line))
	}

	if dir, ok := ParseDirection(name); ok && len(args) == 0 {
		return Move(dir), nil
	}

	switch name {
	case "move":
		if len(args) != 1 {
			return invalid()
		}
		dir, ok := ParseDirection(args[0])
		if !ok {
			return invalid()
		}
		return Move(dir), nil

	case "[", "]", "step":
		delta := 1
		switch {
		case name == "[":
			delta = -1
		case name == "step":
			if len(args) != 1 {
				return invalid()
			}
			d, ok := parseSign(args[0])
			if !ok {
				return invalid()
			}
			delta = d
		}
		if name != "step" && len(args) != 0 {
			return invalid()
		}
		return Command{Kind: CmdStep, Delta: delta}, nil

	case "m", "mode":
		return noArgs(Command{Kind: CmdToggleMode}, args, invalid)

	case "track", "tracking":
		switch {
		case len(args) == 0:
			return Command{Kind: CmdTracking}, nil
		case len(args) == 1 && args[0] == "on":
			return SetTracking(true), nil
		case len(args) == 1 && args[0] == "off":
			return SetTracking(false), nil
		}
		return invalid()

	case "+", "=":
		return noArgs(Command{Kind: CmdZoom, Delta: 1}, args, invalid)
	case "-":
		return noArgs(Command{Kind: CmdZoom, Delta: -1}, args, invalid)
	case "r":
		return noArgs(Command{Kind: CmdZoom}, args, invalid)
	case "zoom":
		if len(args) != 1 {
			return invalid()
		}
		if args[0] == "reset" {
			return Command{Kind: CmdZoom}, nil
		}
		d, ok := parseSign(args[0])
		if !ok {
			return invalid()
		}
		return Command{Kind: CmdZoom, Delta: d}, nil

	case "c", "center":
		return noArgs(Command{Kind: CmdCenter}, args, invalid)
	case "k", "calibrate":
		return noArgs(Command{Kind: CmdCalibrate}, args, invalid)

	case "t":
		return noArgs(Command{Kind: CmdConfidence, Delta: 1}, args, invalid)
	case "g":
		return noArgs(Command{Kind: CmdConfidence, Delta: -1}, args, invalid)
	case "confidence":
		if len(args) != 1 {
			return invalid()
		}
		d, ok := parseSign(args[0])
		if !ok {
			return invalid()
		}
		return Command{Kind: CmdConfidence, Delta: d}, nil

	case "p", "status":
		return noArgs(Command{Kind: CmdStatus}, args, invalid)
	case "q", "quit", "exit":
		return noArgs(Command{Kind: CmdQuit}, args, invalid)

	case "pan", "tilt":
		if len(args) != 1 {
			return invalid()
		}
		v, err := parseFloat(args[0])
		if err != nil {
			return invalid()
		}
		if name == "pan" {
			return Command{Kind: CmdPan, Pan: v}, nil
		}
		return Command{Kind: CmdTilt, Tilt: v}, nil

	case "pus", "tus":
		if len(args) != 1 {
			return invalid()
		}
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return invalid()
		}
		if name == "pus" {
			return Command{Kind: CmdPanPulse, PanUS: v}, nil
		}
		return Command{Kind: CmdTiltPulse, TiltUS: v}, nil

	case "smooth":
		if len(args) != 2 {
			return invalid()
		}
		pan, err1 := parseFloat(args[0])
		tilt, err2 := parseFloat(args[1])
		if err1 != nil || err2 != nil {
			return invalid()
		}
		return Command{Kind: CmdSmooth, Pan: pan, Tilt: tilt}, nil
	}

	return invalid()
}

func noArgs(cmd Command, args []string, invalid func() (Command, error)) (Command, error) {
	if len(args) != 0 {
		return invalid()
	}
	return cmd, nil
}

func parseSign(s string) (int, bool) {
	switch s {
	case "+", "up", "in", "inc":
		return 1, true
	case "-", "down", "out", "dec":
		return -1, true
	}
	return 0, false
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not finite: %s", s)
	}
	return v, nil
}
