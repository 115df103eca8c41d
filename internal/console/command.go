// Package console implements the operator panel: a line-oriented command
// language for manual override, sensor sliders and the timelapse player.
package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sweeney/room-controller/internal/logic"
	"github.com/sweeney/room-controller/internal/sim"
)

// Op is a console verb.
type Op string

const (
	OpAuto      Op = "auto"
	OpManual    Op = "manual"
	OpOutput    Op = "out"
	OpSensor    Op = "sensor"
	OpButton    Op = "btn"
	OpTimelapse Op = "timelapse"
	OpPlay      Op = "play"
	OpPause     Op = "pause"
	OpSpeed     Op = "speed"
	OpSeek      Op = "seek"
	OpAutoLInt  Op = "autolint"
	OpStatus    Op = "status"
	OpHelp      Op = "help"
	OpQuit      Op = "quit"
)

// Output channel names accepted by "out".
const (
	TargetWindow = "win"
	TargetLamp   = "lamp"
	TargetHumid  = "humid"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArgument    = errors.New("bad argument")
)

// Command is a parsed console line.
type Command struct {
	Op     Op
	Target string  // output channel or sensor name
	Value  float64 // PWM, sensor reading, speed, or minute of day
	On     bool
}

// Local reports whether the command is handled by the console itself rather
// than applied to the controller.
func (c Command) Local() bool {
	return c.Op == OpStatus || c.Op == OpHelp || c.Op == OpQuit
}

// Parse parses one console line. Verbs and names are case-insensitive.
func Parse(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty line", ErrUnknownCommand)
	}
	op, args := Op(fields[0]), fields[1:]

	switch op {
	case OpAuto, OpManual, OpPlay, OpPause, OpStatus, OpHelp, OpQuit:
		if len(args) != 0 {
			return Command{}, fmt.Errorf("%w: %s takes no arguments", ErrBadArgument, op)
		}
		return Command{Op: op}, nil

	case OpOutput:
		if len(args) != 2 {
			return Command{}, usage(op, "win|lamp|humid <0-255>")
		}
		switch args[0] {
		case TargetWindow, TargetLamp, TargetHumid:
		default:
			return Command{}, fmt.Errorf("%w: unknown output %q", ErrBadArgument, args[0])
		}
		v, err := parseInt(args[1], logic.PWMMax)
		if err != nil {
			return Command{}, err
		}
		return Command{Op: op, Target: args[0], Value: float64(v)}, nil

	case OpSensor:
		if len(args) != 2 {
			return Command{}, usage(op, "lext|lint|hum <0-1023>")
		}
		switch sim.Sensor(args[0]) {
		case sim.SensorLExt, sim.SensorLInt, sim.SensorHum:
		default:
			return Command{}, fmt.Errorf("%w: unknown sensor %q", ErrBadArgument, args[0])
		}
		v, err := parseInt(args[1], logic.SensorMax)
		if err != nil {
			return Command{}, err
		}
		return Command{Op: op, Target: args[0], Value: float64(v)}, nil

	case OpButton, OpTimelapse, OpAutoLInt:
		if len(args) != 1 {
			return Command{}, usage(op, "on|off")
		}
		on, err := parseSwitch(args[0])
		if err != nil {
			return Command{}, err
		}
		return Command{Op: op, On: on}, nil

	case OpSpeed:
		if len(args) != 1 {
			return Command{}, usage(op, "<1-2000>")
		}
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil || v < sim.MinSpeed || v > sim.MaxSpeed {
			return Command{}, fmt.Errorf("%w: speed %q outside %g..%g", ErrBadArgument, args[0], sim.MinSpeed, sim.MaxSpeed)
		}
		return Command{Op: op, Value: v}, nil

	case OpSeek:
		if len(args) != 1 {
			return Command{}, usage(op, "HH:MM")
		}
		m, err := sim.ParseClock(args[0])
		if err != nil {
			return Command{}, fmt.Errorf("%w: %w", ErrBadArgument, err)
		}
		return Command{Op: op, Value: m}, nil
	}

	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
}

func usage(op Op, args string) error {
	return fmt.Errorf("%w: usage: %s %s", ErrBadArgument, op, args)
}

func parseInt(s string, hi int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 || v > hi {
		return 0, fmt.Errorf("%w: %q outside 0..%d", ErrBadArgument, s, hi)
	}
	return v, nil
}

func parseSwitch(s string) (bool, error) {
	switch s {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("%w: expected on or off, got %q", ErrBadArgument, s)
}

// Apply executes the command against the controller model and the simulated
// environment. It must run on the goroutine that owns both.
func (c Command) Apply(m *logic.Model, env *sim.Environment) error {
	switch c.Op {
	case OpAuto:
		m.SetMode(logic.ModeAuto)
	case OpManual:
		m.SetMode(logic.ModeManual)
	case OpOutput:
		o := m.Outputs
		v := int(c.Value)
		switch c.Target {
		case TargetWindow:
			o.Win = v
		case TargetLamp:
			o.Lamp = v
		case TargetHumid:
			o.Humid = v
		default:
			return fmt.Errorf("%w: unknown output %q", ErrBadArgument, c.Target)
		}
		m.SetManualOutputs(o)
	case OpSensor:
		return env.SetSensor(sim.Sensor(c.Target), int(c.Value))
	case OpButton:
		env.SetButton(c.On)
	case OpTimelapse:
		env.SetTimelapse(c.On)
	case OpPlay:
		env.SetPlaying(true)
	case OpPause:
		env.SetPlaying(false)
	case OpSpeed:
		env.SetSpeed(c.Value)
	case OpSeek:
		env.Seek(c.Value)
	case OpAutoLInt:
		env.SetAutoLInt(c.On)
	case OpStatus, OpHelp, OpQuit:
		// handled by the console
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, c.Op)
	}
	return nil
}

// Help lists the console commands.
const Help = `Commands:
  auto | manual                 - Select controller mode
  out win|lamp|humid <0-255>    - Set an output (switches to manual)
  sensor lext|lint|hum <0-1023> - Move a sensor slider
  btn on|off                    - Hold or release the button
  timelapse on|off              - Enable the simulated day
  play | pause                  - Run or stop the timelapse
  speed <1-2000>                - Timelapse speed multiplier
  seek HH:MM                    - Jump to a time of day
  autolint on|off               - Simulate interior light
  status                        - Show the current snapshot
  quit                          - Stop the controller`
