package console

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/room-controller/internal/logic"
	"github.com/sweeney/room-controller/internal/sim"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"auto", Command{Op: OpAuto}},
		{"  MANUAL ", Command{Op: OpManual}},
		{"out win 200", Command{Op: OpOutput, Target: TargetWindow, Value: 200}},
		{"out lamp 0", Command{Op: OpOutput, Target: TargetLamp, Value: 0}},
		{"out humid 255", Command{Op: OpOutput, Target: TargetHumid, Value: 255}},
		{"sensor lext 1023", Command{Op: OpSensor, Target: "lext", Value: 1023}},
		{"sensor hum 12", Command{Op: OpSensor, Target: "hum", Value: 12}},
		{"btn on", Command{Op: OpButton, On: true}},
		{"btn off", Command{Op: OpButton}},
		{"timelapse on", Command{Op: OpTimelapse, On: true}},
		{"autolint 0", Command{Op: OpAutoLInt}},
		{"play", Command{Op: OpPlay}},
		{"pause", Command{Op: OpPause}},
		{"speed 120", Command{Op: OpSpeed, Value: 120}},
		{"speed 2.5", Command{Op: OpSpeed, Value: 2.5}},
		{"seek 18:30", Command{Op: OpSeek, Value: 1110}},
		{"status", Command{Op: OpStatus}},
		{"help", Command{Op: OpHelp}},
		{"quit", Command{Op: OpQuit}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		line string
		want error
	}{
		{"", ErrUnknownCommand},
		{"jump", ErrUnknownCommand},
		{"auto now", ErrBadArgument},
		{"out", ErrBadArgument},
		{"out fan 10", ErrBadArgument},
		{"out win 256", ErrBadArgument},
		{"out win -1", ErrBadArgument},
		{"out win lots", ErrBadArgument},
		{"sensor temp 10", ErrBadArgument},
		{"sensor lint 1024", ErrBadArgument},
		{"btn maybe", ErrBadArgument},
		{"speed 0", ErrBadArgument},
		{"speed 2001", ErrBadArgument},
		{"seek 25:00", ErrBadArgument},
		{"seek noon", ErrBadArgument},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := Parse(tt.line)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_SeekWrapsClockError(t *testing.T) {
	_, err := Parse("seek 7")
	assert.ErrorIs(t, err, sim.ErrBadClock)
}

func TestCommand_Local(t *testing.T) {
	assert.True(t, Command{Op: OpStatus}.Local())
	assert.True(t, Command{Op: OpHelp}.Local())
	assert.True(t, Command{Op: OpQuit}.Local())
	assert.False(t, Command{Op: OpAuto}.Local())
}

var t0 = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

func apply(t *testing.T, m *logic.Model, env *sim.Environment, line string) {
	t.Helper()
	cmd, err := Parse(line)
	require.NoError(t, err)
	require.NoError(t, cmd.Apply(m, env))
}

func TestApply_Mode(t *testing.T) {
	m := logic.NewModel(t0)
	env := sim.NewEnvironment()

	apply(t, &m, env, "manual")
	assert.Equal(t, logic.ModeManual, m.Mode)
	apply(t, &m, env, "auto")
	assert.Equal(t, logic.ModeAuto, m.Mode)
}

func TestApply_OutputSwitchesToManual(t *testing.T) {
	m := logic.NewModel(t0)
	m.Outputs = logic.Outputs{Win: 10, Lamp: 20, Humid: 30}
	m.State = logic.StateWait
	env := sim.NewEnvironment()

	apply(t, &m, env, "out lamp 200")

	assert.Equal(t, logic.ModeManual, m.Mode)
	assert.Equal(t, logic.Outputs{Win: 10, Lamp: 200, Humid: 30}, m.Outputs)
	assert.Equal(t, logic.StateWait, m.State, "state untouched")
}

func TestApply_Environment(t *testing.T) {
	m := logic.NewModel(t0)
	env := sim.NewEnvironment()

	apply(t, &m, env, "sensor lext 100")
	apply(t, &m, env, "btn on")
	assert.Equal(t, logic.Sensors{LExt: 100, LInt: 500, Hum: 500, BtnPressed: true}, env.Sliders())

	apply(t, &m, env, "timelapse on")
	apply(t, &m, env, "play")
	apply(t, &m, env, "speed 300")
	apply(t, &m, env, "seek 06:15")
	apply(t, &m, env, "autolint off")

	tl := env.Timelapse()
	assert.True(t, tl.Enabled)
	assert.True(t, tl.Playing)
	assert.Equal(t, 300.0, tl.Speed)
	assert.Equal(t, 375.0, tl.Minutes)
	assert.False(t, tl.AutoLInt)

	apply(t, &m, env, "pause")
	assert.False(t, env.Timelapse().Playing)

	assert.Equal(t, logic.ModeAuto, m.Mode, "environment commands leave the mode alone")
}

func TestApply_UnknownOp(t *testing.T) {
	m := logic.NewModel(t0)
	err := Command{Op: "dance"}.Apply(&m, sim.NewEnvironment())
	assert.ErrorIs(t, err, ErrUnknownCommand)
}
