package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
)

// readlineWriter keeps log output from tearing through the prompt.
type readlineWriter struct {
	rl *readline.Instance
	w  io.Writer
}

func (w *readlineWriter) Write(p []byte) (int, error) {
	w.rl.Clean()
	n, err := w.w.Write(p)
	w.rl.Refresh()
	return n, err
}

// Console reads operator commands from the terminal.
type Console struct {
	status  func() string
	out     io.Writer
	history string
}

// New creates a console. status renders the current snapshot for the
// "status" command.
func New(status func() string) *Console {
	return &Console{
		status:  status,
		out:     os.Stdout,
		history: historyFilePath(),
	}
}

// Run reads lines until ctx is cancelled, input ends, or the operator quits,
// forwarding controller commands to cmds. Quitting or Ctrl+C calls cancel.
// Log output is routed through the prompt while Run is active.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc, cmds chan<- Command) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "> ",
		HistoryFile: c.history,
	})
	if err != nil {
		return fmt.Errorf("console: readline init: %w", err)
	}
	defer rl.Close()

	prevLog := log.Writer()
	log.SetOutput(&readlineWriter{rl: rl, w: prevLog})
	defer log.SetOutput(prevLog)
	c.out = rl.Stdout()

	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	log.Println("Console ready (type 'help' for commands)")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			cancel()
			return nil
		}
		if err != nil {
			return nil // EOF or closed
		}
		if c.handle(ctx, line, cmds) {
			cancel()
			return nil
		}
	}
}

// handle processes one line and reports whether the operator asked to quit.
func (c *Console) handle(ctx context.Context, line string, cmds chan<- Command) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}

	cmd, err := Parse(line)
	if err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return false
	}

	if !cmd.Local() {
		select {
		case cmds <- cmd:
		case <-ctx.Done():
		}
		return false
	}

	switch cmd.Op {
	case OpHelp:
		fmt.Fprintln(c.out, Help)
	case OpStatus:
		if c.status != nil {
			fmt.Fprintln(c.out, c.status())
		}
	case OpQuit:
		return true
	}
	return false
}

func historyFilePath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		cacheDir = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(cacheDir, "room-controller")
	_ = os.MkdirAll(dir, 0750)
	return filepath.Join(dir, "console_history")
}
