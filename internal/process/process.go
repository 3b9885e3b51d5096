package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/smazurov/livecast/internal/logging"
)

// OutputHandler receives output lines from the subprocess.
type OutputHandler interface {
	HandleLine(source, line string)
}

// OutputHandlerFunc adapts a func to OutputHandler.
type OutputHandlerFunc func(source, line string)

// HandleLine calls f.
func (f OutputHandlerFunc) HandleLine(source, line string) { f(source, line) }

// LogParser parses a log line and returns the log level and message.
type LogParser func(line string) (level, msg string)

// Output sources passed to OutputHandler.
const (
	SourceStdout = "stdout"
	SourceStderr = "stderr"
)

type exitReason int

const (
	exitReasonProcessExit exitReason = iota
	exitReasonShutdown
	exitReasonRestart
)

// Process supervises one subprocess. Its argv can be swapped at runtime with
// RequestRestart; Shutdown stops it for good.
type Process struct {
	id            string
	logger        logging.Logger
	processLogger logging.Logger
	logParser     LogParser
	outputHandler OutputHandler
	quietStdout   bool
	onStart       func(args []string)

	mu           sync.RWMutex
	args         []string
	cmd          *exec.Cmd
	state        State
	startedAt    time.Time
	restartCount int
	lastErr      error

	ctx             context.Context
	cancel          context.CancelFunc
	restartChan     chan []string
	gracefulTimeout time.Duration
	killTimeout     time.Duration
}

// NewProcess creates a process for argv args. The handler may be nil.
func NewProcess(id string, args []string, logger logging.Logger, handler OutputHandler) *Process {
	ctx, cancel := context.WithCancel(context.Background())
	return &Process{
		id:              id,
		args:            args,
		logger:          logger,
		outputHandler:   handler,
		state:           StateIdle,
		ctx:             ctx,
		cancel:          cancel,
		restartChan:     make(chan []string, 1),
		gracefulTimeout: 5 * time.Second,
		killTimeout:     5 * time.Second,
	}
}

// SetLogParser sets the logger and parser used for the subprocess's output.
func (p *Process) SetLogParser(logger logging.Logger, parser LogParser) {
	p.processLogger = logger
	p.logParser = parser
}

// SetQuietStdout stops stdout lines from being logged. They are still
// delivered to the OutputHandler.
func (p *Process) SetQuietStdout(quiet bool) {
	p.quietStdout = quiet
}

// SetOnStart registers fn to run each time a subprocess has started, before
// any of its output is delivered. Output of the previous run has been fully
// delivered by then.
func (p *Process) SetOnStart(fn func(args []string)) {
	p.onStart = fn
}

// SetTimeouts overrides the graceful stop and post-kill wait timeouts.
func (p *Process) SetTimeouts(graceful, kill time.Duration) {
	p.gracefulTimeout = graceful
	p.killTimeout = kill
}

// Args returns the current argv.
func (p *Process) Args() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.args...)
}

// Command returns the current argv as a display string.
func (p *Process) Command() string {
	return FormatCommand(p.Args())
}

// Info returns a snapshot of the process state.
func (p *Process) Info() Info {
	p.mu.RLock()
	defer p.mu.RUnlock()
	info := Info{
		ID:           p.id,
		State:        p.state,
		StartedAt:    p.startedAt,
		RestartCount: p.restartCount,
		LastError:    p.lastErr,
	}
	if p.cmd != nil && p.cmd.Process != nil && p.state == StateRunning {
		info.PID = p.cmd.Process.Pid
	}
	return info
}

// RequestRestart restarts the subprocess with new args. A pending request
// that has not been picked up yet is replaced, so the latest args win.
func (p *Process) RequestRestart(args []string) {
	for {
		select {
		case p.restartChan <- args:
			p.logger.Debug("Restart requested", "id", p.id)
			return
		default:
		}
		select {
		case <-p.restartChan:
			p.logger.Debug("Replacing pending restart", "id", p.id)
		default:
		}
	}
}

// Shutdown triggers a graceful shutdown of the process.
func (p *Process) Shutdown() {
	p.cancel()
}

// Done is closed once Shutdown has been called.
func (p *Process) Done() <-chan struct{} {
	return p.ctx.Done()
}

type runningProcess struct {
	processDone <-chan error
	outputDone  chan struct{}
}

func (p *Process) setState(state State, err error) {
	p.mu.Lock()
	p.state = state
	if err != nil {
		p.lastErr = err
	}
	p.mu.Unlock()
}

func (p *Process) startProcess(args []string) (*runningProcess, error) {
	if len(args) == 0 {
		p.logger.Error("Empty command", "id", p.id)
		return nil, errors.New("empty command")
	}

	p.setState(StateStarting, nil)

	cmd := exec.Command(args[0], args[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		p.setState(StateError, err)
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		p.setState(StateError, err)
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		p.logger.Error("Failed to start process", "id", p.id, "error", err, "command", FormatCommand(args))
		p.setState(StateError, err)
		return nil, err
	}

	p.mu.Lock()
	p.cmd = cmd
	p.state = StateRunning
	p.startedAt = time.Now()
	p.mu.Unlock()

	p.logger.Info("Process started", "id", p.id, "pid", cmd.Process.Pid)
	p.logger.Debug("Process command", "id", p.id, "command", FormatCommand(args))

	if p.onStart != nil {
		p.onStart(args)
	}

	outputDone := make(chan struct{}, 2)
	go func() {
		p.streamOutput(stdout, SourceStdout)
		outputDone <- struct{}{}
	}()
	go func() {
		p.streamOutput(stderr, SourceStderr)
		outputDone <- struct{}{}
	}()

	processDone := make(chan error, 1)
	go func() {
		<-outputDone
		<-outputDone
		processDone <- cmd.Wait()
	}()

	return &runningProcess{processDone: processDone, outputDone: outputDone}, nil
}

// exitCodeFromError returns 0 for nil, the exit code for an ExitError, and 1 otherwise.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

// Run starts the subprocess and blocks until it exits or Shutdown is called.
func (p *Process) Run() int {
	code, _ := p.runOnce(false)
	return code
}

// RunWithRestart runs the subprocess, restarting it on RequestRestart.
// It returns when Shutdown is called or the subprocess exits on its own;
// an unexpected exit is not retried here.
func (p *Process) RunWithRestart() int {
	for {
		exitCode, reason := p.runOnce(true)

		switch reason {
		case exitReasonShutdown:
			p.logger.Info("Shutdown complete", "id", p.id, "exit_code", exitCode)
			return exitCode
		case exitReasonRestart:
			p.mu.Lock()
			p.restartCount++
			p.mu.Unlock()
			p.logger.Info("Restarting process", "id", p.id)
		case exitReasonProcessExit:
			p.logger.Info("Process exited unexpectedly", "id", p.id, "exit_code", exitCode)
			return exitCode
		}
	}
}

func (p *Process) runOnce(allowRestart bool) (int, exitReason) {
	if p.ctx.Err() != nil {
		return 0, exitReasonShutdown
	}

	args := p.Args()
	rp, err := p.startProcess(args)
	if err != nil {
		return 1, exitReasonProcessExit
	}

	restart := p.restartChan
	if !allowRestart {
		restart = nil
	}

	select {
	case <-p.ctx.Done():
		p.setState(StateStopping, nil)
		p.sendStopSignal()
		code := p.waitForExit(rp.processDone)
		p.setState(StateIdle, nil)
		return code, exitReasonShutdown

	case newArgs := <-restart:
		p.setState(StateStopping, nil)
		p.sendStopSignal()
		p.mu.Lock()
		p.args = newArgs
		p.mu.Unlock()
		code := p.waitForExit(rp.processDone)
		p.setState(StateIdle, nil)
		return code, exitReasonRestart

	case processErr := <-rp.processDone:
		exitCode := exitCodeFromError(processErr)
		if exitCode != 0 {
			p.setState(StateError, fmt.Errorf("exit code %d", exitCode))
		} else {
			p.setState(StateIdle, nil)
		}
		return exitCode, exitReasonProcessExit
	}
}

// sendStopSignal sends SIGINT to the subprocess without waiting.
func (p *Process) sendStopSignal() {
	p.mu.RLock()
	cmd := p.cmd
	p.mu.RUnlock()
	if cmd == nil || cmd.Process == nil {
		return
	}
	p.logger.Debug("Sending SIGINT to process", "id", p.id, "pid", cmd.Process.Pid)
	if err := cmd.Process.Signal(syscall.SIGINT); err != nil && !errors.Is(err, os.ErrProcessDone) {
		p.logger.Warn("Failed to send SIGINT", "id", p.id, "error", err)
	}
}

// waitForExit waits for the subprocess to exit, force-killing it after the
// graceful timeout. A killed process reports 137.
func (p *Process) waitForExit(processDone <-chan error) int {
	select {
	case err := <-processDone:
		return exitCodeFromError(err)
	case <-time.After(p.gracefulTimeout):
	}

	p.logger.Warn("Graceful shutdown timeout, forcing kill", "id", p.id, "timeout", p.gracefulTimeout)
	p.mu.RLock()
	cmd := p.cmd
	p.mu.RUnlock()
	if cmd != nil && cmd.Process != nil {
		// Kill the whole process group; ffmpeg may have spawned helpers.
		if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
			if killErr := cmd.Process.Kill(); killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
				p.logger.Error("Failed to kill process", "id", p.id, "error", killErr)
			}
		}
	}

	select {
	case <-processDone:
	case <-time.After(p.killTimeout):
		p.logger.Error("Process did not exit after kill signal", "id", p.id)
	}
	return 137
}

func (p *Process) streamOutput(reader io.Reader, source string) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	logger := p.processLogger
	if logger == nil {
		logger = p.logger
	}

	for scanner.Scan() {
		line := scanner.Text()

		if p.outputHandler != nil {
			p.outputHandler.HandleLine(source, line)
		}
		if source == SourceStdout && p.quietStdout {
			continue
		}

		level, msg := "info", line
		if p.logParser != nil {
			level, msg = p.logParser(line)
		}

		switch level {
		case "panic", "fatal", "error":
			logger.Error(msg)
		case "warning":
			logger.Warn(msg)
		case "verbose", "debug", "trace":
			logger.Debug(msg)
		default:
			logger.Info(msg)
		}
	}

	if err := scanner.Err(); err != nil {
		p.logger.Warn("Error reading output", "id", p.id, "source", source, "error", err)
	}
}

// FormatCommand renders argv for logs, quoting arguments that contain
// whitespace or shell metacharacters.
func FormatCommand(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"'|[]") {
			quoted[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
			continue
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}

// SplitArgs splits a command-line fragment into arguments, honoring single and
// double quotes and backslash escapes.
func SplitArgs(command string) ([]string, error) {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := rune(0)

	runes := []rune(strings.TrimSpace(command))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"' || r == '\'':
			switch {
			case !inQuote:
				inQuote = true
				quoteChar = r
			case r == quoteChar:
				inQuote = false
				quoteChar = 0
			default:
				current.WriteRune(r)
			}
		case (r == ' ' || r == '\t') && !inQuote:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		case r == '\\' && i+1 < len(runes):
			i++
			current.WriteRune(runes[i])
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		args = append(args, current.String())
	}
	if inQuote {
		return nil, errors.New("unclosed quote in command")
	}
	return args, nil
}
