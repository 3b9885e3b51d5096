// Package process supervises a single long-running subprocess.
//
// A Process is created with an argv and run on its own goroutine:
//
//	p := process.NewProcess("encoder", args, logger, handler)
//	p.SetLogParser(logging.GetLogger("ffmpeg"), ffmpeg.ParseLogLevel)
//	go func() { code := p.RunWithRestart(); ... }()
//
// RequestRestart swaps the argv and restarts the subprocess; Shutdown sends
// SIGINT and escalates to SIGKILL on the process group after a timeout.
// Every stdout and stderr line is handed to the OutputHandler before it is
// logged.
package process
