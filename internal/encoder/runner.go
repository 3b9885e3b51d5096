package encoder

import (
	"github.com/smazurov/livecast/internal/ffmpeg"
	"github.com/smazurov/livecast/internal/logging"
	"github.com/smazurov/livecast/internal/process"
)

// runner supervises one encoder command. process.Process is the real one.
type runner interface {
	RunWithRestart() int
	RequestRestart(args []string)
	Shutdown()
}

// hooks are the callbacks a runner delivers for each subprocess it starts.
type hooks struct {
	onStart func(args []string)
	onLine  func(source, line string)
}

type runnerFactory func(args []string, h hooks) runner

func newProcessRunner(args []string, h hooks) runner {
	p := process.NewProcess("encoder", args, logging.GetLogger("encoder"), process.OutputHandlerFunc(h.onLine))
	p.SetLogParser(logging.GetLogger("ffmpeg"), ffmpeg.ParseLogLevel)
	p.SetQuietStdout(true)
	p.SetOnStart(h.onStart)
	return p
}
