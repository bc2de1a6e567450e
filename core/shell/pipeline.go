package shell

import (
	"os"
	"os/signal"

	"github.com/josephlewis42/gobble/core/vos"
)

// WorkingDir supplies the directory new processes start in.
type WorkingDir interface {
	Getwd() string
}

// Dispatcher runs builtin stages in-process.
type Dispatcher interface {
	// Dispatch runs the builtin and returns its status. If stop is set no
	// further stages are run.
	Dispatch(stage Stage) (status int, stop bool)
}

// Executor runs pipelines.
//
// Builtins never take part in the chain of pipes: they write to the shell's
// own streams, and a builtin between two processes resets the chain so the
// later process reads the shell's stdin.
type Executor struct {
	Spawner  Spawner
	Builtins Dispatcher
	Dir      WorkingDir
	Env      vos.EnvironFetcher
	IO       vos.VIO

	// OnSpawnError is called as soon as a stage fails to start.
	OnSpawnError func(stage Stage, err error)
}

// Result describes a finished pipeline.
type Result struct {
	// Commands holds the argv of every spawned process in spawn order.
	Commands [][]string
	// ExitCodes holds the exit code of each spawned process, -1 if it
	// couldn't be collected.
	ExitCodes []int
	// Failed is the stage that couldn't be started, if any.
	Failed *Stage
	// SpawnErr is the reason Failed couldn't be started.
	SpawnErr error
	// Stopped is set if a builtin asked for processing to end.
	Stopped bool
}

// Run executes every stage of p in order and waits for all spawned processes.
//
// If a stage fails to start the remaining stages are skipped, processes that
// already started are still waited on. Interrupts received while the pipeline
// runs are left to the children, which share the terminal's process group;
// the shell itself ignores them.
func (e *Executor) Run(p Pipeline) *Result {
	res := &Result{}

	if p.HasProcess() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt)
		defer signal.Stop(sigs)
	}

	// pending is the read end of the previous stage's stdout, owned by the
	// executor until it's handed to the next process.
	var pending *os.File
	release := func() {
		if pending != nil {
			pending.Close()
			pending = nil
		}
	}

	var procs []Process
	for i, stage := range p {
		if stage.Kind == StageBuiltin {
			release()
			if _, stop := e.Builtins.Dispatch(stage); stop {
				res.Stopped = true
				break
			}
			continue
		}

		attr := &ProcAttr{
			Dir:    e.Dir.Getwd(),
			Env:    e.Env.Environ(),
			Stdin:  e.IO.Stdin(),
			Stdout: e.IO.Stdout(),
			Stderr: e.IO.Stderr(),
		}
		if pending != nil {
			attr.Stdin = pending
			attr.Files = append(attr.Files, pending)
			pending = nil
		}

		var next *os.File
		if i < len(p)-1 {
			r, w, err := os.Pipe()
			if err != nil {
				closeAll(attr.Files)
				e.fail(res, stage, err)
				break
			}
			attr.Stdout = w
			attr.Files = append(attr.Files, w)
			next = r
		}

		proc, err := e.Spawner.Spawn(stage.Name, stage.Args, attr)
		if err != nil {
			if next != nil {
				next.Close()
			}
			e.fail(res, stage, err)
			break
		}

		procs = append(procs, proc)
		res.Commands = append(res.Commands, stage.Argv())
		pending = next
	}
	release()

	for _, proc := range procs {
		code, err := proc.Wait()
		if err != nil {
			code = -1
		}
		res.ExitCodes = append(res.ExitCodes, code)
	}

	return res
}

func (e *Executor) fail(res *Result, stage Stage, err error) {
	failed := stage
	res.Failed = &failed
	res.SpawnErr = err
	if e.OnSpawnError != nil {
		e.OnSpawnError(stage, err)
	}
}
