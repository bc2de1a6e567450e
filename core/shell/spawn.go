package shell

import (
	"errors"
	"io"
	"io/fs"
	"os/exec"
)

// ProcAttr holds the attributes of a process to start.
type ProcAttr struct {
	// Dir is the working directory of the process.
	Dir string
	// Env holds "key=value" pairs.
	Env []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Files are pipe ends handed to the process. The spawner owns them once
	// Spawn is called and closes its copies after the process starts, or
	// straight away if it fails to.
	Files []io.Closer
}

// Process is a started child.
type Process interface {
	Pid() int
	// Wait blocks until the process exits and returns its exit code.
	Wait() (int, error)
}

// Spawner starts processes.
type Spawner interface {
	Spawn(name string, args []string, attr *ProcAttr) (Process, error)
}

// ExecSpawner starts real OS processes, names are resolved using the
// platform's PATH lookup.
type ExecSpawner struct{}

var _ Spawner = ExecSpawner{}

func (ExecSpawner) Spawn(name string, args []string, attr *ProcAttr) (Process, error) {
	defer closeAll(attr.Files)

	cmd := exec.Command(name, args...)
	cmd.Dir = attr.Dir
	cmd.Env = attr.Env
	cmd.Stdin = attr.Stdin
	cmd.Stdout = attr.Stdout
	cmd.Stderr = attr.Stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	if p.cmd.ProcessState == nil {
		return -1, err
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return p.cmd.ProcessState.ExitCode(), err
	}
	return p.cmd.ProcessState.ExitCode(), nil
}

func closeAll(files []io.Closer) {
	for _, f := range files {
		f.Close()
	}
}

// describeSpawnError reduces a start failure to the message shown to users.
func describeSpawnError(err error) string {
	if errors.Is(err, exec.ErrNotFound) {
		return "command not found"
	}

	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return execErr.Err.Error()
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err.Error()
	}
	return err.Error()
}
