package shell

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// lockedBuffer is a bytes.Buffer safe for concurrent writers.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fakeProgram func(args []string, attr *ProcAttr) int

var fakePrograms = map[string]fakeProgram{
	"echo": func(args []string, attr *ProcAttr) int {
		fmt.Fprintln(attr.Stdout, strings.Join(args, " "))
		return 0
	},
	"cat": func(args []string, attr *ProcAttr) int {
		io.Copy(attr.Stdout, attr.Stdin)
		return 0
	},
	"upper": func(args []string, attr *ProcAttr) int {
		data, _ := io.ReadAll(attr.Stdin)
		io.WriteString(attr.Stdout, strings.ToUpper(string(data)))
		return 0
	},
	"count": func(args []string, attr *ProcAttr) int {
		lines := 0
		scanner := bufio.NewScanner(attr.Stdin)
		for scanner.Scan() {
			lines++
		}
		fmt.Fprintln(attr.Stdout, lines)
		return 0
	},
	"pwd": func(args []string, attr *ProcAttr) int {
		fmt.Fprintln(attr.Stdout, attr.Dir)
		return 0
	},
	"env": func(args []string, attr *ProcAttr) int {
		for _, kv := range attr.Env {
			fmt.Fprintln(attr.Stdout, kv)
		}
		return 0
	},
	"false": func(args []string, attr *ProcAttr) int {
		fmt.Fprintln(attr.Stderr, "failing")
		return 1
	},
}

// fakeSpawner runs fakePrograms on goroutines. Each program owns the pipe
// ends it was handed and closes them when it returns, which is what the
// real child's exit does to its copies.
type fakeSpawner struct {
	mu      sync.Mutex
	spawned [][]string
}

var _ Spawner = (*fakeSpawner)(nil)

func (f *fakeSpawner) Spawn(name string, args []string, attr *ProcAttr) (Process, error) {
	prog, ok := fakePrograms[name]
	if !ok {
		closeAll(attr.Files)
		return nil, &exec.Error{Name: name, Err: exec.ErrNotFound}
	}

	f.mu.Lock()
	f.spawned = append(f.spawned, append([]string{name}, args...))
	pid := len(f.spawned)
	f.mu.Unlock()

	proc := &fakeProcess{pid: pid, done: make(chan struct{})}
	go func() {
		defer close(proc.done)
		defer closeAll(attr.Files)
		proc.code = prog(args, attr)
	}()
	return proc, nil
}

func (f *fakeSpawner) Spawned() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.spawned...)
}

type fakeProcess struct {
	pid  int
	code int
	done chan struct{}
}

func (p *fakeProcess) Pid() int {
	return p.pid
}

func (p *fakeProcess) Wait() (int, error) {
	<-p.done
	return p.code, nil
}

// recordingDispatcher remembers every builtin it's asked to run.
type recordingDispatcher struct {
	calls  [][]string
	status int
	stopOn string
}

func (r *recordingDispatcher) Dispatch(stage Stage) (int, bool) {
	r.calls = append(r.calls, stage.Argv())
	return r.status, stage.Name == r.stopOn
}

type fakeGenerator struct {
	reply   string
	err     error
	prompts []string
	keys    []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}
