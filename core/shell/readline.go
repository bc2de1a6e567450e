package shell

import (
	"io"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/gobble/core/vos"
)

// LineSource supplies one line of input per call.
//
// Readline returns readline.ErrInterrupt when the user cancels the line and
// io.EOF when input is closed.
type LineSource interface {
	SetPrompt(prompt string)
	Readline() (string, error)
	// SaveHistory makes line available for recall.
	SaveHistory(line string) error
	Close() error
}

var _ LineSource = (*readline.Instance)(nil)

// NewReadline creates an interactive line editor over the session's streams.
// History is managed by the shell, the editor only keeps it in memory.
func NewReadline(vio vos.VIO, historyLimit int) (*readline.Instance, error) {
	stdin, stdout := vio.Stdin(), vio.Stdout()

	cfg := &readline.Config{
		Stdin:                  readline.NewCancelableStdin(stdin),
		Stdout:                 stdout,
		Stderr:                 vio.Stderr(),
		HistoryLimit:           historyLimit,
		DisableAutoSaveHistory: true,
		InterruptPrompt:        "^C",
		FuncIsTerminal: func() bool {
			return isTerminal(stdin) && isTerminal(stdout)
		},
	}

	if err := cfg.Init(); err != nil {
		return nil, err
	}

	return readline.NewEx(cfg)
}

// NewLineSource uses the line editor when stdin is a terminal. Otherwise input
// is read without buffering so that bytes after the current line are left for
// the programs the line starts.
func NewLineSource(vio vos.VIO, historyLimit int) (LineSource, error) {
	if !isTerminal(vio.Stdin()) {
		return NewPipedLineSource(vio.Stdin()), nil
	}
	return NewReadline(vio, historyLimit)
}

// PipedLineSource reads newline terminated lines one byte at a time. It shows
// no prompt and keeps no history of its own.
type PipedLineSource struct {
	r io.Reader
}

var _ LineSource = (*PipedLineSource)(nil)

func NewPipedLineSource(r io.Reader) *PipedLineSource {
	return &PipedLineSource{r: r}
}

func (p *PipedLineSource) SetPrompt(string) {}

// Readline returns the next line without its newline. A final line with no
// newline is returned before io.EOF.
func (p *PipedLineSource) Readline() (string, error) {
	var (
		line []byte
		b    [1]byte
	)
	for {
		n, err := p.r.Read(b[:])
		if n > 0 {
			if b[0] == '\n' {
				return string(line), nil
			}
			line = append(line, b[0])
		}

		switch {
		case err == io.EOF && len(line) > 0:
			return string(line), nil
		case err != nil:
			return "", err
		}
	}
}

func (p *PipedLineSource) SaveHistory(string) error {
	return nil
}

func (p *PipedLineSource) Close() error {
	return nil
}
