package shell

import (
	"io"
	"strings"
	"testing"

	"github.com/josephlewis42/gobble/core/vos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipedLineSource(t *testing.T) {
	r := strings.NewReader("head -n1\nhello\nlast")
	source := NewPipedLineSource(r)

	line, err := source.Readline()
	require.NoError(t, err)
	assert.Equal(t, "head -n1", line)

	// Input after the line stays unread for the programs it starts.
	assert.Equal(t, len("hello\nlast"), r.Len())

	line, err = source.Readline()
	require.NoError(t, err)
	assert.Equal(t, "hello", line)

	line, err = source.Readline()
	require.NoError(t, err)
	assert.Equal(t, "last", line)

	_, err = source.Readline()
	assert.Equal(t, io.EOF, err)
}

func TestPipedLineSource_emptyLine(t *testing.T) {
	source := NewPipedLineSource(strings.NewReader("\n"))

	line, err := source.Readline()
	require.NoError(t, err)
	assert.Equal(t, "", line)

	_, err = source.Readline()
	assert.Equal(t, io.EOF, err)
}

func TestNewLineSource_notTerminal(t *testing.T) {
	vio := vos.NewVIOAdapter(strings.NewReader("exit\n"), &lockedBuffer{}, &lockedBuffer{})

	source, err := NewLineSource(vio, 10)
	require.NoError(t, err)

	_, ok := source.(*PipedLineSource)
	assert.True(t, ok)
}

func TestShell_Run_pipedInputLeftForChild(t *testing.T) {
	ts := newTestShell(t)
	stdin := strings.NewReader("cat\nhello\n")
	ts.IO = vos.NewVIOAdapter(stdin, ts.stdout, ts.stderr)
	ts.Executor.IO = ts.IO
	ts.Readline = NewPipedLineSource(ts.IO.Stdin())

	ts.Run()

	// cat consumes the rest of the input, so "hello" is never run as a command.
	assert.Equal(t, "hello\nGoodbye!\n", ts.stdout.String())
	assert.Empty(t, ts.stderr.String())
}
