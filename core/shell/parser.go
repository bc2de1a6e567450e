package shell

import (
	"regexp"
	"strings"
)

// DelimiterMode selects how a line is split into pipeline stages.
type DelimiterMode string

const (
	// DelimiterStrict only splits on the exact sequence " | ", so "a|b" and
	// "a  |b" are single stages.
	DelimiterStrict DelimiterMode = "strict"
	// DelimiterRelaxed splits on a pipe with any whitespace around it.
	DelimiterRelaxed DelimiterMode = "relaxed"

	strictDelimiter = " | "
)

var relaxedDelimiter = regexp.MustCompile(`\s*\|\s*`)

// StageKind tags a Stage as run in-process or as a child process.
type StageKind int

const (
	StageProcess StageKind = iota
	StageBuiltin
)

func (k StageKind) String() string {
	switch k {
	case StageBuiltin:
		return "builtin"
	default:
		return "process"
	}
}

// Stage is one command of a pipeline.
type Stage struct {
	Kind StageKind
	Name string
	Args []string
}

// Argv returns the name followed by the arguments.
func (s Stage) Argv() []string {
	return append([]string{s.Name}, s.Args...)
}

// Pipeline is an ordered list of stages, stage i's output feeds stage i+1
// when both are processes.
type Pipeline []Stage

// HasProcess reports whether running the pipeline spawns anything.
func (p Pipeline) HasProcess() bool {
	for _, stage := range p {
		if stage.Kind == StageProcess {
			return true
		}
	}
	return false
}

// Split breaks a line into segments on the pipe delimiter.
func Split(line string, mode DelimiterMode) []string {
	if mode == DelimiterRelaxed {
		return relaxedDelimiter.Split(line, -1)
	}
	return strings.Split(line, strictDelimiter)
}

// Parse tokenizes a line into a pipeline. Segments are split on runs of
// whitespace with no quoting or expansion, segments with no tokens are
// dropped. Names present in builtins are tagged StageBuiltin.
func Parse(line string, mode DelimiterMode, builtins map[string]ShellBuiltin) Pipeline {
	var out Pipeline
	for _, segment := range Split(line, mode) {
		tokens := strings.Fields(segment)
		if len(tokens) == 0 {
			continue
		}

		stage := Stage{Kind: StageProcess, Name: tokens[0], Args: tokens[1:]}
		if _, ok := builtins[stage.Name]; ok {
			stage.Kind = StageBuiltin
		}
		out = append(out, stage)
	}
	return out
}
