package shell

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/josephlewis42/gobble/core/ai"
	"github.com/josephlewis42/gobble/core/logger"
	"github.com/josephlewis42/gobble/core/vos"
	"github.com/pborman/getopt/v2"
)

// AllBuiltins holds a list of all registered shell builtins
var AllBuiltins = make(map[string]ShellBuiltin)

type ShellBuiltin interface {
	Main(s *Shell, args []string) int
}

type ShellBuiltinFunc func(s *Shell, args []string) int

func (f ShellBuiltinFunc) Main(s *Shell, args []string) int {
	return f(s, args)
}

var _ ShellBuiltin = (ShellBuiltinFunc)(nil)

// Cd is the cd shell builtin, with no arguments it changes to the configured
// fallback directory. Arguments after the first are ignored.
func Cd(s *Shell, args []string) int {
	target := s.Config.CdFallback
	if len(args) > 1 {
		target = args[1]
	}

	if err := s.Dir.Chdir(target); err != nil {
		s.errorf("%s: %v", args[0], err)
		return 1
	}
	return 0
}

// Exit says goodbye, saves history and quits the shell.
func Exit(s *Shell, args []string) int {
	s.end("exit")
	return 0
}

// AI sends its arguments as a single prompt to the text generation service
// and prints the reply. Failures only affect this command.
func AI(s *Shell, args []string) int {
	prompt := strings.Join(args[1:], " ")
	if strings.TrimSpace(prompt) == "" {
		fmt.Fprintf(s.IO.Stderr(), "usage: %s <text...>\n", args[0])
		return 2
	}

	event := &logger.AIQuery{Model: s.Config.AI.Model, PromptChars: len(prompt)}
	defer s.record(event)

	reply, err := s.generate(prompt)
	if err != nil {
		event.Error = err.Error()
		s.errorf("%s: %v", args[0], err)
		return 1
	}

	event.ReplyChars = len(reply)
	fmt.Fprintln(s.IO.Stdout(), strings.TrimRight(reply, "\n"))
	return 0
}

func (s *Shell) generate(prompt string) (string, error) {
	key, err := s.credential()
	if err != nil {
		return "", err
	}

	// An interrupt cancels the request rather than the shell.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return s.newGenerator(key).Generate(ctx, prompt)
}

// credential finds the API key in the session environment, then in the
// dotenv file. Values from the file aren't exported to child processes.
func (s *Shell) credential() (string, error) {
	name := s.Config.AI.APIKeyEnv
	lookup := vos.NewMapEnvFrom(s.Env)
	if _, ok := lookup.LookupEnv(name); !ok && s.Config.AI.DotenvPath != "" {
		if err := lookup.LoadDotenv(s.fs, s.Dir.Resolve(s.Config.AI.DotenvPath)); err != nil {
			return "", err
		}
	}

	key, ok := lookup.LookupEnv(name)
	if !ok {
		return "", fmt.Errorf("%w: %s is not set", ai.ErrMissingCredential, name)
	}
	if err := ai.CheckCredential(key); err != nil {
		return "", fmt.Errorf("%w: check %s", err, name)
	}
	return key, nil
}

// History lists or clears the session's history.
func History(s *Shell, args []string) int {
	opts := getopt.New()
	clear := opts.Bool('c', "clear the history by deleting all entries")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	if err := opts.Getopt(args, nil); err != nil || *helpOpt {
		w := s.IO.Stderr()
		if err != nil {
			fmt.Fprintln(w, err)
		}
		fmt.Fprintln(w, "usage: history [-c]")
		fmt.Fprintln(w, "Display the history list with line numbers.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Options:")
		opts.PrintOptions(w)
		if err != nil {
			return 1
		}
		return 0
	}

	if *clear {
		s.History.Clear()
		if r, ok := s.Readline.(interface{ ResetHistory() }); ok {
			r.ResetHistory()
		}
		return 0
	}

	for i, line := range s.History.Lines() {
		fmt.Fprintf(s.IO.Stdout(), "% 5d  %s\n", i+1, line)
	}
	return 0
}

func Help(s *Shell, args []string) int {
	w := s.IO.Stdout()
	fmt.Fprintln(w, "gobble, an interactive shell")
	fmt.Fprintln(w, "These shell commands are defined internally.  Type `help' to see this list.")
	fmt.Fprintln(w, "Anything else is run as a program, join programs with ` | '.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Builtins:")
	fmt.Fprintln(w)

	var builtins []string
	for k := range s.Builtins {
		builtins = append(builtins, k)
	}
	sort.Strings(builtins)

	fmt.Fprintln(w, strings.Join(builtins, "\n"))

	return 0
}

func init() {
	AllBuiltins["cd"] = ShellBuiltinFunc(Cd)
	AllBuiltins["exit"] = ShellBuiltinFunc(Exit)
	AllBuiltins["ai"] = ShellBuiltinFunc(AI)
	AllBuiltins["history"] = ShellBuiltinFunc(History)
	AllBuiltins["help"] = ShellBuiltinFunc(Help)
}
