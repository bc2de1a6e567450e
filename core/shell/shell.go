package shell

import (
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/gobble/core/ai"
	"github.com/josephlewis42/gobble/core/config"
	"github.com/josephlewis42/gobble/core/history"
	"github.com/josephlewis42/gobble/core/logger"
	"github.com/josephlewis42/gobble/core/vos"
	"github.com/juju/ratelimit"
	"github.com/spf13/afero"
)

// Options configures a Shell, zero values fall back to the host's.
type Options struct {
	Config     *config.Configuration
	IO         vos.VIO
	Dir        *vos.Dir
	Env        *vos.MapEnv
	LineSource LineSource
	Spawner    Spawner
	Events     *logger.SessionLogger
	Logger     *log.Logger

	// Fs is used for the history file and dotenv lookups.
	Fs afero.Fs

	// NewGenerator builds the text generation client for an API key.
	NewGenerator func(apiKey string) ai.Generator
}

type Shell struct {
	Config   *config.Configuration
	IO       vos.VIO
	Dir      *vos.Dir
	Env      *vos.MapEnv
	Readline LineSource
	History  *history.Store
	Executor *Executor
	Builtins map[string]ShellBuiltin
	Events   *logger.SessionLogger
	Logger   *log.Logger

	// Set to true to quit the shell
	Quit bool

	fs           afero.Fs
	colors       *ColorPrinter
	delimiter    DelimiterMode
	newGenerator func(apiKey string) ai.Generator
}

// NewShell assembles a shell from opts.
func NewShell(opts Options) (*Shell, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.IO == nil {
		opts.IO = vos.NewOSIO()
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Dir == nil {
		dir, err := vos.NewHostDir()
		if err != nil {
			return nil, err
		}
		opts.Dir = dir
	}
	if opts.Env == nil {
		opts.Env = vos.NewMapEnvFromEnvList(osEnviron())
	}
	if opts.Spawner == nil {
		opts.Spawner = ExecSpawner{}
	}
	if opts.Events == nil {
		opts.Events = logger.NewNopLogger().Sessionless()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(ioutil.Discard, "", 0)
	}
	if opts.LineSource == nil {
		source, err := NewLineSource(opts.IO, cfg.History.Limit)
		if err != nil {
			return nil, err
		}
		opts.LineSource = source
	}
	if opts.NewGenerator == nil {
		opts.NewGenerator = clientFactory(cfg.AI, ai.NewLimiter(cfg.AI.RequestsPerMinute))
	}

	s := &Shell{
		Config:       cfg,
		IO:           opts.IO,
		Dir:          opts.Dir,
		Env:          opts.Env,
		Readline:     opts.LineSource,
		History:      history.New(opts.Fs, cfg.HistoryPath(), cfg.History.Limit),
		Builtins:     AllBuiltins,
		Events:       opts.Events,
		Logger:       opts.Logger,
		fs:           opts.Fs,
		colors:       NewColorPrinter(cfg.Color, opts.IO.Stdout()),
		delimiter:    DelimiterMode(cfg.PipeDelimiter),
		newGenerator: opts.NewGenerator,
	}
	s.Executor = &Executor{
		Spawner:      opts.Spawner,
		Builtins:     s,
		Dir:          s.Dir,
		Env:          s.Env,
		IO:           s.IO,
		OnSpawnError: s.spawnFailed,
	}

	return s, nil
}

func clientFactory(cfg config.AI, limiter *ratelimit.Bucket) func(string) ai.Generator {
	return func(apiKey string) ai.Generator {
		return &ai.Client{
			Endpoint: cfg.Endpoint,
			Model:    cfg.Model,
			APIKey:   apiKey,
			Timeout:  cfg.TimeoutDuration(),
			Limiter:  limiter,
		}
	}
}

// Colors returns the printer used for shell messages.
func (s *Shell) Colors() *ColorPrinter {
	return s.colors
}

func (s *Shell) prompt() string {
	return s.colors.Sprintf(ColorPrompt, "%s", s.Config.Prompt)
}

func (s *Shell) errorf(format string, a ...interface{}) {
	fmt.Fprintln(s.IO.Stderr(), s.colors.Sprintf(ColorError, format, a...))
}

func (s *Shell) record(event logger.LogType) {
	if err := s.Events.Record(event); err != nil {
		s.Logger.Printf("event log: %v", err)
	}
}

// Run loads history and reads lines until exit or end of input.
func (s *Shell) Run() int {
	if err := s.History.Load(); err != nil {
		s.errorf("gobble: error loading history: %v", err)
	}
	for _, line := range s.History.Lines() {
		if err := s.Readline.SaveHistory(line); err != nil {
			s.Logger.Printf("Error restoring history: %v", err)
			break
		}
	}

	s.record(&logger.SessionStart{
		Dir:         s.Dir.Getwd(),
		HistoryPath: s.History.Path(),
		HistorySize: len(s.History.Lines()),
	})

	for !s.Quit {
		s.Readline.SetPrompt(s.prompt())
		line, err := s.Readline.Readline()

		switch {
		case err == readline.ErrInterrupt:
			fmt.Fprintln(s.IO.Stdout(), s.colors.Sprintf(ColorHint, "Use 'exit' to quit"))

		case err == io.EOF:
			s.end("eof")

		case err != nil:
			s.Logger.Printf("Error readline: %v", err)

		default:
			s.RunLine(line)
		}
	}

	return 0
}

// RunLine executes a single line of input.
func (s *Shell) RunLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	s.History.Add(line)
	if err := s.Readline.SaveHistory(line); err != nil {
		s.Logger.Printf("Error saving history: %v", err)
	}

	pipeline := Parse(line, s.delimiter, s.Builtins)
	if len(pipeline) == 0 {
		return
	}

	result := s.Executor.Run(pipeline)
	if len(result.Commands) > 0 {
		s.record(&logger.RunPipeline{
			Line:      line,
			Commands:  result.Commands,
			ExitCodes: result.ExitCodes,
			Dir:       s.Dir.Getwd(),
		})
	}
}

// Dispatch implements Dispatcher.
func (s *Shell) Dispatch(stage Stage) (int, bool) {
	builtin, ok := s.Builtins[stage.Name]
	if !ok {
		s.errorf("%s: not a builtin", stage.Name)
		return 1, false
	}

	status := builtin.Main(s, stage.Argv())
	s.record(&logger.RunBuiltin{Command: stage.Argv(), Status: status})
	return status, s.Quit
}

func (s *Shell) spawnFailed(stage Stage, err error) {
	s.errorf("%s: %s", stage.Name, describeSpawnError(err))
	s.record(&logger.SpawnFailure{Command: stage.Argv(), Error: err.Error()})
}

// end prints a farewell, flushes history and stops the loop.
func (s *Shell) end(reason string) {
	fmt.Fprintln(s.IO.Stdout(), s.colors.Sprintf(ColorFarewell, "Goodbye!"))

	event := &logger.SessionEnd{Reason: reason}
	if err := s.History.Save(); err != nil {
		event.HistoryError = err.Error()
		s.errorf("gobble: %v", err)
	}
	s.record(event)

	s.Quit = true
}

// Close releases the line source.
func (s *Shell) Close() error {
	if s.Readline == nil {
		return nil
	}
	if err := s.Readline.Close(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
