package logger

// LogType is implemented by every event that can be stored in a LogEntry.
type LogType interface {
	isLogType()
}

// LogEntry is a single record in the event log, exactly one event field is set.
type LogEntry struct {
	TimestampMicros int64  `json:"timestamp_micros"`
	SessionID       string `json:"session_id,omitempty"`

	SessionStart *SessionStart `json:"session_start,omitempty"`
	SessionEnd   *SessionEnd   `json:"session_end,omitempty"`
	RunPipeline  *RunPipeline  `json:"run_pipeline,omitempty"`
	SpawnFailure *SpawnFailure `json:"spawn_failure,omitempty"`
	RunBuiltin   *RunBuiltin   `json:"run_builtin,omitempty"`
	AIQuery      *AIQuery      `json:"ai_query,omitempty"`
}

// GetLogType returns the event held by the entry or nil if there is none.
func (le *LogEntry) GetLogType() LogType {
	switch {
	case le.SessionStart != nil:
		return le.SessionStart
	case le.SessionEnd != nil:
		return le.SessionEnd
	case le.RunPipeline != nil:
		return le.RunPipeline
	case le.SpawnFailure != nil:
		return le.SpawnFailure
	case le.RunBuiltin != nil:
		return le.RunBuiltin
	case le.AIQuery != nil:
		return le.AIQuery
	default:
		return nil
	}
}

func (le *LogEntry) setLogType(event LogType) {
	switch event := event.(type) {
	case *SessionStart:
		le.SessionStart = event
	case *SessionEnd:
		le.SessionEnd = event
	case *RunPipeline:
		le.RunPipeline = event
	case *SpawnFailure:
		le.SpawnFailure = event
	case *RunBuiltin:
		le.RunBuiltin = event
	case *AIQuery:
		le.AIQuery = event
	}
}

// SessionStart is recorded when the interactive loop begins.
type SessionStart struct {
	Dir         string `json:"dir"`
	HistoryPath string `json:"history_path"`
	HistorySize int    `json:"history_size"`
}

// SessionEnd is recorded when the loop exits.
type SessionEnd struct {
	// Reason is "exit" or "eof".
	Reason       string `json:"reason"`
	HistoryError string `json:"history_error,omitempty"`
}

// RunPipeline is recorded once every process in a line has been waited on.
type RunPipeline struct {
	Line      string     `json:"line"`
	Commands  [][]string `json:"commands"`
	ExitCodes []int      `json:"exit_codes"`
	Dir       string     `json:"dir"`
}

// SpawnFailure is recorded when a stage could not be started.
type SpawnFailure struct {
	Command []string `json:"command"`
	Error   string   `json:"error"`
}

// RunBuiltin is recorded for every dispatched builtin.
type RunBuiltin struct {
	Command []string `json:"command"`
	Status  int      `json:"status"`
}

// AIQuery is recorded for each text generation request.
type AIQuery struct {
	Model       string `json:"model"`
	PromptChars int    `json:"prompt_chars"`
	ReplyChars  int    `json:"reply_chars"`
	Error       string `json:"error,omitempty"`
}

func (*SessionStart) isLogType() {}
func (*SessionEnd) isLogType()   {}
func (*RunPipeline) isLogType()  {}
func (*SpawnFailure) isLogType() {}
func (*RunBuiltin) isLogType()   {}
func (*AIQuery) isLogType()      {}
