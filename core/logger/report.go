package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le *LogEntry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var logEntry LogEntry
		if err := decoder.Decode(&logEntry); err != nil {
			return err
		}

		handler(&logEntry)
	}
	return nil
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries     int        `json:"log_entries"`
	Sessions       int        `json:"sessions"`
	InvalidEntries StrCounter `json:"unknown_log_entries,omitempty"`

	RunPipeline  RunPipelineReport  `json:"run_pipeline_report"`
	SpawnFailure SpawnFailureReport `json:"spawn_failure_report"`
	RunBuiltin   RunBuiltinReport   `json:"run_builtin_report"`
	AIQuery      AIQueryReport      `json:"ai_query_report"`
}

func (r *Report) Update(le *LogEntry) {
	r.LogEntries++

	switch event := le.GetLogType().(type) {
	case *SessionStart:
		r.Sessions++
	case *SessionEnd:
		// Ignore
	case *RunPipeline:
		r.RunPipeline.update(event)
	case *SpawnFailure:
		r.SpawnFailure.update(event)
	case *RunBuiltin:
		r.RunBuiltin.update(event)
	case *AIQuery:
		r.AIQuery.update(event)
	default:
		r.InvalidEntries.Increment(fmt.Sprintf("%T", event))
	}
}

type RunPipelineReport struct {
	Count int `json:"count"`
	// Name of each spawned command and the number of times it ran.
	CommandNames StrCounter `json:"command_names"`
	// Number of stages in each pipeline.
	Lengths StrCounter `json:"lengths"`
	// Exit codes of spawned commands.
	ExitCodes StrCounter `json:"exit_codes"`
}

func (r *RunPipelineReport) update(rp *RunPipeline) {
	r.Count++
	r.Lengths.Increment(fmt.Sprintf("%d", len(rp.Commands)))
	for _, cmd := range rp.Commands {
		if len(cmd) > 0 {
			r.CommandNames.Increment(cmd[0])
		}
	}
	for _, code := range rp.ExitCodes {
		r.ExitCodes.Increment(fmt.Sprintf("%d", code))
	}
}

type SpawnFailureReport struct {
	Failures *PathCounter `json:"failures"`
}

func (r *SpawnFailureReport) update(sf *SpawnFailure) {
	if r.Failures == nil {
		r.Failures = NewPathCounter("command", "error")
	}
	name := ""
	if len(sf.Command) > 0 {
		name = sf.Command[0]
	}
	r.Failures.Increment(name, sf.Error)
}

type RunBuiltinReport struct {
	CommandNames StrCounter `json:"command_names"`
	Failures     StrCounter `json:"failures"`
}

func (r *RunBuiltinReport) update(rb *RunBuiltin) {
	if len(rb.Command) == 0 {
		return
	}
	r.CommandNames.Increment(rb.Command[0])
	if rb.Status != 0 {
		r.Failures.Increment(rb.Command[0])
	}
}

type AIQueryReport struct {
	Count  int        `json:"count"`
	Models StrCounter `json:"models"`
	Errors StrCounter `json:"errors"`
}

func (r *AIQueryReport) update(q *AIQuery) {
	r.Count++
	r.Models.Increment(q.Model)
	if q.Error != "" {
		r.Errors.Increment(q.Error)
	}
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Get returns the count for key.
func (s *StrCounter) Get(key string) int {
	return s.internal[key]
}

// MarshalJSON implements custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of times each tuple of strings is seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// Get returns the count for the given tuple.
func (ctr *PathCounter) Get(vals ...string) int {
	return ctr.internal[toKey(vals...)]
}

// MarshalJSON implements custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	var out []Count
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
