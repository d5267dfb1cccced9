package keycraft

import (
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"time"
)

// OptimizerLogger provides dual-format logging for the replica-ladder
// search. Console output is human-readable, file output is JSONL for
// later analysis. Either writer can be nil to disable that channel.
type OptimizerLogger struct {
	console   io.Writer
	file      io.Writer
	startTime time.Time
}

// NewOptimizerLogger creates a logger with separate console and file
// outputs.
func NewOptimizerLogger(console, file io.Writer) *OptimizerLogger {
	return &OptimizerLogger{
		console:   console,
		file:      file,
		startTime: time.Now(),
	}
}

// LogEvent represents a single log entry in JSONL format.
type LogEvent struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	ElapsedMs int64     `json:"elapsed_ms"`

	Epoch    *int     `json:"epoch,omitempty"`
	Score    *float64 `json:"score,omitempty"`
	BestScore *float64 `json:"best_score,omitempty"`
	IPS      *float64 `json:"ips_millions,omitempty"`

	ReplicaIndex  *int     `json:"replica_index,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	TargetIndex   *int     `json:"target_index,omitempty"`

	KeyCount *int     `json:"key_count,omitempty"`
	Layout   []string `json:"layout,omitempty"`

	Params *RunLogParams `json:"params,omitempty"`

	Message string `json:"message,omitempty"`
}

// RunLogParams captures the ladder's parameters for the start event.
type RunLogParams struct {
	NumThreads   int     `json:"num_threads"`
	TMin         float64 `json:"t_min"`
	TMax         float64 `json:"t_max"`
	SearchEpochs int     `json:"search_epochs"`
	SearchSteps  int     `json:"search_steps"`
	Seed         int64   `json:"seed"`
}

func (l *OptimizerLogger) writeJSON(event LogEvent) {
	if l.file == nil {
		return
	}

	event.Timestamp = time.Now()
	event.ElapsedMs = time.Since(l.startTime).Milliseconds()

	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	data = append(data, '\n')
	_, _ = l.file.Write(data)
}

// LogStart logs the beginning of a run.
func (l *OptimizerLogger) LogStart(params SearchParams, seed int64, keyCount int) {
	if l.console != nil {
		MustFprintf(l.console, "starting search: %d replicas, T in [%.2f, %.2f]\n",
			params.NumThreads, params.TMin, params.TMax)
	}

	l.writeJSON(LogEvent{
		Event:    "start",
		KeyCount: &keyCount,
		Params: &RunLogParams{
			NumThreads:   params.NumThreads,
			TMin:         params.TMin,
			TMax:         params.TMax,
			SearchEpochs: params.SearchEpochs,
			SearchSteps:  params.SearchSteps,
			Seed:         seed,
		},
	})
}

// LogProgress logs a periodic progress report.
func (l *OptimizerLogger) LogProgress(epoch int, score, ips float64, g *Geometry, layout Layout) {
	if l.console != nil {
		MustFprintf(l.console, "epoch %d: best %.4f (%.2fM steps/s)\n", epoch, score, ips)
		if layout != nil {
			MustFprintln(l.console, layoutToString(g, layout))
		}
	}

	l.writeJSON(LogEvent{
		Event:    "progress",
		Epoch:    &epoch,
		BestScore: &score,
		IPS:      &ips,
		Layout:   layoutToStrings(g, layout),
	})
}

// LogTempering logs a successful adjacent-replica swap during a tempering
// sweep.
func (l *OptimizerLogger) LogTempering(i int, t1, t2 float64) {
	l.writeJSON(LogEvent{
		Event:       "tempering",
		ReplicaIndex: &i,
		Temperature: &t1,
		Message:     formatTemperingPair(t1, t2),
	})
}

func formatTemperingPair(t1, t2 float64) string {
	return "swap " + strconv.FormatFloat(t1, 'f', 2, 64) + " <-> " + strconv.FormatFloat(t2, 'f', 2, 64)
}

// LogCrossover logs a crossover injection into a target replica.
func (l *OptimizerLogger) LogCrossover(epoch, targetIdx int) {
	if l.console != nil {
		MustFprintf(l.console, "epoch %d: crossover injected into replica %d\n", epoch, targetIdx)
	}
	l.writeJSON(LogEvent{
		Event:       "crossover",
		Epoch:       &epoch,
		TargetIndex: &targetIdx,
	})
}

// LogEnd logs the end of a run.
func (l *OptimizerLogger) LogEnd(result OptimizationResult, epochs int, elapsed time.Duration, g *Geometry) {
	if l.console != nil {
		MustFprintf(l.console, "\nsearch complete\n")
		MustFprintf(l.console, "best score: %.4f\n", result.Score)
		MustFprintf(l.console, "epochs: %d\n", epochs)
		MustFprintf(l.console, "elapsed: %v\n", elapsed.Round(time.Second))
		MustFprintln(l.console, layoutToString(g, result.Layout))
	}

	l.writeJSON(LogEvent{
		Event:     "end",
		Epoch:     &epochs,
		BestScore: &result.Score,
		Layout:    layoutToStrings(g, result.Layout),
	})
}

// HasConsole returns true if console output is enabled.
func (l *OptimizerLogger) HasConsole() bool {
	return l.console != nil
}

// HasFile returns true if file output is enabled.
func (l *OptimizerLogger) HasFile() bool {
	return l.file != nil
}

// layoutToStrings renders a layout as one string per physical row, ordered
// by (row, col) from the geometry; empty slots print as a space. Unlike the
// fixed split-layout render this replaces, it adapts to any key count and
// row layout the geometry describes.
func layoutToStrings(g *Geometry, layout Layout) []string {
	if g == nil || layout == nil {
		return nil
	}

	rowIndices := make(map[int8][]int)
	for i, k := range g.Keys {
		if i >= len(layout) {
			continue
		}
		rowIndices[k.Row] = append(rowIndices[k.Row], i)
	}

	rows := make([]int8, 0, len(rowIndices))
	for r := range rowIndices {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i] < rows[j] })

	out := make([]string, 0, len(rows))
	for _, r := range rows {
		idxs := rowIndices[r]
		sort.Slice(idxs, func(i, j int) bool { return g.Keys[idxs[i]].Col < g.Keys[idxs[j]].Col })

		runes := make([]rune, len(idxs))
		for i, idx := range idxs {
			code := layout[idx]
			if code == EmptyCode || code >= 256 {
				runes[i] = ' '
			} else {
				runes[i] = rune(code)
			}
		}
		out = append(out, string(runes))
	}
	return out
}

func layoutToString(g *Geometry, layout Layout) string {
	rows := layoutToStrings(g, layout)
	s := ""
	for i, r := range rows {
		if i > 0 {
			s += "\n"
		}
		s += r
	}
	return s
}
