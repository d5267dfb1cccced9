package keycraft

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestOptimizerLogger_LogStart_WritesConsoleAndJSON(t *testing.T) {
	var console, file bytes.Buffer
	l := NewOptimizerLogger(&console, &file)

	l.LogStart(SearchParams{NumThreads: 4, TMin: 1, TMax: 200}, 7, 6)

	if !strings.Contains(console.String(), "4 replicas") {
		t.Fatalf("console output missing replica count: %q", console.String())
	}

	var event LogEvent
	if err := json.Unmarshal(file.Bytes(), &event); err != nil {
		t.Fatalf("file output is not valid JSON: %v", err)
	}
	if event.Event != "start" {
		t.Fatalf("Event = %q, want \"start\"", event.Event)
	}
	if event.Params == nil || event.Params.Seed != 7 {
		t.Fatalf("expected params.seed = 7, got %+v", event.Params)
	}
}

func TestOptimizerLogger_NilWritersAreSafe(t *testing.T) {
	l := NewOptimizerLogger(nil, nil)
	l.LogStart(SearchParams{}, 0, 0)
	l.LogProgress(0, 0, 0, nil, nil)
	l.LogTempering(0, 1, 2)
	l.LogCrossover(0, 0)
	l.LogEnd(OptimizationResult{}, 0, 0, nil)

	if l.HasConsole() || l.HasFile() {
		t.Fatalf("a logger built with nil writers should report both channels disabled")
	}
}

func TestOptimizerLogger_LogProgress_OmitsLayoutWhenNil(t *testing.T) {
	var file bytes.Buffer
	l := NewOptimizerLogger(nil, &file)

	l.LogProgress(3, 1.5, 2.0, nil, nil)

	var event LogEvent
	if err := json.Unmarshal(file.Bytes(), &event); err != nil {
		t.Fatalf("file output is not valid JSON: %v", err)
	}
	if event.Layout != nil {
		t.Fatalf("Layout should be omitted for a nil layout, got %v", event.Layout)
	}
	if event.Epoch == nil || *event.Epoch != 3 {
		t.Fatalf("Epoch = %v, want 3", event.Epoch)
	}
}

func TestLayoutToStrings_OrdersByRowThenCol(t *testing.T) {
	g := newTestGeometry()
	layout := Layout{'a', 'b', 'c', 'd', 'e', 0}

	rows := layoutToStrings(g, layout)

	if len(rows) != 3 {
		t.Fatalf("expected 3 distinct rows, got %d: %v", len(rows), rows)
	}

	// Row 0 holds slots 0,1,3,4 (two keys tie on col 0, two tie on col 1
	// across hands), so only the character set is checked, not the order.
	gotSet := map[rune]bool{}
	for _, r := range rows[0] {
		gotSet[r] = true
	}
	for _, want := range []rune{'a', 'b', 'd', 'e'} {
		if !gotSet[want] {
			t.Fatalf("row 0 = %q, missing expected character %q", rows[0], want)
		}
	}
	if len(rows[0]) != 4 {
		t.Fatalf("row 0 = %q, want length 4", rows[0])
	}

	if rows[1] != "c" {
		t.Fatalf("row 1 = %q, want \"c\" (slot 2)", rows[1])
	}
	if rows[2] != " " {
		t.Fatalf("row 2 = %q, want a single blank (slot 5 is empty)", rows[2])
	}
}

func TestLayoutToStrings_NilInputs(t *testing.T) {
	if out := layoutToStrings(nil, Layout{'a'}); out != nil {
		t.Fatalf("a nil geometry should yield a nil result, got %v", out)
	}
	g := newTestGeometry()
	if out := layoutToStrings(g, nil); out != nil {
		t.Fatalf("a nil layout should yield a nil result, got %v", out)
	}
}
