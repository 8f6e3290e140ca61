package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelScopes(t *testing.T) {
	cases := []struct {
		level Level
		scope Scope
		emit  bool
		keep  bool
	}{
		{LevelOff, ScopeDriver, false, false},
		{LevelError, ScopeDriver, false, true},
		{LevelError, ScopeFunction, false, true},
		{LevelError, ScopeParam, false, false},
		{LevelPhase, ScopeDriver, true, true},
		{LevelPhase, ScopeFunction, false, false},
		{LevelDetail, ScopeFunction, true, true},
		{LevelDetail, ScopeParam, false, false},
		{LevelDebug, ScopeParam, true, true},
	}
	for _, c := range cases {
		if got := c.level.ShouldEmit(c.scope); got != c.emit {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", c.level, c.scope, got, c.emit)
		}
		if got := c.level.Records(c.scope); got != c.keep {
			t.Errorf("%s.Records(%s) = %v, want %v", c.level, c.scope, got, c.keep)
		}
	}
}

func TestParseFlags(t *testing.T) {
	if l, err := ParseLevel("Detail"); err != nil || l != LevelDetail {
		t.Fatalf("ParseLevel(Detail) = %v, %v", l, err)
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatal("ParseLevel(verbose) succeeded")
	}
	if f, err := ParseFormat("json"); err != nil || f != FormatNDJSON {
		t.Fatalf("ParseFormat(json) = %v, %v", f, err)
	}
	if _, err := ParseFormat("chrome"); err == nil {
		t.Fatal("ParseFormat(chrome) succeeded")
	}
	if m, err := ParseMode("both"); err != nil || m != ModeBoth {
		t.Fatalf("ParseMode(both) = %v, %v", m, err)
	}
}

func TestStreamText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)

	root := Begin(tr, ScopeDriver, "lower", 0)
	fn := Begin(tr, ScopeFunction, "function:make", root.ID())
	fn.WithExtra("strategy", "shadow").WithExtra("operands", "3")
	Point(tr, ScopeParam, "param:make.q", "dropped at this level", fn.ID())
	fn.End("ok")
	root.End("")

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "  → function:make") {
		t.Errorf("function span not indented: %q", lines[1])
	}
	if !strings.Contains(lines[2], "← function:make (ok) {operands=3, strategy=shadow}") {
		t.Errorf("end line = %q", lines[2])
	}
	if strings.Contains(out, "param:make.q") {
		t.Error("param point emitted at LevelDetail")
	}
}

func TestStreamNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	Point(tr, ScopeParam, "param:pair.a", "direct", 7)

	var ev map[string]any
	if err := json.Unmarshal(buf.Bytes(), &ev); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}
	if ev["kind"] != "point" || ev["scope"] != "param" || ev["name"] != "param:pair.a" {
		t.Errorf("event = %v", ev)
	}
	if ev["parent_id"] != float64(7) {
		t.Errorf("parent_id = %v, want 7", ev["parent_id"])
	}
}

func TestRingWraps(t *testing.T) {
	r := NewRingTracer(3, LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		Point(r, ScopeDriver, name, "", 0)
	}
	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("len = %d, want 3", len(snap))
	}
	for i, want := range []string{"c", "d", "e"} {
		if snap[i].Name != want {
			t.Errorf("snap[%d] = %q, want %q", i, snap[i].Name, want)
		}
	}
	var buf bytes.Buffer
	if err := r.Dump(&buf, FormatText); err != nil {
		t.Fatal(err)
	}
	if r.Dropped() != 2 {
		t.Errorf("dropped = %d, want 2", r.Dropped())
	}
	out := buf.String()
	if !strings.HasPrefix(out, "(2 earlier events overwritten)\n") || strings.Count(out, "\n") != 4 {
		t.Errorf("dump:\n%s", out)
	}
}

func TestErrorLevelRingKeepsFunctions(t *testing.T) {
	var buf bytes.Buffer
	stream := NewStreamTracer(&buf, LevelError, FormatText)
	ring := NewRingTracer(16, LevelError)
	tr := NewMultiTracer(LevelError, stream, ring)

	Begin(tr, ScopeFunction, "function:bad", 0).End("panic")
	Point(tr, ScopeParam, "param:bad.x", "", 0)

	if buf.Len() != 0 {
		t.Errorf("stream wrote at LevelError: %q", buf.String())
	}
	if got := len(tr.Ring().Snapshot()); got != 2 {
		t.Errorf("ring holds %d events, want 2", got)
	}
}

func TestNewAndContext(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("New(off) = %v, %v", tr, err)
	}

	var buf bytes.Buffer
	tr, err = New(Config{Level: LevelPhase, Mode: ModeStream, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	ctx := WithTracer(context.Background(), tr)
	if FromContext(ctx) != tr {
		t.Error("FromContext lost the tracer")
	}
	if FromContext(context.Background()) != Nop {
		t.Error("empty context should give Nop")
	}
	if Parent(ctx) != 0 || Parent(WithParent(ctx, 9)) != 9 {
		t.Error("WithParent did not round trip")
	}
	Begin(FromContext(ctx), ScopeDriver, "load", 0).End("")
	if !strings.Contains(buf.String(), "→ load") {
		t.Errorf("output = %q", buf.String())
	}

	if _, err := New(Config{Level: LevelPhase}); err == nil {
		t.Error("New without mode succeeded")
	}
}
