package report

import (
	"bytes"
	"strings"
	"testing"

	"callconv/internal/diag"
	"callconv/internal/driver"
	"callconv/internal/observ"
)

func sampleResult() *driver.Result {
	bag := diag.NewBag(10)
	bag.Add(diag.NewError(diag.ABIUnsupportedShape, "wide.x", "long double has no rule on this target"))
	bag.Add(diag.NewWarning(diag.LayIncomplete, "Hidden", "incomplete type treated as an opaque word").
		WithNote("Hidden", "declared without fields"))
	return &driver.Result{
		Target: "x86_64-unknown-linux-gnu",
		Mode:   driver.ModeCheck,
		Functions: []driver.FunctionReport{
			{
				Name:   "swap",
				Return: driver.Decision{Name: "return", Type: "struct Pair", Size: 8, Align: 4, Kind: "MultipleRegisters", Strategy: "MultipleRegisters([i64])"},
				Params: []driver.Decision{
					{Name: "p", Type: "struct Pair", Size: 8, Align: 4, Kind: "ByRegister", Strategy: "ByRegister([i64])"},
				},
				Check: &driver.CheckSummary{Operands: 1, Ops: 12},
			},
			{
				Name:   "wide",
				Return: driver.Decision{Name: "return", Type: "void", Kind: "Void", Strategy: "Void"},
				Failed: true,
			},
			{
				Name:   "cached",
				Return: driver.Decision{Name: "return", Type: "int", Size: 4, Align: 4, Kind: "ScalarRegister", Strategy: "ScalarRegister([i32])"},
				Check:  &driver.CheckSummary{Operands: 0, Ops: 3},
				Cached: true,
			},
		},
		Bag:     bag,
		Timings: observ.Report{TotalMS: 1.5, Phases: []observ.PhaseReport{{Name: "lower", DurationMS: 1.5}}},
	}
}

func TestTextRendersTablesAndSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := Text(&buf, sampleResult(), TextOptions{}); err != nil {
		t.Fatalf("Text: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"function swap (x86_64-unknown-linux-gnu)",
		"slot",
		"ByRegister([i64])",
		"8:4",
		"round trip ok: 1 operands, 12 ops",
		"failed, see diagnostics",
		"wide.x",
		"check: 3 functions, 1 cached, 1 failed, 1 error, 1 warning",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("uncolored output carries escape sequences:\n%s", out)
	}
}

func TestTextQuietSkipsTables(t *testing.T) {
	var buf bytes.Buffer
	if err := Text(&buf, sampleResult(), TextOptions{Quiet: true}); err != nil {
		t.Fatalf("Text: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "function swap") {
		t.Errorf("quiet output still has tables:\n%s", out)
	}
	if !strings.Contains(out, "wide.x") {
		t.Errorf("quiet output lost diagnostics:\n%s", out)
	}
}

func TestTextListings(t *testing.T) {
	res := &driver.Result{
		Target: "i386-unknown-linux-gnu",
		Mode:   driver.ModeLower,
		Functions: []driver.FunctionReport{{
			Name:   "id",
			Return: driver.Decision{Name: "return", Type: "int", Size: 4, Align: 4, Strategy: "ScalarRegister([i32])"},
			Callee: "func id() {\n  ret\n}\n",
			Caller: "func call_id() {\n  ret\n}\n",
		}},
		Bag: diag.NewBag(1),
	}
	var buf bytes.Buffer
	if err := Text(&buf, res, TextOptions{}); err != nil {
		t.Fatalf("Text: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "    func id() {\n      ret\n    }\n") {
		t.Errorf("callee listing not indented:\n%s", out)
	}
	if !strings.Contains(out, "    func call_id() {") {
		t.Errorf("caller listing missing:\n%s", out)
	}
	if !strings.HasSuffix(out, "lower: 1 functions\n") {
		t.Errorf("unexpected summary:\n%s", out)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("struct Pair", 32); got != "struct Pair" {
		t.Fatalf("short value changed: %q", got)
	}
	got := truncate("struct AVeryLongRecordNameIndeed", 10)
	if got != "struct ..." {
		t.Fatalf("truncate = %q", got)
	}
}

func TestMsgpackRoundTrip(t *testing.T) {
	res := sampleResult()
	var buf bytes.Buffer
	if err := EncodeMsgpack(&buf, res, true); err != nil {
		t.Fatalf("EncodeMsgpack: %v", err)
	}
	doc, err := DecodeMsgpack(&buf)
	if err != nil {
		t.Fatalf("DecodeMsgpack: %v", err)
	}
	if doc.Target != res.Target || doc.Mode != "check" {
		t.Fatalf("header = %q %q", doc.Target, doc.Mode)
	}
	if len(doc.Functions) != 3 || doc.Functions[0].Params[0].Strategy != "ByRegister([i64])" {
		t.Fatalf("functions = %+v", doc.Functions)
	}
	if !doc.Functions[1].Failed || doc.Functions[2].Cached {
		t.Fatalf("flags not preserved as expected: %+v", doc.Functions)
	}
	if len(doc.Diagnostics) != 2 || doc.Diagnostics[0].Code != diag.ABIUnsupportedShape.ID() {
		t.Fatalf("diagnostics = %+v", doc.Diagnostics)
	}
	if doc.Diagnostics[1].Notes[0] != "Hidden: declared without fields" {
		t.Fatalf("notes = %v", doc.Diagnostics[1].Notes)
	}
	if doc.Timings == nil || doc.Timings.Phases[0].Name != "lower" {
		t.Fatalf("timings = %+v", doc.Timings)
	}
}

func TestMsgpackWithoutTimings(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeMsgpack(&buf, sampleResult(), false); err != nil {
		t.Fatalf("EncodeMsgpack: %v", err)
	}
	doc, err := DecodeMsgpack(&buf)
	if err != nil {
		t.Fatalf("DecodeMsgpack: %v", err)
	}
	if doc.Timings != nil {
		t.Fatalf("timings present: %+v", doc.Timings)
	}
}
