package driver

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"callconv/internal/catalog"
	"callconv/internal/diag"
	"callconv/internal/observ"
)

const doc = `
[[type]]
name   = "Pair"
fields = [{ name = "a", type = "int" }, { name = "b", type = "int" }]

[[type]]
name   = "Big"
fields = [{ name = "v", type = "long[6]" }]

[[type]]
name   = "Floats"
fields = [{ name = "a", type = "float" }, { name = "b", type = "float" }, { name = "c", type = "float" }]

[[function]]
name   = "pair"
result = "Pair"
params = [{ name = "p", type = "Pair" }, { name = "d", type = "double" }]

[[function]]
name   = "big"
result = "Big"
params = [{ name = "b", type = "Big" }, { name = "s", type = "char*" }]

[[function]]
name   = "floats"
params = [{ name = "f", type = "Floats" }]
`

func parse(t *testing.T, text, triple string) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse(t.Name(), text, catalog.Options{Triple: triple})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

func TestRunClassify(t *testing.T) {
	res, err := Run(context.Background(), parse(t, doc, "amd64"), Options{Mode: ModeClassify, Jobs: 2})
	if err != nil {
		t.Fatal(err)
	}
	if res.Bag.Len() != 0 {
		t.Fatalf("diagnostics: %v", res.Bag.Items())
	}
	if len(res.Functions) != 3 {
		t.Fatalf("got %d reports", len(res.Functions))
	}
	pair := res.Functions[0]
	if pair.Name != "pair" || pair.Return.Strategy != "ScalarRegister([i64])" && pair.Return.Kind != "MultipleRegisters" {
		t.Errorf("pair return = %+v", pair.Return)
	}
	if pair.Params[0].Strategy != "ByRegister([i64])" {
		t.Errorf("pair.p = %q", pair.Params[0].Strategy)
	}
	if pair.Params[0].Type != "struct Pair" || pair.Params[0].Size != 8 {
		t.Errorf("pair.p decision = %+v", pair.Params[0])
	}
	big := res.Functions[1]
	if big.Return.Kind != "ShadowPointer" || big.Params[0].Kind != "ByValueInMemory" {
		t.Errorf("big = %+v", big)
	}
	if floats := res.Functions[2]; floats.Return.Kind != "Void" {
		t.Errorf("floats return = %+v", floats.Return)
	}
	if pair.Callee != "" || pair.Check != nil {
		t.Error("classify mode produced listings or checks")
	}
}

func TestRunModes(t *testing.T) {
	for _, triple := range []string{"amd64", "i386", "mips"} {
		cat := parse(t, doc, triple)
		res, err := Run(context.Background(), cat, Options{Mode: ModeLower})
		if err != nil {
			t.Fatal(err)
		}
		for _, f := range res.Functions {
			if f.Failed || !strings.Contains(f.Callee, "@"+f.Name+"(") || !strings.Contains(f.Caller, "call ") {
				t.Errorf("%s lower %s: %+v", triple, f.Name, f)
			}
		}
		res, err = Run(context.Background(), cat, Options{Mode: ModeCheck, Only: []string{"pair", "big"}})
		if err != nil {
			t.Fatal(err)
		}
		if res.Bag.HasErrors() {
			t.Fatalf("%s check: %v", triple, res.Bag.Items())
		}
		if len(res.Functions) != 2 {
			t.Fatalf("Only selected %d functions", len(res.Functions))
		}
		for _, f := range res.Functions {
			if f.Check == nil || f.Check.Ops == 0 {
				t.Errorf("%s check %s: %+v", triple, f.Name, f.Check)
			}
		}
	}
}

func TestRunUnknownFunction(t *testing.T) {
	if _, err := Run(context.Background(), parse(t, doc, ""), Options{Only: []string{"nope"}}); err == nil {
		t.Fatal("expected an error for an unknown function")
	}
}

func TestRunDiagnostics(t *testing.T) {
	const text = `
[[type]]
name   = "Loop"
fields = [{ name = "self", type = "Loop" }]

[[type]]
name = "Hidden"
kind = "incomplete"

[[function]]
name   = "loop"
params = [{ name = "l", type = "Loop" }]

[[function]]
name   = "hidden"
params = [{ name = "h", type = "Hidden" }]

[[function]]
name   = "wide"
result = "long double"

[[function]]
name   = "ok"
params = [{ name = "x", type = "int" }]
`
	res, err := Run(context.Background(), parse(t, text, "mips"), Options{Mode: ModeLower})
	if err != nil {
		t.Fatal(err)
	}
	codes := map[diag.Code]diag.Severity{}
	for _, d := range res.Bag.Items() {
		codes[d.Code] = d.Severity
	}
	want := map[diag.Code]diag.Severity{
		diag.LayRecursive:        diag.SevError,
		diag.LayIncomplete:       diag.SevWarning,
		diag.ABIUnsupportedShape: diag.SevError,
	}
	for code, sev := range want {
		if got, ok := codes[code]; !ok || got != sev {
			t.Errorf("%s: got severity %v (present %v), want %v", code.ID(), got, ok, sev)
		}
	}
	if !res.Functions[2].Failed || res.Functions[3].Failed {
		t.Errorf("failed flags: wide=%v ok=%v", res.Functions[2].Failed, res.Functions[3].Failed)
	}
	if res.Failed() != 1 {
		t.Errorf("Failed() = %d, want 1", res.Failed())
	}
	if !res.Bag.HasErrors() {
		t.Errorf("zero MaxDiagnostics dropped the errors: %v", res.Bag.Items())
	}
}

func TestRunCacheAndEvents(t *testing.T) {
	cache, err := OpenDiskCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	cat := parse(t, doc, "amd64")
	timer := observ.NewTimer()

	first, err := Run(context.Background(), cat, Options{Mode: ModeCheck, Cache: cache, Timer: timer})
	if err != nil {
		t.Fatal(err)
	}
	events := make(chan Event, 64)
	second, err := Run(context.Background(), cat, Options{Mode: ModeCheck, Cache: cache, Events: events})
	if err != nil {
		t.Fatal(err)
	}
	close(events)

	for i, f := range second.Functions {
		if !f.Cached {
			t.Errorf("%s not served from cache", f.Name)
		}
		if first.Functions[i].Cached {
			t.Errorf("%s cached on the first run", f.Name)
		}
		if f.Return != first.Functions[i].Return || *f.Check != *first.Functions[i].Check {
			t.Errorf("%s: cached report differs", f.Name)
		}
	}

	var planned, finished int
	for ev := range events {
		switch ev.Kind {
		case EventPlanned:
			planned = ev.Total
		case EventFinished:
			finished++
			if !ev.Cached {
				t.Errorf("event for %s not marked cached", ev.Name)
			}
		}
	}
	if planned != 3 || finished != 3 {
		t.Errorf("planned %d finished %d", planned, finished)
	}

	names := []string{}
	for _, p := range first.Timings.Phases {
		names = append(names, p.Name)
	}
	if strings.Join(names, ",") != "classify,lower" {
		t.Errorf("phases = %v", names)
	}

	// A different mode is a different key.
	third, err := Run(context.Background(), cat, Options{Mode: ModeClassify, Cache: cache})
	if err != nil {
		t.Fatal(err)
	}
	if third.Functions[0].Cached {
		t.Error("classify run reused a check entry")
	}

	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	again, err := Run(context.Background(), cat, Options{Mode: ModeCheck, Cache: cache})
	if err != nil {
		t.Fatal(err)
	}
	if again.Functions[0].Cached {
		t.Error("entry survived DropAll")
	}
}

func TestCacheKeyTracksStructure(t *testing.T) {
	a := parse(t, doc, "amd64")
	b := parse(t, strings.Replace(doc, `name = "b", type = "int"`, `name = "b", type = "long"`, 1), "amd64")
	fa, _ := a.Function("pair")
	fb, _ := b.Function("pair")
	if cacheKey(a, ModeLower, fa) == cacheKey(b, ModeLower, fb) {
		t.Error("changing a field type kept the cache key")
	}
	if cacheKey(a, ModeLower, fa) != cacheKey(parse(t, doc, "amd64"), ModeLower, fa) {
		t.Error("identical catalogs produced different keys")
	}
}

func TestLoadDiagnostics(t *testing.T) {
	_, bag := Load(filepath.Join(t.TempDir(), "missing.toml"), catalog.Options{}, 10)
	if items := bag.Items(); len(items) != 1 || items[0].Code != diag.IOLoadFileError {
		t.Errorf("missing file: %v", items)
	}
	cat, bag := Load("../catalog/testdata/sample.toml", catalog.Options{}, 10)
	if cat == nil || bag.Len() != 0 {
		t.Errorf("sample: %v", bag.Items())
	}
}
