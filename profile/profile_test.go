//go:build !pprof

package profile

import "testing"

func TestMake(t *testing.T) {
	p := Make(WithMode("cpu"), WithPath("/tmp/p"), WithQuiet(true))

	if p != (Profiler{Mode: "cpu", Path: "/tmp/p", Quiet: true}) {
		t.Errorf("options not applied: %+v", p)
	}
}

func TestStart_DisabledIsNoop(t *testing.T) {
	for _, p := range []Profiler{{}, {Mode: "cpu", Path: t.TempDir()}, {Mode: "bogus"}} {
		stop := p.Start()
		if _, ok := stop.(ignore); !ok {
			t.Errorf("expected no-op profiler for %+v, got %T", p, stop)
		}

		stop.Stop()
	}

	if len(Modes()) != 0 {
		t.Errorf("expected no modes without the %s tag, got %v", Tag, Modes())
	}
}
