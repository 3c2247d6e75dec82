// Package profile provides optional runtime profiling for brace.
//
// Profiling integrates [github.com/pkg/profile] and must be enabled at build
// time with the "pprof" build tag:
//
//	go build -tags pprof -o brace .
//
// Without the tag every operation is a no-op and [Modes] is empty.
//
// # Modes
//
//   - allocs:    memory allocation profiling (all allocations)
//   - block:     block (synchronization) profiling
//   - clock:     wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: goroutine profiling
//   - heap:      heap profiling (live allocations)
//   - mem:       general memory profiling
//   - mutex:     mutex contention profiling
//   - thread:    thread creation profiling
//   - trace:     execution trace
//
// # Usage
//
//	p := profile.Profiler{Mode: "cpu", Path: "/tmp/profiles"}
//	defer p.Start().Stop()
//
// The CLI exposes the same settings:
//
//	brace render --pprof-mode cpu --pprof-dir ./profiles page.html
//
// Profiles are written to the directory with names matching the mode
// (e.g. cpu.pprof) and can be inspected with go tool pprof:
//
//	go tool pprof -http=: ./profiles/cpu.pprof
//
// With the tag, the package also imports [net/http/pprof], which registers
// the /debug/pprof/ handlers on the default HTTP mux.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
