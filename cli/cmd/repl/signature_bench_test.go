package repl

import "testing"

func BenchmarkGetSignature(b *testing.B) {
	names := []string{"str:join", "env:get", "name.substring", "user.tags.take", "upper"}

	for i := 0; b.Loop(); i++ {
		_, _ = getSignature(names[i%len(names)])
	}
}

func BenchmarkDetectFunctionCall(b *testing.B) {
	input := "{str:join(', ', user.name.substring(0, 3), user.tags.first)}"

	for b.Loop() {
		_ = detectFunctionCall(input, len(input)-2)
	}
}

func BenchmarkChildCandidates(b *testing.B) {
	src := testSource()
	parents := []string{"", "user", "user.name", "str:"}

	for i := 0; b.Loop(); i++ {
		_ = src.childCandidates(parents[i%len(parents)])
	}
}
