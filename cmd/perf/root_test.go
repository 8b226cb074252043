package perf

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/dRPC/lib/registry"
	gometrics "github.com/rcrowley/go-metrics"
)

func TestRunTest(t *testing.T) {
	perfThreads, perfRequests = 4, 1000

	var calls atomic.Int64
	res := runTest(gometrics.NewRegistry(), "count", func(i int) error {
		calls.Add(1)
		if i%10 == 0 {
			return errors.New("fail")
		}
		return nil
	})

	if calls.Load() != 1000 || res.timer.Count() != 1000 {
		t.Errorf("calls = %d, timer count = %d, want 1000", calls.Load(), res.timer.Count())
	}
	if res.errors.Count() != 100 {
		t.Errorf("errors = %d, want 100", res.errors.Count())
	}
	if res.duration <= 0 || opsPerSec(res) <= 0 {
		t.Errorf("unexpected duration %s", res.duration)
	}
}

func TestNewGraph(t *testing.T) {
	graph := newGraph(3)
	if len(*graph) != 3 {
		t.Fatalf("graph has %d entries", len(*graph))
	}
	first := (*graph)[0].(registry.StringMap)["shared"].(registry.StringMap)
	last := (*graph)[2].(registry.StringMap)["shared"].(registry.StringMap)
	first["x"] = true
	if last["x"] != true {
		t.Error("entries should share one map")
	}
}

func TestShouldSkip(t *testing.T) {
	perfSkip = []string{"ping", " obj-get"}
	if !shouldSkip("ping") || !shouldSkip("obj-get") || shouldSkip("mixed") {
		t.Error("unexpected skip result")
	}
}
