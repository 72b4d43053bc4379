// ABOUTME: Stress tests for concurrent history writes and reads.
// ABOUTME: Exercises the single-connection store from many goroutines at once.

package store

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

// TestConcurrentHistoryWrites records pairs and calls from many goroutines
// the way observer callbacks do during a run.
func TestConcurrentHistoryWrites(t *testing.T) {
	s := setupTestDB(t)

	runID, err := s.StartRun(&Run{Provider: "openai", Model: "gpt-4o", OutRoot: "out", PerType: 10})
	if err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}

	numGoroutines := 20
	writesPerGoroutine := 25
	var wg sync.WaitGroup
	var errorCount int32

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < writesPerGoroutine; j++ {
				p := &PairResult{
					RunID:       runID,
					CityID:      fmt.Sprintf("city_%d", id),
					PartnerType: []string{"ngo", "journalist", "podcaster"}[j%3],
					Status:      StatusWritten,
					Rows:        j,
					Attempts:    1,
				}
				if err := s.RecordPair(p); err != nil {
					atomic.AddInt32(&errorCount, 1)
					t.Logf("RecordPair error: %v", err)
				}
				c := &GatewayCall{RunID: runID, Provider: "openai", Model: "gpt-4o", DurationMs: j}
				if err := s.LogCall(c); err != nil {
					atomic.AddInt32(&errorCount, 1)
					t.Logf("LogCall error: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	if errorCount > 0 {
		t.Fatalf("%d concurrent writes failed", errorCount)
	}

	want := numGoroutines * writesPerGoroutine
	results, err := s.GetPairResults(&PairQuery{RunID: runID, Limit: want + 10})
	if err != nil {
		t.Fatalf("GetPairResults() error = %v", err)
	}
	if len(results) != want {
		t.Errorf("got %d pair results, want %d", len(results), want)
	}

	stats, err := s.GetCallStats(runID)
	if err != nil {
		t.Fatalf("GetCallStats() error = %v", err)
	}
	if stats.TotalCalls != want {
		t.Errorf("TotalCalls = %d, want %d", stats.TotalCalls, want)
	}
}

// TestConcurrentReadWrite interleaves history queries with writes.
func TestConcurrentReadWrite(t *testing.T) {
	s := setupTestDB(t)

	runID, err := s.StartRun(&Run{Provider: "gemini", Model: "gemini-2.5-flash", OutRoot: "out", PerType: 5})
	if err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}

	var wg sync.WaitGroup
	var readErrors, writeErrors int32
	done := make(chan struct{})

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				if _, err := s.GetPairResults(&PairQuery{RunID: runID, Limit: 20}); err != nil {
					atomic.AddInt32(&readErrors, 1)
				}
				if _, err := s.GetRuns(5); err != nil {
					atomic.AddInt32(&readErrors, 1)
				}
			}
		}()
	}

	var writers sync.WaitGroup
	for i := 0; i < 5; i++ {
		writers.Add(1)
		go func(id int) {
			defer writers.Done()
			for j := 0; j < 20; j++ {
				p := &PairResult{RunID: runID, CityID: fmt.Sprintf("city_%d_%d", id, j), PartnerType: "ngo", Status: StatusSkipped}
				if err := s.RecordPair(p); err != nil {
					atomic.AddInt32(&writeErrors, 1)
				}
			}
		}(i)
	}
	writers.Wait()
	close(done)
	wg.Wait()

	if readErrors > 0 || writeErrors > 0 {
		t.Fatalf("read errors = %d, write errors = %d", readErrors, writeErrors)
	}

	skipped, err := s.GetPairResults(&PairQuery{RunID: runID, Status: StatusSkipped, Limit: 200})
	if err != nil {
		t.Fatalf("GetPairResults() error = %v", err)
	}
	if len(skipped) != 100 {
		t.Errorf("got %d skipped results, want 100", len(skipped))
	}
}
