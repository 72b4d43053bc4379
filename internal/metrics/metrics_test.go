// ABOUTME: Tests for run metrics recording and textfile export.
// ABOUTME: Uses prometheus testutil to read counter values back.

package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counts(t *testing.T) {
	r := New()

	r.ObservePair("ngo", "written", 40, 2)
	r.ObservePair("ngo", "written", 10, 4)
	r.ObservePair("ngo", "skipped", 0, 0)
	r.ObserveCityFailure()
	r.ObserveCall("openai", 2*time.Second, true, nil)
	r.ObserveCall("openai", time.Second, false, errors.New("boom"))
	r.ObserveMerge(7, 2, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.PairsTotal.WithLabelValues("ngo", "written")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.PairsTotal.WithLabelValues("ngo", "skipped")))
	assert.Equal(t, 50.0, testutil.ToFloat64(r.RowsWritten.WithLabelValues("ngo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.CityFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.GatewayCalls.WithLabelValues("openai", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.GatewayCalls.WithLabelValues("openai", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.GatewayRepaired.WithLabelValues("openai")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.MergeRows.WithLabelValues("duplicate")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.GatewayDuration))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	r.ObservePair("ngo", "written", 1, 1)
	r.ObserveCityFailure()
	r.ObserveCall("openai", time.Second, false, nil)
	r.ObserveMerge(1, 1, 1)
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "none.prom")))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := New()
	r.ObservePair("journalist", "written", 3, 1)

	path := filepath.Join(t.TempDir(), "partnergen.prom")
	require.NoError(t, r.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `partnergen_pairs_total{status="written",type="journalist"} 1`)
	assert.Contains(t, string(b), `partnergen_rows_written_total{type="journalist"} 3`)
}
