package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorderIsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("outline", time.Second)
	r.ObserveBuildDuration(time.Second)
	r.IncStageResult("render", ResultSuccess)
	r.IncBuildOutcome("success")
	r.IncPagesRendered(3)
	r.IncLinkErrors("link")
}

func TestPrometheusRecorder_RecordsMetrics(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.ObserveStageDuration("render", 250*time.Millisecond)
	r.ObserveBuildDuration(time.Second)
	r.IncStageResult("render", ResultSuccess)
	r.IncBuildOutcome("success")
	r.IncPagesRendered(5)
	r.IncLinkErrors("cycle")

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["sitegraph_stage_duration_seconds"])
	assert.True(t, names["sitegraph_build_duration_seconds"])
	assert.True(t, names["sitegraph_stage_results_total"])
	assert.True(t, names["sitegraph_build_outcomes_total"])
	assert.True(t, names["sitegraph_pages_rendered_total"])
	assert.True(t, names["sitegraph_link_errors_total"])
}

func TestPrometheusRecorder_NilReceiverSafe(t *testing.T) {
	var r *PrometheusRecorder
	r.ObserveStageDuration("outline", time.Second)
	r.IncPagesRendered(1)
}
