package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sofmeright/nightlyfreight/src/build"
	"github.com/sofmeright/nightlyfreight/src/pipeline"
	"github.com/sofmeright/nightlyfreight/src/publish"
)

func TestRecorderCounts(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	nightly := build.Target{Channel: "nightly", Major: 14}
	r.Resolved("nightly", []build.Target{nightly}, 2)
	r.BuildFinished(nightly, 3*time.Second, nil)
	r.BuildFinished(build.Target{Channel: "rc"}, time.Second, errors.New("boom"))
	r.Published(publish.Outcome{Tag: "acme/node_nightly:v14", Success: true}, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.resolved.WithLabelValues("nightly")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.rejected.WithLabelValues("nightly")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.builds.WithLabelValues("nightly", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.builds.WithLabelValues("rc", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.pushes.WithLabelValues("success")))

	r.Finished(&pipeline.Report{Duration: 90 * time.Second}, nil)
	assert.Equal(t, 90.0, testutil.ToFloat64(r.runDuration))
	assert.Greater(t, testutil.ToFloat64(r.lastSuccess), 0.0)
}

type gateway struct {
	mu     sync.Mutex
	method string
	path   string
	body   string
}

func (g *gateway) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	b, _ := io.ReadAll(req.Body)
	g.mu.Lock()
	g.method, g.path, g.body = req.Method, req.URL.Path, string(b)
	g.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func TestPushReplacesOnSuccess(t *testing.T) {
	t.Parallel()

	g := &gateway{}
	srv := httptest.NewServer(g)
	defer srv.Close()

	r := NewRecorder()
	r.Finished(&pipeline.Report{}, nil)
	require.NoError(t, r.Push(context.Background(), srv.URL, "nightlyfreight"))

	g.mu.Lock()
	defer g.mu.Unlock()
	assert.Equal(t, http.MethodPut, g.method)
	assert.Equal(t, "/metrics/job/nightlyfreight", g.path)
}

func TestPushAddsOnFailure(t *testing.T) {
	t.Parallel()

	g := &gateway{}
	srv := httptest.NewServer(g)
	defer srv.Close()

	r := NewRecorder()
	r.Finished(&pipeline.Report{}, errors.New("build failed"))
	require.NoError(t, r.Push(context.Background(), srv.URL, "nightlyfreight"))

	g.mu.Lock()
	defer g.mu.Unlock()
	assert.Equal(t, http.MethodPost, g.method)
}

func TestPushGatewayError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewRecorder()
	err := r.Push(context.Background(), srv.URL, "nightlyfreight")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "metrics: push to "))
}
