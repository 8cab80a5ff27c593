package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestMetricsSnapshot(t *testing.T) {
	m := NewRequestMetrics()

	empty := m.Snapshot()
	assert.Zero(t, empty.TotalRequests)
	assert.Zero(t, empty.AverageResponseTime)
	assert.Nil(t, empty.MostUsedEndpoint)
	assert.Empty(t, empty.Paths)

	m.Record("/notes/", 100*time.Millisecond, false)
	m.Record("/notes/", 300*time.Millisecond, true)
	m.Record("/tags/", 200*time.Millisecond, false)

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.ErrorCount)
	assert.InDelta(t, 0.2, snap.AverageResponseTime, 1e-9)
	require.NotNil(t, snap.MostUsedEndpoint)
	assert.Equal(t, "/notes/", *snap.MostUsedEndpoint)
	require.Len(t, snap.Paths, 2)
	assert.Equal(t, PathSnapshot{Path: "/notes/", Count: 2, AverageTime: 0.2}, snap.Paths[0])
	assert.Equal(t, "/tags/", snap.Paths[1].Path)

	m.Reset()
	assert.Zero(t, m.Snapshot().TotalRequests)
}

func TestRequestMetricsConcurrentRecord(t *testing.T) {
	m := NewRequestMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Record("/p", time.Millisecond, false)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), m.Snapshot().TotalRequests)
}

func TestMetricsMiddleware(t *testing.T) {
	m := NewRequestMetrics()
	r := gin.New()
	r.Use(MetricsMiddleware(m))
	r.GET("/notes/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/notes/1", "/notes/2", "/boom", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	snap := m.Snapshot()
	assert.Equal(t, int64(4), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.ErrorCount)
	require.NotNil(t, snap.MostUsedEndpoint)
	assert.Equal(t, "/notes/:id", *snap.MostUsedEndpoint)

	paths := map[string]int64{}
	for _, p := range snap.Paths {
		paths[p.Path] = p.Count
	}
	assert.Equal(t, map[string]int64{"/notes/:id": 2, "/boom": 1, unmatchedPath: 1}, paths)
}
