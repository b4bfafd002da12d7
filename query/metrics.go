package query

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	kindLabel = "kind"

	kindClassify    = "classify"
	kindRaycast     = "raycast"
	kindLineOfSight = "line_of_sight"
)

var (
	queries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxel_queries",
		Help: "The number of octree queries.",
	}, []string{
		kindLabel,
	})

	batchPoints = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxel_batch_points",
		Help: "The number of points classified in batches.",
	})

	batchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "voxel_batch_latency",
		Help: "The time to classify a batch of points.",
	})
)

func instrumentQuery(kind string) {
	queries.With(prometheus.Labels{
		kindLabel: kind,
	}).Inc()
}

func instrumentBatch(points int, start time.Time) {
	batchPoints.Add(float64(points))
	batchLatency.Observe(time.Since(start).Seconds())
}
