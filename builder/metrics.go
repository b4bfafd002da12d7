package builder

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	modeLabel      = "mode"
	directionLabel = "direction"
	errTypeLabel   = "error_type"
)

var (
	builds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxel_builds",
		Help: "The number of octree builds.",
	}, []string{
		modeLabel,
	})

	buildErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxel_build_errors",
		Help: "The errors that occured while building an octree.",
	}, []string{
		modeLabel,
		errTypeLabel,
	})

	buildLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voxel_build_latency",
		Help:    "The time to build an octree.",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{
		modeLabel,
	})

	codecBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxel_codec_bytes",
		Help: "The number of bytes encoded or decoded.",
	}, []string{
		directionLabel,
	})

	codecErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxel_codec_errors",
		Help: "The errors that occured while decoding an octree.",
	}, []string{
		errTypeLabel,
	})
)

func instrumentBuild(mode string, start time.Time, err error) {
	builds.With(prometheus.Labels{
		modeLabel: mode,
	}).Inc()

	if err != nil {
		buildErrors.With(prometheus.Labels{
			modeLabel:    mode,
			errTypeLabel: errors.Type(err),
		}).Inc()
		return
	}

	buildLatency.With(prometheus.Labels{
		modeLabel: mode,
	}).Observe(time.Since(start).Seconds())
}

func instrumentCodecBytes(direction string, n int64) {
	codecBytes.With(prometheus.Labels{
		directionLabel: direction,
	}).Add(float64(n))
}

func instrumentCodecError(err error) {
	codecErrors.With(prometheus.Labels{
		errTypeLabel: errors.Type(err),
	}).Inc()
}
