package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"path/filepath"
	"reflect"
	"syscall"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/o0olele/octree-voxel/api"
	"github.com/o0olele/octree-voxel/builder"
	"github.com/o0olele/octree-voxel/mesh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
)

var (
	// Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "voxel_info",
		Help:        "Voxel server information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// Keeps the config field names readable by the cli package when obfuscated.
var _ = reflect.TypeOf(config{})

type config struct {
	Addr          string   `cli:""        env:"VOXEL_ADDR"            help:"Listening address for the API."`
	AdminAddr     string   `cli:""        env:"VOXEL_ADMIN_ADDR"      help:"Admin listening address."`
	DataDir       string   `cli:""        env:"VOXEL_DATA_DIR"        help:"Directory where trees are saved and loaded."`
	Preload       []string `cli:""        env:"VOXEL_PRELOAD"         help:"Comma separated tree files in the data directory to load at start."`
	LogLevel      string   `cli:""        env:"VOXEL_LOG_LEVEL"       help:"Log level (debug|info|warning|error)."`
	LogIndent     bool     `cli:""        env:"VOXEL_LOG_INDENT"      help:"Indent logs."`
	Workers       int      `cli:",hidden" env:"VOXEL_WORKERS"         help:"Default worker count of parallel builds. 0 uses one per CPU."`
	MeshCacheSize int      `cli:",hidden" env:"VOXEL_MESH_CACHE_SIZE" help:"Number of prepared meshes kept between builds."`
	MaxGridCells  int      `cli:",hidden" env:"VOXEL_MAX_GRID_CELLS"  help:"Maximum number of cells of a sampled grid."`
	MaxDepth      int      `cli:",hidden" env:"VOXEL_MAX_DEPTH"       help:"Maximum depth of trees built or carved through the API."`
	Version       bool     `cli:""        env:"-"                     help:"Show version."`
	Help          bool     `cli:""        env:"-"                     help:"Show help."`
}

func main() {
	conf := config{
		Addr:          ":8080",
		AdminAddr:     ":18190",
		DataDir:       "data",
		LogLevel:      logs.InfoLevel.String(),
		MeshCacheSize: mesh.DefaultCacheSize,
		MaxGridCells:  api.DefaultMaxGridCells,
		MaxDepth:      api.DefaultMaxDepth,
	}

	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts the voxel octree server.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	server := api.NewServer(api.Config{
		DataDir:       conf.DataDir,
		MeshCacheSize: conf.MeshCacheSize,
		MaxGridCells:  conf.MaxGridCells,
		MaxDepth:      conf.MaxDepth,
		Workers:       conf.Workers,
	})

	for _, name := range conf.Preload {
		filename := filepath.Join(conf.DataDir, filepath.Base(name))
		tree, err := builder.Load(filename)
		if err != nil {
			logs.Fatal(errors.New("preloading tree failed").Wrap(err))
		}
		info := server.Registry().Add(filepath.Base(name), tree, nil)
		logs.WithTag("id", info.ID).
			WithTag("filename", filename).
			WithTag("nodes", info.Stats.Nodes).
			Info("tree preloaded")
	}

	var service http.ServeMux
	service.Handle("/api/", server.Handler())
	service.HandleFunc("/health", api.HandleHealthCheck)
	service.Handle("/version", api.HandleVersion(version))

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", api.HandleHealthCheck)
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	admin.Handle("/debug/pprof/block", pprof.Handler("block"))

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("data_dir", conf.DataDir).
		Info("starting voxel server")

	api.ListenAndServe(ctx,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&service,
			api.MetricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)
}

func validateConfig(conf config) error {
	if conf.Addr == "" {
		return errors.New("address is empty").
			WithType(builder.ErrTypeInvalidConfig)
	}
	if conf.Workers < 0 {
		return errors.New("workers must not be negative").
			WithType(builder.ErrTypeInvalidConfig).
			WithTag("workers", conf.Workers)
	}
	if err := os.MkdirAll(conf.DataDir, 0755); err != nil {
		return errors.New("creating data directory failed").
			WithTag("data_dir", conf.DataDir).
			Wrap(err)
	}
	return nil
}
