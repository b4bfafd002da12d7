// Package builder turns meshes into voxel octrees and reads and writes them.
package builder

import (
	"context"
	"math"
	"runtime"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/o0olele/octree-voxel/geometry"
	"github.com/o0olele/octree-voxel/mathutil"
	"github.com/o0olele/octree-voxel/mesh"
	"github.com/o0olele/octree-voxel/octree"
	"github.com/o0olele/octree-voxel/voxel"
)

const (
	MinDepth = 1
	MaxDepth = 20

	ModeSequential = "sequential"
	ModeParallel   = "parallel"
)

// Builder collects meshes and settings for one octree build.
type Builder struct {
	bounds     geometry.AABB
	voxelSize  float64
	maxDepth   int
	meshes     []*mesh.Mesh
	classifier *voxel.Classifier
	cache      *mesh.Cache
	parallel   bool
	workers    int
	batchSize  int
	progress   func(done, total int)
	stats      BuildStats
}

// NewBuilder returns a builder for the given root bounds. Zero bounds are
// replaced by the scene bounds of the added meshes.
func NewBuilder(bounds geometry.AABB, voxelSize float64, maxDepth int) *Builder {
	return &Builder{
		bounds:    bounds,
		voxelSize: voxelSize,
		maxDepth:  maxDepth,
	}
}

func (b *Builder) AddMesh(meshes ...*mesh.Mesh) *Builder {
	b.meshes = append(b.meshes, meshes...)
	return b
}

func (b *Builder) SetParallel(parallel bool) *Builder {
	b.parallel = parallel
	return b
}

// SetWorkers sets the goroutine count of parallel builds. Zero means one per CPU.
func (b *Builder) SetWorkers(workers int) *Builder {
	b.workers = workers
	return b
}

func (b *Builder) SetBatchSize(size int) *Builder {
	b.batchSize = size
	return b
}

func (b *Builder) SetClassifier(c *voxel.Classifier) *Builder {
	b.classifier = c
	return b
}

// SetMeshCache makes the builder reuse prepared meshes by name.
func (b *Builder) SetMeshCache(c *mesh.Cache) *Builder {
	b.cache = c
	return b
}

// SetProgress sets a callback run after each mesh of a sequential build.
func (b *Builder) SetProgress(fn func(done, total int)) *Builder {
	b.progress = fn
	return b
}

func (b *Builder) MeshCount() int {
	return len(b.meshes)
}

// Stats returns the stats of the last successful build.
func (b *Builder) Stats() BuildStats {
	return b.stats
}

// Validate checks the settings. Bounds are checked only when set.
func (b *Builder) Validate() error {
	if b.maxDepth < MinDepth || b.maxDepth > MaxDepth {
		return errors.Newf("max depth must be in [%d, %d]", MinDepth, MaxDepth).
			WithType(ErrTypeInvalidConfig).
			WithTag("max_depth", b.maxDepth)
	}
	if !(b.voxelSize > 0) || !mathutil.IsFinite(b.voxelSize) {
		return errors.New("voxel size must be positive and finite").
			WithType(ErrTypeInvalidConfig).
			WithTag("voxel_size", b.voxelSize)
	}
	if b.workers < 0 || b.batchSize < 0 {
		return errors.New("workers and batch size must not be negative").
			WithType(ErrTypeInvalidConfig).
			WithTag("workers", b.workers).
			WithTag("batch_size", b.batchSize)
	}
	if !b.bounds.IsZero() && (!b.bounds.IsFinite() || b.bounds.IsEmpty()) {
		return errors.New("bounds must be non-empty and finite").
			WithType(ErrTypeInvalidConfig).
			WithTag("bounds", b.bounds)
	}
	return nil
}

// Build voxelizes every added mesh into a new tree.
func (b *Builder) Build(ctx context.Context) (tree *octree.Tree, err error) {
	start := time.Now()
	mode := ModeSequential
	if b.parallel {
		mode = ModeParallel
	}
	defer func() {
		instrumentBuild(mode, start, err)
	}()

	if err := b.Validate(); err != nil {
		return nil, err
	}

	worlds, err := b.prepare()
	if err != nil {
		return nil, err
	}

	bounds := b.bounds
	if bounds.IsZero() {
		var ok bool
		if bounds, ok = SceneBounds(worlds, b.voxelSize); !ok {
			return nil, errors.New("no bounds given and no mesh to derive them from").
				WithType(ErrTypeInvalidConfig)
		}
	}

	buildID := uuid.NewString()
	triangles := 0
	for _, w := range worlds {
		triangles += w.TriangleCount()
	}
	logs.WithTag("build_id", buildID).
		WithTag("mode", mode).
		WithTag("meshes", len(worlds)).
		WithTag("triangles", triangles).
		WithTag("max_depth", b.maxDepth).
		Debug("build started")

	tree = octree.New(bounds, b.voxelSize, b.maxDepth)
	// the stream keeps no depth, so the voxel size must name the finest leaf
	tree.VoxelSize = tree.FinestSize()
	if err := b.voxelize(ctx, tree, worlds); err != nil {
		return nil, errors.New("build failed").
			WithType(errors.Type(err)).
			WithTag("build_id", buildID).
			Wrap(err)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	b.stats = BuildStats{
		BuildID:    buildID,
		Mode:       mode,
		Meshes:     len(worlds),
		Triangles:  triangles,
		Duration:   time.Since(start),
		Tree:       tree.Stats(),
		HeapAlloc:  mem.HeapAlloc,
		TotalAlloc: mem.TotalAlloc,
	}

	logs.WithTag("build_id", buildID).
		WithTag("mode", mode).
		WithTag("meshes", len(worlds)).
		WithTag("duration", b.stats.Duration.String()).
		WithTag("nodes", b.stats.Tree.Nodes).
		WithTag("leaves", b.stats.Tree.Leaves).
		Info("build finished")
	return tree, nil
}

func (b *Builder) prepare() ([]*mesh.World, error) {
	worlds := make([]*mesh.World, 0, b.MeshCount())
	for i, m := range b.meshes {
		if m == nil {
			continue
		}

		var (
			w   *mesh.World
			err error
		)
		if b.cache != nil {
			w, err = b.cache.World(m)
		} else {
			w, err = m.World()
		}
		if err != nil {
			return nil, errors.New("preparing mesh failed").
				WithType(ErrTypeInvalidMesh).
				WithTag("mesh_index", i).
				WithTag("mesh", m.Name).
				Wrap(err)
		}
		worlds = append(worlds, w)
	}
	return worlds, nil
}

func (b *Builder) voxelize(ctx context.Context, tree *octree.Tree, worlds []*mesh.World) error {
	if b.parallel {
		v := voxel.NewParallelVoxelizer(b.classifier, b.maxDepth)
		if b.workers > 0 {
			v.Workers = b.workers
		}
		if b.batchSize > 0 {
			v.BatchSize = b.batchSize
		}
		return v.Voxelize(ctx, tree, worlds...)
	}

	v := voxel.NewVoxelizer(b.classifier, b.maxDepth)
	v.Progress = b.progress
	return v.Voxelize(ctx, tree, worlds...)
}

// Build voxelizes meshes into a tree with the default classifier.
func Build(ctx context.Context, bounds geometry.AABB, voxelSize float64, maxDepth int, meshes ...*mesh.Mesh) (*octree.Tree, error) {
	return NewBuilder(bounds, voxelSize, maxDepth).
		AddMesh(meshes...).
		Build(ctx)
}

// SceneBounds returns the cube around every world with its edge rounded up
// to a multiple of voxelSize. It returns false when no world has triangles.
func SceneBounds(worlds []*mesh.World, voxelSize float64) (geometry.AABB, bool) {
	box, ok := mesh.Bounds(worlds...)
	if !ok {
		return geometry.AABB{}, false
	}

	cube := box.Cube()
	edge := cube.Size()[0]
	if voxelSize > 0 {
		edge = math.Max(math.Ceil(edge/voxelSize), 1) * voxelSize
	}
	return geometry.FromCenterSize(cube.Center(), mgl64.Vec3{edge, edge, edge}), true
}
