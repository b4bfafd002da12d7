package api

import (
	"sort"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/google/uuid"
	"github.com/o0olele/octree-voxel/builder"
	"github.com/o0olele/octree-voxel/geometry"
	"github.com/o0olele/octree-voxel/octree"
)

// TreeInfo describes a registered tree.
type TreeInfo struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Bounds    geometry.AABB       `json:"bounds"`
	VoxelSize float64             `json:"voxel_size"`
	MaxDepth  int                 `json:"max_depth"`
	Stats     octree.Stats        `json:"stats"`
	Build     *builder.BuildStats `json:"build,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

type entry struct {
	id        string
	name      string
	tree      *octree.Tree
	build     *builder.BuildStats
	createdAt time.Time
}

func (e *entry) info() TreeInfo {
	return TreeInfo{
		ID:        e.id,
		Name:      e.name,
		Bounds:    e.tree.Bounds(),
		VoxelSize: e.tree.VoxelSize,
		MaxDepth:  e.tree.MaxDepth,
		Stats:     e.tree.Stats(),
		Build:     e.build,
		CreatedAt: e.createdAt,
	}
}

// Registry holds the trees served by the API. Readers share the lock while a
// tree is edited under the write lock.
type Registry struct {
	mutex sync.RWMutex
	trees map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{
		trees: make(map[string]*entry),
	}
}

// Add registers tree and returns its info.
func (r *Registry) Add(name string, tree *octree.Tree, build *builder.BuildStats) TreeInfo {
	e := &entry{
		id:        uuid.NewString(),
		name:      name,
		tree:      tree,
		build:     build,
		createdAt: time.Now(),
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.trees[e.id] = e
	return e.info()
}

func (r *Registry) Info(id string) (TreeInfo, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	e, err := r.get(id)
	if err != nil {
		return TreeInfo{}, err
	}
	return e.info(), nil
}

// List returns every tree, oldest first.
func (r *Registry) List() []TreeInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	infos := make([]TreeInfo, 0, len(r.trees))
	for _, e := range r.trees {
		infos = append(infos, e.info())
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

func (r *Registry) Delete(id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, err := r.get(id); err != nil {
		return err
	}
	delete(r.trees, id)
	return nil
}

// Read calls fn with the tree under the read lock.
func (r *Registry) Read(id string, fn func(tree *octree.Tree) error) error {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	e, err := r.get(id)
	if err != nil {
		return err
	}
	return fn(e.tree)
}

// Write calls fn with the tree under the write lock.
func (r *Registry) Write(id string, fn func(tree *octree.Tree) error) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	e, err := r.get(id)
	if err != nil {
		return err
	}
	return fn(e.tree)
}

func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.trees)
}

func (r *Registry) get(id string) (*entry, error) {
	e, ok := r.trees[id]
	if !ok {
		return nil, errors.New("tree not found").
			WithType(builder.ErrTypeNotFound).
			WithTag("id", id)
	}
	return e, nil
}
