package voxel

import (
	"cmp"
	"slices"
	"sync"

	"github.com/o0olele/octree-voxel/mathutil"
)

const defaultShards = 64

// CellMap is a concurrent multi-map from grid cells to mesh indices.
type CellMap struct {
	shards []cellShard
}

type cellShard struct {
	mu    sync.Mutex
	cells map[mathutil.Vector3i][]int
}

func NewCellMap(shards int) *CellMap {
	if shards <= 0 {
		shards = defaultShards
	}
	m := &CellMap{shards: make([]cellShard, shards)}
	for i := range m.shards {
		m.shards[i].cells = make(map[mathutil.Vector3i][]int)
	}
	return m
}

func (m *CellMap) shard(key mathutil.Vector3i) *cellShard {
	return &m.shards[key.Hash()%uint64(len(m.shards))]
}

// Add records value under key once.
func (m *CellMap) Add(key mathutil.Vector3i, value int) {
	s := m.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	values := s.cells[key]
	if slices.Contains(values, value) {
		return
	}
	s.cells[key] = append(values, value)
}

// Get returns a sorted copy of the values under key.
func (m *CellMap) Get(key mathutil.Vector3i) []int {
	s := m.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	values := slices.Clone(s.cells[key])
	slices.Sort(values)
	return values
}

func (m *CellMap) Len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		n += len(s.cells)
		s.mu.Unlock()
	}
	return n
}

// Keys returns every key in Morton order. Keys must not be negative.
func (m *CellMap) Keys() []mathutil.Vector3i {
	var keys []mathutil.Vector3i
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for k := range s.cells {
			keys = append(keys, k)
		}
		s.mu.Unlock()
	}
	slices.SortFunc(keys, func(a, b mathutil.Vector3i) int {
		return cmp.Compare(a.Morton(), b.Morton())
	})
	return keys
}
