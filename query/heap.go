package query

import (
	"sync"

	"github.com/o0olele/octree-voxel/octree"
)

// heapNode is a node waiting to be visited by a ray, keyed by its entry distance.
type heapNode struct {
	node  *octree.Node
	tmin  float64
	index int
}

// nodeHeap orders nodes front to back.
type nodeHeap []*heapNode

func (h nodeHeap) Len() int           { return len(h) }
func (h nodeHeap) Less(i, j int) bool { return h[i].tmin < h[j].tmin }
func (h nodeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *nodeHeap) Push(x any) {
	item := x.(*heapNode)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// Clear returns every queued node to the pool.
func (h *nodeHeap) Clear() {
	for _, item := range *h {
		releaseHeapNode(item)
	}
	*h = (*h)[:0]
}

var heapNodePool = sync.Pool{
	New: func() any {
		return &heapNode{index: -1}
	},
}

func newHeapNode(node *octree.Node, tmin float64) *heapNode {
	item := heapNodePool.Get().(*heapNode)
	item.node = node
	item.tmin = tmin
	item.index = -1
	return item
}

func releaseHeapNode(item *heapNode) {
	item.node = nil
	heapNodePool.Put(item)
}
