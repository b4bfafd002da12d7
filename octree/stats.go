package octree

// Stats summarizes the shape of a tree.
type Stats struct {
	Nodes        int     `json:"nodes"`
	Leaves       int     `json:"leaves"`
	Branches     int     `json:"branches"`
	Depth        int     `json:"depth"`
	Empty        int     `json:"empty"`
	Solid        int     `json:"solid"`
	Intersecting int     `json:"intersecting"`
	Touching     int     `json:"touching"`
	Occupied     float64 `json:"occupied_volume"`
}

// Stats counts nodes, leaves per state and the deepest leaf.
func (t *Tree) Stats() Stats {
	var s Stats
	t.Walk(func(n *Node, depth int) bool {
		s.Nodes++
		if !n.IsLeaf() {
			s.Branches++
			return true
		}

		s.Leaves++
		if depth > s.Depth {
			s.Depth = depth
		}
		switch n.State {
		case Solid:
			s.Solid++
		case Intersecting:
			s.Intersecting++
		case Touching:
			s.Touching++
		default:
			s.Empty++
		}
		if n.State.IsOccupied() {
			size := n.Bounds.Size()
			s.Occupied += size[0] * size[1] * size[2]
		}
		return true
	})
	return s
}
