package query

import "github.com/go-gl/mathgl/mgl64"

// SmoothPath drops waypoints that can be skipped without crossing an occupied
// leaf. The first and last points are always kept.
func (q *VoxelQuery) SmoothPath(path []mgl64.Vec3) []mgl64.Vec3 {
	if len(path) <= 2 {
		return append([]mgl64.Vec3(nil), path...)
	}

	smoothed := []mgl64.Vec3{path[0]}
	current := 0
	for current < len(path)-1 {
		// farthest point visible from current
		farthest := current + 1
		for next := len(path) - 1; next > current+1; next-- {
			if q.LineOfSight(path[current], path[next]) {
				farthest = next
				break
			}
		}

		smoothed = append(smoothed, path[farthest])
		current = farthest
	}
	return smoothed
}
