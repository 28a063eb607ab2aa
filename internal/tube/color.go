package tube

import (
	"fmt"

	"github.com/neuroviz/fibertube/pkg/math"
)

// Color is an RGB triple in [0, 1].
type Color [3]float32

// squarenessThreshold flags side quads whose longest and shortest edges
// are within 2% of each other. Direction detection is unreliable on
// near-square quads; raising the circumference resolution relative to
// the length resolution avoids them.
const squarenessThreshold = 0.02

// FaceWarning reports a near-square side face whose direction color may
// be wrong. Advisory only; the face is still colored.
type FaceWarning struct {
	Face     int     // Index into Mesh.Faces
	Shortest float32 // Shortest edge length
	Longest  float32 // Longest edge length
}

// VertexColoring is the per-vertex result of direction coloring.
type VertexColoring struct {
	// Colors holds one RGB triple per mesh vertex. Entries listed in
	// Uncolored carry no meaning.
	Colors []Color
	// Uncolored lists vertices touched by no side face (cap centers,
	// typically). They receive no color rather than a default.
	Uncolored []int
	// Warnings lists near-square faces encountered during the scan.
	Warnings []FaceWarning
}

// Colorize computes a per-vertex RGB color from local tube direction.
// Each side quad contributes the direction of its longest edge, mapped
// to a color with the dominant axis at exactly 1.0; vertex colors are
// the channel-wise mean of all contributing faces. Cap faces neither
// contribute nor receive colors.
func Colorize(mesh *Mesh) (*VertexColoring, error) {
	contributions := make([][]Color, len(mesh.Vertices))
	var warnings []FaceWarning

	for fi, face := range mesh.Faces {
		if face.Kind != FaceSide {
			continue
		}

		if err := checkSideFace(fi, face); err != nil {
			return nil, err
		}

		dir, shortest, longest, err := longestEdgeDir(mesh, fi, face)
		if err != nil {
			return nil, err
		}

		if (longest-shortest)/shortest < squarenessThreshold {
			warnings = append(warnings, FaceWarning{Face: fi, Shortest: shortest, Longest: longest})
		}

		color := directionColor(dir)
		for _, v := range face.Indices {
			contributions[v] = append(contributions[v], color)
		}
	}

	result := average(contributions)
	result.Warnings = warnings
	return result, nil
}

// checkSideFace validates that a side face has 4 distinct vertices.
func checkSideFace(fi int, face Face) error {
	if len(face.Indices) != 4 {
		return fmt.Errorf("%w: face %d has %d vertices", ErrDegenerateFace, fi, len(face.Indices))
	}
	distinct := make(map[int]struct{}, 4)
	for _, v := range face.Indices {
		distinct[v] = struct{}{}
	}
	if len(distinct) != 4 {
		return fmt.Errorf("%w: face %d has %d distinct vertices", ErrDegenerateFace, fi, len(distinct))
	}
	return nil
}

// longestEdgeDir scans the quad's edges in a fixed order (v0-v1, v1-v2,
// v2-v3, v3-v0) and returns the direction of the longest edge. On exact
// length ties the first edge scanned wins; only a strictly greater
// length replaces the current candidate.
func longestEdgeDir(mesh *Mesh, fi int, face Face) (dir math.Vec3, shortest, longest float32, err error) {
	shortest = -1
	for e := 0; e < 4; e++ {
		a := mesh.Vertices[face.Indices[e]]
		b := mesh.Vertices[face.Indices[(e+1)%4]]
		edge := a.Sub(b)
		length := edge.Length()

		if length > longest {
			dir = edge
			longest = length
		}
		if length < shortest || shortest < 0 {
			shortest = length
		}
	}
	if shortest <= 0 || longest <= 0 {
		return math.Vec3{}, 0, 0, fmt.Errorf("%w: face %d has a zero-length edge", ErrDegenerateFace, fi)
	}
	return dir, shortest, longest, nil
}

// directionColor maps an edge direction to an RGB color: absolute
// component values scaled so the dominant axis is exactly 1.0. This is
// a direction indicator, not a normalized color space.
func directionColor(dir math.Vec3) Color {
	abs := dir.Abs()
	max := abs.MaxComponent()
	return Color{abs.X / max, abs.Y / max, abs.Z / max}
}

// average folds the per-vertex contribution lists into final colors.
func average(contributions [][]Color) *VertexColoring {
	result := &VertexColoring{Colors: make([]Color, len(contributions))}
	for v, list := range contributions {
		if len(list) == 0 {
			result.Uncolored = append(result.Uncolored, v)
			continue
		}
		var sum [3]float32
		for _, c := range list {
			sum[0] += c[0]
			sum[1] += c[1]
			sum[2] += c[2]
		}
		n := float32(len(list))
		result.Colors[v] = Color{sum[0] / n, sum[1] / n, sum[2] / n}
	}
	return result
}
