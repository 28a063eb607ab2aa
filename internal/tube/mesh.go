// Package tube generates tube-shaped surface meshes by sweeping a
// circular profile along fiber curves, and colors them by direction.
package tube

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/neuroviz/fibertube/pkg/formats"
	"github.com/neuroviz/fibertube/pkg/math"
)

// Mesh generation errors.
var (
	ErrInsufficientPoints = errors.New("curve has fewer than 2 points")
	ErrDegenerateFace     = errors.New("degenerate side face")
)

// WeldTolerance is the distance below which two vertices are considered
// the same point and merged after mesh generation. Resampling a curve
// that repeats control points produces coincident rings; welding them
// keeps the per-vertex color averaging honest.
const WeldTolerance = 1e-6

// FaceKind classifies tube mesh faces.
type FaceKind uint8

const (
	FaceSide FaceKind = iota // Lateral quad along the tube
	FaceCap                  // End-closing triangle
)

// String returns a human-readable face kind name.
func (k FaceKind) String() string {
	switch k {
	case FaceSide:
		return "Side"
	case FaceCap:
		return "Cap"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// Face is an ordered list of vertex indices: 4 for a side quad,
// 3 for a cap triangle.
type Face struct {
	Indices []int
	Kind    FaceKind
}

// Mesh is a closed tube surface built for a single curve. It is never
// shared between curves.
type Mesh struct {
	Vertices []math.Vec3
	Faces    []Face
}

// CountFaces returns the number of faces of the given kind.
func (m *Mesh) CountFaces(kind FaceKind) int {
	n := 0
	for _, f := range m.Faces {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

// Centroid returns the mean position of all vertices.
func (m *Mesh) Centroid() math.Vec3 {
	if len(m.Vertices) == 0 {
		return math.Vec3{}
	}
	var sum math.Vec3
	for _, v := range m.Vertices {
		sum = sum.Add(v)
	}
	return sum.Scale(1 / float32(len(m.Vertices)))
}

// Translate moves every vertex by offset.
func (m *Mesh) Translate(offset math.Vec3) {
	for i := range m.Vertices {
		m.Vertices[i] = m.Vertices[i].Add(offset)
	}
}

// Options control tube mesh generation.
type Options struct {
	// Radius of the circular profile swept along the curve.
	Radius float32
	// CircumferenceResolution is the number of vertices per ring.
	CircumferenceResolution int
	// LengthResolution is the number of segments each control-point span
	// is resampled into. Higher values yield shorter side quads.
	LengthResolution int
	// CapEnds closes the first and last rings with triangle fans.
	CapEnds bool
}

// Build sweeps a circular profile along the curve and returns a closed
// tube mesh. Rings are oriented with a parallel-transport frame so the
// profile does not twist as the curve changes direction.
func Build(curve formats.Curve, opts Options) (*Mesh, error) {
	if len(curve) < 2 {
		return nil, fmt.Errorf("%w: %d points", ErrInsufficientPoints, len(curve))
	}
	if opts.Radius <= 0 {
		return nil, fmt.Errorf("invalid tube radius: %f", opts.Radius)
	}
	if opts.CircumferenceResolution < 3 {
		return nil, fmt.Errorf("invalid circumference resolution: %d (need at least 3)",
			opts.CircumferenceResolution)
	}
	if opts.LengthResolution < 1 {
		return nil, fmt.Errorf("invalid length resolution: %d", opts.LengthResolution)
	}

	samples := resample(curve, opts.LengthResolution)
	tangents := sampleTangents(samples)
	normals := transportFrames(tangents)

	c := opts.CircumferenceResolution
	mesh := &Mesh{
		Vertices: make([]math.Vec3, 0, len(samples)*c+2),
		Faces:    make([]Face, 0, (len(samples)-1)*c+2*c),
	}

	// One ring of c vertices per sample
	for i, center := range samples {
		normal := normals[i]
		binormal := tangents[i].Cross(normal)
		for j := 0; j < c; j++ {
			theta := 2 * math32.Pi * float32(j) / float32(c)
			radial := normal.Scale(math32.Cos(theta)).Add(binormal.Scale(math32.Sin(theta)))
			mesh.Vertices = append(mesh.Vertices, center.Add(radial.Scale(opts.Radius)))
		}
	}

	// Side quads between consecutive rings
	for i := 0; i < len(samples)-1; i++ {
		ring := i * c
		next := (i + 1) * c
		for j := 0; j < c; j++ {
			jn := (j + 1) % c
			mesh.Faces = append(mesh.Faces, Face{
				Indices: []int{ring + j, ring + jn, next + jn, next + j},
				Kind:    FaceSide,
			})
		}
	}

	if opts.CapEnds {
		addCap(mesh, samples[0], 0, c, true)
		addCap(mesh, samples[len(samples)-1], (len(samples)-1)*c, c, false)
	}

	weld(mesh, WeldTolerance)
	return mesh, nil
}

// resample linearly subdivides each control-point span into segments
// pieces, keeping the original points.
func resample(curve formats.Curve, segments int) []math.Vec3 {
	if segments == 1 {
		return []math.Vec3(curve)
	}
	out := make([]math.Vec3, 0, (len(curve)-1)*segments+1)
	for i := 0; i < len(curve)-1; i++ {
		for k := 0; k < segments; k++ {
			t := float32(k) / float32(segments)
			out = append(out, curve[i].Lerp(curve[i+1], t))
		}
	}
	return append(out, curve[len(curve)-1])
}

// sampleTangents returns a unit tangent per sample using central
// differences, one-sided at the ends. Zero-length differences (repeated
// points) inherit the previous tangent.
func sampleTangents(samples []math.Vec3) []math.Vec3 {
	tangents := make([]math.Vec3, len(samples))
	prev := math.Vec3{}
	for i := range samples {
		lo, hi := i-1, i+1
		if lo < 0 {
			lo = 0
		}
		if hi > len(samples)-1 {
			hi = len(samples) - 1
		}
		t := samples[hi].Sub(samples[lo]).Normalize()
		if t == (math.Vec3{}) {
			t = prev
		}
		tangents[i] = t
		prev = t
	}
	// A fully degenerate curve (all points coincident) cannot happen here:
	// Build rejects curves under 2 points and welding handles duplicates,
	// but guard the leading tangent anyway.
	if tangents[0] == (math.Vec3{}) {
		for _, t := range tangents {
			if t != (math.Vec3{}) {
				tangents[0] = t
				break
			}
		}
		if tangents[0] == (math.Vec3{}) {
			tangents[0] = math.Vec3{Z: 1}
		}
		for i := 1; i < len(tangents); i++ {
			if tangents[i] == (math.Vec3{}) {
				tangents[i] = tangents[i-1]
			}
		}
	}
	return tangents
}

// transportFrames computes a ring normal per sample by parallel
// transport: the minimal rotations between consecutive tangents are
// composed into one orientation, the first normal is carried through
// it, and the result is re-orthogonalized to cancel floating-point
// drift.
func transportFrames(tangents []math.Vec3) []math.Vec3 {
	normals := make([]math.Vec3, len(tangents))
	first := tangents[0].Perpendicular()
	normals[0] = first
	rotation := math.QuatIdentity()
	for i := 1; i < len(tangents); i++ {
		step := math.QuatBetween(tangents[i-1], tangents[i])
		rotation = step.Mul(rotation).Normalize()
		n := rotation.Rotate(first)
		n = n.Sub(tangents[i].Scale(n.Dot(tangents[i]))).Normalize()
		if n == (math.Vec3{}) {
			n = tangents[i].Perpendicular()
		}
		normals[i] = n
	}
	return normals
}

// addCap closes a ring with a fan of triangles around a center vertex.
func addCap(mesh *Mesh, center math.Vec3, ringStart, c int, flip bool) {
	centerIdx := len(mesh.Vertices)
	mesh.Vertices = append(mesh.Vertices, center)
	for j := 0; j < c; j++ {
		jn := (j + 1) % c
		indices := []int{centerIdx, ringStart + j, ringStart + jn}
		if flip {
			indices = []int{centerIdx, ringStart + jn, ringStart + j}
		}
		mesh.Faces = append(mesh.Faces, Face{Indices: indices, Kind: FaceCap})
	}
}

// weld merges vertices closer than tolerance, remaps face indices, and
// drops faces that collapse below their minimum distinct vertex count
// (4 for side quads, 3 for cap triangles). Collapsed faces are
// zero-area slivers between coincident rings; keeping them would skew
// the color contributor counts downstream.
func weld(mesh *Mesh, tolerance float32) {
	type cell struct{ x, y, z int64 }
	quantize := func(v math.Vec3) cell {
		return cell{
			x: int64(math32.Round(v.X / tolerance)),
			y: int64(math32.Round(v.Y / tolerance)),
			z: int64(math32.Round(v.Z / tolerance)),
		}
	}

	remap := make([]int, len(mesh.Vertices))
	seen := make(map[cell]int, len(mesh.Vertices))
	kept := mesh.Vertices[:0]
	for i, v := range mesh.Vertices {
		key := quantize(v)
		if idx, ok := seen[key]; ok {
			remap[i] = idx
			continue
		}
		idx := len(kept)
		kept = append(kept, v)
		seen[key] = idx
		remap[i] = idx
	}
	mesh.Vertices = kept

	faces := mesh.Faces[:0]
	for _, f := range mesh.Faces {
		distinct := make(map[int]struct{}, len(f.Indices))
		for i, idx := range f.Indices {
			f.Indices[i] = remap[idx]
			distinct[remap[idx]] = struct{}{}
		}
		min := 3
		if f.Kind == FaceSide {
			min = 4
		}
		if len(distinct) >= min {
			faces = append(faces, f)
		}
	}
	mesh.Faces = faces
}
