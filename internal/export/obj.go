// Package export serializes finished curve meshes for host consumption.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/neuroviz/fibertube/internal/importer"
	"github.com/neuroviz/fibertube/internal/tube"
)

// WriteOBJ writes all meshes as one Wavefront OBJ document, one object
// per curve. Vertex colors use the common "v x y z r g b" extension.
// Vertices the direction colorizer left uncolored (cap centers) fall
// back to the curve's stored tag color.
func WriteOBJ(w io.Writer, meshes []importer.CurveMesh) error {
	bw := bufio.NewWriter(w)

	offset := 1 // OBJ vertex indices are global and 1-based
	for _, cm := range meshes {
		fmt.Fprintf(bw, "o tract_%d\n", cm.Index)

		uncolored := uncoloredSet(cm.VertexColors)
		for vi, v := range cm.Mesh.Vertices {
			r, g, b := vertexColor(&cm, uncolored, vi)
			fmt.Fprintf(bw, "v %g %g %g %g %g %g\n", v.X, v.Y, v.Z, r, g, b)
		}

		for _, f := range cm.Mesh.Faces {
			fmt.Fprint(bw, "f")
			for _, idx := range f.Indices {
				fmt.Fprintf(bw, " %d", idx+offset)
			}
			fmt.Fprintln(bw)
		}

		offset += len(cm.Mesh.Vertices)
	}

	return bw.Flush()
}

// WriteOBJFile writes the meshes to an OBJ file on disk.
func WriteOBJFile(path string, meshes []importer.CurveMesh) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating OBJ file: %w", err)
	}
	defer f.Close()

	if err := WriteOBJ(f, meshes); err != nil {
		return fmt.Errorf("writing OBJ: %w", err)
	}
	return f.Close()
}

// vertexColor resolves the color for one vertex: the per-vertex
// direction color when present, the stored tag color otherwise.
func vertexColor(cm *importer.CurveMesh, uncolored map[int]bool, vi int) (r, g, b float32) {
	if cm.VertexColors != nil && !uncolored[vi] {
		c := cm.VertexColors.Colors[vi]
		return c[0], c[1], c[2]
	}
	return cm.Color[0], cm.Color[1], cm.Color[2]
}

// uncoloredSet indexes the coloring's uncolored list for lookup during
// the vertex loop.
func uncoloredSet(vc *tube.VertexColoring) map[int]bool {
	if vc == nil || len(vc.Uncolored) == 0 {
		return nil
	}
	set := make(map[int]bool, len(vc.Uncolored))
	for _, u := range vc.Uncolored {
		set[u] = true
	}
	return set
}
