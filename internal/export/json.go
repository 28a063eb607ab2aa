package export

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/neuroviz/fibertube/internal/importer"
	"github.com/neuroviz/fibertube/internal/tube"
)

// jsonMesh is the JSON hand-off shape for one curve. A host integration
// turns this into scene objects and materials.
type jsonMesh struct {
	Curve        int          `json:"curve"`
	Vertices     [][3]float32 `json:"vertices"`
	Faces        []jsonFace   `json:"faces"`
	Color        [3]float32   `json:"color"`
	VertexColors []tube.Color `json:"vertex_colors,omitempty"`
	Uncolored    []int        `json:"uncolored,omitempty"`
}

type jsonFace struct {
	Indices []int  `json:"indices"`
	Kind    string `json:"kind"`
}

type jsonDocument struct {
	Meshes    []jsonMesh `json:"meshes"`
	Processed int        `json:"processed"`
	Failed    int        `json:"failed"`
	Errors    []string   `json:"errors,omitempty"`
}

// WriteJSON writes the import result as a JSON document.
func WriteJSON(w io.Writer, result *importer.Result) error {
	doc := jsonDocument{
		Meshes:    make([]jsonMesh, 0, len(result.Meshes)),
		Processed: result.Summary.Processed,
		Failed:    result.Summary.Failed,
	}

	for _, cm := range result.Meshes {
		jm := jsonMesh{
			Curve:    cm.Index,
			Vertices: make([][3]float32, len(cm.Mesh.Vertices)),
			Faces:    make([]jsonFace, len(cm.Mesh.Faces)),
			Color:    cm.Color,
		}
		for i, v := range cm.Mesh.Vertices {
			jm.Vertices[i] = [3]float32{v.X, v.Y, v.Z}
		}
		for i, f := range cm.Mesh.Faces {
			jm.Faces[i] = jsonFace{Indices: f.Indices, Kind: f.Kind.String()}
		}
		if cm.VertexColors != nil {
			jm.VertexColors = cm.VertexColors.Colors
			jm.Uncolored = cm.VertexColors.Uncolored
		}
		doc.Meshes = append(doc.Meshes, jm)
	}

	for _, ce := range result.Errors {
		doc.Errors = append(doc.Errors, ce.Error())
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteJSONFile writes the import result to a JSON file on disk.
func WriteJSONFile(path string, result *importer.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating JSON file: %w", err)
	}
	defer f.Close()

	if err := WriteJSON(f, result); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	return f.Close()
}
