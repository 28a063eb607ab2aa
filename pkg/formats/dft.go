// Package formats provides parsers for tractography file formats.
// DFT (BrainSuite fiber tract) format parser for curve sets.
package formats

import (
	"bytes"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/neuroviz/fibertube/pkg/math"
)

// DFT format errors.
var (
	ErrTruncatedDFTHeader   = errors.New("truncated DFT header")
	ErrMalformedDFTMetadata = errors.New("malformed DFT metadata")
	ErrTruncatedDFTCurve    = errors.New("truncated DFT curve data")
)

// dftHeaderSize is the fixed size of the DFT file header in bytes:
// 8-byte label, 4-byte code, four int32 offsets, uint32 curve count.
const dftHeaderSize = 32

// DFTHeader represents the fixed-size DFT file header.
// VersionLabel and VersionCode are kept verbatim and never validated:
// BrainSuite tools have emitted several labels over the years and the
// layout that follows is identical for all of them.
type DFTHeader struct {
	VersionLabel   [8]byte // Raw version label text
	VersionCode    [4]byte // Raw version code
	HeaderSize     int32   // Total header size as recorded in the file
	DataStart      int32   // Byte offset of the first curve record
	MetadataOffset int32   // Byte offset of the XML metadata block
	// PointDataOffset is read but unused. Some file variants may store a
	// meaningful offset here, so it is preserved rather than discarded.
	PointDataOffset int32
	CurveCount      uint32 // Number of curves in the file
}

// Curve is an ordered polyline of 3D points along a single fiber tract.
type Curve []math.Vec3

// Decimate returns a copy of the curve keeping every step-th point,
// starting with the first. A step <= 1 copies the curve unchanged.
func (c Curve) Decimate(step int) Curve {
	if step <= 1 {
		out := make(Curve, len(c))
		copy(out, c)
		return out
	}
	out := make(Curve, 0, (len(c)+step-1)/step)
	for i := 0; i < len(c); i += step {
		out = append(out, c[i])
	}
	return out
}

// ColorTag is the RGB triple stored for a curve in the metadata block.
// The value convention (0-1 or 0-255) depends on the producing tool.
type ColorTag [3]float32

// DFT represents a parsed DFT fiber tract file. Curves and Colors are
// index-aligned: curve i carries color i.
type DFT struct {
	Header DFTHeader
	Curves []Curve
	Colors []ColorTag
}

// TotalPoints returns the number of points summed over all curves.
func (d *DFT) TotalPoints() int {
	n := 0
	for _, c := range d.Curves {
		n += len(c)
	}
	return n
}

// ParseDFT parses DFT data from a byte slice. Any structural violation
// aborts the whole parse; partial results are never returned.
func ParseDFT(data []byte) (*DFT, error) {
	if len(data) < dftHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncatedDFTHeader, len(data))
	}

	var hdr DFTHeader
	r := bytes.NewReader(data)
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedDFTHeader)
	}

	colors, err := parseDFTMetadata(data, &hdr)
	if err != nil {
		return nil, err
	}

	curves, err := parseDFTCurves(data, &hdr)
	if err != nil {
		return nil, err
	}

	return &DFT{Header: hdr, Curves: curves, Colors: colors}, nil
}

// parseDFTMetadata reads the XML block between MetadataOffset and
// DataStart and extracts one color record per curve.
func parseDFTMetadata(data []byte, hdr *DFTHeader) ([]ColorTag, error) {
	start, end := int(hdr.MetadataOffset), int(hdr.DataStart)
	if start < 0 || end < start || end > len(data) {
		return nil, fmt.Errorf("%w: metadata block [%d, %d) out of bounds",
			ErrMalformedDFTMetadata, start, end)
	}

	var md struct {
		Records []struct {
			Color string `xml:"color,attr"`
		} `xml:",any"`
	}
	if err := xml.Unmarshal(data[start:end], &md); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDFTMetadata, err)
	}

	if uint32(len(md.Records)) != hdr.CurveCount {
		return nil, fmt.Errorf("%w: %d color records for %d curves",
			ErrMalformedDFTMetadata, len(md.Records), hdr.CurveCount)
	}

	colors := make([]ColorTag, len(md.Records))
	for i, rec := range md.Records {
		tokens := strings.Fields(rec.Color)
		if len(tokens) != 3 {
			return nil, fmt.Errorf("%w: record %d color %q: expected 3 tokens",
				ErrMalformedDFTMetadata, i, rec.Color)
		}
		for j, tok := range tokens {
			v, err := strconv.ParseFloat(tok, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: record %d color token %q",
					ErrMalformedDFTMetadata, i, tok)
			}
			colors[i][j] = float32(v)
		}
	}

	return colors, nil
}

// parseDFTCurves reads CurveCount variable-length curve records starting
// at DataStart. Points are kept in file order, which is the order of
// travel along the fiber.
func parseDFTCurves(data []byte, hdr *DFTHeader) ([]Curve, error) {
	start := int(hdr.DataStart)
	if start < 0 || start > len(data) {
		return nil, fmt.Errorf("%w: data start %d out of bounds", ErrTruncatedDFTCurve, start)
	}

	r := bytes.NewReader(data[start:])
	curves := make([]Curve, 0, hdr.CurveCount)

	for i := uint32(0); i < hdr.CurveCount; i++ {
		var pointCount int32
		if err := binary.Read(r, binary.LittleEndian, &pointCount); err != nil {
			return nil, fmt.Errorf("%w: curve %d: reading point count", ErrTruncatedDFTCurve, i)
		}
		if pointCount < 0 {
			return nil, fmt.Errorf("%w: curve %d: negative point count %d",
				ErrTruncatedDFTCurve, i, pointCount)
		}
		// Validate against the remaining bytes before allocating: a corrupt
		// count must fail the parse, not exhaust memory.
		if int64(pointCount)*12 > int64(r.Len()) {
			return nil, fmt.Errorf("%w: curve %d: %d points exceed remaining data",
				ErrTruncatedDFTCurve, i, pointCount)
		}

		coords := make([]float32, int(pointCount)*3)
		if err := binary.Read(r, binary.LittleEndian, coords); err != nil {
			return nil, fmt.Errorf("%w: curve %d: reading %d points",
				ErrTruncatedDFTCurve, i, pointCount)
		}

		curve := make(Curve, pointCount)
		for p := range curve {
			curve[p] = math.Vec3{
				X: coords[p*3],
				Y: coords[p*3+1],
				Z: coords[p*3+2],
			}
		}
		curves = append(curves, curve)
	}

	return curves, nil
}

// ParseDFTFile parses a DFT file from disk.
func ParseDFTFile(path string) (*DFT, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading DFT file: %w", err)
	}
	return ParseDFT(data)
}
