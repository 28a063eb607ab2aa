package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/neuroviz/fibertube/internal/tube"
	"github.com/neuroviz/fibertube/pkg/formats"
	"github.com/neuroviz/fibertube/pkg/math"
)

// testDFT builds an in-memory curve set with n straight curves, each
// offset along Y so the meshes are distinguishable.
func testDFT(n, pointsPerCurve int) *formats.DFT {
	dft := &formats.DFT{
		Header: formats.DFTHeader{CurveCount: uint32(n)},
	}
	for i := 0; i < n; i++ {
		curve := make(formats.Curve, pointsPerCurve)
		for p := range curve {
			curve[p] = math.Vec3{X: float32(p), Y: float32(i) * 10}
		}
		dft.Curves = append(dft.Curves, curve)
		dft.Colors = append(dft.Colors, formats.ColorTag{1, 0, 0})
	}
	return dft
}

func testOpts() Options {
	return Options{
		CurveStride:             1,
		VertexStride:            1,
		Radius:                  0.2,
		CircumferenceResolution: 6,
		LengthResolution:        1,
		CapEnds:                 true,
	}
}

func TestRun_StrideSelection(t *testing.T) {
	dft := testDFT(10, 3)
	opts := testOpts()
	opts.CurveStride = 2

	result, err := Run(context.Background(), dft, opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []int{0, 2, 4, 6, 8}
	if len(result.Meshes) != len(want) {
		t.Fatalf("expected %d meshes, got %d", len(want), len(result.Meshes))
	}
	for i, w := range want {
		if result.Meshes[i].Index != w {
			t.Errorf("position %d: expected curve %d, got %d", i, w, result.Meshes[i].Index)
		}
	}
	if result.Summary.Selected != 5 || result.Summary.Processed != 5 {
		t.Errorf("unexpected summary: %+v", result.Summary)
	}
}

func TestRun_OrderPreservedWithWorkers(t *testing.T) {
	dft := testDFT(40, 4)
	opts := testOpts()
	opts.Workers = 8

	result, err := Run(context.Background(), dft, opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Meshes) != 40 {
		t.Fatalf("expected 40 meshes, got %d", len(result.Meshes))
	}
	for i, cm := range result.Meshes {
		if cm.Index != i {
			t.Errorf("position %d holds curve %d; order not preserved", i, cm.Index)
		}
	}
}

func TestRun_PerCurveFailureContinues(t *testing.T) {
	dft := testDFT(5, 3)
	// Curve 2 cannot form a tube
	dft.Curves[2] = formats.Curve{{X: 1}}

	result, err := Run(context.Background(), dft, testOpts())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Meshes) != 4 {
		t.Errorf("expected 4 meshes, got %d", len(result.Meshes))
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 curve error, got %d", len(result.Errors))
	}
	ce := result.Errors[0]
	if ce.Index != 2 {
		t.Errorf("expected failure on curve 2, got %d", ce.Index)
	}
	if !errors.Is(ce, tube.ErrInsufficientPoints) {
		t.Errorf("expected ErrInsufficientPoints, got %v", ce.Err)
	}
	if result.Summary.Failed != 1 || result.Summary.Processed != 4 {
		t.Errorf("unexpected summary: %+v", result.Summary)
	}

	// The failed curve's neighbors are still present and in order
	indices := []int{}
	for _, cm := range result.Meshes {
		indices = append(indices, cm.Index)
	}
	for i, w := range []int{0, 1, 3, 4} {
		if indices[i] != w {
			t.Errorf("expected surviving curves [0 1 3 4], got %v", indices)
			break
		}
	}
}

func TestRun_VertexStride(t *testing.T) {
	dft := testDFT(1, 5)
	opts := testOpts()
	opts.VertexStride = 2
	opts.CapEnds = false

	result, err := Run(context.Background(), dft, opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// 5 points decimated to 3 gives 3 rings
	c := opts.CircumferenceResolution
	if got := len(result.Meshes[0].Mesh.Vertices); got != 3*c {
		t.Errorf("expected %d vertices, got %d", 3*c, got)
	}
}

func TestRun_AutoColor(t *testing.T) {
	dft := testDFT(2, 3)
	opts := testOpts()
	opts.AutoColor = true

	result, err := Run(context.Background(), dft, opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, cm := range result.Meshes {
		if cm.VertexColors == nil {
			t.Fatalf("curve %d: expected vertex colors", cm.Index)
		}
		if len(cm.VertexColors.Colors) != len(cm.Mesh.Vertices) {
			t.Errorf("curve %d: %d colors for %d vertices",
				cm.Index, len(cm.VertexColors.Colors), len(cm.Mesh.Vertices))
		}
	}
}

func TestRun_NoAutoColorKeepsTag(t *testing.T) {
	dft := testDFT(1, 3)
	dft.Colors[0] = formats.ColorTag{0.1, 0.2, 0.9}

	result, err := Run(context.Background(), dft, testOpts())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	cm := result.Meshes[0]
	if cm.VertexColors != nil {
		t.Error("expected no vertex colors without auto-color")
	}
	if cm.Color != (formats.ColorTag{0.1, 0.2, 0.9}) {
		t.Errorf("expected stored tag color, got %v", cm.Color)
	}
}

func TestRun_CenterCurves(t *testing.T) {
	dft := testDFT(3, 3)
	opts := testOpts()
	opts.CenterCurves = true

	result, err := Run(context.Background(), dft, opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// The first processed curve's centroid must land on the origin
	if got := result.Meshes[0].Mesh.Centroid(); got.Length() > 1e-5 {
		t.Errorf("expected first mesh centered at origin, centroid %v", got)
	}

	// Relative placement survives: second curve was 10 above the first
	second := result.Meshes[1].Mesh.Centroid()
	if second.Length() < 1 {
		t.Errorf("second mesh should stay offset from the first, centroid %v", second)
	}
}

func TestRun_Cancelled(t *testing.T) {
	dft := testDFT(10, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, dft, testOpts())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRun_EmptyFile(t *testing.T) {
	dft := &formats.DFT{}

	result, err := Run(context.Background(), dft, testOpts())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Meshes) != 0 || result.Summary.Selected != 0 {
		t.Errorf("expected empty result, got %+v", result.Summary)
	}
}
