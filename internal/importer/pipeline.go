// Package importer orchestrates the DFT import pipeline: parse, build
// a tube mesh per selected curve, optionally direction-color it, and
// collect the results for hand-off to a host integration.
package importer

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/neuroviz/fibertube/internal/logger"
	"github.com/neuroviz/fibertube/internal/tube"
	"github.com/neuroviz/fibertube/pkg/formats"
)

// Options control curve selection and mesh generation.
type Options struct {
	// CurveStride processes every Nth curve; 1 processes all.
	CurveStride int
	// VertexStride keeps every Nth point within a curve; 1 keeps all.
	VertexStride int

	Radius                  float32
	CircumferenceResolution int
	LengthResolution        int
	CapEnds                 bool

	// AutoColor colors vertices from local tube direction instead of the
	// stored per-curve color tag.
	AutoColor bool
	// CenterCurves translates the whole output set so the first
	// processed curve's centroid sits at the origin.
	CenterCurves bool

	// Workers caps the number of concurrent curve builders.
	// Zero or negative uses the number of CPUs.
	Workers int
}

// CurveMesh is the hand-off payload for one finished curve: the tube
// mesh plus either the stored tag color or a per-vertex coloring.
type CurveMesh struct {
	// Index is the curve's position in the source file.
	Index int
	Mesh  *tube.Mesh
	// Color is the tag color stored in the file metadata.
	Color formats.ColorTag
	// VertexColors is set when auto-coloring is enabled.
	VertexColors *tube.VertexColoring
}

// CurveError records a per-curve build failure. Failures do not stop
// the remaining curves from being processed.
type CurveError struct {
	Index int
	Err   error
}

func (e *CurveError) Error() string {
	return fmt.Sprintf("curve %d: %v", e.Index, e.Err)
}

func (e *CurveError) Unwrap() error {
	return e.Err
}

// Summary aggregates the outcome of one import run.
type Summary struct {
	Selected  int // Curves selected by stride
	Processed int // Curves that produced a mesh
	Failed    int // Curves that failed to build or color
	Warnings  int // Near-square face warnings across all curves
	Elapsed   time.Duration
}

// Result is the ordered outcome of an import run. Meshes appear in
// original curve order; failed curves are listed in Errors.
type Result struct {
	Meshes  []CurveMesh
	Errors  []*CurveError
	Summary Summary
}

// Run builds a tube mesh for every stride-selected curve in dft.
// Curves are independent, so they are built concurrently; each worker
// owns its curve and mesh exclusively and results are collected in
// original curve order. Cancellation is honored between curves only.
func Run(ctx context.Context, dft *formats.DFT, opts Options) (*Result, error) {
	start := time.Now()

	if opts.CurveStride < 1 {
		opts.CurveStride = 1
	}
	if opts.VertexStride < 1 {
		opts.VertexStride = 1
	}
	if opts.Workers < 1 {
		opts.Workers = runtime.NumCPU()
	}

	var selected []int
	for i := 0; i < len(dft.Curves); i += opts.CurveStride {
		selected = append(selected, i)
	}

	logger.Info("starting import",
		zap.Int("curves", len(dft.Curves)),
		zap.Int("selected", len(selected)),
		zap.Int("workers", opts.Workers))

	type slot struct {
		mesh *CurveMesh
		err  *CurveError
	}
	slots := make([]slot, len(selected))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range jobs {
				idx := selected[pos]
				mesh, err := buildCurve(dft, idx, opts)
				if err != nil {
					slots[pos].err = &CurveError{Index: idx, Err: err}
					continue
				}
				slots[pos].mesh = mesh
			}
		}()
	}

	var cancelled error
	for pos := range selected {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		jobs <- pos
	}
	close(jobs)
	wg.Wait()

	if cancelled != nil {
		logger.Warn("import cancelled", zap.Error(cancelled))
		return nil, cancelled
	}

	result := &Result{Summary: Summary{Selected: len(selected)}}
	for _, s := range slots {
		switch {
		case s.mesh != nil:
			result.Meshes = append(result.Meshes, *s.mesh)
			result.Summary.Processed++
			if s.mesh.VertexColors != nil {
				result.Summary.Warnings += len(s.mesh.VertexColors.Warnings)
			}
		case s.err != nil:
			logger.Warn("curve failed", zap.Int("curve", s.err.Index), zap.Error(s.err.Err))
			result.Errors = append(result.Errors, s.err)
			result.Summary.Failed++
		}
	}

	if opts.CenterCurves && len(result.Meshes) > 0 {
		offset := result.Meshes[0].Mesh.Centroid().Scale(-1)
		for i := range result.Meshes {
			result.Meshes[i].Mesh.Translate(offset)
		}
	}

	result.Summary.Elapsed = time.Since(start)
	logger.Info("import finished",
		zap.Int("processed", result.Summary.Processed),
		zap.Int("failed", result.Summary.Failed),
		zap.Int("warnings", result.Summary.Warnings),
		zap.Duration("elapsed", result.Summary.Elapsed))

	return result, nil
}

// buildCurve builds and optionally colors the mesh for one curve.
func buildCurve(dft *formats.DFT, idx int, opts Options) (*CurveMesh, error) {
	points := dft.Curves[idx].Decimate(opts.VertexStride)

	mesh, err := tube.Build(points, tube.Options{
		Radius:                  opts.Radius,
		CircumferenceResolution: opts.CircumferenceResolution,
		LengthResolution:        opts.LengthResolution,
		CapEnds:                 opts.CapEnds,
	})
	if err != nil {
		return nil, err
	}

	cm := &CurveMesh{Index: idx, Mesh: mesh, Color: dft.Colors[idx]}

	if opts.AutoColor {
		coloring, err := tube.Colorize(mesh)
		if err != nil {
			return nil, err
		}
		for _, w := range coloring.Warnings {
			logger.Debug("near-square side face, direction color may be off",
				zap.Int("curve", idx),
				zap.Int("face", w.Face),
				zap.Float32("shortest", w.Shortest),
				zap.Float32("longest", w.Longest))
		}
		cm.VertexColors = coloring
	}

	logger.Debug("finished curve",
		zap.Int("curve", idx),
		zap.Int("vertices", len(mesh.Vertices)),
		zap.Int("faces", len(mesh.Faces)))

	return cm, nil
}
