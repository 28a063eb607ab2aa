package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/neuroviz/fibertube/internal/config"
	"github.com/neuroviz/fibertube/internal/export"
	"github.com/neuroviz/fibertube/internal/importer"
	"github.com/neuroviz/fibertube/internal/logger"
	"github.com/neuroviz/fibertube/pkg/formats"
)

func importCmd() *cli.Command {
	var (
		configPath   string
		outPath      string
		format       string
		curveStride  int
		vertexStride int
		radius       float64
		circumRes    int
		lengthRes    int
		noCaps       bool
		autoColor    bool
		center       bool
		workers      int
		logLevel     string
	)

	return &cli.Command{
		Name:      "import",
		Usage:     "Import a .dft file and export tube meshes",
		ArgsUsage: "<file.dft>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to config file", Destination: &configPath},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file path", Destination: &outPath},
			&cli.StringFlag{Name: "format", Usage: "output format: obj or json", Destination: &format},
			&cli.IntFlag{Name: "curve-stride", Usage: "process every Nth curve", Destination: &curveStride},
			&cli.IntFlag{Name: "vertex-stride", Usage: "keep every Nth point per curve", Destination: &vertexStride},
			&cli.Float64Flag{Name: "radius", Usage: "tube radius", Destination: &radius},
			&cli.IntFlag{Name: "circum-res", Usage: "vertices per tube ring", Destination: &circumRes},
			&cli.IntFlag{Name: "length-res", Usage: "segments per control-point span", Destination: &lengthRes},
			&cli.BoolFlag{Name: "no-caps", Usage: "leave tube ends open", Destination: &noCaps},
			&cli.BoolFlag{Name: "auto-color", Usage: "color vertices by local direction", Destination: &autoColor},
			&cli.BoolFlag{Name: "center", Usage: "move the curve set to the origin", Destination: &center},
			&cli.IntFlag{Name: "workers", Usage: "concurrent curve builders (0 = CPUs)", Destination: &workers},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error", Destination: &logLevel},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("usage: dfttool import <file.dft>")
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			// CLI flags override the config file
			if cmd.IsSet("curve-stride") {
				cfg.Import.CurveStride = curveStride
			}
			if cmd.IsSet("vertex-stride") {
				cfg.Import.VertexStride = vertexStride
			}
			if cmd.IsSet("radius") {
				cfg.Import.Radius = float32(radius)
			}
			if cmd.IsSet("circum-res") {
				cfg.Import.CircumferenceResolution = circumRes
			}
			if cmd.IsSet("length-res") {
				cfg.Import.LengthResolution = lengthRes
			}
			if noCaps {
				cfg.Import.CapEnds = false
			}
			if autoColor {
				cfg.Import.AutoColor = true
			}
			if center {
				cfg.Import.CenterCurves = true
			}
			if cmd.IsSet("workers") {
				cfg.Import.Workers = workers
			}
			if cmd.IsSet("out") {
				cfg.Output.Path = outPath
			}
			if cmd.IsSet("format") {
				cfg.Output.Format = format
			}
			if cmd.IsSet("log-level") {
				cfg.Logging.Level = logLevel
			}

			if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
				return err
			}
			defer logger.Sync()

			dft, err := formats.ParseDFTFile(path)
			if err != nil {
				return err
			}

			result, err := importer.Run(ctx, dft, importer.Options{
				CurveStride:             cfg.Import.CurveStride,
				VertexStride:            cfg.Import.VertexStride,
				Radius:                  cfg.Import.Radius,
				CircumferenceResolution: cfg.Import.CircumferenceResolution,
				LengthResolution:        cfg.Import.LengthResolution,
				CapEnds:                 cfg.Import.CapEnds,
				AutoColor:               cfg.Import.AutoColor,
				CenterCurves:            cfg.Import.CenterCurves,
				Workers:                 cfg.Import.Workers,
			})
			if err != nil {
				return err
			}

			for _, ce := range result.Errors {
				fmt.Fprintf(os.Stderr, "warning: %v\n", ce)
			}

			if err := writeOutput(cfg, result); err != nil {
				return err
			}

			s := result.Summary
			fmt.Printf("Imported %d/%d curves (%d failed, %d warnings) in %s\n",
				s.Processed, s.Selected, s.Failed, s.Warnings, s.Elapsed.Round(time.Millisecond))
			return nil
		},
	}
}

func writeOutput(cfg *config.Config, result *importer.Result) error {
	out := cfg.Output.Path
	if out == "" {
		out = "tracts." + cfg.Output.Format
	}

	switch cfg.Output.Format {
	case "obj":
		return export.WriteOBJFile(out, result.Meshes)
	case "json":
		return export.WriteJSONFile(out, result)
	default:
		return fmt.Errorf("unknown output format %q (want obj or json)", cfg.Output.Format)
	}
}
