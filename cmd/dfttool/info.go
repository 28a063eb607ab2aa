package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/neuroviz/fibertube/pkg/formats"
)

func infoCmd() *cli.Command {
	var showCurves bool

	return &cli.Command{
		Name:      "info",
		Usage:     "Show header and curve statistics for a .dft file",
		ArgsUsage: "<file.dft>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "curves", Usage: "list per-curve point counts and colors", Destination: &showCurves},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("usage: dfttool info <file.dft>")
			}

			dft, err := formats.ParseDFTFile(path)
			if err != nil {
				return err
			}

			hdr := dft.Header
			fmt.Printf("File:            %s\n", path)
			fmt.Printf("Version label:   %q\n", printable(hdr.VersionLabel[:]))
			fmt.Printf("Version code:    %v\n", hdr.VersionCode)
			fmt.Printf("Header size:     %d\n", hdr.HeaderSize)
			fmt.Printf("Data start:      %d\n", hdr.DataStart)
			fmt.Printf("Metadata offset: %d\n", hdr.MetadataOffset)
			fmt.Printf("Curves:          %d\n", hdr.CurveCount)
			fmt.Printf("Total points:    %d\n", dft.TotalPoints())

			if len(dft.Curves) > 0 {
				min, max := len(dft.Curves[0]), len(dft.Curves[0])
				for _, c := range dft.Curves[1:] {
					if len(c) < min {
						min = len(c)
					}
					if len(c) > max {
						max = len(c)
					}
				}
				fmt.Printf("Points/curve:    %d min, %d max\n", min, max)
			}

			if showCurves {
				fmt.Println()
				for i, c := range dft.Curves {
					col := dft.Colors[i]
					fmt.Printf("  curve %4d: %6d points, color %g %g %g\n",
						i, len(c), col[0], col[1], col[2])
				}
			}

			return nil
		},
	}
}

// printable replaces non-printing bytes so raw version labels display
// cleanly.
func printable(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c >= 0x20 && c < 0x7f {
			sb.WriteByte(c)
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}
