package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/carve/internal/app"
	"github.com/chazu/carve/internal/logger"
	"github.com/chazu/carve/pkg/csg"
	"github.com/chazu/carve/pkg/kernel"
	"github.com/chazu/carve/pkg/stl"
)

var (
	cropOutput   string
	cropRadius   float64
	cropHeight   float64
	cropSegments int
	cropAt       []float64
	cropRotate   []float64
	cropRemove   bool
)

var cropCmd = &cobra.Command{
	Use:   "crop [file]",
	Short: "Crop an STL model with a cylinder",
	Long: `Intersect the model with a cylinder to keep what lies inside it, or
subtract the cylinder with --remove. Unset cutter flags fall back to the
cutter section of the configuration.`,
	Args: cobra.ExactArgs(1),
	RunE: runCrop,
}

func init() {
	rootCmd.AddCommand(cropCmd)

	cropCmd.Flags().StringVarP(&cropOutput, "output", "o", "", "Output STL file (default <file>-crop.stl)")
	cropCmd.Flags().Float64VarP(&cropRadius, "radius", "r", 0, "Cylinder radius")
	cropCmd.Flags().Float64Var(&cropHeight, "height", 0, "Cylinder height")
	cropCmd.Flags().IntVarP(&cropSegments, "segments", "s", 0, "Cylinder segments")
	cropCmd.Flags().Float64SliceVar(&cropAt, "at", nil, "Cylinder center as x,y,z")
	cropCmd.Flags().Float64SliceVar(&cropRotate, "rotate", nil, "Cylinder rotation in degrees as x,y,z")
	cropCmd.Flags().BoolVar(&cropRemove, "remove", false, "Cut the cylinder away instead of keeping it")
}

func runCrop(cmd *cobra.Command, args []string) error {
	filename := args[0]

	model, err := stl.Parse(filename)
	if err != nil {
		return fmt.Errorf("parsing STL file: %w", err)
	}

	a := app.New(cfg, logger.Named("app"))
	defer a.Close()

	p, err := a.DefaultCropParams()
	if err != nil {
		return err
	}
	if cropRadius > 0 {
		p.Radius = cropRadius
	}
	if cropHeight > 0 {
		p.Height = cropHeight
	}
	if cropSegments > 0 {
		p.Segments = cropSegments
	}
	if cmd.Flags().Changed("at") {
		if p.Placement.Translate, err = vec3Flag("at", cropAt); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("rotate") {
		if p.Placement.Rotate, err = vec3Flag("rotate", cropRotate); err != nil {
			return err
		}
	}
	if cropRemove {
		p.Op = csg.OpSubtract
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := a.Crop(ctx, model, p)
	if err != nil {
		return err
	}

	out := cropOutput
	if out == "" {
		out = strings.TrimSuffix(filename, ".stl") + "-crop.stl"
	}
	mesh := &kernel.Mesh{Vertices: res.Mesh.Vertices, Normals: res.Mesh.Normals, Indices: res.Mesh.Indices}
	if err := stl.Save(out, mesh); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	fmt.Printf("Cropped %s (%s, r=%g h=%g)\n", filename, p.Op, p.Radius, p.Height)
	fmt.Printf("  Triangles: %d -> %d\n", model.TriangleCount(), mesh.TriangleCount())
	fmt.Printf("  Volume: %.6f cubic units\n", mesh.Volume())
	fmt.Printf("  Time: %d ms\n", res.Millis)
	if res.Disjoint {
		fmt.Println("  Note: the cutter does not touch the model")
	}
	for _, w := range res.Warnings {
		fmt.Printf("  Warning: %s\n", w)
	}
	fmt.Printf("Wrote %s\n", out)
	return nil
}

// vec3Flag checks that a slice flag holds exactly three numbers.
func vec3Flag(name string, v []float64) ([3]float64, error) {
	if len(v) != 3 {
		return [3]float64{}, fmt.Errorf("--%s wants x,y,z, got %d values", name, len(v))
	}
	return [3]float64{v[0], v[1], v[2]}, nil
}
