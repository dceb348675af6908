package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/chazu/carve/pkg/stl"
)

var infoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Display general information about an STL file",
	Long:  "Show triangle count, bounding box, surface area, volume and whether the mesh is well formed.",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	filename := args[0]

	model, err := stl.Parse(filename)
	if err != nil {
		return fmt.Errorf("parsing STL file: %w", err)
	}

	fmt.Println("STL File Information")
	fmt.Println("====================")
	if model.PartName != "" {
		fmt.Printf("Name: %s\n", model.PartName)
	}
	fmt.Printf("File: %s\n\n", filename)

	fmt.Println("Model Statistics:")
	fmt.Printf("  Triangles: %d\n", model.TriangleCount())
	fmt.Printf("  Vertices: %d\n", model.VertexCount())
	fmt.Printf("  Surface Area: %.6f square units\n", model.SurfaceArea())
	fmt.Printf("  Volume: %.6f cubic units\n\n", model.Volume())

	if lo, hi, ok := model.BoundingBox(); ok {
		dx, dy, dz := hi[0]-lo[0], hi[1]-lo[1], hi[2]-lo[2]
		fmt.Println("Bounding Box:")
		fmt.Printf("  Min: (%.6f, %.6f, %.6f)\n", lo[0], lo[1], lo[2])
		fmt.Printf("  Max: (%.6f, %.6f, %.6f)\n", hi[0], hi[1], hi[2])
		fmt.Printf("  Diagonal: %.6f units\n\n", math.Sqrt(dx*dx+dy*dy+dz*dz))
	}

	if err := model.Validate(); err != nil {
		fmt.Printf("Mesh: invalid (%v)\n", err)
	} else {
		fmt.Println("Mesh: valid")
	}
	return nil
}
