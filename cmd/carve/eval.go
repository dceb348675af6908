package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chazu/carve/internal/app"
	"github.com/chazu/carve/internal/logger"
	"github.com/chazu/carve/pkg/kernel"
	"github.com/chazu/carve/pkg/stl"
)

var evalOutDir string

var evalCmd = &cobra.Command{
	Use:   "eval [recipe]",
	Short: "Evaluate a crop recipe and write one STL per output",
	Long: `Evaluate a Lisp crop recipe. Model references are resolved relative to
the recipe's directory. Each (output "name" ...) is written to name.stl.`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVarP(&evalOutDir, "out", "o", ".", "Directory for output STL files")
}

func runEval(cmd *cobra.Command, args []string) error {
	filename := args[0]
	source, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	a := app.New(cfg, logger.Named("app"))
	defer a.Close()
	a.SetBaseDir(filepath.Dir(filename))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result := a.Evaluate(ctx, string(source), nil)
	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "%s: warning: %s\n", position(filename, w), w.Message)
	}
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "%s: %s\n", position(filename, e), e.Message)
		}
		return fmt.Errorf("%d error(s) in %s", len(result.Errors), filename)
	}

	if err := os.MkdirAll(evalOutDir, 0755); err != nil {
		return err
	}
	for _, md := range result.Meshes {
		m := &kernel.Mesh{Vertices: md.Vertices, Normals: md.Normals, Indices: md.Indices}
		out := filepath.Join(evalOutDir, md.PartName+".stl")
		if err := stl.Save(out, m); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Printf("%-20s %8d triangles  %12.6f volume  -> %s\n", md.PartName, m.TriangleCount(), m.Volume(), out)
	}
	return nil
}

func position(filename string, e app.EvalErrorData) string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d", filename, e.Line, e.Col)
	}
	return filename
}
