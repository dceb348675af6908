package csg

import (
	"errors"
	"fmt"

	"github.com/chazu/carve/pkg/kernel"
)

var (
	// ErrResourceExceeded is returned when an operation needs more polygons
	// or a deeper tree than Options allow. Output is never truncated.
	ErrResourceExceeded = errors.New("csg: resource budget exceeded")

	// ErrDegeneratePolygon is returned by NewPolygon for inputs with fewer
	// than three vertices or no measurable area.
	ErrDegeneratePolygon = errors.New("csg: degenerate polygon")

	// ErrInvalidMesh is returned for meshes whose arrays are inconsistent.
	ErrInvalidMesh = kernel.ErrInvalidMesh
)

// WarningCode identifies a non-fatal condition found while combining.
type WarningCode int

const (
	// WarnNonManifoldInput: an input edge is not shared by exactly two
	// triangles. The result may show small cracks.
	WarnNonManifoldInput WarningCode = iota
	// WarnDegenerateInput: input triangles with no area were skipped.
	WarnDegenerateInput
)

func (c WarningCode) String() string {
	switch c {
	case WarnNonManifoldInput:
		return "NonManifoldInput"
	case WarnDegenerateInput:
		return "DegenerateInput"
	default:
		return fmt.Sprintf("WarningCode(%d)", int(c))
	}
}

// Warning is a non-fatal finding attached to a Result.
type Warning struct {
	Code    WarningCode
	Operand string // "a" or "b"
	Count   int
	Message string
}

func (w Warning) String() string {
	if w.Operand == "" {
		return fmt.Sprintf("%s: %s", w.Code, w.Message)
	}
	return fmt.Sprintf("%s (operand %s): %s", w.Code, w.Operand, w.Message)
}
