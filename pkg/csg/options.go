package csg

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultEpsilon is the relative tolerance, scaled by the combined
// bounding-box diagonal of both operands.
const DefaultEpsilon = 1e-5

const (
	DefaultMaxPolygons = 4_000_000
	DefaultMaxDepth    = 1_000_000
)

// Options configures a boolean operation.
type Options struct {
	// Epsilon is relative to the combined bounding-box diagonal.
	Epsilon float64 `yaml:"epsilon"`
	// AbsoluteEpsilon, when positive, is used as-is and disables scaling.
	AbsoluteEpsilon float64 `yaml:"absolute_epsilon"`
	// MaxPolygons bounds the number of polygons one operation may create,
	// input polygons and split fragments alike. Zero means DefaultMaxPolygons.
	MaxPolygons int `yaml:"max_polygons"`
	// MaxDepth bounds BSP tree depth. Zero means DefaultMaxDepth.
	MaxDepth int `yaml:"max_depth"`
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Epsilon:     DefaultEpsilon,
		MaxPolygons: DefaultMaxPolygons,
		MaxDepth:    DefaultMaxDepth,
	}
}

// Resolve returns the absolute tolerance for geometry spanning diagonal.
func (o Options) Resolve(diagonal float64) float64 {
	if o.AbsoluteEpsilon > 0 {
		return o.AbsoluteEpsilon
	}
	rel := o.Epsilon
	if rel <= 0 {
		rel = DefaultEpsilon
	}
	if diagonal <= 0 || math.IsNaN(diagonal) || math.IsInf(diagonal, 0) {
		return rel
	}
	return rel * diagonal
}

func (o Options) maxPolygons() int {
	if o.MaxPolygons <= 0 {
		return DefaultMaxPolygons
	}
	return o.MaxPolygons
}

func (o Options) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// checkEvery is how many loop iterations pass between context checks.
const checkEvery = 512

// Session holds what every tree of one operation shares: the tolerance,
// the resource budget and the cancellation context. A session belongs to
// a single goroutine.
type Session struct {
	ctx         context.Context
	eps         float64
	maxPolygons int
	maxDepth    int
	polygons    int
	steps       int
}

// NewSession creates a session with an absolute tolerance eps.
func NewSession(ctx context.Context, eps float64, opts Options) *Session {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Session{
		ctx:         ctx,
		eps:         eps,
		maxPolygons: opts.maxPolygons(),
		maxDepth:    opts.maxDepth(),
	}
}

// Epsilon returns the session tolerance.
func (s *Session) Epsilon() float64 { return s.eps }

// Polygons returns how many polygons the session has accounted for.
func (s *Session) Polygons() int { return s.polygons }

// charge accounts for n new polygons. Non-positive n is ignored.
func (s *Session) charge(n int) error {
	if n <= 0 {
		return nil
	}
	s.polygons += n
	if s.polygons > s.maxPolygons {
		return fmt.Errorf("%w: more than %d polygons", ErrResourceExceeded, s.maxPolygons)
	}
	return nil
}

func (s *Session) checkDepth(depth int) error {
	if depth > s.maxDepth {
		return fmt.Errorf("%w: tree depth above %d", ErrResourceExceeded, s.maxDepth)
	}
	return nil
}

// step is called once per loop iteration and polls the context.
func (s *Session) step() error {
	s.steps++
	if s.steps%checkEvery != 0 {
		return nil
	}
	return s.ctx.Err()
}

func vecMin(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

func vecMax(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}
