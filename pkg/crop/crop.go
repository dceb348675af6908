// Package crop runs cylinder crops of a model off the interactive
// goroutine. Every request supersedes the ones before it: their contexts
// are cancelled and their results are never delivered.
package crop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chazu/carve/pkg/csg"
	"github.com/chazu/carve/pkg/kernel"
	"github.com/chazu/carve/pkg/shape"
)

// ErrSuperseded is returned by Run when a newer request was issued before
// the run finished.
var ErrSuperseded = errors.New("crop: superseded by newer request")

// Cutter defaults used by DefaultParams.
const (
	DefaultRadius   = 1.0
	DefaultHeight   = 2.0
	DefaultSegments = 64
)

// Params describes the cutter and what to keep.
type Params struct {
	Radius    float64         `yaml:"radius" json:"radius"`
	Height    float64         `yaml:"height" json:"height"`
	Segments  int             `yaml:"segments" json:"segments"`
	Placement shape.Placement `yaml:"placement" json:"placement"`
	// Op is OpIntersect to keep what lies inside the cylinder, OpSubtract
	// to cut it away.
	Op csg.Op `yaml:"-" json:"op"`
}

// DefaultParams returns a unit-radius cylinder of height 2 that keeps
// the inside.
func DefaultParams() Params {
	return Params{
		Radius:   DefaultRadius,
		Height:   DefaultHeight,
		Segments: DefaultSegments,
		Op:       csg.OpIntersect,
	}
}

// Result is one completed crop.
type Result struct {
	ID         string // request id, also used in log lines
	Generation uint64
	Params     Params
	Mesh       *kernel.Mesh
	Cutter     *kernel.Mesh // placed cutter, for preview
	Warnings   []csg.Warning
	Polygons   int
	Disjoint   bool
	Elapsed    time.Duration
}

// Options configures a Cropper.
type Options struct {
	CSG      csg.Options
	Debounce time.Duration // quiet period before Submit starts a run
	Timeout  time.Duration // per-run limit, 0 for none
	Logger   *zap.Logger
}

// Cropper serializes crop requests with last-issued-wins semantics. It is
// safe for concurrent use.
type Cropper struct {
	opts      Options
	log       *zap.Logger
	debounced func(f func())

	// issueMu is held while a request is issued and while a result is
	// delivered, so no result older than the latest request reaches a
	// deliver callback.
	issueMu sync.Mutex

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// New returns a Cropper. A nil logger disables logging.
func New(opts Options) *Cropper {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	c := &Cropper{opts: opts, log: log}
	if opts.Debounce > 0 {
		c.debounced = debounce.New(opts.Debounce)
	} else {
		c.debounced = func(f func()) { go f() }
	}
	return c
}

// Cutter builds the placed cylinder for p.
func Cutter(p Params) (*kernel.Mesh, error) {
	m, err := shape.Cylinder(p.Radius, p.Height, p.Segments)
	if err != nil {
		return nil, fmt.Errorf("crop: cutter: %w", err)
	}
	return shape.Place(m, p.Placement), nil
}

// Generation returns the generation of the most recent request.
func (c *Cropper) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Cancel supersedes every request issued so far. Once it returns, no
// earlier Submit delivers.
func (c *Cropper) Cancel() {
	c.issue()
}

// issue starts a new request and returns its generation.
func (c *Cropper) issue() uint64 {
	c.issueMu.Lock()
	defer c.issueMu.Unlock()
	return c.supersede()
}

// supersede bumps the generation and cancels the run in flight.
func (c *Cropper) supersede() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return c.gen
}

// begin attaches a context to generation gen. It returns ErrSuperseded
// when a newer request was issued in the meantime.
func (c *Cropper) begin(parent context.Context, gen uint64) (context.Context, context.CancelFunc, error) {
	var ctx context.Context
	var cancel context.CancelFunc
	if c.opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, c.opts.Timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		cancel()
		return nil, nil, ErrSuperseded
	}
	c.cancel = cancel
	return ctx, cancel, nil
}

// current reports whether gen is still the latest request.
func (c *Cropper) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.gen
}

// Run crops target with the cutter described by p and blocks until done.
// Starting a run cancels the previous one; a run overtaken by a newer
// request returns ErrSuperseded whatever its own outcome.
func (c *Cropper) Run(ctx context.Context, target *kernel.Mesh, p Params) (*Result, error) {
	return c.run(ctx, c.issue(), target, p)
}

func (c *Cropper) run(ctx context.Context, gen uint64, target *kernel.Mesh, p Params) (*Result, error) {
	ctx, cancel, err := c.begin(ctx, gen)
	if err != nil {
		return nil, err
	}
	defer cancel()

	id := uuid.NewString()
	log := c.log.With(zap.String("request", id), zap.Uint64("generation", gen))
	start := time.Now()

	res, err := c.crop(ctx, target, p)
	if !c.current(gen) {
		log.Debug("crop superseded", zap.Duration("elapsed", time.Since(start)))
		return nil, ErrSuperseded
	}
	if err != nil {
		log.Warn("crop failed", zap.Error(err))
		return nil, err
	}

	res.ID = id
	res.Generation = gen
	res.Elapsed = time.Since(start)
	log.Info("crop finished",
		zap.Stringer("op", p.Op),
		zap.Float64("radius", p.Radius),
		zap.Float64("height", p.Height),
		zap.Int("trianglesIn", target.TriangleCount()),
		zap.Int("trianglesOut", res.Mesh.TriangleCount()),
		zap.Int("polygons", res.Polygons),
		zap.Int("warnings", len(res.Warnings)),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

func (c *Cropper) crop(ctx context.Context, target *kernel.Mesh, p Params) (*Result, error) {
	cutter, err := Cutter(p)
	if err != nil {
		return nil, err
	}
	out, err := csg.Combine(ctx, target, cutter, p.Op, c.opts.CSG)
	if err != nil {
		return nil, fmt.Errorf("crop: %w", err)
	}
	return &Result{
		Params:   p,
		Mesh:     out.Mesh,
		Cutter:   cutter,
		Warnings: out.Warnings,
		Polygons: out.Polygons,
		Disjoint: out.Disjoint,
	}, nil
}

// Submit schedules a crop after the debounce period and returns at once.
// The request's generation is taken here, so requests are ordered by when
// Submit was called. Rapid calls collapse into one run with the latest
// parameters; deliver is called from another goroutine with that run's
// outcome only. Superseded runs are never delivered. deliver runs while
// new requests are held back, so it must not call Submit, Run or Cancel
// itself.
func (c *Cropper) Submit(target *kernel.Mesh, p Params, deliver func(*Result, error)) {
	gen := c.issue()
	c.debounced(func() {
		res, err := c.run(context.Background(), gen, target, p)
		if errors.Is(err, ErrSuperseded) {
			return
		}
		c.issueMu.Lock()
		defer c.issueMu.Unlock()
		if !c.current(gen) {
			return
		}
		deliver(res, err)
	})
}
