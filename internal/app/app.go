// Package app binds recipe evaluation and interactive cropping into the
// flat, JSON-ready results a viewer renders.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/chazu/carve/internal/config"
	"github.com/chazu/carve/pkg/crop"
	"github.com/chazu/carve/pkg/csg"
	"github.com/chazu/carve/pkg/engine"
	"github.com/chazu/carve/pkg/graph"
	"github.com/chazu/carve/pkg/kernel"
	"github.com/chazu/carve/pkg/kernel/bsp"
	"github.com/chazu/carve/pkg/kernel/sdfx"
	"github.com/chazu/carve/pkg/stl"
	"github.com/chazu/carve/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to
// outputs that do not name one.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// cutterColor is used for the crop cylinder preview.
const cutterColor = "#C0C0C0"

// App evaluates recipes and runs crops for a viewer.
type App struct {
	cfg     *config.Config
	log     *zap.Logger
	engine  *engine.Engine
	cropper *crop.Cropper

	mu      sync.Mutex
	models  map[string]*kernel.Mesh
	baseDir string
}

// MeshData is the JSON-serializable mesh format sent to the viewer.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error or warning.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of evaluating a recipe.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// CropResult is one crop ready for display.
type CropResult struct {
	ID       string   `json:"id"`
	Mesh     MeshData `json:"mesh"`
	Cutter   MeshData `json:"cutter"`
	Warnings []string `json:"warnings"`
	Disjoint bool     `json:"disjoint"`
	Millis   int64    `json:"millis"`
}

// New creates an App from cfg. A nil cfg uses config.Default and a nil
// logger disables logging.
func New(cfg *config.Config, log *zap.Logger) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &App{
		cfg:     cfg,
		log:     log,
		engine:  engine.NewEngineWithTimeout(cfg.Engine.EvalTimeout),
		cropper: crop.New(cfg.CropOptions(log.Named("crop"))),
		models:  make(map[string]*kernel.Mesh),
	}
}

// SetBaseDir sets the directory model references are resolved against
// when they have not been registered with AddModel.
func (a *App) SetBaseDir(dir string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.baseDir = dir
}

// AddModel registers m under ref for later recipes.
func (a *App) AddModel(ref string, m *kernel.Mesh) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.models[ref] = m
}

// Model returns the mesh registered under ref, loading it as an STL file
// from the base directory on first use.
func (a *App) Model(ref string) (*kernel.Mesh, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if m, ok := a.models[ref]; ok {
		return m, nil
	}
	path := ref
	if !filepath.IsAbs(path) && a.baseDir != "" {
		path = filepath.Join(a.baseDir, path)
	}
	m, err := stl.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", ref, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("model %q: %w", ref, err)
	}
	a.models[ref] = m
	a.log.Info("model loaded",
		zap.String("ref", ref),
		zap.Int("triangles", m.TriangleCount()))
	return m, nil
}

// Evaluate takes recipe source and returns mesh data plus errors. Models
// given in models take precedence over registered ones.
func (a *App) Evaluate(ctx context.Context, source string, models map[string]*kernel.Mesh) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}
	fail := func(msg string) EvalResult {
		result.Errors = append(result.Errors, EvalErrorData{Message: msg})
		return result
	}

	// Step 1: evaluate the recipe into a graph.
	res, err := a.engine.EvaluateResult(source)
	if err != nil {
		a.log.Warn("evaluate fatal error", zap.Error(err))
		return fail(err.Error())
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Line: w.Line, Col: w.Col, Message: w.Message})
	}
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}
	g := res.Graph

	// Step 2: resolve every model the recipe references.
	resolved := make(map[string]*kernel.Mesh)
	for _, ref := range g.ModelRefs() {
		if m, ok := models[ref]; ok {
			resolved[ref] = m
			continue
		}
		m, err := a.Model(ref)
		if err != nil {
			return fail(err.Error())
		}
		resolved[ref] = m
	}

	// Step 3: tessellate every output through the configured kernel.
	meshes, err := tessellate.Tessellate(ctx, g, a.kernelFor(g), resolved)
	if err != nil {
		a.log.Warn("tessellate failed", zap.Error(err))
		return fail("tessellation failed: " + err.Error())
	}

	// Step 4: convert to the viewer format.
	outs := g.Outputs()
	for i, m := range meshes {
		color := colorPalette[i%len(colorPalette)]
		if i < len(outs) {
			if od, ok := outs[i].Data.(graph.OutputData); ok && od.Color != "" {
				color = od.Color
			}
		}
		for _, w := range m.Warnings {
			result.Warnings = append(result.Warnings, EvalErrorData{Message: m.PartName + ": " + w})
		}
		result.Meshes = append(result.Meshes, meshData(m, color))
	}

	a.log.Debug("recipe evaluated",
		zap.Uint64("version", g.Version),
		zap.Int("nodes", g.NodeCount()),
		zap.Int("outputs", len(result.Meshes)))
	return result
}

// kernelFor returns the kernel recipes are tessellated with.
func (a *App) kernelFor(g *graph.Graph) kernel.Kernel {
	if a.cfg.Engine.Kernel == config.KernelSDFX {
		return sdfx.New(a.cfg.Engine.SDFCells)
	}
	return bsp.New(a.optionsFor(g), a.log.Named("bsp"))
}

// optionsFor applies the recipe's tolerance over the configured one.
func (a *App) optionsFor(g *graph.Graph) csg.Options {
	opts := a.cfg.CSGOptions()
	if g.Settings.Tolerance > 0 {
		opts.Epsilon = g.Settings.Tolerance
		opts.AbsoluteEpsilon = 0
	}
	return opts
}

// Crop runs one crop of target and waits for it.
func (a *App) Crop(ctx context.Context, target *kernel.Mesh, p crop.Params) (*CropResult, error) {
	res, err := a.cropper.Run(ctx, target, p)
	if err != nil {
		return nil, err
	}
	return cropResult(res), nil
}

// SubmitCrop schedules a debounced crop. Only the latest request's outcome
// reaches deliver.
func (a *App) SubmitCrop(target *kernel.Mesh, p crop.Params, deliver func(*CropResult, error)) {
	a.cropper.Submit(target, p, func(res *crop.Result, err error) {
		if err != nil {
			deliver(nil, err)
			return
		}
		deliver(cropResult(res), nil)
	})
}

// DefaultCropParams returns the cutter from the configuration.
func (a *App) DefaultCropParams() (crop.Params, error) {
	return a.cfg.CropParams()
}

// Close cancels any crop in flight.
func (a *App) Close() {
	a.cropper.Cancel()
}

func cropResult(res *crop.Result) *CropResult {
	out := &CropResult{
		ID:       res.ID,
		Mesh:     meshData(res.Mesh, colorPalette[0]),
		Cutter:   meshData(res.Cutter, cutterColor),
		Warnings: []string{},
		Disjoint: res.Disjoint,
		Millis:   res.Elapsed.Milliseconds(),
	}
	for _, w := range res.Warnings {
		out.Warnings = append(out.Warnings, w.String())
	}
	return out
}

func meshData(m *kernel.Mesh, color string) MeshData {
	if m == nil {
		return MeshData{Vertices: []float32{}, Normals: []float32{}, Indices: []uint32{}, Color: color}
	}
	return MeshData{
		Vertices: m.Vertices,
		Normals:  m.Normals,
		Indices:  m.Indices,
		PartName: m.PartName,
		Color:    color,
	}
}
