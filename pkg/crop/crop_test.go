package crop

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/chazu/carve/pkg/csg"
	"github.com/chazu/carve/pkg/kernel"
	"github.com/chazu/carve/pkg/shape"
)

func cube(t *testing.T) *kernel.Mesh {
	t.Helper()
	m, err := shape.Box(2, 2, 2)
	if err != nil {
		t.Fatalf("Box: %v", err)
	}
	return m
}

// prism is the volume enclosed by a cutter with the given radius and
// segments over height h.
func prism(r float64, segments int, h float64) float64 {
	n := float64(segments)
	return n / 2 * r * r * math.Sin(2*math.Pi/n) * h
}

func TestRunIntersect(t *testing.T) {
	c := New(Options{CSG: csg.DefaultOptions()})
	p := DefaultParams()
	p.Radius = 0.5
	p.Height = 3

	res, err := c.Run(context.Background(), cube(t), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := prism(0.5, DefaultSegments, 2)
	if got := res.Mesh.Volume(); math.Abs(got-want) > 1e-5 {
		t.Errorf("volume = %f, want %f", got, want)
	}
	if res.ID == "" {
		t.Error("result has no request id")
	}
	if res.Generation != 1 || c.Generation() != 1 {
		t.Errorf("generation = %d / %d, want 1", res.Generation, c.Generation())
	}
	if res.Cutter.TriangleCount() != 4*DefaultSegments {
		t.Errorf("cutter triangles = %d, want %d", res.Cutter.TriangleCount(), 4*DefaultSegments)
	}
}

func TestRunSubtractWithPlacement(t *testing.T) {
	c := New(Options{CSG: csg.DefaultOptions()})
	p := DefaultParams()
	p.Radius = 0.5
	p.Height = 3
	p.Op = csg.OpSubtract
	p.Placement = shape.Placement{Translate: [3]float64{0.25, 0, 0}}

	res, err := c.Run(context.Background(), cube(t), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := 8 - prism(0.5, DefaultSegments, 2)
	if got := res.Mesh.Volume(); math.Abs(got-want) > 1e-5 {
		t.Errorf("volume = %f, want %f", got, want)
	}
	min, max, _ := res.Cutter.BoundingBox()
	if math.Abs(min[0]+0.25) > 1e-6 || math.Abs(max[0]-0.75) > 1e-6 {
		t.Errorf("cutter x range = [%f, %f], want [-0.25, 0.75]", min[0], max[0])
	}
}

func TestRunDisjoint(t *testing.T) {
	c := New(Options{CSG: csg.DefaultOptions()})
	p := DefaultParams()
	p.Placement.Translate = [3]float64{10, 0, 0}

	res, err := c.Run(context.Background(), cube(t), p)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Disjoint || !res.Mesh.IsEmpty() {
		t.Errorf("disjoint = %v, triangles = %d", res.Disjoint, res.Mesh.TriangleCount())
	}
}

func TestRunInvalidCutter(t *testing.T) {
	c := New(Options{CSG: csg.DefaultOptions()})
	p := DefaultParams()
	p.Radius = 0
	if _, err := c.Run(context.Background(), cube(t), p); !errors.Is(err, shape.ErrInvalidShape) {
		t.Errorf("Run error = %v, want ErrInvalidShape", err)
	}
}

func TestRunCancelled(t *testing.T) {
	c := New(Options{CSG: csg.DefaultOptions()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Run(ctx, cube(t), DefaultParams()); !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
}

func TestNewerRequestSupersedes(t *testing.T) {
	c := New(Options{})
	gen1 := c.issue()
	ctx1, cancel1, err := c.begin(context.Background(), gen1)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer cancel1()

	gen2 := c.issue()
	if gen2 != gen1+1 {
		t.Errorf("generations = %d, %d", gen1, gen2)
	}
	if !errors.Is(ctx1.Err(), context.Canceled) {
		t.Errorf("first context error = %v, want context.Canceled", ctx1.Err())
	}
	if c.current(gen1) {
		t.Error("first generation should be stale")
	}
	if !c.current(gen2) {
		t.Error("second generation should be current")
	}

	// A stale generation cannot start late.
	if _, _, err := c.begin(context.Background(), gen1); !errors.Is(err, ErrSuperseded) {
		t.Errorf("begin(stale) error = %v, want ErrSuperseded", err)
	}

	c.Cancel()
	if c.current(gen2) {
		t.Error("Cancel should supersede the second generation")
	}
}

func TestSupersededRunNotDelivered(t *testing.T) {
	c := New(Options{CSG: csg.DefaultOptions()})
	c.Cancel() // nothing in flight; only bumps the generation

	// A run that starts after Cancel is current and succeeds.
	if _, err := c.Run(context.Background(), cube(t), DefaultParams()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c.Generation() != 2 {
		t.Errorf("Generation() = %d, want 2", c.Generation())
	}
}

func TestSubmitDebounces(t *testing.T) {
	c := New(Options{CSG: csg.DefaultOptions(), Debounce: 200 * time.Millisecond})
	target := cube(t)

	var mu sync.Mutex
	var delivered []*Result
	done := make(chan struct{}, 8)
	for i := 1; i <= 5; i++ {
		p := DefaultParams()
		p.Radius = 0.1 * float64(i)
		c.Submit(target, p, func(r *Result, err error) {
			if err != nil {
				t.Errorf("delivered error: %v", err)
			}
			mu.Lock()
			delivered = append(delivered, r)
			mu.Unlock()
			done <- struct{}{}
		})
	}

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("no result delivered")
	}
	// Give a stray second delivery time to show up.
	time.Sleep(400 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(delivered) != 1 {
		t.Fatalf("delivered %d results, want 1", len(delivered))
	}
	if r := delivered[0]; r == nil || math.Abs(r.Params.Radius-0.5) > 1e-12 {
		t.Errorf("delivered radius = %v, want 0.5", r)
	}
}

func TestSubmitWithoutDebounceKeepsOrder(t *testing.T) {
	target := cube(t)
	for round := 0; round < 200; round++ {
		c := New(Options{CSG: csg.DefaultOptions()})

		var mu sync.Mutex
		var radii []float64
		got := make(chan float64, 2)
		deliver := func(r *Result, err error) {
			if err != nil {
				t.Errorf("round %d: delivered error: %v", round, err)
				return
			}
			mu.Lock()
			radii = append(radii, r.Params.Radius)
			mu.Unlock()
			got <- r.Params.Radius
		}

		older, newer := DefaultParams(), DefaultParams()
		older.Radius, older.Segments = 0.1, 8
		newer.Radius, newer.Segments = 0.5, 8
		c.Submit(target, older, deliver)
		c.Submit(target, newer, deliver)

		// The newer request always delivers. The older one may only
		// deliver if it finished before the newer one was issued.
	wait:
		for {
			select {
			case r := <-got:
				if r == 0.5 {
					break wait
				}
			case <-time.After(10 * time.Second):
				t.Fatalf("round %d: newer request never delivered", round)
			}
		}
		// Nothing issued before Cancel may deliver after it returns.
		c.Cancel()

		mu.Lock()
		if n := len(radii); n == 0 || radii[n-1] != 0.5 || n > 2 {
			t.Fatalf("round %d: delivered radii %v, want the last to be 0.5", round, radii)
		}
		mu.Unlock()
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	c := New(Options{CSG: csg.DefaultOptions()})
	delivered := make(chan *Result, 1)
	c.Submit(cube(t), DefaultParams(), func(r *Result, err error) {
		delivered <- r
	})
	c.Cancel()

	select {
	case r := <-delivered:
		t.Errorf("cancelled request delivered %+v", r.Params)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if p.Op != csg.OpIntersect {
		t.Errorf("Op = %s, want intersect", p.Op)
	}
	m, err := Cutter(p)
	if err != nil {
		t.Fatalf("Cutter: %v", err)
	}
	min, max, _ := m.BoundingBox()
	if math.Abs(max[2]-min[2]-DefaultHeight) > 1e-6 {
		t.Errorf("cutter height = %f, want %f", max[2]-min[2], DefaultHeight)
	}
}
