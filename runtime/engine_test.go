package runtime

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbl8/lifestep/core"
	"github.com/sbl8/lifestep/internal/testgrid"
	"github.com/sbl8/lifestep/kernels"
)

func newTestEngine(t *testing.T, opts *EngineOptions) *Engine {
	t.Helper()
	e, err := NewEngine(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func referenceNext(t *testing.T, g core.Grid) core.Grid {
	t.Helper()
	want := g.Clone()
	require.NoError(t, kernels.ReferenceStep(want))
	return want
}

func TestEngineMatchesReference(t *testing.T) {
	t.Parallel()
	for _, workers := range []int{1, 2, 4, 8} {
		for _, mode := range []kernels.Mode{kernels.ModeScalar, kernels.ModePacked} {
			t.Run(fmt.Sprintf("workers=%d/%s", workers, mode), func(t *testing.T) {
				t.Parallel()
				e := newTestEngine(t, &EngineOptions{Workers: workers, Kernel: mode})
				rng := rand.New(rand.NewSource(int64(workers)))
				for trial := 0; trial < 25; trial++ {
					h, w := 3+rng.Intn(50), 3+rng.Intn(50)
					g := testgrid.Random(rng, h, w, rng.Float64())
					want := referenceNext(t, g)
					require.NoError(t, e.Step(context.Background(), g))
					require.True(t, want.Equal(g), "%dx%d\nwant:\n%s\ngot:\n%s", h, w, want, g)
				}
			})
		}
	}
}

func TestEnginePoolSizeInvariance(t *testing.T) {
	t.Parallel()
	start := testgrid.Random(rand.New(rand.NewSource(9)), 41, 37, 0.35)
	var results []core.Grid
	for _, workers := range []int{1, 2, 4, 8} {
		e := newTestEngine(t, &EngineOptions{Workers: workers})
		g := start.Clone()
		n, err := e.StepN(context.Background(), g, 10)
		require.NoError(t, err)
		require.Equal(t, 10, n)
		results = append(results, g)
	}
	for _, g := range results[1:] {
		assert.True(t, results[0].Equal(g))
	}
}

func TestEngineBorderUnchanged(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, nil)
	g := testgrid.Random(rand.New(rand.NewSource(10)), 20, 30, 0.7)
	border := testgrid.Border(g)
	for i := 0; i < 5; i++ {
		require.NoError(t, e.Step(context.Background(), g))
		require.Equal(t, border, testgrid.Border(g))
	}
}

func TestEnginePatterns(t *testing.T) {
	t.Parallel()
	block := `
......
......
..##..
..##..
......
......`
	blinkerH := `
.....
.....
.###.
.....
.....`
	blinkerV := `
.....
..#..
..#..
..#..
.....`
	dead := `
.......
.......
.......
.......`

	tests := []struct {
		name  string
		start string
		want  string
	}{
		{"block is still", block, block},
		{"blinker rotates", blinkerH, blinkerV},
		{"blinker rotates back", blinkerV, blinkerH},
		{"dead stays dead", dead, dead},
	}
	e := newTestEngine(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testgrid.Parse(tt.start)
			require.NoError(t, e.Step(context.Background(), g))
			assert.Equal(t, testgrid.Parse(tt.want).String(), g.String())

			// Every pattern here has period 1 or 2.
			require.NoError(t, e.Step(context.Background(), g))
			assert.Equal(t, testgrid.Parse(tt.start).String(), g.String(), "second step")
		})
	}
}

func TestEngineStridedMatchesDense(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, &EngineOptions{Workers: 3})
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 10; trial++ {
		dense := testgrid.Random(rng, 4+rng.Intn(30), 4+rng.Intn(30), 0.4)
		strided := testgrid.Strided(dense)
		require.NoError(t, e.Step(context.Background(), dense))
		require.NoError(t, e.Step(context.Background(), strided))
		require.True(t, dense.Equal(strided))
	}
}

func TestEngineSubGrid(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, nil)
	outer := testgrid.Random(rand.New(rand.NewSource(12)), 20, 20, 0.5)
	before := outer.Clone()
	view := outer.Sub(4, 5, 10, 9)
	want := referenceNext(t, view)

	require.NoError(t, e.Step(context.Background(), view))
	assert.True(t, want.Equal(view))
	for i := 0; i < 20; i++ {
		for j := 0; j < 20; j++ {
			if i > 4 && i < 13 && j > 5 && j < 13 {
				continue
			}
			require.Equal(t, before.At(i, j), outer.At(i, j), "cell (%d,%d) outside the view's interior", i, j)
		}
	}
}

func TestEngineCacheShapes(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, nil)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(13))
	a := testgrid.Random(rng, 10, 12, 0.4)
	b := testgrid.Random(rng, 15, 8, 0.4)

	for _, g := range []core.Grid{a, b, a, a} {
		want := referenceNext(t, g)
		require.NoError(t, e.Step(ctx, g))
		require.True(t, want.Equal(g))
		assert.Equal(t, []core.Shape{g.Shape()}, e.CachedShapes())
	}
	s := e.Stats().Cache
	assert.Equal(t, int64(3), s.Misses)
	assert.Equal(t, int64(1), s.Hits)
	assert.Equal(t, int64(2), s.Evictions)

	e.ResetCache()
	assert.Empty(t, e.CachedShapes())
}

func TestEngineCacheSlots(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, &EngineOptions{Workers: 2, CacheSlots: 2})
	ctx := context.Background()
	a, b := core.MustGrid(5, 5), core.MustGrid(6, 6)
	for _, g := range []core.Grid{a, b, a, b} {
		require.NoError(t, e.Step(ctx, g))
	}
	s := e.Stats().Cache
	assert.Equal(t, int64(2), s.Misses)
	assert.Equal(t, int64(2), s.Hits)
	assert.Equal(t, 2, s.Entries)
}

func TestEngineDisableCache(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, &EngineOptions{Workers: 2, DisableCache: true})
	g := testgrid.Random(rand.New(rand.NewSource(14)), 9, 9, 0.5)
	for i := 0; i < 3; i++ {
		want := referenceNext(t, g)
		require.NoError(t, e.Step(context.Background(), g))
		require.True(t, want.Equal(g))
	}
	s := e.Stats().Cache
	assert.Equal(t, int64(3), s.Misses)
	assert.Zero(t, s.Entries)
}

func TestEngineCancelledStepLeavesGrid(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, nil)
	g := testgrid.Random(rand.New(rand.NewSource(15)), 30, 30, 0.5)
	before := g.Clone()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := e.Step(ctx, g)
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, before.Equal(g))

	ctx, cancel = context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	n, err := e.StepN(ctx, g, 5)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, n)
	assert.True(t, before.Equal(g))
	assert.Equal(t, int64(2), e.Stats().CancelledSteps)
}

func TestEngineAllocationFailure(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, &EngineOptions{Workers: 2, MaxBufferBytes: 256})
	small := testgrid.Random(rand.New(rand.NewSource(16)), 5, 5, 0.5)
	require.NoError(t, e.Step(context.Background(), small))

	g := testgrid.Random(rand.New(rand.NewSource(17)), 40, 40, 0.5)
	before := g.Clone()
	err := e.Step(context.Background(), g)
	require.Error(t, err)
	assert.Equal(t, core.KindAllocationFailure, core.KindOf(err))
	assert.True(t, before.Equal(g))
	assert.Equal(t, int64(1), e.Stats().FailedSteps)
}

func TestEngineInvalidShape(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, nil)
	tests := []core.Grid{
		core.MustGrid(2, 10),
		core.MustGrid(10, 2),
		{Data: make([]byte, 10), RowStride: 5, ColStride: 1, Height: 5, Width: 5},
	}
	for _, g := range tests {
		err := e.Step(context.Background(), g)
		assert.Equal(t, core.KindInvalidShape, core.KindOf(err), "%dx%d", g.Height, g.Width)
	}
}

func TestEngineStepInto(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, nil)
	src := testgrid.Random(rand.New(rand.NewSource(18)), 12, 17, 0.5)
	before := src.Clone()
	dst := core.MustGrid(12, 17)
	for i := range dst.Data {
		dst.Data[i] = 1
	}

	require.NoError(t, e.StepInto(context.Background(), src, dst))
	assert.True(t, before.Equal(src), "source modified")
	assert.True(t, referenceNext(t, src).Equal(dst))

	err := e.StepInto(context.Background(), src, core.MustGrid(12, 16))
	assert.Equal(t, core.KindInvalidShape, core.KindOf(err))
}

func TestEngineStepN(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, nil)
	g := testgrid.Parse(`
.....
.....
.###.
.....
.....`)
	start := g.Clone()
	n, err := e.StepN(context.Background(), g, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.True(t, start.Equal(g))
	assert.Equal(t, int64(4), e.Stats().TotalSteps)
}

func TestEngineConcurrentSteps(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, &EngineOptions{Workers: 4, EnableStats: true})

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for c := 0; c < callers; c++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 20; i++ {
				g := testgrid.Random(rng, 24, 24, 0.4)
				want := g.Clone()
				if err := kernels.ReferenceStep(want); err != nil {
					errs <- err
					return
				}
				if err := e.Step(context.Background(), g); err != nil {
					errs <- err
					return
				}
				if !want.Equal(g) {
					errs <- errors.New("concurrent step diverged from reference")
					return
				}
			}
		}(int64(c))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	s := e.Stats()
	assert.Equal(t, int64(callers*20), s.TotalSteps)
	assert.Positive(t, s.AverageLatency)
	assert.LessOrEqual(t, s.Cache.Entries, 1)
}

func TestEngineClose(t *testing.T) {
	t.Parallel()
	e, err := NewEngine(nil)
	require.NoError(t, err)
	assert.Equal(t, 4, e.Workers())
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.ErrorIs(t, e.Step(context.Background(), core.MustGrid(4, 4)), ErrEngineClosed)
}

func TestNewEngineOptions(t *testing.T) {
	t.Parallel()
	_, err := NewEngine(&EngineOptions{Workers: -1})
	assert.Error(t, err)
	_, err = NewEngine(&EngineOptions{CacheSlots: -2})
	assert.Error(t, err)
	_, err = NewEngine(&EngineOptions{MaxBufferBytes: -1})
	assert.Error(t, err)
	_, err = NewEngine(&EngineOptions{Kernel: kernels.Mode(42)})
	assert.Error(t, err)

	e := newTestEngine(t, &EngineOptions{Kernel: kernels.ModeScalar})
	assert.Equal(t, 4, e.Workers())
	assert.Equal(t, kernels.ModeScalar, e.Kernel())
	assert.Equal(t, "scalar", e.Stats().Kernel)
}

func TestStridedBands(t *testing.T) {
	t.Parallel()
	for _, n := range []int{1, 2, 3, 4, 8, 13} {
		for _, span := range [][2]int{{0, 10}, {1, 9}, {1, 2}, {0, 3}} {
			seen := make(map[int]int)
			bands := StridedBands(n, span[0], span[1])
			require.Len(t, bands, n)
			for _, b := range bands {
				for r := b.Start; r < b.End; r += b.Step {
					seen[r]++
				}
			}
			for r := span[0]; r < span[1]; r++ {
				assert.Equal(t, 1, seen[r], "n=%d row %d", n, r)
			}
			assert.Len(t, seen, span[1]-span[0])
		}
	}
}
