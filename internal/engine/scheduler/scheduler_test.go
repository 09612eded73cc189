package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.vellum.sh/vellum/internal/core/domain"
	"go.vellum.sh/vellum/internal/core/ports"
	"go.vellum.sh/vellum/internal/core/ports/mocks"
	"go.vellum.sh/vellum/internal/engine/graph"
	"go.vellum.sh/vellum/internal/engine/memo"
	"go.vellum.sh/vellum/internal/engine/scheduler"
)

const kindTest = domain.RecipeKind("test.digest")

type tableProvider map[domain.RecipeKind]ports.Recipe

func (p tableProvider) Recipes() map[domain.RecipeKind]ports.Recipe { return p }

func noopTracer(t *testing.T) ports.Tracer {
	t.Helper()
	ctrl := gomock.NewController(t)

	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().End().AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()

	tracer := mocks.NewMockTracer(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, span
		},
	).AnyTimes()
	return tracer
}

// buildGraph registers files and wires import edges from a simple map of
// path -> dependency paths.
func buildGraph(t *testing.T, deps map[string][]string) (*graph.Graph, map[string]domain.FileID) {
	t.Helper()
	g := graph.New()
	ids := make(map[string]domain.FileID)

	register := func(path string) domain.FileID {
		if id, ok := ids[path]; ok {
			return id
		}
		id, err := g.Register(path, []byte(path))
		require.NoError(t, err)
		ids[path] = id
		return id
	}

	for path, myDeps := range deps {
		from := register(path)
		for _, dep := range myDeps {
			to := register(dep)
			require.NoError(t, g.AddEdge(from, to, domain.EdgeImport))
		}
	}
	return g, ids
}

// specsFor builds one recompute spec per path, with inputs covering the
// target's transitive dependencies.
func specsFor(t *testing.T, g *graph.Graph, ids map[string]domain.FileID, paths ...string) []memo.RecomputeSpec {
	t.Helper()
	specs := make([]memo.RecomputeSpec, 0, len(paths))
	for _, path := range paths {
		id := ids[path]
		deps, err := g.TransitiveDeps(id)
		require.NoError(t, err)
		specs = append(specs, memo.RecomputeSpec{
			Key:    domain.CacheKey{Kind: kindTest, Target: id},
			Inputs: append([]domain.FileID{id}, deps...),
		})
	}
	return specs
}

func TestScheduler_EmptyBatch(t *testing.T) {
	g := graph.New()
	e, err := memo.NewEngine(g, memo.NewRegistry(tableProvider{}), noopTracer(t), domain.CacheConfig{})
	require.NoError(t, err)

	s := scheduler.New(e, g, noopTracer(t), 4)
	require.NoError(t, s.Run(context.Background(), nil))
}

func TestScheduler_DependencyOrder(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g, ids := buildGraph(t, map[string][]string{
			"/ws/main.vell":    {"/ws/chapter.vell"},
			"/ws/chapter.vell": {"/ws/shared.vell"},
		})

		var mu sync.Mutex
		var order []string
		recipe := func(_ context.Context, in ports.RecipeInput) (domain.Artifact, error) {
			mu.Lock()
			order = append(order, in.Target.Path.String())
			mu.Unlock()
			return domain.Artifact{Kind: kindTest}, nil
		}

		e, err := memo.NewEngine(g, memo.NewRegistry(tableProvider{kindTest: recipe}),
			noopTracer(t), domain.CacheConfig{})
		require.NoError(t, err)
		s := scheduler.New(e, g, noopTracer(t), 4)

		specs := specsFor(t, g, ids, "/ws/main.vell", "/ws/chapter.vell", "/ws/shared.vell")
		require.NoError(t, s.Run(context.Background(), specs))

		require.Equal(t, []string{"/ws/shared.vell", "/ws/chapter.vell", "/ws/main.vell"}, order)
		for _, path := range []string{"/ws/main.vell", "/ws/chapter.vell", "/ws/shared.vell"} {
			st, ok := s.Status(domain.CacheKey{Kind: kindTest, Target: ids[path]})
			require.True(t, ok)
			assert.Equal(t, domain.TaskDone, st)
		}
	})
}

func TestScheduler_DiamondDependency(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g, ids := buildGraph(t, map[string][]string{
			"/ws/book.vell":  {"/ws/intro.vell", "/ws/outro.vell"},
			"/ws/intro.vell": {"/ws/style.vell"},
			"/ws/outro.vell": {"/ws/style.vell"},
		})

		var mu sync.Mutex
		position := make(map[string]int)
		recipe := func(_ context.Context, in ports.RecipeInput) (domain.Artifact, error) {
			mu.Lock()
			position[in.Target.Path.String()] = len(position)
			mu.Unlock()
			return domain.Artifact{Kind: kindTest}, nil
		}

		e, err := memo.NewEngine(g, memo.NewRegistry(tableProvider{kindTest: recipe}),
			noopTracer(t), domain.CacheConfig{})
		require.NoError(t, err)
		s := scheduler.New(e, g, noopTracer(t), 4)

		specs := specsFor(t, g, ids,
			"/ws/book.vell", "/ws/intro.vell", "/ws/outro.vell", "/ws/style.vell")
		require.NoError(t, s.Run(context.Background(), specs))

		require.Len(t, position, 4)
		assert.Less(t, position["/ws/style.vell"], position["/ws/intro.vell"])
		assert.Less(t, position["/ws/style.vell"], position["/ws/outro.vell"])
		assert.Greater(t, position["/ws/book.vell"], position["/ws/intro.vell"])
		assert.Greater(t, position["/ws/book.vell"], position["/ws/outro.vell"])
	})
}

func TestScheduler_RecipeFailuresJoined(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g, ids := buildGraph(t, map[string][]string{
			"/ws/main.vell": {"/ws/broken.vell"},
		})

		recipe := func(_ context.Context, in ports.RecipeInput) (domain.Artifact, error) {
			if in.Target.Path.String() == "/ws/broken.vell" {
				return domain.Artifact{}, errors.New("malformed source")
			}
			return domain.Artifact{Kind: kindTest}, nil
		}

		e, err := memo.NewEngine(g, memo.NewRegistry(tableProvider{kindTest: recipe}),
			noopTracer(t), domain.CacheConfig{})
		require.NoError(t, err)
		s := scheduler.New(e, g, noopTracer(t), 2)

		specs := specsFor(t, g, ids, "/ws/main.vell", "/ws/broken.vell")
		err = s.Run(context.Background(), specs)
		require.ErrorIs(t, err, domain.ErrRecipeFailed)

		// A failed producer still unblocks its dependents.
		st, ok := s.Status(domain.CacheKey{Kind: kindTest, Target: ids["/ws/main.vell"]})
		require.True(t, ok)
		assert.Equal(t, domain.TaskDone, st)
	})
}

func TestScheduler_CancelledTaskIsNotAnError(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g, ids := buildGraph(t, map[string][]string{
			"/ws/main.vell": nil,
		})

		recipe := func(_ context.Context, _ ports.RecipeInput) (domain.Artifact, error) {
			return domain.Artifact{}, context.Canceled
		}

		e, err := memo.NewEngine(g, memo.NewRegistry(tableProvider{kindTest: recipe}),
			noopTracer(t), domain.CacheConfig{})
		require.NoError(t, err)
		s := scheduler.New(e, g, noopTracer(t), 1)

		specs := specsFor(t, g, ids, "/ws/main.vell")
		require.NoError(t, s.Run(context.Background(), specs))

		st, ok := s.Status(domain.CacheKey{Kind: kindTest, Target: ids["/ws/main.vell"]})
		require.True(t, ok)
		assert.Equal(t, domain.TaskCancelled, st)
	})
}

func TestScheduler_SupersededTaskIsNotAnError(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g, ids := buildGraph(t, map[string][]string{
			"/ws/main.vell": nil,
		})

		// The input moves on while the recipe runs: the result is superseded
		// and the batch still settles cleanly.
		recipe := func(_ context.Context, _ ports.RecipeInput) (domain.Artifact, error) {
			_, err := g.Update("/ws/main.vell", []byte("newer"))
			require.NoError(t, err)
			return domain.Artifact{Kind: kindTest}, nil
		}

		e, err := memo.NewEngine(g, memo.NewRegistry(tableProvider{kindTest: recipe}),
			noopTracer(t), domain.CacheConfig{})
		require.NoError(t, err)
		s := scheduler.New(e, g, noopTracer(t), 1)

		specs := specsFor(t, g, ids, "/ws/main.vell")
		require.NoError(t, s.Run(context.Background(), specs))

		st, ok := s.Status(domain.CacheKey{Kind: kindTest, Target: ids["/ws/main.vell"]})
		require.True(t, ok)
		assert.Equal(t, domain.TaskCancelled, st)
	})
}

func TestScheduler_ContextCancellation(t *testing.T) {
	g, ids := buildGraph(t, map[string][]string{
		"/ws/main.vell": nil,
	})

	recipe := func(_ context.Context, _ ports.RecipeInput) (domain.Artifact, error) {
		return domain.Artifact{Kind: kindTest}, nil
	}
	e, err := memo.NewEngine(g, memo.NewRegistry(tableProvider{kindTest: recipe}),
		noopTracer(t), domain.CacheConfig{})
	require.NoError(t, err)
	s := scheduler.New(e, g, noopTracer(t), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = s.Run(ctx, specsFor(t, g, ids, "/ws/main.vell"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestScheduler_StatusUnknownKey(t *testing.T) {
	g := graph.New()
	e, err := memo.NewEngine(g, memo.NewRegistry(tableProvider{}), noopTracer(t), domain.CacheConfig{})
	require.NoError(t, err)
	s := scheduler.New(e, g, noopTracer(t), 1)

	_, ok := s.Status(domain.CacheKey{Kind: kindTest, Target: 99})
	assert.False(t, ok)
}
