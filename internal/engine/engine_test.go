package engine

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/modelmirror/internal/container"
	"github.com/vk/modelmirror/internal/document"
	"github.com/vk/modelmirror/internal/registry"
	"github.com/vk/modelmirror/internal/singleton"
)

type store struct {
	Path string `mirror:"path"`
}

type worker struct {
	Store *store `mirror:"store"`
	ID    int    `mirror:"id"`
}

func testClasses(t *testing.T) *registry.Registry {
	t.Helper()
	classes := registry.New()
	require.NoError(t, classes.Register(registry.ClassReference{Schema: "store", Version: "v1", Type: reflect.TypeOf(store{})}))
	require.NoError(t, classes.Register(registry.ClassReference{Schema: "worker", Version: "v1", Type: reflect.TypeOf(worker{})}))
	return classes
}

func TestEngine_ReflectJSONDocument(t *testing.T) {
	doc, err := document.DecodeJSON(strings.NewReader(`{
		"store":   {"$mirror": "store:main", "path": "/data"},
		"workers": [
			{"$mirror": "worker", "id": 1, "store": "$main"},
			{"$mirror": "worker", "id": 2, "store": "$main"}
		]
	}`))
	require.NoError(t, err)

	e := New(testClasses(t))
	c, err := e.Reflect(context.Background(), doc)
	require.NoError(t, err)

	main, err := container.ByName[*store](c, "main")
	require.NoError(t, err)
	require.Equal(t, "/data", main.Path)

	workers := container.List[*worker](c)
	require.Len(t, workers, 2)
	require.Same(t, main, workers[0].Store)
	require.Same(t, main, workers[1].Store)
	require.Equal(t, 1, workers[0].ID)
}

func TestEngine_NamespaceIsolation(t *testing.T) {
	classes := testClasses(t)
	singletons := singleton.NewRegistry()
	doc := map[string]any{"$mirror": "store:main", "path": "/data"}

	one := New(classes, WithSingletons(singletons), WithNamespace("one"))
	two := New(classes, WithSingletons(singletons), WithNamespace("two"))

	c1, err := one.Reflect(context.Background(), doc)
	require.NoError(t, err)
	c2, err := two.Reflect(context.Background(), doc)
	require.NoError(t, err)

	require.NotSame(t, c1.Root(), c2.Root(), "namespaces do not share singletons")
}

func TestEngine_SharedNamespaceSharesSingletons(t *testing.T) {
	classes := testClasses(t)
	singletons := singleton.NewRegistry()
	doc := map[string]any{"$mirror": "store:main", "path": "/data"}

	a := New(classes, WithSingletons(singletons), WithNamespace("shared"))
	b := New(classes, WithSingletons(singletons), WithNamespace("shared"))

	ca, err := a.Reflect(context.Background(), doc)
	require.NoError(t, err)
	cb, err := b.Reflect(context.Background(), doc)
	require.NoError(t, err)

	require.Same(t, ca.Root(), cb.Root())
}

func TestEngine_ConcurrentPasses(t *testing.T) {
	e := New(testClasses(t))
	doc := map[string]any{"$mirror": "store:main", "path": "/data"}

	const passes = 32
	roots := make([]any, passes)
	var wg sync.WaitGroup
	wg.Add(passes)
	for i := 0; i < passes; i++ {
		go func(i int) {
			defer wg.Done()
			c, err := e.Reflect(context.Background(), doc)
			if err != nil {
				t.Error(err)
				return
			}
			roots[i] = c.Root()
		}(i)
	}
	wg.Wait()

	for i := 1; i < passes; i++ {
		require.Same(t, roots[0], roots[i], "pass %d constructed a second instance", i)
	}
}

func TestEngine_CustomMarker(t *testing.T) {
	e := New(testClasses(t), WithMarker("$make"))

	c, err := e.Reflect(context.Background(), map[string]any{"$make": "store:main", "path": "/p"})
	require.NoError(t, err)
	require.Equal(t, "/p", c.Root().(*store).Path)

	// The default marker is an ordinary key now, so this is a plain map with
	// an unknown-singleton reference nowhere; it resolves as data.
	c, err = e.Reflect(context.Background(), map[string]any{"$mirror": "store:main"})
	require.NoError(t, err)
	require.IsType(t, map[string]any{}, c.Root())
}

func TestEngine_ReflectInto(t *testing.T) {
	e := New(testClasses(t))

	type shape struct {
		Store   *store    `mirror:"store"`
		Workers []*worker `mirror:"workers"`
		Label   string    `mirror:"label"`
	}

	var s shape
	_, err := e.ReflectInto(context.Background(), map[string]any{
		"store": map[string]any{"$mirror": "store:main", "path": "/data"},
		"workers": []any{
			map[string]any{"$mirror": "worker", "id": 1, "store": "$main"},
		},
		"label": "prod",
	}, &s)
	require.NoError(t, err)

	require.Equal(t, "/data", s.Store.Path)
	require.Len(t, s.Workers, 1)
	require.Same(t, s.Store, s.Workers[0].Store)
	require.Equal(t, "prod", s.Label)
}

func TestEngine_ReflectIntoNeedsMapRoot(t *testing.T) {
	e := New(testClasses(t))

	var s struct{}
	_, err := e.ReflectInto(context.Background(), []any{"a"}, &s)
	require.ErrorContains(t, err, "map root")
}

func TestEngine_ResetDropsNamespace(t *testing.T) {
	e := New(testClasses(t))
	doc := map[string]any{"$mirror": "store:main", "path": "/data"}

	c1, err := e.Reflect(context.Background(), doc)
	require.NoError(t, err)

	e.Reset()

	c2, err := e.Reflect(context.Background(), doc)
	require.NoError(t, err)
	require.NotSame(t, c1.Root(), c2.Root(), "a reset namespace starts empty")
}
