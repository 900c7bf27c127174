package container

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/modelmirror/internal/registry"
	"github.com/vk/modelmirror/internal/resolver"
	"github.com/vk/modelmirror/internal/singleton"
)

type cache struct {
	Size int `mirror:"size"`
}

type queue struct {
	Topic string `mirror:"topic"`
}

type closer interface {
	Close() error
}

func (c *cache) Close() error { return nil }

func buildContainer(t *testing.T, doc any) *Container {
	t.Helper()

	classes := registry.New()
	require.NoError(t, classes.Register(registry.ClassReference{Schema: "cache", Version: "v1", Type: reflect.TypeOf(cache{})}))
	require.NoError(t, classes.Register(registry.ClassReference{Schema: "queue", Version: "v1", Type: reflect.TypeOf(queue{})}))

	r := resolver.New(classes, singleton.NewRegistry())
	g, err := r.Resolve(context.Background(), "ns", doc)
	require.NoError(t, err)
	return New(g)
}

func TestContainer_GetOne(t *testing.T) {
	c := buildContainer(t, map[string]any{
		"cache": map[string]any{"$mirror": "cache:main", "size": 128},
		"queue": map[string]any{"$mirror": "queue:events", "topic": "t"},
	})

	v, err := c.GetOne(reflect.TypeOf(&cache{}))
	require.NoError(t, err)
	require.Equal(t, 128, v.(*cache).Size)

	_, err = c.GetOne(reflect.TypeOf(&struct{ unused int }{}))
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestContainer_GetOneAmbiguous(t *testing.T) {
	c := buildContainer(t, []any{
		map[string]any{"$mirror": "cache:a", "size": 1},
		map[string]any{"$mirror": "cache:b", "size": 2},
	})

	_, err := c.GetOne(reflect.TypeOf(&cache{}))
	require.ErrorIs(t, err, ErrAmbiguousType)
	require.ErrorContains(t, err, "a")
	require.ErrorContains(t, err, "b")
}

func TestContainer_GetByName(t *testing.T) {
	c := buildContainer(t, map[string]any{
		"$mirror": "cache:main", "size": 64,
	})

	v, err := c.GetByName(reflect.TypeOf(&cache{}), "main")
	require.NoError(t, err)
	require.Equal(t, 64, v.(*cache).Size)

	// The "$name" reference form works too.
	ref, err := c.GetByName(nil, "$main")
	require.NoError(t, err)
	require.Same(t, v, ref)

	_, err = c.GetByName(nil, "absent")
	require.ErrorIs(t, err, ErrNameNotFound)

	_, err = c.GetByName(reflect.TypeOf(&queue{}), "main")
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestContainer_GetListOrderAndMap(t *testing.T) {
	c := buildContainer(t, []any{
		map[string]any{"$mirror": "cache:a", "size": 1},
		map[string]any{"$mirror": "queue:q", "topic": "t"},
		map[string]any{"$mirror": "cache:b", "size": 2},
	})

	list := c.GetList(reflect.TypeOf(&cache{}))
	require.Len(t, list, 2)
	require.Equal(t, 1, list[0].(*cache).Size, "first-resolved order")
	require.Equal(t, 2, list[1].(*cache).Size)

	m := c.GetMap(reflect.TypeOf(&cache{}))
	require.Len(t, m, 2)
	require.Same(t, list[0], m["a"])
	require.Same(t, list[1], m["b"])

	require.Empty(t, c.GetList(reflect.TypeOf("")), "no matches yields an empty list, not an error")
}

func TestContainer_InterfaceQueries(t *testing.T) {
	c := buildContainer(t, []any{
		map[string]any{"$mirror": "cache:a", "size": 1},
		map[string]any{"$mirror": "queue:q", "topic": "t"},
	})

	// *cache satisfies closer, *queue does not.
	v, err := c.GetOne(typeOf[closer]())
	require.NoError(t, err)
	require.IsType(t, &cache{}, v)
}

func TestContainer_Generics(t *testing.T) {
	c := buildContainer(t, []any{
		map[string]any{"$mirror": "cache:a", "size": 1},
		map[string]any{"$mirror": "cache:b", "size": 2},
		map[string]any{"$mirror": "queue:q", "topic": "t"},
	})

	q, err := One[*queue](c)
	require.NoError(t, err)
	require.Equal(t, "t", q.Topic)

	a, err := ByName[*cache](c, "$a")
	require.NoError(t, err)
	require.Equal(t, 1, a.Size)

	caches := List[*cache](c)
	require.Len(t, caches, 2)
	require.Same(t, a, caches[0])

	byID := Map[closer](c)
	require.Len(t, byID, 2)
	require.Same(t, a, byID["a"])

	_, err = One[*cache](c)
	require.ErrorIs(t, err, ErrAmbiguousType)
}

func TestContainer_TypeReferencesAreNotInstances(t *testing.T) {
	// "$cache$" resolves to the type itself; no instance enters the graph.
	c := buildContainer(t, map[string]any{"t": "$cache$"})

	_, err := c.GetOne(reflect.TypeOf(&cache{}))
	require.ErrorIs(t, err, ErrUnknownType)
	require.Empty(t, c.GetList(reflect.TypeOf(&cache{})))
}

func TestContainer_QueryKinds(t *testing.T) {
	c := buildContainer(t, map[string]any{"$mirror": "cache:main", "size": 8})

	v, err := c.Query(RequestSingle, reflect.TypeOf(&cache{}), "")
	require.NoError(t, err)
	require.IsType(t, &cache{}, v)

	v, err = c.Query(RequestList, reflect.TypeOf(&cache{}), "")
	require.NoError(t, err)
	require.Len(t, v.([]any), 1)

	v, err = c.Query(RequestMap, reflect.TypeOf(&cache{}), "")
	require.NoError(t, err)
	require.Contains(t, v.(map[string]any), "main")
}
