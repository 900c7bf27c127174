package registry

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type widget struct{ Name string }

type gadget struct{ ID int }

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := New()

	err := r.Register(ClassReference{Schema: "widget", Version: "v1", Type: reflect.TypeOf(widget{})})
	require.NoError(t, err)

	ref, err := r.Lookup("widget", "v1")
	require.NoError(t, err)
	require.Equal(t, "widget", ref.Schema)
	require.Equal(t, reflect.TypeOf(widget{}), ref.Type)
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	r := New()
	ref := ClassReference{Schema: "widget", Version: "v1", Type: reflect.TypeOf(widget{})}

	require.NoError(t, r.Register(ref))
	err := r.Register(ref)
	require.ErrorIs(t, err, ErrDuplicateRegistration)
}

func TestRegistry_SameSchemaDifferentVersions(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(ClassReference{Schema: "widget", Version: "v1", Type: reflect.TypeOf(widget{})}))
	require.NoError(t, r.Register(ClassReference{Schema: "widget", Version: "v2", Type: reflect.TypeOf(gadget{})}))

	ref, err := r.Lookup("widget", "v2")
	require.NoError(t, err)
	require.Equal(t, reflect.TypeOf(gadget{}), ref.Type)
}

func TestRegistry_VersionlessLookup(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(ClassReference{Schema: "widget", Version: "v1", Type: reflect.TypeOf(widget{})}))

	// One version registered: the version may be omitted.
	ref, err := r.Lookup("widget", "")
	require.NoError(t, err)
	require.Equal(t, "v1", ref.Version)

	// Two versions registered: omitting it becomes ambiguous.
	require.NoError(t, r.Register(ClassReference{Schema: "widget", Version: "v2", Type: reflect.TypeOf(widget{})}))
	_, err = r.Lookup("widget", "")
	require.ErrorIs(t, err, ErrAmbiguousSchema)
}

func TestRegistry_UnknownSchema(t *testing.T) {
	r := New()

	_, err := r.Lookup("missing", "")
	require.ErrorIs(t, err, ErrUnknownSchema)
	require.ErrorContains(t, err, "missing")

	require.NoError(t, r.Register(ClassReference{Schema: "widget", Version: "v1", Type: reflect.TypeOf(widget{})}))
	_, err = r.Lookup("widget", "v9")
	require.ErrorIs(t, err, ErrUnknownSchema)
}

func TestRegistry_RejectsIncompleteReferences(t *testing.T) {
	r := New()

	require.Error(t, r.Register(ClassReference{Version: "v1", Type: reflect.TypeOf(widget{})}))
	require.Error(t, r.Register(ClassReference{Schema: "widget", Type: reflect.TypeOf(widget{})}))
	require.Error(t, r.Register(ClassReference{Schema: "widget", Version: "v1"}))
}

type testModule struct{ schema string }

func (m *testModule) Register(r *Registry) error {
	return r.Register(ClassReference{Schema: m.schema, Version: "v1", Type: reflect.TypeOf(widget{})})
}

func TestRegistry_Install(t *testing.T) {
	r := New()

	err := r.Install(context.Background(), &testModule{schema: "a"}, &testModule{schema: "b"})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, r.Schemas())

	// A module failing to register surfaces the error.
	err = r.Install(context.Background(), &testModule{schema: "a"})
	require.ErrorIs(t, err, ErrDuplicateRegistration)
}
