package container

import "reflect"

// typeOf resolves the reflect.Type of T, including interface types.
func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// One returns the single instance of type T.
//
//	svc, err := container.One[*database.Service](c)
func One[T any](c *Container) (T, error) {
	var zero T
	v, err := c.Query(RequestSingle, typeOf[T](), "")
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// ByName returns the instance named name, typed as T. The "$name" reference
// form is accepted.
func ByName[T any](c *Container, name string) (T, error) {
	var zero T
	v, err := c.Query(RequestSingle, typeOf[T](), name)
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// List returns every instance of type T in first-resolved order.
func List[T any](c *Container) []T {
	items := c.GetList(typeOf[T]())
	out := make([]T, len(items))
	for i, v := range items {
		out[i] = v.(T)
	}
	return out
}

// Map returns every instance of type T keyed by identity.
func Map[T any](c *Container) map[string]T {
	items := c.GetMap(typeOf[T]())
	out := make(map[string]T, len(items))
	for k, v := range items {
		out[k] = v.(T)
	}
	return out
}
