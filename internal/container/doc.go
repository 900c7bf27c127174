// Package container is the typed query surface over a finished instance
// graph: one instance of a type, an instance by name, or every instance of a
// type as a list or name-keyed map.
//
// Queries carry an explicit request kind rather than inspecting a declared
// shape at runtime, and all of them are read-only views; nothing here ever
// triggers construction. The generic helpers (One, ByName, List, Map) wrap
// the reflect.Type methods for callers with a static type in hand.
package container
