// Package engine wires the class registry, singleton registry, parsers, and
// constructor into the reflection entry point: Reflect runs one resolution
// pass over a document and returns the typed query container, ReflectInto
// additionally binds the resolved root into a caller-declared shape.
package engine
