// Package registry is the class registry: a static mapping from a
// (schema, version) identifier to a constructible Go type.
//
// Participating packages register their types once at startup through the
// Module interface; during resolution the registry is read-only. Lookup by
// schema alone is allowed when exactly one version is registered.
package registry
