// Package singleton is the process-scoped singleton registry: a namespace
// keyed store of instance records that supports pre-allocating a record
// before its value exists. Dependents that resolve a name too early hold the
// record itself as a handle; the record runs their backfill callbacks once
// the value is completed. This indirection is what lets named singletons
// reference each other in a cycle without re-entering construction.
package singleton
