// Package refparse turns raw document nodes into reference descriptors.
//
// Two collaborator interfaces live here. NodeParser decides whether a map
// node is an instance request (by the presence of a marker key, default
// "$mirror") and splits it into schema id, optional instance name, and
// constructor parameters. ValueParser classifies bare string scalars:
// "$name" is a singleton reference, "$schema$" is a type reference, anything
// else is a literal. Both are injectable so alternative document grammars can
// plug into the same resolver.
package refparse
