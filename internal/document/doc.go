// Package document loads configuration documents into the native node tree
// the resolver walks: map[string]any, []any, and scalars.
//
// Two formats are supported. JSON documents map directly. HCL documents are
// a set of top-level attributes whose expressions are evaluated to cty values
// and converted to their native Go counterparts; object constructor keys may
// be quoted strings, which is how an HCL document spells the "$mirror"
// marker.
package document
