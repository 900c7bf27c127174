// Package construct is the construction collaborator: given a class
// reference and a resolved parameter map, it allocates an instance and binds
// the parameters into its fields.
//
// The default Binder decodes parameters into exported struct fields guided by
// `mirror:"name"` tags, recursively for nested structs, slices and maps.
// Construction side effects (the optional Init hook) always run; validation
// only checks parameter shape.
package construct
