// Package app wires the reflection engine into a runnable application: an
// isolated logger, a class registry populated from the compiled-in modules,
// and a Run method that loads a document, resolves it, and reports the
// resulting instance graph.
package app
