// Package graph assembles pipeline steps into a directed acyclic graph.
//
// A pipeline is described once, at definition time, by adding steps to a
// Builder. Each step instantiates a Component and binds its declared inputs
// to literals, pipeline parameters or outputs of steps that were already
// added. Conditions and ordering dependencies follow the same rule, so a
// reference to a step added later is a binding error and cycles cannot form.
//
// Binding mistakes are collected while steps are added and reported by
// Build, so a malformed pipeline never reaches the compiler:
//
//   - Binding: unknown input, missing required input, undeclared output,
//     forward references, references to steps or parameters owned by
//     another builder
//   - Structural: invalid pipeline names, empty, invalid or duplicate step
//     IDs, duplicate parameters
//
// All errors can be checked with errors.Is against ErrBinding and
// ErrStructural, or unpacked with errors.As.
package graph
