// Package ir defines the typed intermediate representation of a dice
// expression.
//
// Every node is either a Number or a List. Dice pools and success pools are
// Numbers that additionally carry per-die details at evaluation time. The
// tree is owned linearly: lowering builds it, the optimizer rewrites it in
// place through a Rewriter, and the compiler flattens it into a graph.
//
// The package also provides the canonical JSON encoding used for
// fingerprints and stored results. ir imports nothing internal.
package ir
