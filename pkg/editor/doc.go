// Package editor coordinates a schema document, a baseline/working snapshot
// pair and a session into an editable tree.
//
// An Editor owns the working snapshot. Build regenerates the tree; Add, Remove
// and Duplicate replace the working snapshot and apply their session delta.
// Mutations are transactions: after one succeeds the editor refuses the next
// with ErrRegenerationRequired until Build or Rebuild has run.
package editor
