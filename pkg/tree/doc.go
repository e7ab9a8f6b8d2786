// Package tree turns a schema document and a pair of data snapshots into an
// addressable node tree.
//
// A build pass reads three inputs: the last persisted baseline, the working
// copy being edited, and the caller's session. It classifies every schema
// property once (see schema.Kind), reconciles array items by their logical
// index, windows oversized containers into pages and tags each node with its
// diff status. The pass is pure: it never writes to the snapshots or the
// session, so two builds over the same inputs produce identical trees.
package tree
