// Package datapath addresses elements inside data snapshots. A snapshot is the
// nested map[string]any / []any structure produced by decoding JSON or YAML.
//
// Two coordinates exist for every element. The logical path is stable across
// edits: array segments carry the item's logical index. The storage path is the
// physical address inside one specific snapshot. Array items of objects embed
// their logical index under MarkerKey so Resolve can translate a logical path
// into the current storage path after siblings were removed.
package datapath
