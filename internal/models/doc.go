// Package models defines the immutable value types for playlist version control.
//
// A [Track] is identified solely by its provider-scoped ID; upstream title or
// artist edits do not invalidate references. A [Snapshot] is an ordered track
// sequence representing playlist state at one instant. A [Commit] is a
// hash-identified node in the linear journal chain, and a [StagedChange] is a
// single pending operation in the staging area, keyed by track ID.
package models
