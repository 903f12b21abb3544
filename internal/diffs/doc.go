// Package diffs computes minimal edit scripts between ordered track sequences.
//
// A [Script] transforms a base sequence into a target sequence through three
// phases applied in order: removals, then additions, then moves. Each phase is
// keyed to indices valid after the prior phase, so index-based operations
// always act on a stable intermediate state. [Apply] replays a script and
// [Compute] guarantees the round-trip Apply(a, Compute(a, b)) == b for all
// input pairs, including sequences with duplicate track IDs.
package diffs
