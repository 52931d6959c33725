// Package state owns per-entity component state.
//
// Ownership boundary:
// - lazy entity records keyed by (scope, address)
// - command folding, including dependency-map effects
// - momentary-toggle debounce
// - per-entity change notification
//
// Records are mutated only through Store.OnCommand; readers take
// snapshots. Each entity carries its own lock so unrelated engines and
// switches never contend.
package state
