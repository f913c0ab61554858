// Package state keeps a caller-side mirror of a KUMO router.
//
// The engine in package kumo only publishes deltas. A Mirror is hydrated
// once from full reads (GetMatrix, Labels, Colors, Locks) and then kept
// current by applying every notification the poll loop publishes. The bridge
// serves its Snapshot as JSON and the dashboard renders it.
package state
