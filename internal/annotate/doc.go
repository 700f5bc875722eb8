// Package annotate caches positioned annotations (inlay hints,
// diagnostics, inline values) fetched asynchronously from a provider.
//
// The cache tracks queried coverage per excerpt in a ledger of
// anchored ranges, so scrolling only queries the gaps that were never
// fetched. Edits move cached annotations through their anchors;
// invalidation strategies decide when coverage is dropped and
// re-queried. A version counter rejects results that a later
// invalidating refresh made stale while they were in flight.
package annotate
