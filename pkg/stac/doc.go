// Package stac holds the domain model of the catalog: Collections, Items,
// Assets and the Providers and Links they own.
//
// Field names follow the internal naming used by the store and the render
// package (for example EOGSD for "eo:gsd"); the mapping to the external STAC
// keys lives in package render. The package also carries the pure
// recomputation rules the store applies when child resources change:
//
//	extent := stac.ComputeExtent(items)
//	summaries := stac.ComputeSummaries(assets)
package stac
