// Package terrain extracts terrain credibility features for a point-to-point
// radio link.
//
// A path between two gateways is sampled from an elevation raster
// (ExtractWindow, SampleProfile), detrended with a least-squares line (Level),
// summarised with seven amplitude descriptors (ComputeRoughness) and scanned
// for line-of-sight obstructions (DetectBarriers). ComputePath chains the
// stages and turns numerically degenerate paths, typically two gateways
// closer than a couple of raster pixels, into an all-absent FeatureSet.
//
// Every function is synchronous and free of shared mutable state; the only
// shared resource is the read-only raster.
package terrain
