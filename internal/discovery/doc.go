// Package discovery implements the asset discovery engine: a generic
// four-phase pipeline (collect, filter, validate and enhance, finalize) that
// turns raw findings from external sources into typed, confidence-scored
// assets.
//
// The engine is asset-type agnostic. Concrete sessions (autonomous systems,
// domains) live in subpackages and compose the pipeline from the Source and
// Filter implementations they need. Cross-session aggregation happens through
// ScanState, which later sessions read for enrichment.
package discovery
