// Package notation defines the data model for rune documents: the block
// tree produced by the structural parser, type expressions, source spans,
// and the diagnostics emitted by every stage of the pipeline.
package notation
