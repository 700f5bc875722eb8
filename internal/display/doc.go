// Package display converts buffer coordinates into display
// coordinates and back.
//
// The conversion is a composition of two layers. The fold layer hides
// a set of disjoint anchored ranges: a hidden range contributes its
// placeholder width regardless of its buffer length, and newlines
// inside it collapse rows together. The tab layer expands tab
// characters to aligned column stops on top of the post-fold rows.
//
//	DisplayPoint = Tab(Fold(Point))
//
// All conversions are cheap, non-reflowing scans bound to one
// snapshot; the Map rebinds via SetSnapshot when the buffer changes.
// A single row's scan is capped so pathologically long lines cannot
// stall a repaint; capped rows render with a trailing ellipsis.
package display
