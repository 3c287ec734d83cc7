// Package filters defines the coordinate filters applied to summary
// statistics before inference.
//
// Two filter kinds exist:
//
//   - Select — keep only an explicit set of coordinate values
//     (e.g. multipole orders {0, 2}).
//   - Slice  — keep a contiguous numeric range along a named coordinate
//     (e.g. separation bins with s in [0.7, 150.0]).
//
// The same filters must be applied when loading an observation and when
// a theory model produces a prediction, so that the two vectors always
// share dimensions. Filters are plain value maps; cloning them is cheap
// and every consumer in this module copies rather than mutates.
//
// Errors (sentinel):
//
//	– ErrInvalidRange if a slice range has Min > Max or a non-finite bound.
//	– ErrEmptySelect  if a select filter lists no values for a coordinate.
package filters
