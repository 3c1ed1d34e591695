// Package defect finds regions of an image whose brightness departs from the
// image's overall tone.
//
// A detection run is a fixed pipeline over in-memory buffers:
//
//  1. Preprocess: reduce the pixel buffer to luma (0.299*R + 0.587*G + 0.114*B)
//     and compute the global mean.
//  2. Threshold: flag pixels whose luma differs from the mean by at least
//     MinContrastPercent of 255, in either direction.
//  3. Label: two-pass connected-component labeling backed by a disjoint set.
//  4. Aggregate: per-component pixel count, bounding box, centroid sums and
//     border pixels.
//  5. Select: drop components smaller than MinSpotSizePx and estimate the
//     centroid and a display radius for the rest.
//  6. Sample: cap each component's border list by uniform stride.
//
// # Coordinate System
//
// Coordinates are 0-based with the origin at the top-left pixel. Bounding
// boxes are inclusive on both ends.
//
// # Connectivity
//
// The labeler only probes the left and up neighbours of each pixel, so
// components are 4-connected. Two blobs that touch only at a corner are
// reported as separate components.
//
// # Errors
//
// Detect fails fast with ErrParameterOutOfRange or ErrInvalidInput before
// any processing. Finding no components is a successful, empty Result.
//
// # Concurrency
//
// Every run owns its intermediate buffers; nothing is shared between runs.
// A Detector may be used from several goroutines at once.
package defect
