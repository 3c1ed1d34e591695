// Package imaging loads images for defect detection and renders what the
// detector found.
//
// It wraps the defect package with the file-facing concerns of the MCP
// server: decoding and caching source images, drawing detected components
// over the source, and cutting a zoomed view of a single component.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Component bounds are
// inclusive on both ends, matching defect.Bounds.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. RenderOverlay and CropDefect never
// modify the image they are given and can run concurrently.
//
// # Supported Formats
//
// PNG, JPEG and GIF decoders come from the standard library; BMP, TIFF and
// WebP from golang.org/x/image. Rendered output is always PNG.
package imaging
