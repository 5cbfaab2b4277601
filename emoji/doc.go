// Package emoji extracts color and image glyph data from OpenType color
// tables (COLR/CPAL layered glyphs, CBDT/CBLC embedded bitmaps) and
// normalizes every raster format to tightly packed BGRA8 pixels.
package emoji
