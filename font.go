package shapedtext

import (
	"hash/fnv"

	"github.com/go-text/typesetting/language"

	"github.com/gogpu/shapedtext/emoji"
)

// GlyphID is a glyph index within a font.
type GlyphID uint32

// ShapedGlyph is one glyph produced by shaping a segment, positioned
// relative to the segment's pen origin.
type ShapedGlyph struct {
	// GID is the glyph index in the font. 0 is the missing-glyph id.
	GID GlyphID

	// Cluster is the byte offset of the source character within the
	// shaped segment text.
	Cluster int

	// Offset is the glyph position relative to the segment origin.
	Offset Point
}

// ShapedRun is the result of shaping one segment.
type ShapedRun struct {
	// Glyphs are the shaped glyphs in visual order within the run.
	Glyphs []ShapedGlyph

	// XAdvance is the total horizontal advance of the run.
	XAdvance float64

	// YAdvance is the total vertical advance (vertical text only).
	YAdvance float64
}

// IsEmpty reports whether the run has no glyphs.
func (r ShapedRun) IsEmpty() bool { return len(r.Glyphs) == 0 }

// HasMissingGlyphs reports whether any glyph is the missing-glyph id.
func (r ShapedRun) HasMissingGlyphs() bool {
	for i := range r.Glyphs {
		if r.Glyphs[i].GID == 0 {
			return true
		}
	}
	return false
}

// ShapeKey is the shaping context fingerprint. Two ShapeSegment calls with
// equal text and equal keys produce identical output, which is what makes
// the word cache sound.
type ShapeKey struct {
	// Lang is the text language.
	Lang language.Language

	// Script is the detected script of the text.
	Script language.Script

	// Direction is the segment direction.
	Direction Direction

	// Features is a fingerprint of FontFeatures, computed by
	// [HashFeatures]. Cache keys use the fingerprint; shaping reads the
	// settings themselves.
	Features uint64

	// FontFeatures are the OpenType feature settings to shape with.
	FontFeatures []Feature
}

// HashFeatures computes an order-independent fingerprint of feature
// settings for use in [ShapeKey].
func HashFeatures(features []Feature) uint64 {
	if len(features) == 0 {
		return 0
	}
	h := fnv.New64a()
	var result uint64
	for _, f := range features {
		h.Reset()
		_, _ = h.Write([]byte(f.Tag)) // fnv.Write never returns an error
		result ^= h.Sum64() ^ uint64(f.Value)
	}
	return result
}

// Font is a sized font able to shape text segments. Implementations must
// be safe for concurrent use; [Shape] calls for unrelated texts may share
// fonts across goroutines.
//
// Color, image and ligature-caret capabilities are optional and
// discovered by type assertion to [ColorFont], [ImageFont], [CaretFont]
// and [OutlineFont].
type Font interface {
	// ShapeSegment shapes text under the given context key, consulting
	// the font's word cache. It never fails; characters without glyphs
	// shape to the missing-glyph id 0.
	ShapeSegment(text string, key ShapeKey) ShapedRun

	// Metrics returns the font metrics at this font's size.
	Metrics() Metrics

	// Size returns the font size in pixels per em.
	Size() float64

	// SpaceIndex returns the glyph id of the space character.
	SpaceIndex() GlyphID
}

// ColorFont is implemented by fonts that carry COLR/CPAL layered color
// glyphs.
type ColorFont interface {
	// ColorGlyph returns the color layers for a glyph, or false if the
	// glyph is not a color glyph.
	ColorGlyph(gid GlyphID) (*emoji.ColorGlyph, bool)
}

// ImageFont is implemented by fonts that carry raster/vector image glyphs
// (CBDT/CBLC, sbix).
type ImageFont interface {
	// ImageGlyph returns the normalized BGRA8 bitmap for a glyph at the
	// font's size, or false if the glyph has no image.
	ImageGlyph(gid GlyphID) (*emoji.Bitmap, bool)
}

// CaretFont is implemented by fonts that expose ligature caret positions
// from the GDEF table.
type CaretFont interface {
	// LigatureCarets returns the caret x offsets inside a ligature
	// glyph, in advance units from the glyph origin, or nil if the font
	// has none for this glyph.
	LigatureCarets(dir Direction, gid GlyphID) []float64
}

// OutlineFont is implemented by fonts that can load glyph outlines for
// decoration-line hit testing (underline skip). These queries are the
// only operations in the package that surface errors: [ErrNoSuchGlyph]
// when the glyph has no outline, [ErrPlatform] on backend failure.
type OutlineFont interface {
	// GlyphXBounds returns the horizontal extent of a glyph's outline
	// relative to its origin.
	GlyphXBounds(gid GlyphID) (minX, maxX float64, err error)
}

// shapeWithFallback shapes text trying fonts in priority order. The first
// font producing no missing glyphs wins; if all fonts miss, the last font
// is used anyway so output is always produced.
func shapeWithFallback(fonts []Font, text string, key ShapeKey) (ShapedRun, Font) {
	if len(fonts) == 0 {
		return ShapedRun{}, nil
	}
	var last ShapedRun
	for i, f := range fonts {
		run := f.ShapeSegment(text, key)
		if !run.HasMissingGlyphs() {
			return run, f
		}
		if i == len(fonts)-1 {
			last = run
		}
	}
	return last, fonts[len(fonts)-1]
}
