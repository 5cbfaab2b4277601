package shapedtext

import "errors"

// Sentinel errors for the shapedtext package.
//
// Shaping and layout themselves never fail: missing glyphs fall back
// through the font list, failed hyphenation falls back to hard breaking,
// and range inconsistencies degrade to logged early returns. The only
// operations that surface errors are the glyph loading/outline queries
// used for decoration-line hit testing.
var (
	// ErrNoSuchGlyph is returned when a font has no outline for the
	// requested glyph id.
	ErrNoSuchGlyph = errors.New("shapedtext: no such glyph")

	// ErrPlatform is returned when the underlying font backend fails to
	// load a glyph for a platform-specific reason.
	ErrPlatform = errors.New("shapedtext: platform error loading glyph")

	// ErrEmptyFontData is returned when font data is empty.
	ErrEmptyFontData = errors.New("shapedtext: empty font data")
)
