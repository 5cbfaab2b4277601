package shapedtext

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/go-text/typesetting/di"
	gotextfont "github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/shaping"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/shapedtext/cache"
	"github.com/gogpu/shapedtext/emoji"
)

// OpenTypeFont is a sized font backed by an OpenType/TrueType file. It
// shapes through go-text/typesetting's HarfBuzz implementation and reads
// metrics via golang.org/x/image/font/sfnt.
//
// OpenTypeFont is safe for concurrent use. The parsed gotext font is
// read-only; font.Face instances are created per shaping call since they
// are not concurrent-safe, and HarfbuzzShaper instances are pooled for
// the same reason. Shaped words are memoized in a shared word cache.
type OpenTypeFont struct {
	size float64

	parsed *opentype.Font
	gotext *gotextfont.Font

	shaperPool sync.Pool
	words      *cache.WordCache[ShapedRun]

	metrics Metrics
	space   GlyphID

	color  *emoji.ColorTable
	bitmap *emoji.BitmapTable
}

// NewOpenTypeFont parses font data at the given pixel size.
func NewOpenTypeFont(data []byte, size float64) (*OpenTypeFont, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFontData
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("shapedtext: failed to parse font: %w", err)
	}
	face, err := gotextfont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("shapedtext: failed to parse font for shaping: %w", err)
	}

	f := &OpenTypeFont{
		size:   size,
		parsed: parsed,
		gotext: face.Font,
		shaperPool: sync.Pool{
			New: func() any {
				return &shaping.HarfbuzzShaper{}
			},
		},
		words: cache.New[ShapedRun](),
	}
	f.metrics = f.readMetrics()
	f.readTables(data)

	var buf sfnt.Buffer
	if idx, err := parsed.GlyphIndex(&buf, ' '); err == nil {
		f.space = GlyphID(idx)
	}
	return f, nil
}

// readMetrics scales the font's metrics to the face size.
func (f *OpenTypeFont) readMetrics() Metrics {
	var buf sfnt.Buffer
	m, err := f.parsed.Metrics(&buf, f.fixedSize(), xfont.HintingFull)
	if err != nil {
		Logger().Warn("shapedtext: font metrics unavailable", "err", err)
		return Metrics{Ascent: f.size * 0.8, Descent: f.size * 0.2}
	}
	ascent := fixedToFloat(m.Ascent)
	descent := fixedToFloat(m.Descent)
	return Metrics{
		Ascent:    ascent,
		Descent:   descent,
		LineGap:   fixedToFloat(m.Height) - ascent - descent,
		XHeight:   fixedToFloat(m.XHeight),
		CapHeight: fixedToFloat(m.CapHeight),
	}
}

// readTables probes the optional tables: post for underline metrics,
// COLR/CPAL for layered color glyphs, CBDT/CBLC for bitmap glyphs.
func (f *OpenTypeFont) readTables(data []byte) {
	tables, err := emoji.ParseTables(data)
	if err != nil {
		return
	}

	if post, err := tables.Table("post"); err == nil && len(post) >= 12 {
		scale := f.size / float64(f.parsed.UnitsPerEm())
		pos := int16(binary.BigEndian.Uint16(post[8:10]))
		thickness := int16(binary.BigEndian.Uint16(post[10:12]))
		f.metrics.UnderlinePosition = float64(pos) * scale
		f.metrics.UnderlineThickness = float64(thickness) * scale
	}

	if tables.Has("COLR") && tables.Has("CPAL") {
		colr, _ := tables.Table("COLR")
		cpal, _ := tables.Table("CPAL")
		if ct, err := emoji.NewColorTable(colr, cpal); err == nil {
			f.color = ct
		} else {
			Logger().Warn("shapedtext: unusable COLR/CPAL tables", "err", err)
		}
	}
	if tables.Has("CBDT") && tables.Has("CBLC") {
		cbdt, _ := tables.Table("CBDT")
		cblc, _ := tables.Table("CBLC")
		if bt, err := emoji.NewBitmapTable(cbdt, cblc); err == nil {
			f.bitmap = bt
		} else {
			Logger().Warn("shapedtext: unusable CBDT/CBLC tables", "err", err)
		}
	}
}

func (f *OpenTypeFont) fixedSize() fixed.Int26_6 {
	return fixed.Int26_6(f.size * 64)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64.0
}

// Size returns the font size in pixels per em.
func (f *OpenTypeFont) Size() float64 { return f.size }

// Metrics returns the scaled font metrics.
func (f *OpenTypeFont) Metrics() Metrics { return f.metrics }

// SpaceIndex returns the glyph id of the space character.
func (f *OpenTypeFont) SpaceIndex() GlyphID { return f.space }

// ShapeSegment shapes text under the given context key, memoizing the
// result in the word cache. A concurrent miss on the same key may shape
// twice; both results are identical, so the duplicate work is accepted
// over holding a lock across shaping.
func (f *OpenTypeFont) ShapeSegment(text string, key ShapeKey) ShapedRun {
	if text == "" {
		return ShapedRun{}
	}
	ck := cache.Key{
		Text:      text,
		Lang:      string(key.Lang),
		Script:    uint32(key.Script),
		Direction: uint8(key.Direction),
		Features:  key.Features,
	}
	if run, ok := f.words.Get(ck); ok {
		return run
	}
	run := f.shapeUncached(text, key)
	f.words.Put(ck, run)
	return run
}

// shapingFeatures converts feature settings to the shaper's tag form.
// Tags that are not exactly four bytes are skipped.
func shapingFeatures(feats []Feature) []shaping.FontFeature {
	if len(feats) == 0 {
		return nil
	}
	out := make([]shaping.FontFeature, 0, len(feats))
	for _, f := range feats {
		if len(f.Tag) != 4 {
			Logger().Warn("shapedtext: skipping malformed feature tag", "tag", f.Tag)
			continue
		}
		out = append(out, shaping.FontFeature{
			Tag:   ot.MustNewTag(f.Tag),
			Value: f.Value,
		})
	}
	return out
}

// shapeUncached runs HarfBuzz shaping on one segment.
func (f *OpenTypeFont) shapeUncached(text string, key ShapeKey) ShapedRun {
	runes := []rune(text)

	dir := di.DirectionLTR
	if key.Direction == DirectionRTL {
		dir = di.DirectionRTL
	}

	// font.Face is not concurrent-safe; each call wraps the shared
	// read-only Font in a fresh one.
	input := shaping.Input{
		Text:         runes,
		RunStart:     0,
		RunEnd:       len(runes),
		Direction:    dir,
		Face:         gotextfont.NewFace(f.gotext),
		FontFeatures: shapingFeatures(key.FontFeatures),
		Size:         f.fixedSize(),
		Script:       key.Script,
		Language:     key.Lang,
	}

	shaper := f.shaperPool.Get().(*shaping.HarfbuzzShaper)
	output := shaper.Shape(input)
	f.shaperPool.Put(shaper)

	// Cluster indices come back as rune offsets; segment bookkeeping
	// runs on byte offsets.
	runeToByte := make([]int, len(runes)+1)
	b := 0
	for i, r := range runes {
		runeToByte[i] = b
		b += len(string(r))
	}
	runeToByte[len(runes)] = b

	run := ShapedRun{Glyphs: make([]ShapedGlyph, len(output.Glyphs))}
	var x float64
	for i, g := range output.Glyphs {
		cluster := g.ClusterIndex
		if cluster < 0 {
			cluster = 0
		}
		if cluster > len(runes) {
			cluster = len(runes)
		}
		run.Glyphs[i] = ShapedGlyph{
			GID:     GlyphID(g.GlyphID),
			Cluster: runeToByte[cluster],
			Offset: Point{
				X: x + fixedToFloat(g.XOffset),
				Y: fixedToFloat(g.YOffset),
			},
		}
		x += fixedToFloat(g.XAdvance)
	}
	run.XAdvance = x
	return run
}

// ColorGlyph implements [ColorFont] over the COLR/CPAL tables.
func (f *OpenTypeFont) ColorGlyph(gid GlyphID) (*emoji.ColorGlyph, bool) {
	if f.color == nil {
		return nil, false
	}
	return f.color.Lookup(uint16(gid))
}

// ImageGlyph implements [ImageFont] over the CBDT/CBLC tables. The
// returned bitmap is normalized BGRA8 at the nearest strike size.
func (f *OpenTypeFont) ImageGlyph(gid GlyphID) (*emoji.Bitmap, bool) {
	if f.bitmap == nil || !f.bitmap.HasGlyph(uint16(gid)) {
		return nil, false
	}
	bmp, err := f.bitmap.Glyph(uint16(gid), uint16(f.size+0.5))
	if err != nil {
		Logger().Warn("shapedtext: bitmap glyph extraction failed", "gid", gid, "err", err)
		return nil, false
	}
	return bmp, true
}

// GlyphXBounds implements [OutlineFont]: the horizontal extent of the
// glyph outline relative to its origin, used for underline-skip hit
// testing.
func (f *OpenTypeFont) GlyphXBounds(gid GlyphID) (float64, float64, error) {
	var buf sfnt.Buffer
	bounds, _, err := f.parsed.GlyphBounds(&buf, sfnt.GlyphIndex(gid), f.fixedSize(), xfont.HintingFull)
	if err != nil {
		if int(gid) >= f.parsed.NumGlyphs() {
			return 0, 0, fmt.Errorf("%w: glyph %d", ErrNoSuchGlyph, gid)
		}
		return 0, 0, fmt.Errorf("%w: %v", ErrPlatform, err)
	}
	return fixedToFloat(bounds.Min.X), fixedToFloat(bounds.Max.X), nil
}

// CachedWords returns the number of memoized word shapes, for tests and
// diagnostics.
func (f *OpenTypeFont) CachedWords() int { return f.words.Len() }
