package emoji

import (
	"encoding/binary"
	"errors"
	"image/color"
)

// COLR/CPAL table format errors.
var (
	// ErrNoCOLRTable indicates the font doesn't have a COLR table.
	ErrNoCOLRTable = errors.New("emoji: font has no COLR table")

	// ErrNoCPALTable indicates the font doesn't have a CPAL table.
	ErrNoCPALTable = errors.New("emoji: font has no CPAL table")

	// ErrInvalidCOLRData indicates the COLR table data is malformed.
	ErrInvalidCOLRData = errors.New("emoji: invalid COLR table data")

	// ErrInvalidCPALData indicates the CPAL table data is malformed.
	ErrInvalidCPALData = errors.New("emoji: invalid CPAL table data")
)

// ColorLayer is one layer of a layered color glyph: a component glyph
// rendered in a palette color.
type ColorLayer struct {
	// GID is the component glyph to render for this layer.
	GID uint16

	// Color is the resolved palette color.
	Color color.NRGBA

	// Foreground marks a layer that uses the current text color instead
	// of a palette entry (palette index 0xFFFF).
	Foreground bool
}

// ColorGlyph is a COLR v0 layered color glyph: layers stack bottom to
// top, each a plain outline glyph filled with one color.
type ColorGlyph struct {
	// GID is the base glyph the layers replace.
	GID uint16

	// Layers are the color layers, bottom to top.
	Layers []ColorLayer
}

// ColorTable indexes a font's COLR v0 + CPAL data for glyph lookups.
type ColorTable struct {
	colr    []byte
	palette []color.NRGBA

	numBaseGlyphs    int
	baseGlyphsOffset uint32
	layersOffset     uint32
	numLayers        int
}

// NewColorTable parses COLR and CPAL table bytes. COLR v1 paint graphs
// are not interpreted; v1 fonts still expose their v0 layer lists, which
// is what gets parsed here.
func NewColorTable(colr, cpal []byte) (*ColorTable, error) {
	if len(colr) == 0 {
		return nil, ErrNoCOLRTable
	}
	if len(colr) < 14 {
		return nil, ErrInvalidCOLRData
	}
	palette, err := parseCPAL(cpal)
	if err != nil {
		return nil, err
	}

	t := &ColorTable{
		colr:             colr,
		palette:          palette,
		numBaseGlyphs:    int(binary.BigEndian.Uint16(colr[2:4])),
		baseGlyphsOffset: binary.BigEndian.Uint32(colr[4:8]),
		layersOffset:     binary.BigEndian.Uint32(colr[8:12]),
		numLayers:        int(binary.BigEndian.Uint16(colr[12:14])),
	}
	if int(t.baseGlyphsOffset)+t.numBaseGlyphs*6 > len(colr) {
		return nil, ErrInvalidCOLRData
	}
	if int(t.layersOffset)+t.numLayers*4 > len(colr) {
		return nil, ErrInvalidCOLRData
	}
	return t, nil
}

// Lookup returns the color glyph for gid, or false if gid has no color
// layers.
func (t *ColorTable) Lookup(gid uint16) (*ColorGlyph, bool) {
	// Base glyph records are sorted by glyph id; binary search.
	lo, hi := 0, t.numBaseGlyphs
	for lo < hi {
		mid := (lo + hi) / 2
		rec := t.baseGlyphRecord(mid)
		g := binary.BigEndian.Uint16(rec[0:2])
		switch {
		case g < gid:
			lo = mid + 1
		case g > gid:
			hi = mid
		default:
			return t.glyphFromRecord(gid, rec), true
		}
	}
	return nil, false
}

func (t *ColorTable) baseGlyphRecord(i int) []byte {
	off := int(t.baseGlyphsOffset) + i*6
	return t.colr[off : off+6]
}

func (t *ColorTable) glyphFromRecord(gid uint16, rec []byte) *ColorGlyph {
	first := int(binary.BigEndian.Uint16(rec[2:4]))
	count := int(binary.BigEndian.Uint16(rec[4:6]))
	if first+count > t.numLayers {
		count = t.numLayers - first
	}

	g := &ColorGlyph{GID: gid, Layers: make([]ColorLayer, 0, count)}
	for i := first; i < first+count; i++ {
		off := int(t.layersOffset) + i*4
		layerGID := binary.BigEndian.Uint16(t.colr[off : off+2])
		palIdx := binary.BigEndian.Uint16(t.colr[off+2 : off+4])

		layer := ColorLayer{GID: layerGID}
		if palIdx == 0xFFFF {
			layer.Foreground = true
		} else if int(palIdx) < len(t.palette) {
			layer.Color = t.palette[palIdx]
		}
		g.Layers = append(g.Layers, layer)
	}
	return g
}

// parseCPAL reads palette 0 of a CPAL table.
func parseCPAL(cpal []byte) ([]color.NRGBA, error) {
	if len(cpal) == 0 {
		return nil, ErrNoCPALTable
	}
	if len(cpal) < 12 {
		return nil, ErrInvalidCPALData
	}
	numPaletteEntries := int(binary.BigEndian.Uint16(cpal[2:4]))
	numPalettes := int(binary.BigEndian.Uint16(cpal[4:6]))
	numColorRecords := int(binary.BigEndian.Uint16(cpal[6:8]))
	recordsOffset := binary.BigEndian.Uint32(cpal[8:12])

	if numPalettes == 0 {
		return nil, ErrInvalidCPALData
	}
	if len(cpal) < 12+numPalettes*2 {
		return nil, ErrInvalidCPALData
	}
	firstIndex := int(binary.BigEndian.Uint16(cpal[12:14]))
	if firstIndex+numPaletteEntries > numColorRecords {
		return nil, ErrInvalidCPALData
	}
	if int(recordsOffset)+numColorRecords*4 > len(cpal) {
		return nil, ErrInvalidCPALData
	}

	// Color records are stored BGRA.
	palette := make([]color.NRGBA, numPaletteEntries)
	for i := range palette {
		off := int(recordsOffset) + (firstIndex+i)*4
		palette[i] = color.NRGBA{
			B: cpal[off],
			G: cpal[off+1],
			R: cpal[off+2],
			A: cpal[off+3],
		}
	}
	return palette, nil
}
