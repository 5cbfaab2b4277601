package emoji

import (
	"encoding/binary"
	"errors"
)

// CBDT/CBLC table format errors.
var (
	// ErrNoCBDTTable indicates the font doesn't have a CBDT table.
	ErrNoCBDTTable = errors.New("emoji: font has no CBDT table")

	// ErrNoCBLCTable indicates the font doesn't have a CBLC table.
	ErrNoCBLCTable = errors.New("emoji: font has no CBLC table")

	// ErrInvalidCBLCData indicates the CBLC table data is malformed.
	ErrInvalidCBLCData = errors.New("emoji: invalid CBLC table data")

	// ErrInvalidCBDTData indicates the CBDT table data is malformed.
	ErrInvalidCBDTData = errors.New("emoji: invalid CBDT table data")

	// ErrGlyphNotInBitmap indicates the glyph has no bitmap data.
	ErrGlyphNotInBitmap = errors.New("emoji: glyph not found in bitmap table")

	// ErrUnsupportedIndexFormat indicates an unsupported index subtable format.
	ErrUnsupportedIndexFormat = errors.New("emoji: unsupported index subtable format")
)

// CBDT index subtable formats.
const (
	cbdtIndexPlain32    = 1 // variable metrics, 32-bit offsets
	cbdtIndexConstant   = 2 // constant metrics, no offset array
	cbdtIndexPlain16    = 3 // variable metrics, 16-bit offsets
	cbdtIndexSparseList = 5 // constant metrics, sparse glyph ids
)

// CBDT image data formats.
const (
	cbdtImageByteAligned = 6  // small metrics + byte-aligned rows
	cbdtImageBitAligned  = 7  // small metrics + bit-packed rows
	cbdtImagePNGSmall    = 17 // small metrics + PNG
	cbdtImagePNGBig      = 18 // big metrics + PNG
	cbdtImagePNGShared   = 19 // metrics in CBLC, PNG only
)

// glyphMetrics is the subset of small/big glyph metrics layout needs.
type glyphMetrics struct {
	width, height      int
	bearingX, bearingY int
}

// cbdtStrike is one bitmap size from CBLC.
type cbdtStrike struct {
	subtableListOffset uint32
	numSubtables       uint32
	startGID, endGID   uint16
	ppem               uint16
	bitDepth           uint8

	subtables []cbdtSubtable // parsed lazily
}

// cbdtSubtable locates a glyph range inside CBDT.
type cbdtSubtable struct {
	firstGID, lastGID uint16
	indexFormat       uint16
	imageFormat       uint16
	dataOffset        uint32

	offsets32 []uint32      // cbdtIndexPlain32
	offsets16 []uint16      // cbdtIndexPlain16
	imageSize uint32        // constant-metric formats
	metrics   *glyphMetrics // constant-metric formats
	gids      []uint16      // cbdtIndexSparseList
}

// BitmapTable extracts embedded bitmap glyphs from CBDT/CBLC and returns
// them normalized to BGRA8.
type BitmapTable struct {
	cbdt    []byte
	cblc    []byte
	strikes []cbdtStrike
}

// NewBitmapTable parses the CBLC index of a CBDT/CBLC table pair.
func NewBitmapTable(cbdt, cblc []byte) (*BitmapTable, error) {
	if len(cbdt) == 0 {
		return nil, ErrNoCBDTTable
	}
	if len(cblc) == 0 {
		return nil, ErrNoCBLCTable
	}
	if len(cblc) < 8 || binary.BigEndian.Uint16(cblc[0:2]) != 3 {
		return nil, ErrInvalidCBLCData
	}

	t := &BitmapTable{cbdt: cbdt, cblc: cblc}
	numSizes := int(binary.BigEndian.Uint32(cblc[4:8]))
	const recordSize = 48
	if 8+numSizes*recordSize > len(cblc) {
		return nil, ErrInvalidCBLCData
	}

	t.strikes = make([]cbdtStrike, numSizes)
	for i := range t.strikes {
		rec := cblc[8+i*recordSize : 8+(i+1)*recordSize]
		s := &t.strikes[i]
		s.subtableListOffset = binary.BigEndian.Uint32(rec[0:4])
		s.numSubtables = binary.BigEndian.Uint32(rec[8:12])
		s.startGID = binary.BigEndian.Uint16(rec[40:42])
		s.endGID = binary.BigEndian.Uint16(rec[42:44])
		s.ppem = uint16(rec[44])
		s.bitDepth = rec[46]
	}
	return t, nil
}

// HasGlyph reports whether any strike carries a bitmap for gid.
func (t *BitmapTable) HasGlyph(gid uint16) bool {
	for i := range t.strikes {
		if _, _, err := t.locate(gid, i); err == nil {
			return true
		}
	}
	return false
}

// Glyph extracts the bitmap for gid from the strike closest to ppem,
// normalized to BGRA8.
func (t *BitmapTable) Glyph(gid uint16, ppem uint16) (*Bitmap, error) {
	strike := t.selectStrike(ppem)
	if strike < 0 {
		return nil, ErrGlyphNotInBitmap
	}
	sub, loc, err := t.locate(gid, strike)
	if err != nil {
		return nil, err
	}
	return t.extract(sub, loc, &t.strikes[strike])
}

// selectStrike returns the smallest strike at or above ppem, else the
// largest available.
func (t *BitmapTable) selectStrike(ppem uint16) int {
	best, largest := -1, -1
	for i := range t.strikes {
		p := t.strikes[i].ppem
		if largest < 0 || p > t.strikes[largest].ppem {
			largest = i
		}
		if p >= ppem && (best < 0 || p < t.strikes[best].ppem) {
			best = i
		}
	}
	if best >= 0 {
		return best
	}
	return largest
}

// glyphLocation is the resolved position of one glyph's image data.
type glyphLocation struct {
	offset, size uint32
	metrics      *glyphMetrics
}

// locate finds the subtable and data location for gid within a strike.
func (t *BitmapTable) locate(gid uint16, strike int) (*cbdtSubtable, glyphLocation, error) {
	s := &t.strikes[strike]
	if gid < s.startGID || gid > s.endGID {
		return nil, glyphLocation{}, ErrGlyphNotInBitmap
	}
	if err := t.parseSubtables(s); err != nil {
		return nil, glyphLocation{}, err
	}
	for i := range s.subtables {
		sub := &s.subtables[i]
		if gid < sub.firstGID || gid > sub.lastGID {
			continue
		}
		loc, err := sub.locate(gid)
		if err != nil {
			return nil, glyphLocation{}, err
		}
		return sub, loc, nil
	}
	return nil, glyphLocation{}, ErrGlyphNotInBitmap
}

// parseSubtables lazily parses a strike's index subtable list.
func (t *BitmapTable) parseSubtables(s *cbdtStrike) error {
	if s.subtables != nil {
		return nil
	}
	data := t.cblc
	list := int(s.subtableListOffset)
	n := int(s.numSubtables)
	if list+n*8 > len(data) {
		return ErrInvalidCBLCData
	}

	s.subtables = make([]cbdtSubtable, n)
	for i := 0; i < n; i++ {
		rec := data[list+i*8 : list+(i+1)*8]
		sub := &s.subtables[i]
		sub.firstGID = binary.BigEndian.Uint16(rec[0:2])
		sub.lastGID = binary.BigEndian.Uint16(rec[2:4])
		subOffset := list + int(binary.BigEndian.Uint32(rec[4:8]))
		if err := sub.parse(data, subOffset); err != nil {
			return err
		}
	}
	return nil
}

// parse reads one index subtable starting at offset.
func (sub *cbdtSubtable) parse(data []byte, offset int) error {
	if offset+8 > len(data) {
		return ErrInvalidCBLCData
	}
	sub.indexFormat = binary.BigEndian.Uint16(data[offset : offset+2])
	sub.imageFormat = binary.BigEndian.Uint16(data[offset+2 : offset+4])
	sub.dataOffset = binary.BigEndian.Uint32(data[offset+4 : offset+8])

	body := offset + 8
	count := int(sub.lastGID) - int(sub.firstGID) + 1

	switch sub.indexFormat {
	case cbdtIndexPlain32:
		if body+(count+1)*4 > len(data) {
			return ErrInvalidCBLCData
		}
		sub.offsets32 = make([]uint32, count+1)
		for i := range sub.offsets32 {
			sub.offsets32[i] = binary.BigEndian.Uint32(data[body+i*4 : body+i*4+4])
		}

	case cbdtIndexPlain16:
		if body+(count+1)*2 > len(data) {
			return ErrInvalidCBLCData
		}
		sub.offsets16 = make([]uint16, count+1)
		for i := range sub.offsets16 {
			sub.offsets16[i] = binary.BigEndian.Uint16(data[body+i*2 : body+i*2+2])
		}

	case cbdtIndexConstant:
		if body+12 > len(data) {
			return ErrInvalidCBLCData
		}
		sub.imageSize = binary.BigEndian.Uint32(data[body : body+4])
		sub.metrics = parseBigMetrics(data[body+4 : body+12])

	case cbdtIndexSparseList:
		if body+16 > len(data) {
			return ErrInvalidCBLCData
		}
		sub.imageSize = binary.BigEndian.Uint32(data[body : body+4])
		sub.metrics = parseBigMetrics(data[body+4 : body+12])
		n := int(binary.BigEndian.Uint32(data[body+12 : body+16]))
		ids := body + 16
		if ids+n*2 > len(data) {
			return ErrInvalidCBLCData
		}
		sub.gids = make([]uint16, n)
		for i := range sub.gids {
			sub.gids[i] = binary.BigEndian.Uint16(data[ids+i*2 : ids+i*2+2])
		}

	default:
		return ErrUnsupportedIndexFormat
	}
	return nil
}

// locate resolves gid's data offset and size within the subtable.
func (sub *cbdtSubtable) locate(gid uint16) (glyphLocation, error) {
	idx := int(gid) - int(sub.firstGID)

	switch sub.indexFormat {
	case cbdtIndexPlain32:
		if idx < 0 || idx+1 >= len(sub.offsets32) {
			return glyphLocation{}, ErrGlyphNotInBitmap
		}
		return glyphLocation{
			offset: sub.dataOffset + sub.offsets32[idx],
			size:   sub.offsets32[idx+1] - sub.offsets32[idx],
		}, nil

	case cbdtIndexPlain16:
		if idx < 0 || idx+1 >= len(sub.offsets16) {
			return glyphLocation{}, ErrGlyphNotInBitmap
		}
		return glyphLocation{
			offset: sub.dataOffset + uint32(sub.offsets16[idx]),
			size:   uint32(sub.offsets16[idx+1] - sub.offsets16[idx]),
		}, nil

	case cbdtIndexConstant:
		if idx < 0 {
			return glyphLocation{}, ErrGlyphNotInBitmap
		}
		return glyphLocation{
			offset:  sub.dataOffset + uint32(idx)*sub.imageSize,
			size:    sub.imageSize,
			metrics: sub.metrics,
		}, nil

	case cbdtIndexSparseList:
		for i, g := range sub.gids {
			if g == gid {
				return glyphLocation{
					offset:  sub.dataOffset + uint32(i)*sub.imageSize,
					size:    sub.imageSize,
					metrics: sub.metrics,
				}, nil
			}
		}
		return glyphLocation{}, ErrGlyphNotInBitmap

	default:
		return glyphLocation{}, ErrUnsupportedIndexFormat
	}
}

// extract reads the image data and normalizes it to BGRA8.
func (t *BitmapTable) extract(sub *cbdtSubtable, loc glyphLocation, strike *cbdtStrike) (*Bitmap, error) {
	if loc.size == 0 || uint64(loc.offset)+uint64(loc.size) > uint64(len(t.cbdt)) {
		return nil, ErrInvalidCBDTData
	}
	data := t.cbdt[loc.offset : loc.offset+loc.size]

	switch sub.imageFormat {
	case cbdtImagePNGSmall:
		m, png, err := splitSmallMetricsPNG(data)
		if err != nil {
			return nil, err
		}
		return finishPNG(png, m, strike.ppem)

	case cbdtImagePNGBig:
		if len(data) < 12 {
			return nil, ErrInvalidCBDTData
		}
		m := parseBigMetrics(data[0:8])
		n := binary.BigEndian.Uint32(data[8:12])
		if 12+int(n) > len(data) {
			return nil, ErrInvalidCBDTData
		}
		return finishPNG(data[12:12+n], m, strike.ppem)

	case cbdtImagePNGShared:
		if len(data) < 4 {
			return nil, ErrInvalidCBDTData
		}
		n := binary.BigEndian.Uint32(data[0:4])
		if 4+int(n) > len(data) {
			return nil, ErrInvalidCBDTData
		}
		return finishPNG(data[4:4+n], loc.metrics, strike.ppem)

	case cbdtImageByteAligned, cbdtImageBitAligned:
		return extractRaw(data, sub.imageFormat, strike)

	default:
		return nil, ErrUnsupportedBitmapFormat
	}
}

// extractRaw normalizes an uncompressed bitmap (formats 6 and 7).
// Bit depths 1/2/4/8 are coverage masks; depth 32 is premultiplied BGRA
// and has the premultiplication reversed.
func extractRaw(data []byte, imageFormat uint16, strike *cbdtStrike) (*Bitmap, error) {
	if len(data) < 5 {
		return nil, ErrInvalidCBDTData
	}
	m := parseSmallMetrics(data[0:5])
	pixels := data[5:]

	b := &Bitmap{
		Width:   m.width,
		Height:  m.height,
		PPEM:    strike.ppem,
		OriginX: float64(m.bearingX),
		OriginY: float64(m.bearingY),
	}

	if strike.bitDepth == 32 {
		need := m.width * m.height * 4
		if len(pixels) < need {
			return nil, ErrInvalidCBDTData
		}
		b.Pixels = make([]byte, need)
		copy(b.Pixels, pixels[:need])
		unpremultiply(b.Pixels)
		return b, nil
	}

	packed := imageFormat == cbdtImageBitAligned
	out, err := unpackMask(pixels, m.width, m.height, int(strike.bitDepth), packed)
	if err != nil {
		return nil, err
	}
	b.Pixels = out
	return b, nil
}

// splitSmallMetricsPNG splits a format-17 record into metrics and PNG data.
func splitSmallMetricsPNG(data []byte) (*glyphMetrics, []byte, error) {
	if len(data) < 9 {
		return nil, nil, ErrInvalidCBDTData
	}
	m := parseSmallMetrics(data[0:5])
	n := binary.BigEndian.Uint32(data[5:9])
	if 9+int(n) > len(data) {
		return nil, nil, ErrInvalidCBDTData
	}
	return m, data[9 : 9+n], nil
}

// finishPNG decodes PNG bytes and applies the strike metrics.
func finishPNG(data []byte, m *glyphMetrics, ppem uint16) (*Bitmap, error) {
	b, err := decodePNGToBGRA(data, ppem)
	if err != nil {
		return nil, err
	}
	if m != nil {
		b.OriginX = float64(m.bearingX)
		b.OriginY = float64(m.bearingY)
	}
	return b, nil
}

func parseSmallMetrics(data []byte) *glyphMetrics {
	return &glyphMetrics{
		height:   int(data[0]),
		width:    int(data[1]),
		bearingX: int(int8(data[2])),
		bearingY: int(int8(data[3])),
	}
}

func parseBigMetrics(data []byte) *glyphMetrics {
	return &glyphMetrics{
		height:   int(data[0]),
		width:    int(data[1]),
		bearingX: int(int8(data[2])),
		bearingY: int(int8(data[3])),
	}
}
