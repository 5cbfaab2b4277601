package emoji

import (
	"encoding/binary"
	"errors"
)

// Table access errors.
var (
	// ErrInvalidFontData indicates the sfnt wrapper is malformed.
	ErrInvalidFontData = errors.New("emoji: invalid font data")

	// ErrNoTable indicates the font does not contain the requested table.
	ErrNoTable = errors.New("emoji: table not present")
)

// Tables is a parsed sfnt table directory giving access to raw table
// bytes. Only the directory is parsed up front; table contents are
// returned as sub-slices of the font data.
type Tables struct {
	data    []byte
	entries map[string][2]uint32 // tag -> (offset, length)
}

// ParseTables reads the sfnt table directory of a TTF/OTF file.
// TrueType collections are not supported; pass a single font.
func ParseTables(data []byte) (*Tables, error) {
	if len(data) < 12 {
		return nil, ErrInvalidFontData
	}
	numTables := int(binary.BigEndian.Uint16(data[4:6]))
	if len(data) < 12+numTables*16 {
		return nil, ErrInvalidFontData
	}

	t := &Tables{data: data, entries: make(map[string][2]uint32, numTables)}
	for i := 0; i < numTables; i++ {
		rec := data[12+i*16 : 12+(i+1)*16]
		tag := string(rec[0:4])
		offset := binary.BigEndian.Uint32(rec[8:12])
		length := binary.BigEndian.Uint32(rec[12:16])
		if uint64(offset)+uint64(length) > uint64(len(data)) {
			return nil, ErrInvalidFontData
		}
		t.entries[tag] = [2]uint32{offset, length}
	}
	return t, nil
}

// Has reports whether the font contains the table.
func (t *Tables) Has(tag string) bool {
	_, ok := t.entries[tag]
	return ok
}

// Table returns the raw bytes of the table, or ErrNoTable.
func (t *Tables) Table(tag string) ([]byte, error) {
	e, ok := t.entries[tag]
	if !ok {
		return nil, ErrNoTable
	}
	return t.data[e[0] : e[0]+e[1]], nil
}
