package emoji

import (
	"bytes"
	"errors"
	"image"
	"image/png"
)

// ErrUnsupportedBitmapFormat indicates a raster format this package
// cannot normalize.
var ErrUnsupportedBitmapFormat = errors.New("emoji: unsupported bitmap format")

// Bitmap is an image glyph normalized to tightly packed BGRA8 pixels,
// row-major, non-premultiplied alpha.
type Bitmap struct {
	// Width and Height are the pixel dimensions.
	Width, Height int

	// Pixels is Width*Height*4 bytes of BGRA data.
	Pixels []byte

	// PPEM is the design size of the bitmap strike.
	PPEM uint16

	// OriginX and OriginY are the glyph bearing in strike pixels.
	OriginX, OriginY float64
}

// decodePNGToBGRA decodes PNG data and converts it to BGRA8.
// PNG stores non-premultiplied RGBA, so only channel order changes.
func decodePNGToBGRA(data []byte, ppem uint16) (*Bitmap, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		nrgba = image.NewNRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				nrgba.Set(x, y, img.At(bounds.Min.X+x, bounds.Min.Y+y))
			}
		}
	}

	b := &Bitmap{Width: w, Height: h, Pixels: make([]byte, w*h*4), PPEM: ppem}
	for y := 0; y < h; y++ {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		dst := b.Pixels[y*w*4:]
		for x := 0; x < w; x++ {
			dst[x*4+0] = src[x*4+2] // B
			dst[x*4+1] = src[x*4+1] // G
			dst[x*4+2] = src[x*4+0] // R
			dst[x*4+3] = src[x*4+3] // A
		}
	}
	return b, nil
}

// unpackMask expands a 1/2/4/8-bit coverage bitmap into BGRA8. Color
// channels are set to full so the value acts as an alpha mask that the
// renderer tints with the text color.
//
// When packed is true the bit stream runs continuously across row
// boundaries; otherwise every row starts on a byte boundary.
func unpackMask(data []byte, width, height, bitDepth int, packed bool) ([]byte, error) {
	switch bitDepth {
	case 1, 2, 4, 8:
	default:
		return nil, ErrUnsupportedBitmapFormat
	}

	out := make([]byte, width*height*4)
	bitPos := 0
	for y := 0; y < height; y++ {
		if !packed {
			bitPos = y * ((width*bitDepth + 7) / 8) * 8
		}
		for x := 0; x < width; x++ {
			v, err := readBits(data, bitPos, bitDepth)
			if err != nil {
				return nil, err
			}
			bitPos += bitDepth

			alpha := scaleToByte(v, bitDepth)
			i := (y*width + x) * 4
			out[i+0] = 0xFF
			out[i+1] = 0xFF
			out[i+2] = 0xFF
			out[i+3] = alpha
		}
	}
	return out, nil
}

// readBits reads count bits starting at bit offset pos, MSB first.
func readBits(data []byte, pos, count int) (uint8, error) {
	var v uint8
	for i := 0; i < count; i++ {
		byteIdx := (pos + i) / 8
		if byteIdx >= len(data) {
			return 0, ErrUnsupportedBitmapFormat
		}
		bit := (data[byteIdx] >> (7 - (pos+i)%8)) & 1
		v = v<<1 | bit
	}
	return v, nil
}

// scaleToByte expands an n-bit value to the full 0..255 range.
func scaleToByte(v uint8, bitDepth int) uint8 {
	switch bitDepth {
	case 1:
		return v * 0xFF
	case 2:
		return v * 0x55
	case 4:
		return v * 0x11
	default:
		return v
	}
}

// unpremultiply reverses premultiplied alpha in place on BGRA8 pixels.
// A zero-alpha pixel clears its color channels.
func unpremultiply(bgra []byte) {
	for i := 0; i+3 < len(bgra); i += 4 {
		a := uint32(bgra[i+3])
		if a == 0 {
			bgra[i+0], bgra[i+1], bgra[i+2] = 0, 0, 0
			continue
		}
		if a == 0xFF {
			continue
		}
		for c := 0; c < 3; c++ {
			v := uint32(bgra[i+c]) * 0xFF / a
			if v > 0xFF {
				v = 0xFF
			}
			bgra[i+c] = uint8(v)
		}
	}
}
