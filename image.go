package shapedtext

import "sync/atomic"

// ImageDataFormat identifies the encoding of image glyph bytes handed to
// the external image system.
type ImageDataFormat uint8

const (
	// ImageDataBGRA8 is tightly packed BGRA8 pixel data.
	ImageDataBGRA8 ImageDataFormat = iota
	// ImageDataPNG is PNG-encoded data.
	ImageDataPNG
)

// ImageSource identifies decodable image data for the external image
// cache. The engine never decodes through this interface; it only hands
// sources to [Images.Cache] and keeps the returned handle.
type ImageSource interface {
	// Data returns the raw image bytes and their format.
	Data() ([]byte, ImageDataFormat)
}

// ImageVar is a handle to an externally loaded image. Loading is
// asynchronous; Size reports the current known size and may be zero until
// the image resolves. The engine queries nothing else.
type ImageVar interface {
	// Size returns the image's native pixel size.
	Size() Size
}

// Images is the external image cache collaborating on image glyphs.
// Cache must return immediately; content resolves out of band.
type Images interface {
	// Cache returns a handle for the source, deduplicating repeated
	// sources.
	Cache(source ImageSource) ImageVar
}

// imagesBox wraps the Images interface for atomic storage.
type imagesBox struct {
	images Images
}

var imagesPtr atomic.Pointer[imagesBox]

// SetImages installs the external image cache used for image glyphs.
// Without one, image glyphs fall back to fixed-size handles carrying the
// decoded bitmap dimensions.
func SetImages(images Images) {
	imagesPtr.Store(&imagesBox{images: images})
}

// imageCache returns the installed image cache, or nil.
func imageCache() Images {
	if box := imagesPtr.Load(); box != nil {
		return box.images
	}
	return nil
}

// bitmapSource adapts an emoji bitmap to ImageSource.
type bitmapSource struct {
	data   []byte
	format ImageDataFormat
}

func (s bitmapSource) Data() ([]byte, ImageDataFormat) { return s.data, s.format }

// staticImage is an ImageVar with a fixed size, used when no external
// image system is configured.
type staticImage struct {
	size Size
}

func (v staticImage) Size() Size { return v.size }
