package toktx

import (
	"fmt"
	"image"

	"github.com/woozymasta/toktx/internal/imaging"
)

// RawImage is an uncompressed 8-bit interleaved image.
type RawImage struct {
	data   []byte
	width  int
	height int
	depth  int
	// layout is FormatRGB, FormatRGBA or FormatUnknown.
	layout Format
	srgb   bool
	// gl overrides GLFormat for buffers extracted from a container.
	gl uint32
}

// NewRawImage takes ownership of data. layout may be FormatUnknown when the
// texel size is not known; otherwise len(data) must match the dimensions.
func NewRawImage(data []byte, width, height, depth int, layout Format) (*RawImage, error) {
	if depth == 0 {
		depth = 1
	}
	if width <= 0 || height <= 0 || depth <= 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrZeroDimension, width, height, depth)
	}

	switch layout {
	case FormatRGB, FormatRGBA:
		want := width * height * depth * channelsOf(layout)
		if len(data) != want {
			return nil, fmt.Errorf("%w: %s %dx%dx%d expects %d bytes, got %d",
				ErrLayoutSize, layout, width, height, depth, want, len(data))
		}
	case FormatUnknown:
	default:
		return nil, fmt.Errorf("%w: raw layout %s", ErrUnknownFormat, layout)
	}

	return &RawImage{data: data, width: width, height: height, depth: depth, layout: layout, srgb: true}, nil
}

// NewRawImageFromNRGBA copies img into an RGBA or RGB raw image.
func NewRawImageFromNRGBA(img *image.NRGBA, layout Format, srgb bool) (*RawImage, error) {
	b := img.Bounds()

	var data []byte
	switch layout {
	case FormatRGBA:
		data = imaging.PackRGBA(img)
	case FormatRGB:
		data = imaging.PackRGB(img)
	default:
		return nil, fmt.Errorf("%w: raw layout %s", ErrUnknownFormat, layout)
	}

	r, err := NewRawImage(data, b.Dx(), b.Dy(), 1, layout)
	if err != nil {
		return nil, err
	}
	r.srgb = srgb

	return r, nil
}

// LoadImage decodes an image file. Sources with alpha load as RGBA,
// the rest as RGB.
func LoadImage(path string) (*RawImage, error) {
	img, info, err := imaging.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenFile, err)
	}

	layout := FormatRGB
	if info.HasAlpha {
		layout = FormatRGBA
	}

	return NewRawImageFromNRGBA(img, layout, info.SRGB)
}

func channelsOf(layout Format) int {
	if layout == FormatRGB {
		return 3
	}

	return 4
}

// Kind implements Image.
func (r *RawImage) Kind() Kind { return KindRaw }

// Data implements Image.
func (r *RawImage) Data() []byte { return r.data }

// Size implements Image.
func (r *RawImage) Size() int { return len(r.data) }

// Width implements Image.
func (r *RawImage) Width() int { return r.width }

// Height implements Image.
func (r *RawImage) Height() int { return r.height }

// Depth implements Image.
func (r *RawImage) Depth() int { return r.depth }

// Layout returns the channel layout of the buffer.
func (r *RawImage) Layout() Format { return r.layout }

// SRGB reports whether the pixels are sRGB encoded.
func (r *RawImage) SRGB() bool { return r.srgb }

// SetSRGB tags the pixels as sRGB or linear.
func (r *RawImage) SetSRGB(srgb bool) {
	r.srgb = srgb
	r.gl = 0
}

// GLFormat implements Image. Buffers of unknown layout report GL_RGB.
func (r *RawImage) GLFormat() uint32 {
	if r.gl != 0 {
		return r.gl
	}

	switch {
	case r.layout == FormatRGBA && r.srgb:
		return glSRGB8Alpha8
	case r.layout == FormatRGBA:
		return glRGBA
	case r.layout == FormatRGB && r.srgb:
		return glSRGB8
	default:
		return glRGB
	}
}

// NRGBA returns the first slice of the image as NRGBA pixels.
func (r *RawImage) NRGBA() (*image.NRGBA, error) {
	plane := r.width * r.height
	switch r.layout {
	case FormatRGBA:
		return imaging.FromRGBA(r.data[:plane*4], r.width, r.height), nil
	case FormatRGB:
		return imaging.FromRGB(r.data[:plane*3], r.width, r.height), nil
	default:
		return nil, fmt.Errorf("%w: raw image has no known layout", ErrUnsupportedOperation)
	}
}

// Resize implements Image. The aspect ratio is not preserved.
func (r *RawImage) Resize(width, height int) (Image, error) {
	if r.depth != 1 {
		return nil, fmt.Errorf("%w: resize of %d slices", ErrUnsupportedOperation, r.depth)
	}

	src, err := r.NRGBA()
	if err != nil {
		return nil, err
	}

	out, err := imaging.Resize(src, width, height)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrZeroDimension, err)
	}

	return NewRawImageFromNRGBA(out, r.layout, r.srgb)
}

// Convert implements Image for FormatRGB and FormatRGBA.
func (r *RawImage) Convert(layout Format) error {
	if layout != FormatRGB && layout != FormatRGBA {
		return fmt.Errorf("%w: raw layout %s", ErrUnknownFormat, layout)
	}
	if layout == r.layout {
		return nil
	}
	if r.depth != 1 {
		return fmt.Errorf("%w: convert of %d slices", ErrUnsupportedOperation, r.depth)
	}

	src, err := r.NRGBA()
	if err != nil {
		return err
	}

	if layout == FormatRGBA {
		r.data = imaging.PackRGBA(src)
	} else {
		r.data = imaging.PackRGB(src)
	}
	r.layout = layout
	r.gl = 0

	return nil
}
