package toktx

import (
	"fmt"

	"github.com/woozymasta/bcn"
	"github.com/woozymasta/toktx/internal/imaging"
)

// BCOptions configures BCn encode and decode (e.g. Workers, QualityLevel).
type BCOptions struct {
	// Encode is passed to the BCn encoder.
	Encode *bcn.EncodeOptions
	// Decode is passed to the BCn decoder.
	Decode *bcn.DecodeOptions
}

// BCImage is a 2D BCn block-compressed image.
type BCImage struct {
	data   []byte
	width  int
	height int
	format Format
	srgb   bool
	decode *bcn.DecodeOptions
}

// NewBCImage wraps a BCn payload. len(data) must match the 4x4 block grid.
func NewBCImage(data []byte, width, height int, format Format, srgb bool) (*BCImage, error) {
	if !format.IsBC() {
		return nil, fmt.Errorf("%w: %s is not a BCn format", ErrUnknownFormat, format)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrZeroDimension, width, height)
	}
	if want := bcDataLength(format, width, height); len(data) != want {
		return nil, fmt.Errorf("%w: %s %dx%d expects %d bytes, got %d",
			ErrPayloadSize, format, width, height, want, len(data))
	}

	return &BCImage{data: data, width: width, height: height, format: format, srgb: srgb}, nil
}

// EncodeBC compresses a raw 2D image into a BCn format. src is not modified.
func EncodeBC(src Image, format Format, opts *BCOptions) (*BCImage, error) {
	raw, ok := src.(*RawImage)
	if !ok {
		return nil, fmt.Errorf("%w: encode from %s image", ErrUnsupportedOperation, src.Kind())
	}
	if !format.IsBC() {
		return nil, fmt.Errorf("%w: %s is not a BCn format", ErrUnknownFormat, format)
	}
	if raw.depth != 1 {
		return nil, fmt.Errorf("%w: BCn volume", ErrUnsupportedOperation)
	}

	img, err := raw.NRGBA()
	if err != nil {
		return nil, err
	}

	var encOpts *bcn.EncodeOptions
	if opts != nil {
		encOpts = opts.Encode
	}

	data, _, _, err := bcn.EncodeImageWithOptions(img, bcnFormat(format), encOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBCEncode, format, err)
	}

	out, err := NewBCImage(data, raw.width, raw.height, format, raw.srgb)
	if err != nil {
		return nil, err
	}
	if opts != nil {
		out.decode = opts.Decode
	}

	return out, nil
}

// Kind implements Image.
func (b *BCImage) Kind() Kind { return KindBC }

// Data implements Image.
func (b *BCImage) Data() []byte { return b.data }

// Size implements Image.
func (b *BCImage) Size() int { return len(b.data) }

// Width implements Image.
func (b *BCImage) Width() int { return b.width }

// Height implements Image.
func (b *BCImage) Height() int { return b.height }

// Depth implements Image.
func (b *BCImage) Depth() int { return 1 }

// Format returns the BCn variant.
func (b *BCImage) Format() Format { return b.format }

// GLFormat implements Image.
func (b *BCImage) GLFormat() uint32 { return glBCFormat(b.format, b.srgb) }

// Resize always fails: compressed blocks are resized from a raw source.
func (b *BCImage) Resize(_, _ int) (Image, error) {
	return nil, ErrResizeCompressed
}

// Convert always fails.
func (b *BCImage) Convert(_ Format) error {
	return ErrConvertCompressed
}

// Decode expands the blocks into an RGBA8 raw image.
func (b *BCImage) Decode() (*RawImage, error) {
	img, err := bcn.DecodeImageWithOptions(b.data, b.width, b.height, bcnFormat(b.format), b.decode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBCDecode, b.format, err)
	}

	return NewRawImageFromNRGBA(imaging.ToNRGBA(img), FormatRGBA, b.srgb)
}
